package api

import (
	"context"
	"net/http"

	"github.com/shaiso/Lineage/internal/domain"
	"github.com/shaiso/Lineage/internal/telemetry"
)

// UpsertDataset создаёт или обновляет dataset.
// PUT /api/v1/namespaces/{namespace}/datasets/{dataset}
func (h *Handler) UpsertDataset(w http.ResponseWriter, r *http.Request) {
	h.writeDataset(w, r, h.datasets.UpsertDataset)
}

// LegacyCreateOrUpdate: устаревший путь записи, 410 если отключён.
// POST /api/v1/namespaces/{namespace}/datasets/{dataset}
func (h *Handler) LegacyCreateOrUpdate(w http.ResponseWriter, r *http.Request) {
	h.writeDataset(w, r, h.datasets.CreateOrUpdate)
}

type datasetWriteFunc func(ctx context.Context, namespace, name string, meta domain.DatasetMeta) (*domain.Dataset, error)

func (h *Handler) writeDataset(w http.ResponseWriter, r *http.Request, write datasetWriteFunc) {
	namespace := r.PathValue("namespace")
	name := r.PathValue("dataset")

	var req DatasetRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	meta, err := req.Meta()
	if HandleServiceError(w, h.logger, err, "") {
		return
	}

	ds, err := write(r.Context(), namespace, name, meta)
	if HandleServiceError(w, h.logger, err, "dataset not found") {
		return
	}

	telemetry.WithDataset(h.logger, namespace, name).Debug("dataset written", "run_id", meta.RunID.String())
	Success(w, DatasetFromDomain(*ds))
}

// GetDataset возвращает dataset.
// GET /api/v1/namespaces/{namespace}/datasets/{dataset}
func (h *Handler) GetDataset(w http.ResponseWriter, r *http.Request) {
	id := domain.DatasetID{Namespace: r.PathValue("namespace"), Name: r.PathValue("dataset")}

	ds, err := h.catalog.GetDataset(r.Context(), id)
	if HandleServiceError(w, h.logger, err, "dataset not found") {
		return
	}
	Success(w, DatasetFromDomain(*ds))
}

// ListDatasets возвращает datasets namespace.
// GET /api/v1/namespaces/{namespace}/datasets?limit=...&offset=...
func (h *Handler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	namespace := r.PathValue("namespace")
	if HandleServiceError(w, h.logger, domain.ValidateNamespace(namespace), "") {
		return
	}

	p, err := parsePage(r)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	datasets, err := h.catalog.ListDatasets(r.Context(), namespace, p.limit, p.offset)
	if HandleServiceError(w, h.logger, err, "") {
		return
	}

	result := make([]DatasetResponse, len(datasets))
	for i, ds := range datasets {
		result[i] = DatasetFromDomain(ds)
	}
	List(w, result, len(result))
}

// ListDatasetVersions возвращает версии dataset, новые первыми.
// GET /api/v1/namespaces/{namespace}/datasets/{dataset}/versions
func (h *Handler) ListDatasetVersions(w http.ResponseWriter, r *http.Request) {
	id := domain.DatasetID{Namespace: r.PathValue("namespace"), Name: r.PathValue("dataset")}

	p, err := parsePage(r)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	// 404 для несуществующего dataset, а не пустой список
	if _, err := h.catalog.GetDataset(r.Context(), id); HandleServiceError(w, h.logger, err, "dataset not found") {
		return
	}

	versions, err := h.catalog.ListVersions(r.Context(), id, p.limit, p.offset)
	if HandleServiceError(w, h.logger, err, "dataset not found") {
		return
	}
	List(w, versionsFromDomain(versions), len(versions))
}
