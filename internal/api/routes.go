package api

import (
	"net/http"
)

// RegisterRoutes регистрирует маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	chain := Chain(
		Metrics(h.requests),
		Recovery(h.logger),
		Logging(h.logger),
	)

	// Datasets
	mux.Handle("GET /api/v1/namespaces/{namespace}/datasets", chain(http.HandlerFunc(h.ListDatasets)))
	mux.Handle("GET /api/v1/namespaces/{namespace}/datasets/{dataset}", chain(http.HandlerFunc(h.GetDataset)))
	mux.Handle("PUT /api/v1/namespaces/{namespace}/datasets/{dataset}", chain(http.HandlerFunc(h.UpsertDataset)))
	mux.Handle("POST /api/v1/namespaces/{namespace}/datasets/{dataset}", chain(http.HandlerFunc(h.LegacyCreateOrUpdate)))
	mux.Handle("GET /api/v1/namespaces/{namespace}/datasets/{dataset}/versions", chain(http.HandlerFunc(h.ListDatasetVersions)))

	// Runs
	mux.Handle("GET /api/v1/namespaces/{namespace}/jobs/{job}/runs", chain(http.HandlerFunc(h.ListRuns)))
	mux.Handle("POST /api/v1/namespaces/{namespace}/jobs/{job}/runs", chain(http.HandlerFunc(h.CreateRun)))
	mux.Handle("GET /api/v1/runs/{id}", chain(http.HandlerFunc(h.GetRun)))
	mux.Handle("GET /api/v1/runs/{id}/outputs", chain(http.HandlerFunc(h.ListRunOutputs)))
	mux.Handle("POST /api/v1/runs/{id}/{action}", chain(http.HandlerFunc(h.MarkRun)))
}
