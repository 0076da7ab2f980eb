package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/shaiso/Lineage/internal/domain"
	"github.com/shaiso/Lineage/internal/service"
)

// runActions: действие в URL -> целевое состояние run.
var runActions = map[string]domain.RunState{
	"start":    domain.RunStateRunning,
	"complete": domain.RunStateCompleted,
	"fail":     domain.RunStateFailed,
	"abort":    domain.RunStateAborted,
}

// CreateRun создаёт run в состоянии NEW.
// POST /api/v1/namespaces/{namespace}/jobs/{job}/runs
func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	// пустое тело допустимо
	var req CreateRunRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		BadRequest(w, "invalid request body")
		return
	}

	run, err := h.runs.CreateRun(r.Context(), service.CreateRunRequest{
		Job:              domain.JobID{Namespace: r.PathValue("namespace"), Name: r.PathValue("job")},
		Args:             req.Args,
		NominalStartTime: req.NominalStartTime,
		NominalEndTime:   req.NominalEndTime,
	})
	if HandleServiceError(w, h.logger, err, "") {
		return
	}
	Created(w, RunFromDomain(*run))
}

// ListRuns возвращает runs job, новые первыми.
// GET /api/v1/namespaces/{namespace}/jobs/{job}/runs
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	job := domain.JobID{Namespace: r.PathValue("namespace"), Name: r.PathValue("job")}

	p, err := parsePage(r)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	runs, err := h.catalog.ListRuns(r.Context(), job, p.limit, p.offset)
	if HandleServiceError(w, h.logger, err, "") {
		return
	}

	result := make([]RunResponse, len(runs))
	for i, run := range runs {
		result[i] = RunFromDomain(run)
	}
	List(w, result, len(result))
}

// GetRun возвращает run по ID.
// GET /api/v1/runs/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id, ok := runIDFromPath(w, r)
	if !ok {
		return
	}

	run, err := h.runs.GetRun(r.Context(), id)
	if HandleServiceError(w, h.logger, err, "") {
		return
	}
	Success(w, RunFromDomain(*run))
}

// ListRunOutputs возвращает версии datasets, записанные run.
// GET /api/v1/runs/{id}/outputs
func (h *Handler) ListRunOutputs(w http.ResponseWriter, r *http.Request) {
	id, ok := runIDFromPath(w, r)
	if !ok {
		return
	}

	if _, err := h.runs.GetRun(r.Context(), id); HandleServiceError(w, h.logger, err, "") {
		return
	}

	outputs, err := h.catalog.FindOutputDatasetVersions(r.Context(), id)
	if HandleServiceError(w, h.logger, err, "") {
		return
	}
	List(w, versionsFromDomain(outputs), len(outputs))
}

// MarkRun переводит run в новое состояние.
// POST /api/v1/runs/{id}/{start|complete|fail|abort}
func (h *Handler) MarkRun(w http.ResponseWriter, r *http.Request) {
	id, ok := runIDFromPath(w, r)
	if !ok {
		return
	}

	action := r.PathValue("action")
	next, known := runActions[action]
	if !known {
		NotFound(w, "unknown run action "+action)
		return
	}

	run, err := h.runs.MarkRunAs(r.Context(), id, next)
	if HandleServiceError(w, h.logger, err, "") {
		return
	}
	Success(w, RunFromDomain(*run))
}

func runIDFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid run id")
		return uuid.Nil, false
	}
	return id, true
}
