package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"levelforge/internal/domain"
	"levelforge/internal/guard"
	"levelforge/internal/orchestrator"
)

func (a *App) decodeBatch(w http.ResponseWriter, r *http.Request) (domain.BatchRequest, bool) {
	body := a.readConfigBody(w, r)
	if body == nil {
		return domain.BatchRequest{}, false
	}
	var req domain.BatchRequest
	if err := json.Unmarshal(body, &req); err != nil {
		a.fail(w, r, http.StatusBadRequest, "VALIDATION", "invalid_body")
		return domain.BatchRequest{}, false
	}
	req.SessionID = a.Guard.SanitizeText(guard.SanitizeHTML(req.SessionID))
	a.sanitizeRequest(&req.BaseConfig)
	return req, true
}

// StartBatch admits a batch job and returns its identifier immediately.
func (a *App) StartBatch(w http.ResponseWriter, r *http.Request) {
	req, ok := a.decodeBatch(w, r)
	if !ok {
		return
	}

	id, v, err := a.Orch.StartBatch(req)
	if err != nil {
		a.json(w, http.StatusBadRequest, map[string]any{
			"error":        "batch validation failed",
			"code":         "VALIDATION",
			"errors":       v.Errors,
			"total_levels": v.TotalLevels,
		})
		return
	}

	a.json(w, http.StatusAccepted, map[string]any{
		"job_id":       id,
		"total_levels": v.TotalLevels,
		"status_url":   "/v1/jobs/" + id,
	})
}

// ValidateBatch is the pure pre-flight check: nothing is admitted.
func (a *App) ValidateBatch(w http.ResponseWriter, r *http.Request) {
	req, ok := a.decodeBatch(w, r)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, orchestrator.ValidateBatchRequest(req, a.Orch.Limits()))
}

// CancelBatch flags a job for cooperative cancellation.
func (a *App) CancelBatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := a.Orch.Cancel(id)
	switch {
	case err == nil:
		a.json(w, http.StatusOK, map[string]string{"job_id": id, "status": "cancelling"})
	case errors.Is(err, domain.ErrNotFound):
		a.fail(w, r, http.StatusNotFound, "NOT_FOUND", "not_found")
	case errors.Is(err, domain.ErrInvalidState):
		a.fail(w, r, http.StatusConflict, "INVALID_STATE", "invalid_state")
	default:
		a.Logger.Error().Err(err).Str("job_id", id).Msg("cancel failed")
		a.fail(w, r, http.StatusInternalServerError, "INTERNAL", "internal")
	}
}
