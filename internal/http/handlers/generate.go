package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"levelforge/internal/dispatch"
	"levelforge/internal/domain"
	"levelforge/internal/guard"
)

// readConfigBody buffers and guards an untrusted configuration payload.
// It returns nil after writing the error response when the payload is
// rejected.
func (a *App) readConfigBody(w http.ResponseWriter, r *http.Request) []byte {
	body, err := io.ReadAll(io.LimitReader(r.Body, int64(a.Guard.MaxConfigBytes())+1))
	if err != nil {
		a.fail(w, r, http.StatusBadRequest, "VALIDATION", "invalid_body")
		return nil
	}

	out := a.Guard.ValidateConfigInput(body)
	if out.Valid {
		return body
	}
	status := http.StatusBadRequest
	if out.Code == guard.CodeTooLarge {
		status = http.StatusRequestEntityTooLarge
	}
	a.fail(w, r, status, out.Code, out.Message)
	return nil
}

// sanitizeRequest cleans the free-text fields before the request reaches
// routing or generation.
func (a *App) sanitizeRequest(req *domain.GenerationRequest) {
	req.Name = a.Guard.SanitizeText(guard.SanitizeHTML(req.Name))
	req.Algorithm = a.Guard.SanitizeText(guard.SanitizeHTML(req.Algorithm))
	for i := range req.Entities {
		req.Entities[i].Type = a.Guard.SanitizeText(guard.SanitizeHTML(req.Entities[i].Type))
	}
}

// Generate handles one generation request. Cheap requests run inline and
// return the level; expensive ones come back as a job to poll.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	body := a.readConfigBody(w, r)
	if body == nil {
		return
	}

	var req domain.GenerationRequest
	if err := json.Unmarshal(body, &req); err != nil {
		a.fail(w, r, http.StatusBadRequest, "VALIDATION", "invalid_body")
		return
	}
	a.sanitizeRequest(&req)

	if req.Width <= 0 || req.Height <= 0 {
		a.fail(w, r, http.StatusBadRequest, "VALIDATION", "width and height must be positive")
		return
	}
	if req.Name != "" && !guard.IsValidFileName(req.Name) {
		a.fail(w, r, http.StatusBadRequest, "VALIDATION", "name is not a valid file name")
		return
	}

	if a.Router.Decide(req) == dispatch.Async {
		id := a.Orch.StartSingle(req)
		a.json(w, http.StatusAccepted, map[string]string{
			"job_id":     id,
			"status_url": "/v1/jobs/" + id,
		})
		return
	}

	level, err := a.Gen.Generate(r.Context(), req)
	if err != nil {
		a.Logger.Error().Err(err).Msg("inline generation failed")
		a.fail(w, r, http.StatusInternalServerError, "INTERNAL", "internal")
		return
	}
	a.json(w, http.StatusOK, level)
}
