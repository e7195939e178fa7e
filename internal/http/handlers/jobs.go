package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"levelforge/internal/domain"
)

type jobResponse struct {
	JobID          string    `json:"job_id"`
	Kind           string    `json:"kind"`
	State          string    `json:"state"`
	TotalUnits     int       `json:"total_units"`
	CompletedUnits int       `json:"completed_units"`
	Progress       int       `json:"progress"`
	Error          string    `json:"error,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// JobStatus returns the current lifecycle record. Reading refreshes the
// cache entry's sliding expiry, so active pollers keep their job alive up
// to the absolute TTL.
func (a *App) JobStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	job, ok := a.Cache.Get(id)
	if !ok {
		a.fail(w, r, http.StatusNotFound, "NOT_FOUND", "not_found")
		return
	}
	a.json(w, http.StatusOK, toJobResponse(job))
}

func toJobResponse(job domain.Job) jobResponse {
	progress := 0
	if job.TotalUnits > 0 {
		progress = job.CompletedUnits * 100 / job.TotalUnits
	}
	return jobResponse{
		JobID:          job.ID,
		Kind:           string(job.Kind),
		State:          string(job.State),
		TotalUnits:     job.TotalUnits,
		CompletedUnits: job.CompletedUnits,
		Progress:       progress,
		Error:          job.ErrorMessage,
		CreatedAt:      job.CreatedAt,
		UpdatedAt:      job.LastUpdatedAt,
	}
}
