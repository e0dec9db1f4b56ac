package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"photoshoot-server/internal/domain"
	"photoshoot-server/internal/queue"
)

type generateRequest struct {
	PhotoIDs         []string `json:"photo_ids"`
	Scenarios        []string `json:"scenarios"`
	PaymentReference string   `json:"payment_reference"`
	Sample           bool     `json:"sample"`
}

type enqueueResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}

// GenerationsCreate queues a generation run. Payment is checked by the worker
// right before any task work, so a queued request does not hold a credit.
func (a *App) GenerationsCreate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if len(req.PhotoIDs) == 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "photo_ids required")
		return
	}
	if len(req.Scenarios) == 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "scenarios required")
		return
	}

	env := queue.Envelope{
		ID:         uuid.NewString(),
		Kind:       queue.KindGeneration,
		EnqueuedAt: time.Now().UTC(),
		Generation: &queue.GenerationPayload{
			UserID:           userID,
			PhotoIDs:         req.PhotoIDs,
			Scenarios:        req.Scenarios,
			PaymentReference: req.PaymentReference,
			Sample:           req.Sample,
		},
	}
	if err := a.Queue.Enqueue(r.Context(), env); err != nil {
		a.Logger.Error().Err(err).Msg("enqueue generation")
		a.error(w, http.StatusInternalServerError, "internal", "failed to queue generation")
		return
	}
	a.json(w, http.StatusAccepted, enqueueResponse{RequestID: env.ID, Status: "queued"})
}

type jobResponse struct {
	ID             string     `json:"id"`
	Status         string     `json:"status"`
	TotalTasks     int        `json:"total_tasks"`
	CompletedTasks int        `json:"completed_tasks"`
	Scenarios      []string   `json:"scenarios"`
	IsSample       bool       `json:"is_sample"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// GenerationsGet reports the status of one job.
func (a *App) GenerationsGet(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	jobID := chi.URLParam(r, "id")
	job, err := a.Jobs.GetByID(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "job not found")
			return
		}
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("load job")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load job")
		return
	}
	if job.UserID != userID {
		a.error(w, http.StatusNotFound, "not_found", "job not found")
		return
	}
	a.json(w, http.StatusOK, jobResponse{
		ID:             job.ID,
		Status:         string(job.Status),
		TotalTasks:     job.TotalTasks,
		CompletedTasks: job.CompletedTasks,
		Scenarios:      job.Scenarios,
		IsSample:       job.IsSample,
		CreatedAt:      job.CreatedAt,
		CompletedAt:    job.CompletedAt,
	})
}
