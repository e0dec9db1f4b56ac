package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"photoshoot-server/internal/domain"
)

type resultResponse struct {
	ID           string    `json:"id"`
	JobID        string    `json:"job_id"`
	PhotoID      string    `json:"photo_id"`
	Scenario     string    `json:"scenario"`
	StorageKey   string    `json:"storage_key"`
	ProfileOrder int       `json:"profile_order,omitempty"`
	IsSample     bool      `json:"is_sample,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ResultsList returns all of the caller's generated results.
func (a *App) ResultsList(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	results, err := a.Results.ListByUser(r.Context(), userID)
	if err != nil {
		a.Logger.Error().Err(err).Msg("list results")
		a.error(w, http.StatusInternalServerError, "internal", "failed to list results")
		return
	}
	out := make([]resultResponse, 0, len(results))
	for _, res := range results {
		out = append(out, resultResponse{
			ID:           res.ID,
			JobID:        res.JobID,
			PhotoID:      res.PhotoID,
			Scenario:     res.Scenario,
			StorageKey:   res.StorageKey,
			ProfileOrder: res.ProfileOrder,
			IsSample:     res.IsSample,
			CreatedAt:    res.CreatedAt,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"results": out})
}

type profileSlotRequest struct {
	Slot int `json:"slot"`
}

// ResultsSetProfile pins a result into one of the profile slots, displacing
// whatever held the slot before.
func (a *App) ResultsSetProfile(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	resultID := chi.URLParam(r, "id")
	var req profileSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if err := a.Selection.SetSlot(r.Context(), userID, resultID, req.Slot); err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidSlot):
			a.error(w, http.StatusBadRequest, "bad_request", "slot out of range")
		case errors.Is(err, domain.ErrNotFound):
			a.error(w, http.StatusNotFound, "not_found", "result not found")
		default:
			a.Logger.Error().Err(err).Str("result_id", resultID).Msg("set profile slot")
			a.error(w, http.StatusInternalServerError, "internal", "failed to update profile slot")
		}
		return
	}
	a.json(w, http.StatusOK, map[string]any{"result_id": resultID, "slot": req.Slot})
}
