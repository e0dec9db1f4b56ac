package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"photoshoot-server/internal/domain"
	"photoshoot-server/internal/queue"
)

// PhotosValidate queues a content check for one photo. Photos already in a
// terminal state are reported back without queueing.
func (a *App) PhotosValidate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	photoID := chi.URLParam(r, "id")
	photo := a.loadPhotoForUser(r.Context(), w, photoID, userID)
	if photo == nil {
		return
	}
	if photo.ValidationStatus.Terminal() {
		a.json(w, http.StatusOK, map[string]any{
			"photo_id": photo.ID,
			"status":   photo.ValidationStatus,
			"warnings": photo.Warnings,
		})
		return
	}

	env := queue.Envelope{
		ID:         uuid.NewString(),
		Kind:       queue.KindValidation,
		EnqueuedAt: time.Now().UTC(),
		Validation: &queue.ValidationPayload{PhotoID: photo.ID},
	}
	if err := a.Queue.Enqueue(r.Context(), env); err != nil {
		a.Logger.Error().Err(err).Str("photo_id", photo.ID).Msg("enqueue validation")
		a.error(w, http.StatusInternalServerError, "internal", "failed to queue validation")
		return
	}
	a.json(w, http.StatusAccepted, map[string]any{
		"photo_id": photo.ID,
		"status":   domain.ValidationPending,
	})
}

// PhotosBypass marks a photo as exempt from content checks.
func (a *App) PhotosBypass(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	photoID := chi.URLParam(r, "id")
	photo := a.loadPhotoForUser(r.Context(), w, photoID, userID)
	if photo == nil {
		return
	}
	if err := a.Photos.SetValidation(r.Context(), photo.ID, domain.ValidationBypassed, nil); err != nil {
		a.Logger.Error().Err(err).Str("photo_id", photo.ID).Msg("bypass photo")
		a.error(w, http.StatusInternalServerError, "internal", "failed to update photo")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"photo_id": photo.ID,
		"status":   domain.ValidationBypassed,
	})
}

// loadPhotoForUser fetches the photo and enforces ownership, writing the
// error response itself. A nil photo means the response is already sent.
func (a *App) loadPhotoForUser(ctx context.Context, w http.ResponseWriter, photoID, userID string) *domain.SourcePhoto {
	photo, err := a.Photos.GetByID(ctx, photoID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "photo not found")
			return nil
		}
		a.Logger.Error().Err(err).Str("photo_id", photoID).Msg("load photo")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load photo")
		return nil
	}
	if photo.UserID != userID {
		a.error(w, http.StatusNotFound, "not_found", "photo not found")
		return nil
	}
	return photo
}
