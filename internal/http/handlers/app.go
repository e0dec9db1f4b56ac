package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"photoshoot-server/internal/domain"
	"photoshoot-server/internal/queue"
	"photoshoot-server/internal/selection"
)

// Enqueuer hands jobs to the background worker.
type Enqueuer interface {
	Enqueue(ctx context.Context, env queue.Envelope) error
}

// App bundles the dependencies the HTTP handlers need.
type App struct {
	Logger    zerolog.Logger
	Jobs      domain.GenerationJobRepository
	Results   domain.ResultRepository
	Photos    domain.PhotoRepository
	Queue     Enqueuer
	Selection *selection.Service
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, errorResponse{Error: code, Message: message})
}

// currentUserID extracts the caller identity placed on the request by the
// authenticating proxy.
func (a *App) currentUserID(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}
