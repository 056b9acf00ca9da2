package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// HealthHandler отвечает на проверку живости. Зависимости опрашиваются
// при старте сервиса, сам маршрут всегда отвечает OK.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) RegisterRoutes(router chi.Router) {
	router.Get("/health", h.handleHealth)
}

func (h *HealthHandler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}
