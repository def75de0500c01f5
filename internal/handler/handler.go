package handler

import (
	"net/http"

	"github.com/actuallystonmai/meal-recommendation-service/internal/logging"
	"github.com/actuallystonmai/meal-recommendation-service/internal/service"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// maxBodyBytes caps request bodies; a recommendation request is a few hundred bytes.
const maxBodyBytes = 1 << 20

type Handler struct {
	service *service.Service
	log     zerolog.Logger
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		service: svc,
		log:     logging.Component("handler"),
	}
}

// write JSON response
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writes JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// GET /ready
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if !h.service.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, StatusResponse{Status: "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ready"})
}
