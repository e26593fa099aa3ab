package httpapi

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"quiosco/notify-svc/internal/service"
	"quiosco/notify-svc/internal/storage"

	"github.com/gorilla/mux"
)

const defaultLimit = 20

type Handler struct {
	Outbox service.OutboxReader
}

func NewHandler(outbox service.OutboxReader) *Handler {
	return &Handler{Outbox: outbox}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.healthCheck).Methods("GET")
	r.HandleFunc("/api/notifications", h.listNotifications).Methods("GET")
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "notify-svc",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// listNotifications returns the newest outbox entries; limit is clamped to the outbox size.
func (h *Handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 {
		limit = defaultLimit
	}
	if limit > storage.OutboxLimit {
		limit = storage.OutboxLimit
	}

	notifications, err := h.Outbox.Recent(r.Context(), limit)
	if err != nil {
		log.Printf("ERROR: reading outbox: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Error al obtener las notificaciones"})
		return
	}
	writeJSON(w, http.StatusOK, notifications)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
