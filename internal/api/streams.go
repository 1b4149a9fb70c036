package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/injuryshield/ppe-monitor/internal/models"
)

// StartStreamRequest Структура запроса на запуск наблюдения
type StartStreamRequest struct {
	VideoSource string  `json:"video_source"`
	FPS         float64 `json:"fps,omitempty"`
}

// StartStreamHandler публикует команду start для монитора
func (h *Handlers) StartStreamHandler(w http.ResponseWriter, r *http.Request) {
	var req StartStreamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.VideoSource == "" {
		http.Error(w, "video_source is required", http.StatusBadRequest)
		return
	}

	cmd := models.StreamCommand{
		StreamID:    uuid.New().String(),
		Action:      models.CommandStart,
		VideoSource: req.VideoSource,
		FPS:         req.FPS,
	}

	if err := h.producer.SendStreamCommand(cmd); err != nil {
		http.Error(w, "Failed to publish stream command", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(cmd)
}

// StopStreamHandler публикует команду stop
func (h *Handlers) StopStreamHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	streamID := vars["stream_id"]

	stream, err := h.db.GetStream(streamID)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	if stream == nil {
		http.Error(w, "Stream not found", http.StatusNotFound)
		return
	}

	if err := h.producer.SendStreamCommand(models.StreamCommand{
		StreamID: streamID,
		Action:   models.CommandStop,
	}); err != nil {
		http.Error(w, "Failed to publish stream command", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// GetStreamHandler обработчик для получения информации о потоке
func (h *Handlers) GetStreamHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	streamID := vars["stream_id"]

	stream, err := h.db.GetStream(streamID)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	if stream == nil {
		http.Error(w, "Stream not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stream)
}
