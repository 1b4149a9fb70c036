package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

const defaultHistoryLimit = 100

// GetComplianceLogsHandler обработчик для получения последних записей соответствия
func (h *Handlers) GetComplianceLogsHandler(w http.ResponseWriter, r *http.Request) {
	windows, err := h.db.GetRecentComplianceLogs(historyLimit(r))
	if err != nil {
		http.Error(w, "Failed to fetch compliance logs", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(windows)
}

// GetViolationsHandler обработчик для получения последних событий нарушений
func (h *Handlers) GetViolationsHandler(w http.ResponseWriter, r *http.Request) {
	events, err := h.db.GetRecentViolations(historyLimit(r))
	if err != nil {
		http.Error(w, "Failed to fetch violation events", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(events)
}

// ResolveViolationHandler помечает нарушение как рассмотренное
func (h *Handlers) ResolveViolationHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	eventID, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid violation id", http.StatusBadRequest)
		return
	}

	if err := h.db.ResolveViolation(eventID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Violation not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func historyLimit(r *http.Request) int {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	return limit
}
