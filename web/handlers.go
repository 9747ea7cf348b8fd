package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"markestedt/refix/logger"
	"markestedt/refix/storage"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("Failed to write response", zap.Error(err))
	}
}

// historyAvailable reports 404 when history is turned off
func (s *Server) historyAvailable(w http.ResponseWriter) bool {
	if s.history == nil {
		http.Error(w, "History is disabled", http.StatusNotFound)
		return false
	}
	return true
}

// handleStatus returns the current agent status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Status())
}

func (s *Server) handleEnable(w http.ResponseWriter, r *http.Request) {
	s.ctrl.Enable()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "enabling"})
}

func (s *Server) handleDisable(w http.ResponseWriter, r *http.Request) {
	s.ctrl.Disable()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "disabling"})
}

// handleStats returns statistics for the last ?days= days (default 7)
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if !s.historyAvailable(w) {
		return
	}

	days := 7
	if d, err := strconv.Atoi(r.URL.Query().Get("days")); err == nil && d > 0 {
		days = d
	}

	overall, err := s.history.GetOverallStats(days)
	if err != nil {
		logger.Error("Failed to get overall stats", zap.Error(err))
		http.Error(w, "Failed to get statistics", http.StatusInternalServerError)
		return
	}

	daily, err := s.history.GetDailyStats(days)
	if err != nil {
		logger.Error("Failed to get daily stats", zap.Error(err))
		http.Error(w, "Failed to get statistics", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"days":    days,
		"overall": overall,
		"daily":   daily,
	})
}

// handleGetHistory returns paginated rewrite history
func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	if !s.historyAvailable(w) {
		return
	}

	limit := 50
	offset := 0
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		limit = l
	}
	if o, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && o >= 0 {
		offset = o
	}

	rewrites, err := s.history.GetRewrites(limit, offset)
	if err != nil {
		logger.Error("Failed to get rewrites", zap.Error(err))
		http.Error(w, "Failed to get history", http.StatusInternalServerError)
		return
	}

	total, err := s.history.GetRewriteCount()
	if err != nil {
		logger.Error("Failed to get rewrite count", zap.Error(err))
		http.Error(w, "Failed to get history", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rewrites": rewrites,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

// handleDeleteHistory deletes a rewrite by ID
func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	if !s.historyAvailable(w) {
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}

	if err := s.history.DeleteRewrite(id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "Rewrite not found", http.StatusNotFound)
			return
		}
		logger.Error("Failed to delete rewrite", zap.Error(err), zap.Int64("id", id))
		http.Error(w, "Failed to delete rewrite", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
