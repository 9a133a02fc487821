package main

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/telemux/modemctl/modem"
)

// Server exposes a read-only view of the configured modem session for
// external presentation layers.
type Server struct {
	Logger *slog.Logger
	Modem  *modem.Modem
}

// ServeHTTP implements the http.Handler interface for the Server struct
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.ServeHTTP(w, r)
}

func (s *Server) sendError(w http.ResponseWriter, message string, statusCode int) {
	if message == "" {
		w.WriteHeader(statusCode)
		return
	}

	type ErrorResponse struct {
		Message string `json:"message"`
	}
	resp := ErrorResponse{Message: message}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)

}

// handleStatus serves a snapshot of the connection status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	type StatusResponse struct {
		Connected bool                 `json:"connected"`
		Status    modem.StatusSnapshot `json:"status"`
	}

	resp := StatusResponse{
		Connected: s.Modem.Connected(),
		Status:    s.Modem.Snapshot(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.Logger.Error("Failed to encode status", "error", err)
		s.sendError(w, err.Error(), http.StatusInternalServerError)
	}
}
