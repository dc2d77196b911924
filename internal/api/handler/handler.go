package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"arbmonitor/internal/domain"
	"arbmonitor/internal/monitor"
)

type BatchReader interface {
	LatestInter() (domain.InterBatch, bool)
	LatestTri() (domain.TriBatch, bool)
}

type StatusReader interface {
	Status() monitor.StatusSnapshot
}

type Handler struct {
	batches BatchReader
	status  StatusReader
}

func NewHandler(batches BatchReader, status StatusReader) *Handler {
	return &Handler{batches: batches, status: status}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, statusCode int, errorMsg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error: errorMsg,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}

// minSpreadParam reads the optional ?min_spread= filter.
func minSpreadParam(r *http.Request) (*float64, bool) {
	raw := r.URL.Query().Get("min_spread")
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, false
	}
	return &v, true
}
