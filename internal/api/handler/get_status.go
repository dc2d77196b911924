package handler

import (
	"net/http"
)

// GetStatus godoc
// @Summary Monitor status
// @Description Cycle counters and the outcome of the latest cycle
// @Tags Monitor
// @Produce json
// @Success 200 {object} monitor.StatusSnapshot
// @Router /monitor/status [get]
func (h *Handler) GetStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, h.status.Status())
}
