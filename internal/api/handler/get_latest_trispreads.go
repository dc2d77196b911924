package handler

import (
	"net/http"
	"time"

	"arbmonitor/internal/domain"
)

type TriSpreadView struct {
	Exchange     string     `json:"exchange" example:"binance"`
	Route        string     `json:"route" example:"BNB/BTC|ADA/BNB|ADA/BTC"`
	Symbols      [3]string  `json:"symbols"`
	Prices       [3]float64 `json:"prices"`
	DirectRate   float64    `json:"direct_rate" example:"0.0102"`
	ViaRate      float64    `json:"via_rate" example:"0.01025"`
	Spread       float64    `json:"spread" example:"0.00005"`
	Leg2Fallback bool       `json:"leg2_fallback" example:"false"`
}

type LatestTriSpreadsResponse struct {
	CycleID   string          `json:"cycle_id" example:"77b5d9f5-0569-47e3-aee2-f659d59fbd97"`
	Timestamp time.Time       `json:"timestamp" example:"2025-01-02T15:04:05Z"`
	Routes    int             `json:"routes" example:"1"`
	Spreads   []TriSpreadView `json:"spreads"`
}

// GetLatestTriSpreads godoc
// @Summary Latest triangular spreads
// @Description Spreads produced by the most recent triangular cycle
// @Tags Spreads
// @Produce json
// @Param min_spread query number false "Only spreads at or above this value"
// @Success 200 {object} LatestTriSpreadsResponse
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse "no cycle finished yet"
// @Router /trispreads/latest [get]
func (h *Handler) GetLatestTriSpreads(w http.ResponseWriter, r *http.Request) {
	minSpread, ok := minSpreadParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid min_spread")
		return
	}

	batch, found := h.batches.LatestTri()
	if !found {
		writeError(w, http.StatusNotFound, domain.ErrNoBatchYet.Error())
		return
	}

	res := LatestTriSpreadsResponse{
		CycleID:   batch.CycleID.String(),
		Timestamp: batch.Timestamp,
		Routes:    len(batch.Routes),
		Spreads:   make([]TriSpreadView, 0, len(batch.Spreads)),
	}
	for _, s := range batch.Spreads {
		if minSpread != nil && s.Value < *minSpread {
			continue
		}
		res.Spreads = append(res.Spreads, TriSpreadView{
			Exchange:     s.Route.Exchange,
			Route:        s.Route.String(),
			Symbols:      s.Route.Symbols(),
			Prices:       s.Prices,
			DirectRate:   s.DirectRate,
			ViaRate:      s.ViaRate,
			Spread:       s.Value,
			Leg2Fallback: s.Leg2Fallback,
		})
	}
	writeJSON(w, res)
}
