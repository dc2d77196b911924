package handler

import (
	"net/http"
	"time"

	"arbmonitor/internal/domain"
)

type SpreadView struct {
	BuyExchange  string  `json:"buy_exchange" example:"bitstamp"`
	SellExchange string  `json:"sell_exchange" example:"coinbase"`
	CurrencyPair string  `json:"currency_pair" example:"BTC/USD"`
	BuyPrice     float64 `json:"buy_price" example:"64000.5"`
	SellPrice    float64 `json:"sell_price" example:"64012.1"`
	Spread       float64 `json:"spread" example:"11.6"`
	Profitable   bool    `json:"profitable" example:"true"`
}

type LatestSpreadsResponse struct {
	CycleID   string       `json:"cycle_id" example:"77b5d9f5-0569-47e3-aee2-f659d59fbd97"`
	Timestamp time.Time    `json:"timestamp" example:"2025-01-02T15:04:05Z"`
	Sources   int          `json:"sources" example:"4"`
	Spreads   []SpreadView `json:"spreads"`
}

// GetLatestSpreads godoc
// @Summary Latest inter-exchange spreads
// @Description Spreads produced by the most recent inter-exchange cycle
// @Tags Spreads
// @Produce json
// @Param min_spread query number false "Only spreads at or above this value"
// @Success 200 {object} LatestSpreadsResponse
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse "no cycle finished yet"
// @Router /spreads/latest [get]
func (h *Handler) GetLatestSpreads(w http.ResponseWriter, r *http.Request) {
	minSpread, ok := minSpreadParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid min_spread")
		return
	}

	batch, found := h.batches.LatestInter()
	if !found {
		writeError(w, http.StatusNotFound, domain.ErrNoBatchYet.Error())
		return
	}

	res := LatestSpreadsResponse{
		CycleID:   batch.CycleID.String(),
		Timestamp: batch.Timestamp,
		Sources:   len(batch.Sources),
		Spreads:   make([]SpreadView, 0, len(batch.Spreads)),
	}
	for _, s := range batch.Spreads {
		if minSpread != nil && s.Value < *minSpread {
			continue
		}
		res.Spreads = append(res.Spreads, SpreadView{
			BuyExchange:  s.Buy.Exchange,
			SellExchange: s.Sell.Exchange,
			CurrencyPair: s.Pair.String(),
			BuyPrice:     s.BuyPrice(),
			SellPrice:    s.SellPrice(),
			Spread:       s.Value,
			Profitable:   s.Profitable(),
		})
	}
	writeJSON(w, res)
}
