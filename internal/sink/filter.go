package sink

import "arbmonitor/internal/domain"

// Threshold is an optional per-sink minimum spread. A nil threshold keeps every record.
type Threshold *float64

func MinSpread(v float64) Threshold { return &v }

func filterInter(spreads []domain.Spread, threshold Threshold) []domain.Spread {
	if threshold == nil {
		return spreads
	}
	out := make([]domain.Spread, 0, len(spreads))
	for _, s := range spreads {
		if s.Value >= *threshold {
			out = append(out, s)
		}
	}
	return out
}

func filterTri(spreads []domain.TriSpread, threshold Threshold) []domain.TriSpread {
	if threshold == nil {
		return spreads
	}
	out := make([]domain.TriSpread, 0, len(spreads))
	for _, s := range spreads {
		if s.Value >= *threshold {
			out = append(out, s)
		}
	}
	return out
}
