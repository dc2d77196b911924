package spread

import (
	"fmt"

	"arbmonitor/internal/domain"
)

// ComputeSpread returns sell.bid - buy.ask for two snapshots of the same currency pair.
func ComputeSpread(buy, sell domain.PriceSnapshot) (domain.Spread, error) {
	if buy.Pair != sell.Pair {
		return domain.Spread{}, fmt.Errorf("%s %s vs %s %s: %w", buy.Exchange, buy.Pair, sell.Exchange, sell.Pair, domain.ErrDifferentCurrencies)
	}
	if !buy.HasPrices() {
		return domain.Spread{}, fmt.Errorf("%s %s: %w", buy.Exchange, buy.Pair, domain.ErrMissingPrice)
	}
	if !sell.HasPrices() {
		return domain.Spread{}, fmt.Errorf("%s %s: %w", sell.Exchange, sell.Pair, domain.ErrMissingPrice)
	}
	return domain.Spread{
		Buy:   buy,
		Sell:  sell,
		Pair:  buy.Pair,
		Value: *sell.Bid - *buy.Ask,
	}, nil
}

// Pairwise evaluates every unordered combination of snapshots quoting the same pair.
// Both directions are computed and the one with the larger spread is kept.
// Combinations failing a precondition are reported in skipped and left out.
func Pairwise(snapshots []domain.PriceSnapshot) (spreads []domain.Spread, skipped []error) {
	spreads = make([]domain.Spread, 0, len(snapshots))
	for i := 0; i < len(snapshots); i++ {
		for j := i + 1; j < len(snapshots); j++ {
			a, b := snapshots[i], snapshots[j]
			if a.Pair != b.Pair {
				continue
			}
			ab, err := ComputeSpread(a, b)
			if err != nil {
				skipped = append(skipped, err)
				continue
			}
			ba, err := ComputeSpread(b, a)
			if err != nil {
				skipped = append(skipped, err)
				continue
			}
			if ba.Value > ab.Value {
				spreads = append(spreads, ba)
			} else {
				spreads = append(spreads, ab)
			}
		}
	}
	return spreads, skipped
}
