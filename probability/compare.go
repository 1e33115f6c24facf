package probability

import (
	"context"
	"math"

	"github.com/bcdannyboy/quantbox/models"
	"github.com/bcdannyboy/quantbox/positions"
)

// Compare runs one simulation of n paths and reports how far it lands from the closed form.
func (s *Simulator) Compare(ctx context.Context, p models.MarketParameters, n int) (models.ComparisonResult, error) {
	analytic, err := positions.CalculateOptionPrices(p)
	if err != nil {
		return models.ComparisonResult{}, err
	}

	mc, err := s.Simulate(ctx, p, n)
	if err != nil {
		return models.ComparisonResult{}, err
	}

	return models.ComparisonResult{
		MonteCarlo: mc,
		Analytic:   analytic,
		Differences: models.PriceDifferences{
			Call:        math.Abs(mc.CallPrice - analytic.Call),
			Put:         math.Abs(mc.PutPrice - analytic.Put),
			CallPercent: percentDiff(mc.CallPrice, analytic.Call),
			PutPercent:  percentDiff(mc.PutPrice, analytic.Put),
		},
	}, nil
}

func percentDiff(estimate, reference float64) float64 {
	if reference == 0 {
		return 0
	}
	return 100 * math.Abs(estimate-reference) / reference
}
