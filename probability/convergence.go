package probability

import (
	"context"
	"math"
	"sync"

	"github.com/bcdannyboy/quantbox/models"
	"github.com/bcdannyboy/quantbox/positions"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// Convergence simulates at stepSize, 2*stepSize, ... up to maxSimulations and
// measures each run against the analytic call price. Runs use independent
// seed streams and execute concurrently.
func (s *Simulator) Convergence(ctx context.Context, p models.MarketParameters, maxSimulations, stepSize int) (models.ConvergenceResult, error) {
	if maxSimulations <= 0 {
		return models.ConvergenceResult{}, models.InvalidCount("max_simulations", maxSimulations, "must be positive")
	}
	if stepSize <= 0 {
		return models.ConvergenceResult{}, models.InvalidCount("step_size", stepSize, "must be positive")
	}
	if stepSize > maxSimulations {
		return models.ConvergenceResult{}, models.InvalidCount("step_size", stepSize, "must not exceed max_simulations")
	}
	total := maxSimulations / stepSize
	if total > s.maxPoints {
		return models.ConvergenceResult{}, models.InvalidCount("step_size", stepSize, "produces too many convergence points")
	}

	analytic, err := positions.CalculateOptionPrices(p)
	if err != nil {
		return models.ConvergenceResult{}, err
	}

	base := s.runSeed()
	points := make([]models.ConvergencePoint, total)

	var mu sync.Mutex
	done := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i := 0; i < total; i++ {
		i := i
		g.Go(func() error {
			n := (i + 1) * stepSize
			res, err := s.simulate(gctx, p, n, models.MixSeed(base, uint64(i)))
			if err != nil {
				return err
			}
			points[i] = models.ConvergencePoint{
				SimulationCount:   n,
				CallPrice:         res.CallPrice,
				StandardError:     res.StandardError,
				ComputationTimeMs: res.ComputationTimeMs,
			}

			if s.progress != nil {
				mu.Lock()
				done++
				s.progress(done, total)
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return models.ConvergenceResult{}, contextError(ctxErr, maxSimulations)
		}
		return models.ConvergenceResult{}, err
	}

	last := points[len(points)-1]
	return models.ConvergenceResult{
		Points:             points,
		AnalyticReference:  analytic.Call,
		FinalDifference:    math.Abs(last.CallPrice - analytic.Call),
		ErrorDecayExponent: errorDecayExponent(points),
	}, nil
}

// errorDecayExponent fits ln(SE) = a + b ln(n) and returns b.
func errorDecayExponent(points []models.ConvergencePoint) float64 {
	var xs, ys []float64
	for _, pt := range points {
		if pt.StandardError > 0 {
			xs = append(xs, math.Log(float64(pt.SimulationCount)))
			ys = append(ys, math.Log(pt.StandardError))
		}
	}
	if len(xs) < 2 {
		return 0
	}
	_, beta := stat.LinearRegression(xs, ys, nil, false)
	return beta
}
