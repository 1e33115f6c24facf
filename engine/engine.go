// Package engine is the single entry point every transport uses to price options.
package engine

import (
	"context"
	"time"

	"github.com/bcdannyboy/quantbox/models"
	"github.com/bcdannyboy/quantbox/positions"
	"github.com/bcdannyboy/quantbox/probability"
	"go.uber.org/zap"
)

const DefaultNumSimulations = 100_000

type Pricer interface {
	Prices(p models.MarketParameters) (models.OptionPrice, error)
	Greeks(p models.MarketParameters, optionType models.OptionType) (models.Greeks, error)
	Heatmap(p models.MarketParameters, volAxis []float64) (models.HeatmapGrid, error)
	MonteCarlo(ctx context.Context, p models.MarketParameters, n int) (models.MonteCarloResult, error)
	Compare(ctx context.Context, p models.MarketParameters, n int) (models.ComparisonResult, error)
	Convergence(ctx context.Context, p models.MarketParameters, maxSimulations, stepSize int, progress func(done, total int)) (models.ConvergenceResult, error)
}

type Config struct {
	Timeout        time.Duration
	MaxSimulations int
	Heatmap        positions.HeatmapConfig
}

type Engine struct {
	cfg       Config
	simulator *probability.Simulator
	metrics   *Metrics
	log       *zap.Logger
}

var _ Pricer = (*Engine)(nil)

func New(cfg Config, simulator *probability.Simulator, metrics *Metrics, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	if simulator == nil {
		simulator = probability.NewSimulator()
	}
	return &Engine{cfg: cfg, simulator: simulator, metrics: metrics, log: log}
}

func (e *Engine) Prices(p models.MarketParameters) (models.OptionPrice, error) {
	defer e.observe("prices", time.Now())
	res, err := positions.CalculateOptionPrices(p)
	return res, e.record("prices", p, err)
}

func (e *Engine) Greeks(p models.MarketParameters, optionType models.OptionType) (models.Greeks, error) {
	defer e.observe("greeks", time.Now())
	res, err := positions.CalculateGreeks(p, optionType)
	return res, e.record("greeks", p, err)
}

// Heatmap uses the configured axes; a non-nil volAxis replaces the volatility axis.
func (e *Engine) Heatmap(p models.MarketParameters, volAxis []float64) (models.HeatmapGrid, error) {
	defer e.observe("heatmap", time.Now())
	cfg := e.cfg.Heatmap
	if cfg.SpotSteps == 0 && cfg.VolSteps == 0 && cfg.VolAxis == nil {
		cfg = positions.DefaultHeatmapConfig()
	}
	if volAxis != nil {
		cfg.VolAxis = volAxis
	}
	res, err := positions.BuildHeatmap(p, cfg)
	return res, e.record("heatmap", p, err)
}

func (e *Engine) MonteCarlo(ctx context.Context, p models.MarketParameters, n int) (models.MonteCarloResult, error) {
	defer e.observe("monte_carlo", time.Now())
	if err := e.checkBudget("num_simulations", n); err != nil {
		return models.MonteCarloResult{}, e.record("monte_carlo", p, err)
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	res, err := e.simulator.Simulate(ctx, p, n)
	if err == nil {
		e.metrics.SimulatedPaths.Add(float64(n))
	}
	return res, e.record("monte_carlo", p, err)
}

func (e *Engine) Compare(ctx context.Context, p models.MarketParameters, n int) (models.ComparisonResult, error) {
	defer e.observe("compare", time.Now())
	if err := e.checkBudget("num_simulations", n); err != nil {
		return models.ComparisonResult{}, e.record("compare", p, err)
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	res, err := e.simulator.Compare(ctx, p, n)
	if err == nil {
		e.metrics.SimulatedPaths.Add(float64(n))
	}
	return res, e.record("compare", p, err)
}

func (e *Engine) Convergence(ctx context.Context, p models.MarketParameters, maxSimulations, stepSize int, progress func(done, total int)) (models.ConvergenceResult, error) {
	defer e.observe("convergence", time.Now())
	if err := e.checkBudget("max_simulations", maxSimulations); err != nil {
		return models.ConvergenceResult{}, e.record("convergence", p, err)
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	sim := e.simulator
	if progress != nil {
		sim = sim.With(probability.WithProgress(progress))
	}

	res, err := sim.Convergence(ctx, p, maxSimulations, stepSize)
	if err == nil {
		for _, pt := range res.Points {
			e.metrics.SimulatedPaths.Add(float64(pt.SimulationCount))
		}
	}
	return res, e.record("convergence", p, err)
}

func (e *Engine) checkBudget(field string, n int) error {
	if e.cfg.MaxSimulations > 0 && n > e.cfg.MaxSimulations {
		return models.InvalidCount(field, n, "exceeds the configured simulation limit")
	}
	return nil
}

func (e *Engine) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, e.cfg.Timeout)
	}
	return context.WithCancel(ctx)
}

func (e *Engine) observe(op string, start time.Time) {
	e.metrics.Duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (e *Engine) record(op string, p models.MarketParameters, err error) error {
	outcome := Outcome(err)
	e.metrics.Computations.WithLabelValues(op, outcome).Inc()

	switch outcome {
	case "ok":
	case "invalid_parameter":
		e.log.Debug("rejected input", zap.String("operation", op), zap.Error(err))
	default:
		e.log.Warn("computation failed",
			zap.String("operation", op),
			zap.String("outcome", outcome),
			zap.Float64("spot", p.Spot),
			zap.Float64("strike", p.Strike),
			zap.Float64("time_to_maturity", p.TimeToMaturity),
			zap.Float64("volatility", p.Volatility),
			zap.Float64("risk_free_rate", p.RiskFreeRate),
			zap.Error(err),
		)
	}
	return err
}
