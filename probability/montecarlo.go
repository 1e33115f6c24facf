package probability

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/bcdannyboy/quantbox/models"
	"github.com/bcdannyboy/quantbox/positions"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultChunkSize            = 10_000
	DefaultMaxConvergencePoints = 1000
	z95                         = 1.96
)

// Simulator prices European options by sampling terminal prices of the
// underlying. Paths are split into fixed size chunks; chunk i always draws from
// stream i of the run seed, so a seeded run returns the same numbers for any
// worker count.
type Simulator struct {
	workers   int
	chunkSize int
	maxPoints int
	method    models.NormalMethod
	seed      uint64
	seeded    bool
	progress  func(done, total int)
}

type Option func(*Simulator)

func WithWorkers(n int) Option {
	return func(s *Simulator) { s.workers = n }
}

func WithChunkSize(n int) Option {
	return func(s *Simulator) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

func WithSeed(seed uint64) Option {
	return func(s *Simulator) {
		s.seed = seed
		s.seeded = true
	}
}

func WithNormalMethod(m models.NormalMethod) Option {
	return func(s *Simulator) { s.method = m }
}

func WithMaxConvergencePoints(n int) Option {
	return func(s *Simulator) {
		if n > 0 {
			s.maxPoints = n
		}
	}
}

// WithProgress registers a callback invoked after each finished convergence run.
func WithProgress(fn func(done, total int)) Option {
	return func(s *Simulator) { s.progress = fn }
}

func NewSimulator(opts ...Option) *Simulator {
	s := &Simulator{
		chunkSize: DefaultChunkSize,
		maxPoints: DefaultMaxConvergencePoints,
		method:    models.Ziggurat,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.workers = positions.WorkerCount(s.workers)
	return s
}

// With returns a copy of s with extra options applied.
func (s *Simulator) With(opts ...Option) *Simulator {
	c := *s
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}

func (s *Simulator) Workers() int {
	return s.workers
}

func (s *Simulator) runSeed() uint64 {
	if s.seeded {
		return s.seed
	}
	return models.RandomSeed()
}

// Simulate estimates call and put prices from n terminal prices.
func (s *Simulator) Simulate(ctx context.Context, p models.MarketParameters, n int) (models.MonteCarloResult, error) {
	return s.simulate(ctx, p, n, s.runSeed())
}

func (s *Simulator) simulate(ctx context.Context, p models.MarketParameters, n int, seed uint64) (models.MonteCarloResult, error) {
	if n <= 0 {
		return models.MonteCarloResult{}, models.InvalidCount("num_simulations", n, "must be positive")
	}
	if err := p.Validate(); err != nil {
		return models.MonteCarloResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return models.MonteCarloResult{}, contextError(err, n)
	}

	start := time.Now()

	if p.Degenerate() {
		call, put := positions.CallPrice(p), positions.PutPrice(p)
		return models.MonteCarloResult{
			CallPrice:            call,
			PutPrice:             put,
			ConfidenceInterval95: models.Interval{Low: call, High: call},
			SimulationCount:      n,
			ComputationTimeMs:    elapsedMs(start),
		}, nil
	}

	gbm := models.NewGeometricBrownianMotion(p.Spot, p.RiskFreeRate, p.Volatility, p.TimeToMaturity)
	discount := p.Discount()
	sources := models.NewSourceFactory(s.method, seed)

	numChunks := (n + s.chunkSize - 1) / s.chunkSize
	partials := make([]chunkStats, numChunks)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for c := 0; c < numChunks; c++ {
		c := c
		size := s.chunkSize
		if c == numChunks-1 {
			size = n - c*s.chunkSize
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			partials[c] = simulateChunk(gbm, p.Strike, discount, sources(uint64(c)), size)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return models.MonteCarloResult{}, contextError(err, n)
	}

	var total chunkStats
	for _, part := range partials {
		total.merge(part)
	}

	callSE := total.call.standardError()
	putSE := total.put.standardError()
	result := models.MonteCarloResult{
		CallPrice:        total.call.mean,
		PutPrice:         total.put.mean,
		StandardError:    callSE,
		PutStandardError: putSE,
		ConfidenceInterval95: models.Interval{
			Low:  total.call.mean - z95*callSE,
			High: total.call.mean + z95*callSE,
		},
		SimulationCount:   n,
		ComputationTimeMs: elapsedMs(start),
	}

	for name, v := range map[string]float64{"call price": result.CallPrice, "put price": result.PutPrice, "standard error": callSE, "put standard error": putSE} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return models.MonteCarloResult{}, fmt.Errorf("%w: monte carlo %s is %v", models.ErrNumericInstability, name, v)
		}
	}

	return result, nil
}

func simulateChunk(gbm *models.GeometricBrownianMotion, strike, discount float64, src models.NormalSource, size int) chunkStats {
	var cs chunkStats
	for i := 0; i < size; i++ {
		st := gbm.SimulatePrice(src)
		cs.call.add(discount * math.Max(st-strike, 0))
		cs.put.add(discount * math.Max(strike-st, 0))
	}
	return cs
}

func contextError(err error, n int) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %d simulations did not finish in time: %v", models.ErrComputationTimeout, n, err)
	}
	return fmt.Errorf("simulation of %d paths aborted: %w", n, err)
}

func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}
