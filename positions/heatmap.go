package positions

import (
	"fmt"
	"math"
	"sync"

	"github.com/bcdannyboy/quantbox/models"
	"gonum.org/v1/gonum/floats"
)

const (
	DefaultSpotSteps = 100
	DefaultSpotRange = 0.5
	DefaultVolSteps  = 10
	DefaultVolRange  = 0.5

	MaxVolAxisPoints = 1000
)

// HeatmapConfig shapes the spot x volatility grid. The spot axis covers
// Spot*(1±SpotRange) in SpotSteps equal steps and the volatility axis covers
// Volatility*(1±VolRange) in VolSteps steps, unless VolAxis is given explicitly.
type HeatmapConfig struct {
	SpotSteps int
	SpotRange float64
	VolSteps  int
	VolRange  float64
	VolAxis   []float64
	Workers   int
}

func DefaultHeatmapConfig() HeatmapConfig {
	return HeatmapConfig{
		SpotSteps: DefaultSpotSteps,
		SpotRange: DefaultSpotRange,
		VolSteps:  DefaultVolSteps,
		VolRange:  DefaultVolRange,
	}
}

func (c HeatmapConfig) Validate() error {
	if c.SpotSteps < 1 {
		return models.InvalidCount("spot_steps", c.SpotSteps, "must be at least 1")
	}
	if c.SpotRange < 0 || c.SpotRange >= 1 || math.IsNaN(c.SpotRange) {
		return &models.ParameterError{Field: "spot_range", Value: c.SpotRange, Reason: "must be in [0, 1)"}
	}
	if c.VolAxis != nil {
		if len(c.VolAxis) == 0 {
			return models.InvalidCount("vol_axis", 0, "must not be empty")
		}
		if len(c.VolAxis) > MaxVolAxisPoints {
			return models.InvalidCount("vol_axis", len(c.VolAxis), fmt.Sprintf("must have at most %d points", MaxVolAxisPoints))
		}
		for _, v := range c.VolAxis {
			if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
				return &models.ParameterError{Field: "vol_axis", Value: v, Reason: "must be finite and non-negative"}
			}
		}
		return nil
	}
	if c.VolSteps < 1 {
		return models.InvalidCount("vol_steps", c.VolSteps, "must be at least 1")
	}
	if c.VolRange < 0 || c.VolRange > 1 || math.IsNaN(c.VolRange) {
		return &models.ParameterError{Field: "vol_range", Value: c.VolRange, Reason: "must be in [0, 1]"}
	}
	return nil
}

type heatmapJob struct {
	row  int
	spot float64
}

type heatmapRow struct {
	row   int
	calls []float64
	puts  []float64
	err   error
}

// BuildHeatmap prices every (spot, volatility) cell with strike, rate and maturity held fixed.
func BuildHeatmap(p models.MarketParameters, cfg HeatmapConfig) (models.HeatmapGrid, error) {
	if err := p.Validate(); err != nil {
		return models.HeatmapGrid{}, err
	}
	if err := cfg.Validate(); err != nil {
		return models.HeatmapGrid{}, err
	}

	spots := floats.Span(make([]float64, cfg.SpotSteps+1), p.Spot*(1-cfg.SpotRange), p.Spot*(1+cfg.SpotRange))

	vols := cfg.VolAxis
	if vols == nil {
		vols = floats.Span(make([]float64, cfg.VolSteps+1), p.Volatility*(1-cfg.VolRange), p.Volatility*(1+cfg.VolRange))
	} else {
		vols = append([]float64(nil), vols...)
	}

	grid := models.HeatmapGrid{
		SpotAxis: spots,
		VolAxis:  vols,
		Calls:    make([][]float64, len(spots)),
		Puts:     make([][]float64, len(spots)),
	}

	numWorkers := WorkerCount(cfg.Workers)
	if numWorkers > len(spots) {
		numWorkers = len(spots)
	}

	var wg sync.WaitGroup
	jobChan := make(chan heatmapJob, len(spots))
	resultChan := make(chan heatmapRow, len(spots))

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go heatmapWorker(p, vols, jobChan, resultChan, &wg)
	}

	for i, s := range spots {
		jobChan <- heatmapJob{row: i, spot: s}
	}
	close(jobChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	var firstErr error
	for r := range resultChan {
		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		grid.Calls[r.row] = r.calls
		grid.Puts[r.row] = r.puts
	}
	if firstErr != nil {
		return models.HeatmapGrid{}, firstErr
	}

	return grid, nil
}

func heatmapWorker(base models.MarketParameters, vols []float64, jobs <-chan heatmapJob, results chan<- heatmapRow, wg *sync.WaitGroup) {
	defer wg.Done()
	for j := range jobs {
		row := heatmapRow{
			row:   j.row,
			calls: make([]float64, len(vols)),
			puts:  make([]float64, len(vols)),
		}

		cell := base
		cell.Spot = j.spot
		for k, v := range vols {
			cell.Volatility = v
			row.calls[k] = CallPrice(cell)
			row.puts[k] = PutPrice(cell)
			if err := checkFinite(namedValue{"call price", row.calls[k]}, namedValue{"put price", row.puts[k]}); err != nil {
				row.err = fmt.Errorf("cell spot=%.4f vol=%.4f: %w", j.spot, v, err)
				break
			}
		}
		results <- row
	}
}
