package positions_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bcdannyboy/quantbox/models"
	"github.com/bcdannyboy/quantbox/positions"
)

func TestHeatmapDefaults(t *testing.T) {
	grid, err := positions.BuildHeatmap(atm, positions.DefaultHeatmapConfig())
	require.NoError(t, err)

	require.Len(t, grid.SpotAxis, 101)
	require.Len(t, grid.VolAxis, 11)
	require.InDelta(t, 50, grid.SpotAxis[0], 1e-12)
	require.InDelta(t, 150, grid.SpotAxis[100], 1e-12)
	require.InDelta(t, 100, grid.SpotAxis[50], 1e-12)
	require.InDelta(t, 0.1, grid.VolAxis[0], 1e-12)
	require.InDelta(t, 0.3, grid.VolAxis[10], 1e-12)

	require.Len(t, grid.Calls, 101)
	require.Len(t, grid.Puts, 101)
	for i := range grid.Calls {
		require.Len(t, grid.Calls[i], 11)
		require.Len(t, grid.Puts[i], 11)
	}
}

func TestHeatmapCellsMatchAnalytic(t *testing.T) {
	cfg := positions.DefaultHeatmapConfig()
	cfg.Workers = 3
	grid, err := positions.BuildHeatmap(atm, cfg)
	require.NoError(t, err)

	for i, s := range grid.SpotAxis {
		for j, v := range grid.VolAxis {
			p := atm
			p.Spot = s
			p.Volatility = v
			require.Equal(t, positions.CallPrice(p), grid.Calls[i][j])
			require.Equal(t, positions.PutPrice(p), grid.Puts[i][j])
		}
	}
}

func TestHeatmapCustomVolAxis(t *testing.T) {
	cfg := positions.DefaultHeatmapConfig()
	cfg.SpotSteps = 4
	cfg.VolAxis = []float64{0, 0.15, 0.4}

	grid, err := positions.BuildHeatmap(atm, cfg)
	require.NoError(t, err)
	require.Equal(t, []float64{0, 0.15, 0.4}, grid.VolAxis)
	require.Len(t, grid.SpotAxis, 5)

	// zero volatility column collapses to discounted intrinsic value
	p := atm
	p.Spot = grid.SpotAxis[4]
	p.Volatility = 0
	require.Equal(t, positions.CallPrice(p), grid.Calls[4][0])
}

func TestHeatmapMonotoneInSpot(t *testing.T) {
	grid, err := positions.BuildHeatmap(atm, positions.DefaultHeatmapConfig())
	require.NoError(t, err)
	for j := range grid.VolAxis {
		for i := 1; i < len(grid.SpotAxis); i++ {
			require.GreaterOrEqual(t, grid.Calls[i][j], grid.Calls[i-1][j])
			require.LessOrEqual(t, grid.Puts[i][j], grid.Puts[i-1][j])
		}
	}
}

func TestHeatmapValidation(t *testing.T) {
	cases := map[string]func(*positions.HeatmapConfig){
		"no spot steps":  func(c *positions.HeatmapConfig) { c.SpotSteps = 0 },
		"spot range 1":   func(c *positions.HeatmapConfig) { c.SpotRange = 1 },
		"no vol steps":   func(c *positions.HeatmapConfig) { c.VolSteps = 0 },
		"vol range > 1":  func(c *positions.HeatmapConfig) { c.VolRange = 1.5 },
		"empty vol axis": func(c *positions.HeatmapConfig) { c.VolAxis = []float64{} },
		"negative vol":   func(c *positions.HeatmapConfig) { c.VolAxis = []float64{0.2, -0.1} },
		"vol axis too long": func(c *positions.HeatmapConfig) {
			c.VolAxis = make([]float64, positions.MaxVolAxisPoints+1)
		},
	}
	for name, mut := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := positions.DefaultHeatmapConfig()
			mut(&cfg)
			_, err := positions.BuildHeatmap(atm, cfg)
			require.ErrorIs(t, err, models.ErrInvalidParameter)
		})
	}
}

func TestHeatmapLongestVolAxis(t *testing.T) {
	cfg := positions.DefaultHeatmapConfig()
	cfg.SpotSteps = 1
	cfg.VolAxis = make([]float64, positions.MaxVolAxisPoints)
	for i := range cfg.VolAxis {
		cfg.VolAxis[i] = 0.01 * float64(i+1)
	}
	grid, err := positions.BuildHeatmap(atm, cfg)
	require.NoError(t, err)
	require.Len(t, grid.Calls[0], positions.MaxVolAxisPoints)
}

func TestHeatmapOverflowIsNumericInstability(t *testing.T) {
	p := atm
	p.Spot = 1.5e308

	grid, err := positions.BuildHeatmap(p, positions.DefaultHeatmapConfig())
	require.ErrorIs(t, err, models.ErrNumericInstability)
	require.Empty(t, grid.SpotAxis)
	require.Empty(t, grid.Calls)
	require.Empty(t, grid.Puts)
}
