package positions_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bcdannyboy/quantbox/models"
	"github.com/bcdannyboy/quantbox/positions"
)

func TestReferenceGreeks(t *testing.T) {
	g, err := positions.CalculateGreeks(atm, models.Call)
	require.NoError(t, err)
	require.InDelta(t, 0.6368, g.Delta, 0.001)
	require.InDelta(t, 0.0188, g.Gamma, 0.001)
	require.InDelta(t, 0.3752, g.Vega, 0.001)
	require.InDelta(t, -0.01757, g.Theta, 0.0001)
	require.InDelta(t, 0.5323, g.Rho, 0.001)

	p, err := positions.CalculateGreeks(atm, models.Put)
	require.NoError(t, err)
	require.InDelta(t, -0.3632, p.Delta, 0.001)
	require.InDelta(t, -0.4189, p.Rho, 0.001)
	require.InDelta(t, -0.00454, p.Theta, 0.0001)
}

func TestGreekSymmetries(t *testing.T) {
	for _, s := range []float64{60, 95, 100, 130} {
		for _, sigma := range []float64{0.1, 0.35, 0.9} {
			for _, T := range []float64{0.05, 0.5, 2} {
				p := models.MarketParameters{Spot: s, Strike: 100, TimeToMaturity: T, Volatility: sigma, RiskFreeRate: 0.03}
				c, err := positions.CalculateGreeks(p, models.Call)
				require.NoError(t, err)
				q, err := positions.CalculateGreeks(p, models.Put)
				require.NoError(t, err)

				require.InDelta(t, 1.0, c.Delta-q.Delta, 1e-12)
				require.Equal(t, c.Gamma, q.Gamma)
				require.Equal(t, c.Vega, q.Vega)
				require.GreaterOrEqual(t, c.Gamma, 0.0)
				require.GreaterOrEqual(t, c.Vega, 0.0)
			}
		}
	}
}

func TestGreeksDegenerateVolatility(t *testing.T) {
	p := atm
	p.Volatility = 0
	for _, ot := range []models.OptionType{models.Call, models.Put} {
		g, err := positions.CalculateGreeks(p, ot)
		require.NoError(t, err)
		require.Equal(t, models.Greeks{}, g)
	}
}

func TestGreeksRejectUnknownType(t *testing.T) {
	_, err := positions.CalculateGreeks(atm, models.OptionType("Straddle"))
	require.ErrorIs(t, err, models.ErrInvalidParameter)
}
