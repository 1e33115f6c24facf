package positions_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bcdannyboy/quantbox/models"
	"github.com/bcdannyboy/quantbox/positions"
)

var atm = models.MarketParameters{Spot: 100, Strike: 100, TimeToMaturity: 1, Volatility: 0.2, RiskFreeRate: 0.05}

func TestReferencePrices(t *testing.T) {
	price, err := positions.CalculateOptionPrices(atm)
	require.NoError(t, err)
	require.InDelta(t, 10.4506, price.Call, 0.01)
	require.InDelta(t, 5.5735, price.Put, 0.01)
}

func TestPutCallParity(t *testing.T) {
	for _, s := range []float64{50, 80, 100, 120, 200} {
		for _, k := range []float64{60, 100, 140} {
			for _, T := range []float64{0.01, 0.25, 1, 5} {
				for _, sigma := range []float64{0.05, 0.2, 0.8} {
					for _, r := range []float64{-0.01, 0, 0.05} {
						p := models.MarketParameters{Spot: s, Strike: k, TimeToMaturity: T, Volatility: sigma, RiskFreeRate: r}
						price, err := positions.CalculateOptionPrices(p)
						require.NoError(t, err)
						require.InDelta(t, s-k*math.Exp(-r*T), price.Call-price.Put, 1e-6, "%+v", p)
					}
				}
			}
		}
	}
}

func TestExpiryBoundary(t *testing.T) {
	p := models.MarketParameters{Spot: 110, Strike: 100, TimeToMaturity: 0, Volatility: 0.2, RiskFreeRate: 0.05}
	price, err := positions.CalculateOptionPrices(p)
	require.NoError(t, err)
	require.Equal(t, 10.0, price.Call)
	require.Equal(t, 0.0, price.Put)

	for _, ot := range []models.OptionType{models.Call, models.Put} {
		g, err := positions.CalculateGreeks(p, ot)
		require.NoError(t, err)
		require.Equal(t, models.Greeks{}, g)
	}
}

func TestDegenerateLimits(t *testing.T) {
	// T -> 0+ approaches intrinsic value.
	for _, s := range []float64{90, 100, 110} {
		p := models.MarketParameters{Spot: s, Strike: 100, TimeToMaturity: 1e-10, Volatility: 0.2, RiskFreeRate: 0.05}
		require.InDelta(t, math.Max(0, s-100), positions.CallPrice(p), 1e-3)
		require.InDelta(t, math.Max(0, 100-s), positions.PutPrice(p), 1e-3)
	}

	// sigma -> 0+ approaches discounted intrinsic value.
	for _, s := range []float64{90, 100, 110} {
		p := models.MarketParameters{Spot: s, Strike: 100, TimeToMaturity: 1, Volatility: 1e-9, RiskFreeRate: 0.05}
		fwd := 100 * math.Exp(-0.05)
		require.InDelta(t, math.Max(0, s-fwd), positions.CallPrice(p), 1e-6)
		require.InDelta(t, math.Max(0, fwd-s), positions.PutPrice(p), 1e-6)

		p.Volatility = 0
		require.InDelta(t, math.Max(0, s-fwd), positions.CallPrice(p), 1e-12)
		require.InDelta(t, math.Max(0, fwd-s), positions.PutPrice(p), 1e-12)
	}
}

func TestDeepMoneyness(t *testing.T) {
	deepOTM := models.MarketParameters{Spot: 10, Strike: 1000, TimeToMaturity: 0.1, Volatility: 0.1, RiskFreeRate: 0.01}
	price, err := positions.CalculateOptionPrices(deepOTM)
	require.NoError(t, err)
	require.InDelta(t, 0, price.Call, 1e-12)
	require.InDelta(t, 1000*math.Exp(-0.001)-10, price.Put, 1e-6)
}

func TestPricingErrors(t *testing.T) {
	bad := atm
	bad.Volatility = -0.1
	_, err := positions.CalculateOptionPrices(bad)
	require.ErrorIs(t, err, models.ErrInvalidParameter)

	zeroStrike := atm
	zeroStrike.Strike = 0
	_, err = positions.CalculateOptionPrices(zeroStrike)
	require.ErrorIs(t, err, models.ErrNumericInstability)
}

func TestD1D2(t *testing.T) {
	require.InDelta(t, 0.35, positions.D1(atm), 1e-12)
	require.InDelta(t, 0.15, positions.D2(atm), 1e-12)
}
