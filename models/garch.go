package models

import (
	"math"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

// minGARCHReturns is the shortest history a GARCH(1,1) fit is attempted on.
const minGARCHReturns = 30

// GARCH11 holds the parameters of sigma²(t) = Omega + Alpha·r²(t-1) + Beta·sigma²(t-1).
type GARCH11 struct {
	Omega float64
	Alpha float64
	Beta  float64
}

func (g GARCH11) stationary() bool {
	return g.Omega > 0 && g.Alpha >= 0 && g.Beta >= 0 && g.Alpha+g.Beta < 1
}

// LogLikelihood of returns under Gaussian innovations, started from the unconditional variance.
func (g GARCH11) LogLikelihood(returns []float64) float64 {
	variance := g.Omega / (1 - g.Alpha - g.Beta)
	ll := 0.0
	for i := 1; i < len(returns); i++ {
		variance = g.Omega + g.Alpha*returns[i-1]*returns[i-1] + g.Beta*variance
		ll += -0.5*math.Log(2*math.Pi) - 0.5*math.Log(variance) - 0.5*returns[i]*returns[i]/variance
	}
	return ll
}

// Forecast is the one-step-ahead conditional variance after the last return.
func (g GARCH11) Forecast(returns []float64) float64 {
	variance := g.Omega / (1 - g.Alpha - g.Beta)
	for _, r := range returns {
		variance = g.Omega + g.Alpha*r*r + g.Beta*variance
	}
	return variance
}

// FitGARCH11 maximizes the likelihood with Nelder-Mead, starting from a
// variance-targeted guess. ok is false when the optimizer does not land on a
// stationary model.
func FitGARCH11(returns []float64) (GARCH11, bool) {
	sampleVar := stat.Variance(returns, nil)
	if !(sampleVar > 0) {
		return GARCH11{}, false
	}
	start := GARCH11{Omega: sampleVar * 0.05, Alpha: 0.05, Beta: 0.9}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			g := GARCH11{Omega: x[0], Alpha: x[1], Beta: x[2]}
			if !g.stationary() {
				return math.MaxFloat64 / 4
			}
			return -g.LogLikelihood(returns)
		},
	}

	result, err := optimize.Minimize(problem, []float64{start.Omega, start.Alpha, start.Beta}, nil, &optimize.NelderMead{})
	if err != nil {
		return start, start.stationary()
	}
	fit := GARCH11{Omega: result.X[0], Alpha: result.X[1], Beta: result.X[2]}
	return fit, fit.stationary()
}

// garchForecast returns the daily volatility forecast, falling back to
// close-to-close on short histories or a failed fit.
func garchForecast(bars []Bar) float64 {
	if len(bars)-1 < minGARCHReturns {
		return closeToClose(bars)
	}

	// percent returns keep Omega away from the optimizer's tolerance floor
	returns := make([]float64, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		returns[i-1] = 100 * math.Log(bars[i].Close/bars[i-1].Close)
	}

	g, ok := FitGARCH11(returns)
	if !ok {
		return closeToClose(bars)
	}
	return math.Sqrt(g.Forecast(returns)) / 100
}
