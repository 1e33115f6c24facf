package models

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

const TradingDaysPerYear = 252

// Bar is one OHLC observation of the underlying.
type Bar struct {
	Date  string
	Open  float64
	High  float64
	Low   float64
	Close float64
}

type VolatilityEstimator string

const (
	CloseToClose   VolatilityEstimator = "close-to-close"
	Parkinson      VolatilityEstimator = "parkinson"
	GarmanKlass    VolatilityEstimator = "garman-klass"
	RogersSatchell VolatilityEstimator = "rogers-satchell"
	YangZhang      VolatilityEstimator = "yang-zhang"
	GARCH          VolatilityEstimator = "garch"
)

func ParseVolatilityEstimator(s string) (VolatilityEstimator, error) {
	switch e := VolatilityEstimator(s); e {
	case CloseToClose, Parkinson, GarmanKlass, RogersSatchell, YangZhang, GARCH:
		return e, nil
	}
	return "", fmt.Errorf("%w: unknown volatility estimator %q", ErrInvalidParameter, s)
}

// RealizedVolatility returns the annualized volatility of bars under the chosen estimator.
func RealizedVolatility(bars []Bar, estimator VolatilityEstimator) (float64, error) {
	if len(bars) < 2 {
		return 0, InvalidCount("bars", len(bars), "need at least 2 observations")
	}
	for _, b := range bars {
		if !(b.Open > 0 && b.High > 0 && b.Low > 0 && b.Close > 0) {
			return 0, fmt.Errorf("%w: non-positive price in bar %s", ErrInvalidParameter, b.Date)
		}
	}

	var daily float64
	switch estimator {
	case CloseToClose:
		daily = closeToClose(bars)
	case Parkinson:
		daily = parkinson(bars)
	case GarmanKlass:
		daily = garmanKlass(bars)
	case RogersSatchell:
		daily = math.Sqrt(rogersSatchellVariance(bars))
	case YangZhang:
		daily = yangZhang(bars)
	case GARCH:
		daily = garchForecast(bars)
	default:
		return 0, fmt.Errorf("%w: unknown volatility estimator %q", ErrInvalidParameter, estimator)
	}

	vol := daily * math.Sqrt(TradingDaysPerYear)
	if math.IsNaN(vol) || math.IsInf(vol, 0) {
		return 0, fmt.Errorf("%w: %s volatility is %v", ErrNumericInstability, estimator, vol)
	}
	return vol, nil
}

func closeToClose(bars []Bar) float64 {
	returns := make([]float64, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		returns[i-1] = math.Log(bars[i].Close / bars[i-1].Close)
	}
	if len(returns) < 2 {
		return math.Abs(returns[0])
	}
	return stat.StdDev(returns, nil)
}

func parkinson(bars []Bar) float64 {
	sum := 0.0
	for _, b := range bars {
		hl := math.Log(b.High / b.Low)
		sum += hl * hl
	}
	return math.Sqrt(sum / (4 * float64(len(bars)) * math.Ln2))
}

func garmanKlass(bars []Bar) float64 {
	sum := 0.0
	for _, b := range bars {
		hl := math.Log(b.High / b.Low)
		co := math.Log(b.Close / b.Open)
		sum += 0.5*hl*hl - (2*math.Ln2-1)*co*co
	}
	return math.Sqrt(math.Max(sum/float64(len(bars)), 0))
}

func rogersSatchellVariance(bars []Bar) float64 {
	sum := 0.0
	for _, b := range bars {
		sum += math.Log(b.High/b.Close)*math.Log(b.High/b.Open) +
			math.Log(b.Low/b.Close)*math.Log(b.Low/b.Open)
	}
	return sum / float64(len(bars))
}

func yangZhang(bars []Bar) float64 {
	n := float64(len(bars))
	k := 0.34 / (1.34 + (n+1)/(n-1))

	overnight := make([]float64, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		overnight[i-1] = math.Log(bars[i].Open / bars[i-1].Close)
	}
	openClose := make([]float64, len(bars))
	for i, b := range bars {
		openClose[i] = math.Log(b.Close / b.Open)
	}

	overnightVar := 0.0
	if len(overnight) > 1 {
		overnightVar = stat.Variance(overnight, nil)
	}
	openCloseVar := stat.Variance(openClose, nil)

	return math.Sqrt(overnightVar + k*openCloseVar + (1-k)*rogersSatchellVariance(bars))
}
