package positions

import (
	"math"

	"github.com/bcdannyboy/quantbox/models"
)

const daysPerYear = 365

func CalculateGreeks(p models.MarketParameters, optionType models.OptionType) (models.Greeks, error) {
	if err := p.Validate(); err != nil {
		return models.Greeks{}, err
	}
	if optionType != models.Call && optionType != models.Put {
		_, err := models.ParseOptionType(string(optionType))
		return models.Greeks{}, err
	}

	g := calculateGreeks(p, optionType == models.Call)
	if err := checkFinite(
		namedValue{"delta", g.Delta},
		namedValue{"gamma", g.Gamma},
		namedValue{"theta", g.Theta},
		namedValue{"vega", g.Vega},
		namedValue{"rho", g.Rho},
	); err != nil {
		return models.Greeks{}, err
	}
	return g, nil
}

func calculateGreeks(p models.MarketParameters, isCall bool) models.Greeks {
	if p.Degenerate() {
		return models.Greeks{}
	}

	S, K, T, r, sigma := p.Spot, p.Strike, p.TimeToMaturity, p.RiskFreeRate, p.Volatility
	sqrtT := math.Sqrt(T)
	d1 := D1(p)
	d2 := d1 - sigma*sqrtT
	pdf := models.NormPDF(d1)
	discounted := K * math.Exp(-r*T)

	g := models.Greeks{
		Gamma: pdf / (S * sigma * sqrtT),
		Vega:  S * sqrtT * pdf / 100,
	}

	decay := -S * pdf * sigma / (2 * sqrtT)
	if isCall {
		g.Delta = 1 - models.NormCDF(-d1)
		g.Theta = (decay - r*discounted*(1-models.NormCDF(-d2))) / daysPerYear
		g.Rho = discounted * T * (1 - models.NormCDF(-d2)) / 100
	} else {
		g.Delta = -models.NormCDF(-d1)
		g.Theta = (decay + r*discounted*models.NormCDF(-d2)) / daysPerYear
		g.Rho = -discounted * T * models.NormCDF(-d2) / 100
	}
	return g
}
