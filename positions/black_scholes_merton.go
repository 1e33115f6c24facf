package positions

import (
	"math"

	"github.com/bcdannyboy/quantbox/models"
)

func D1(p models.MarketParameters) float64 {
	sqrtT := math.Sqrt(p.TimeToMaturity)
	return (math.Log(p.Spot/p.Strike) + (p.RiskFreeRate+0.5*p.Volatility*p.Volatility)*p.TimeToMaturity) / (p.Volatility * sqrtT)
}

func D2(p models.MarketParameters) float64 {
	return D1(p) - p.Volatility*math.Sqrt(p.TimeToMaturity)
}

// CallPrice is the Black-Scholes value of a European call. At expiry it is the
// intrinsic value; with zero volatility it is the discounted forward intrinsic value.
func CallPrice(p models.MarketParameters) float64 {
	if p.TimeToMaturity <= 0 {
		return math.Max(0, p.Spot-p.Strike)
	}
	discount := p.Discount()
	if p.Volatility <= 0 {
		return math.Max(0, p.Spot-p.Strike*discount)
	}

	d1 := D1(p)
	d2 := d1 - p.Volatility*math.Sqrt(p.TimeToMaturity)
	return p.Spot*(1-models.NormCDF(-d1)) - p.Strike*discount*(1-models.NormCDF(-d2))
}

func PutPrice(p models.MarketParameters) float64 {
	if p.TimeToMaturity <= 0 {
		return math.Max(0, p.Strike-p.Spot)
	}
	discount := p.Discount()
	if p.Volatility <= 0 {
		return math.Max(0, p.Strike*discount-p.Spot)
	}

	d1 := D1(p)
	d2 := d1 - p.Volatility*math.Sqrt(p.TimeToMaturity)
	return p.Strike*discount*models.NormCDF(-d2) - p.Spot*models.NormCDF(-d1)
}

func CalculateOptionPrices(p models.MarketParameters) (models.OptionPrice, error) {
	if err := p.Validate(); err != nil {
		return models.OptionPrice{}, err
	}

	price := models.OptionPrice{
		Call: CallPrice(p),
		Put:  PutPrice(p),
	}
	if err := checkFinite(namedValue{"call price", price.Call}, namedValue{"put price", price.Put}); err != nil {
		return models.OptionPrice{}, err
	}
	return price, nil
}
