package models

import "math"

// GeometricBrownianMotion samples the risk-neutral terminal price of the
// underlying in a single exact step.
type GeometricBrownianMotion struct {
	Spot  float64
	Rate  float64
	Sigma float64
	T     float64

	drift     float64
	diffusion float64
}

func NewGeometricBrownianMotion(spot, rate, sigma, t float64) *GeometricBrownianMotion {
	return &GeometricBrownianMotion{
		Spot:      spot,
		Rate:      rate,
		Sigma:     sigma,
		T:         t,
		drift:     (rate - 0.5*sigma*sigma) * t,
		diffusion: sigma * math.Sqrt(t),
	}
}

func (g *GeometricBrownianMotion) TerminalPrice(z float64) float64 {
	return g.Spot * math.Exp(g.drift+g.diffusion*z)
}

func (g *GeometricBrownianMotion) SimulatePrice(src NormalSource) float64 {
	return g.TerminalPrice(src.NormFloat64())
}
