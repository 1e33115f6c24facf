package models

import (
	"fmt"
	"math"
	"strings"
)

// MarketParameters describes a single European option contract and the market it trades in.
// TimeToMaturity is in years, Volatility and RiskFreeRate are annualized decimals.
type MarketParameters struct {
	Spot           float64
	Strike         float64
	TimeToMaturity float64
	Volatility     float64
	RiskFreeRate   float64
}

// Validate rejects parameters no pricer can work with. A zero maturity or zero
// volatility is legal and handled by the degenerate pricing branches.
func (p MarketParameters) Validate() error {
	fields := []struct {
		name  string
		value float64
		sign  bool
	}{
		{"spot", p.Spot, true},
		{"strike", p.Strike, true},
		{"time_to_maturity", p.TimeToMaturity, true},
		{"volatility", p.Volatility, true},
		{"risk_free_rate", p.RiskFreeRate, false},
	}

	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return &ParameterError{Field: f.name, Value: f.value, Reason: "must be finite"}
		}
		if f.sign && f.value < 0 {
			return &ParameterError{Field: f.name, Value: f.value, Reason: "must not be negative"}
		}
	}

	if p.Spot == 0 || p.Strike == 0 {
		return fmt.Errorf("%w: log-moneyness undefined for spot=%v strike=%v", ErrNumericInstability, p.Spot, p.Strike)
	}

	return nil
}

// Degenerate reports whether the contract has no remaining time value to model.
func (p MarketParameters) Degenerate() bool {
	return p.TimeToMaturity <= 0 || p.Volatility <= 0
}

func (p MarketParameters) Discount() float64 {
	return math.Exp(-p.RiskFreeRate * p.TimeToMaturity)
}

type OptionType string

const (
	Call OptionType = "Call"
	Put  OptionType = "Put"
)

func ParseOptionType(s string) (OptionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call", "c":
		return Call, nil
	case "put", "p":
		return Put, nil
	}
	return "", fmt.Errorf("%w: unknown option type %q", ErrInvalidParameter, s)
}

type OptionPrice struct {
	Call float64
	Put  float64
}

// Greeks holds first and second order sensitivities. Theta is per calendar day,
// Vega and Rho are per one percentage point move.
type Greeks struct {
	Delta float64
	Gamma float64
	Theta float64
	Vega  float64
	Rho   float64
}

// HeatmapGrid stores prices as Calls[i][j] for SpotAxis[i] and VolAxis[j].
type HeatmapGrid struct {
	SpotAxis []float64
	VolAxis  []float64
	Calls    [][]float64
	Puts     [][]float64
}

type Interval struct {
	Low  float64
	High float64
}

type MonteCarloResult struct {
	CallPrice            float64
	PutPrice             float64
	StandardError        float64
	PutStandardError     float64
	ConfidenceInterval95 Interval
	SimulationCount      int
	ComputationTimeMs    float64
}

type PriceDifferences struct {
	Call        float64
	Put         float64
	CallPercent float64
	PutPercent  float64
}

type ComparisonResult struct {
	MonteCarlo  MonteCarloResult
	Analytic    OptionPrice
	Differences PriceDifferences
}

type ConvergencePoint struct {
	SimulationCount   int
	CallPrice         float64
	StandardError     float64
	ComputationTimeMs float64
}

// ConvergenceResult lists Monte Carlo runs in ascending SimulationCount order.
// ErrorDecayExponent is the fitted slope of ln(SE) against ln(n), close to -0.5
// for a healthy estimator.
type ConvergenceResult struct {
	Points             []ConvergencePoint
	AnalyticReference  float64
	FinalDifference    float64
	ErrorDecayExponent float64
}
