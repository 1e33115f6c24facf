package api

import (
	"github.com/bcdannyboy/quantbox/engine"
	"github.com/bcdannyboy/quantbox/models"
)

type BlackScholesRequest struct {
	SpotPrice      float64   `json:"spot_price"`
	StrikePrice    float64   `json:"strike_price"`
	RiskFreeRate   float64   `json:"risk_free_rate"`
	Volatility     float64   `json:"volatility"`
	TimeToMaturity float64   `json:"time_to_maturity"`
	OptionType     string    `json:"option_type,omitempty"`
	Volatilities   []float64 `json:"volatilities,omitempty"`
}

func (r BlackScholesRequest) params() models.MarketParameters {
	return models.MarketParameters{
		Spot:           r.SpotPrice,
		Strike:         r.StrikePrice,
		TimeToMaturity: r.TimeToMaturity,
		Volatility:     r.Volatility,
		RiskFreeRate:   r.RiskFreeRate,
	}
}

type MonteCarloRequest struct {
	SpotPrice      float64 `json:"spot_price"`
	StrikePrice    float64 `json:"strike_price"`
	TimeToExpiry   float64 `json:"time_to_expiry"`
	RiskFreeRate   float64 `json:"risk_free_rate"`
	Volatility     float64 `json:"volatility"`
	NumSimulations *int    `json:"num_simulations"`
}

func (r MonteCarloRequest) params() models.MarketParameters {
	return models.MarketParameters{
		Spot:           r.SpotPrice,
		Strike:         r.StrikePrice,
		TimeToMaturity: r.TimeToExpiry,
		Volatility:     r.Volatility,
		RiskFreeRate:   r.RiskFreeRate,
	}
}

func (r MonteCarloRequest) simulations() int {
	if r.NumSimulations == nil {
		return engine.DefaultNumSimulations
	}
	return *r.NumSimulations
}

type ConvergenceRequest struct {
	SpotPrice      float64 `json:"spot_price"`
	StrikePrice    float64 `json:"strike_price"`
	RiskFreeRate   float64 `json:"risk_free_rate"`
	Volatility     float64 `json:"volatility"`
	TimeToExpiry   float64 `json:"time_to_expiry"`
	MaxSimulations int     `json:"max_simulations"`
	StepSize       int     `json:"step_size"`
}

func (r ConvergenceRequest) params() models.MarketParameters {
	return models.MarketParameters{
		Spot:           r.SpotPrice,
		Strike:         r.StrikePrice,
		TimeToMaturity: r.TimeToExpiry,
		Volatility:     r.Volatility,
		RiskFreeRate:   r.RiskFreeRate,
	}
}

type OptionsPriceResponse struct {
	CallPrice float64 `json:"callPrice"`
	PutPrice  float64 `json:"putPrice"`
}

type GreeksResponse struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}

type HeatmapResponse struct {
	SpotPrices   []string   `json:"spot_prices"`
	Volatilities []string   `json:"volatilities"`
	CallData     [][]string `json:"call_data"`
	PutData      [][]string `json:"put_data"`
}

type MonteCarloResponse struct {
	CallPrice            float64    `json:"call_price"`
	PutPrice             float64    `json:"put_price"`
	StandardError        float64    `json:"standard_error"`
	PutStandardError     float64    `json:"put_standard_error"`
	ConfidenceInterval95 [2]float64 `json:"confidence_interval_95"`
	NumSimulations       int        `json:"num_simulations"`
	ComputationTimeMs    float64    `json:"computation_time_ms"`
}

type PriceDifferencesResponse struct {
	CallPriceDiff        float64 `json:"call_price_diff"`
	PutPriceDiff         float64 `json:"put_price_diff"`
	CallPriceDiffPercent float64 `json:"call_price_diff_percent"`
	PutPriceDiffPercent  float64 `json:"put_price_diff_percent"`
}

type AnalyticPriceResponse struct {
	CallPrice float64 `json:"call_price"`
	PutPrice  float64 `json:"put_price"`
}

type ComparisonResponse struct {
	MonteCarlo   MonteCarloResponse       `json:"monte_carlo"`
	BlackScholes AnalyticPriceResponse    `json:"black_scholes"`
	Differences  PriceDifferencesResponse `json:"differences"`
}

type ConvergencePointResponse struct {
	NumSimulations int     `json:"num_simulations"`
	CallPrice      float64 `json:"call_price"`
	StandardError  float64 `json:"standard_error"`
	TimeMs         float64 `json:"time_ms"`
}

type ConvergenceResponse struct {
	ConvergenceData       []ConvergencePointResponse `json:"convergence_data"`
	BlackScholesReference float64                    `json:"black_scholes_reference"`
	FinalDifference       float64                    `json:"final_difference"`
	ErrorDecayExponent    float64                    `json:"error_decay_exponent"`
}

type MarketParametersResponse struct {
	Symbol         string  `json:"symbol"`
	SpotPrice      float64 `json:"spot_price"`
	StrikePrice    float64 `json:"strike_price"`
	TimeToMaturity float64 `json:"time_to_maturity"`
	Volatility     float64 `json:"volatility"`
	RiskFreeRate   float64 `json:"risk_free_rate"`
	Estimator      string  `json:"volatility_estimator"`
	Observations   int     `json:"observations"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func newMonteCarloResponse(r models.MonteCarloResult, round rounder) MonteCarloResponse {
	return MonteCarloResponse{
		CallPrice:            round(r.CallPrice),
		PutPrice:             round(r.PutPrice),
		StandardError:        round(r.StandardError),
		PutStandardError:     round(r.PutStandardError),
		ConfidenceInterval95: [2]float64{round(r.ConfidenceInterval95.Low), round(r.ConfidenceInterval95.High)},
		NumSimulations:       r.SimulationCount,
		ComputationTimeMs:    r.ComputationTimeMs,
	}
}
