package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/bcdannyboy/quantbox/engine"
	"github.com/bcdannyboy/quantbox/market"
	"github.com/bcdannyboy/quantbox/models"
	"github.com/gin-gonic/gin"
)

// MarketData resolves pricing inputs for a listed symbol.
type MarketData interface {
	Parameters(ctx context.Context, symbol string, strike float64, expiry string, rate float64) (market.Snapshot, error)
}

type Handler struct {
	pricer engine.Pricer
	market MarketData
}

func NewHandler(pricer engine.Pricer, md MarketData) *Handler {
	return &Handler{pricer: pricer, market: md}
}

func bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		writeError(c, fmt.Errorf("%w: malformed request body: %v", models.ErrInvalidParameter, err))
		return false
	}
	return true
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) OptionsPrices(c *gin.Context) {
	var req BlackScholesRequest
	if !bind(c, &req) {
		return
	}
	round, err := precisionFrom(c)
	if err != nil {
		writeError(c, err)
		return
	}

	price, err := h.pricer.Prices(req.params())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, OptionsPriceResponse{CallPrice: round(price.Call), PutPrice: round(price.Put)})
}

func (h *Handler) Greeks(c *gin.Context) {
	var req BlackScholesRequest
	if !bind(c, &req) {
		return
	}
	round, err := precisionFrom(c)
	if err != nil {
		writeError(c, err)
		return
	}
	optionType, err := models.ParseOptionType(req.OptionType)
	if err != nil {
		writeError(c, err)
		return
	}

	g, err := h.pricer.Greeks(req.params(), optionType)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, GreeksResponse{
		Delta: round(g.Delta),
		Gamma: round(g.Gamma),
		Theta: round(g.Theta),
		Vega:  round(g.Vega),
		Rho:   round(g.Rho),
	})
}

func (h *Handler) Heatmap(c *gin.Context) {
	var req BlackScholesRequest
	if !bind(c, &req) {
		return
	}

	grid, err := h.pricer.Heatmap(req.params(), req.Volatilities)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, HeatmapResponse{
		SpotPrices:   fixed2Slice(grid.SpotAxis),
		Volatilities: fixed2Slice(grid.VolAxis),
		CallData:     fixed2Matrix(grid.Calls),
		PutData:      fixed2Matrix(grid.Puts),
	})
}

func (h *Handler) MonteCarlo(c *gin.Context) {
	var req MonteCarloRequest
	if !bind(c, &req) {
		return
	}
	round, err := precisionFrom(c)
	if err != nil {
		writeError(c, err)
		return
	}

	res, err := h.pricer.MonteCarlo(c.Request.Context(), req.params(), req.simulations())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newMonteCarloResponse(res, round))
}

func (h *Handler) Comparison(c *gin.Context) {
	var req MonteCarloRequest
	if !bind(c, &req) {
		return
	}
	round, err := precisionFrom(c)
	if err != nil {
		writeError(c, err)
		return
	}

	res, err := h.pricer.Compare(c.Request.Context(), req.params(), req.simulations())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ComparisonResponse{
		MonteCarlo: newMonteCarloResponse(res.MonteCarlo, round),
		BlackScholes: AnalyticPriceResponse{
			CallPrice: round(res.Analytic.Call),
			PutPrice:  round(res.Analytic.Put),
		},
		Differences: PriceDifferencesResponse{
			CallPriceDiff:        round(res.Differences.Call),
			PutPriceDiff:         round(res.Differences.Put),
			CallPriceDiffPercent: round(res.Differences.CallPercent),
			PutPriceDiffPercent:  round(res.Differences.PutPercent),
		},
	})
}

func (h *Handler) Convergence(c *gin.Context) {
	var req ConvergenceRequest
	if !bind(c, &req) {
		return
	}
	round, err := precisionFrom(c)
	if err != nil {
		writeError(c, err)
		return
	}

	res, err := h.pricer.Convergence(c.Request.Context(), req.params(), req.MaxSimulations, req.StepSize, nil)
	if err != nil {
		writeError(c, err)
		return
	}

	data := make([]ConvergencePointResponse, len(res.Points))
	for i, pt := range res.Points {
		data[i] = ConvergencePointResponse{
			NumSimulations: pt.SimulationCount,
			CallPrice:      round(pt.CallPrice),
			StandardError:  round(pt.StandardError),
			TimeMs:         pt.ComputationTimeMs,
		}
	}
	c.JSON(http.StatusOK, ConvergenceResponse{
		ConvergenceData:       data,
		BlackScholesReference: round(res.AnalyticReference),
		FinalDifference:       round(res.FinalDifference),
		ErrorDecayExponent:    res.ErrorDecayExponent,
	})
}

// MarketParameters serves GET /api/market/parameters?symbol=SPY&strike=500&expiry=2025-01-17&rate=0.04
func (h *Handler) MarketParameters(c *gin.Context) {
	symbol := c.Query("symbol")
	if symbol == "" {
		writeError(c, fmt.Errorf("%w: symbol is required", models.ErrInvalidParameter))
		return
	}
	strike, err := strconv.ParseFloat(c.Query("strike"), 64)
	if err != nil {
		writeError(c, fmt.Errorf("%w: strike: %v", models.ErrInvalidParameter, err))
		return
	}
	rate := 0.0
	if raw := c.Query("rate"); raw != "" {
		if rate, err = strconv.ParseFloat(raw, 64); err != nil {
			writeError(c, fmt.Errorf("%w: rate: %v", models.ErrInvalidParameter, err))
			return
		}
	}

	snap, err := h.market.Parameters(c.Request.Context(), symbol, strike, c.Query("expiry"), rate)
	if err != nil {
		status, code := statusFor(err)
		if code == "internal" {
			status = http.StatusBadGateway
			code = "market_data"
		}
		_ = c.Error(err)
		c.AbortWithStatusJSON(status, ErrorResponse{Error: err.Error(), Code: code})
		return
	}

	p := snap.Parameters
	c.JSON(http.StatusOK, MarketParametersResponse{
		Symbol:         snap.Symbol,
		SpotPrice:      p.Spot,
		StrikePrice:    p.Strike,
		TimeToMaturity: p.TimeToMaturity,
		Volatility:     p.Volatility,
		RiskFreeRate:   p.RiskFreeRate,
		Estimator:      string(snap.Estimator),
		Observations:   snap.Bars,
	})
}
