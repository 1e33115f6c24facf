package qbslack

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/bcdannyboy/quantbox/engine"
	"github.com/bcdannyboy/quantbox/models"
	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

const paramsUsage = "<spot> <strike> <years> <vol> <rate>"

type PricingHandler struct {
	pricer engine.Pricer
	wg     *sync.WaitGroup
	log    *zap.Logger
}

func NewPricingHandler(pricer engine.Pricer, wg *sync.WaitGroup, log *zap.Logger) *PricingHandler {
	return &PricingHandler{pricer: pricer, wg: wg, log: log}
}

func (h *PricingHandler) HandlePrices(data slack.SlashCommand, client Poster) error {
	args := strings.Fields(data.Text)
	if len(args) != 5 {
		return usage(client, data.ChannelID, "/bs "+paramsUsage)
	}
	p, err := parseParams(args)
	if err != nil {
		return replyError(client, data.ChannelID, err)
	}

	price, err := h.pricer.Prices(p)
	if err != nil {
		return replyError(client, data.ChannelID, err)
	}
	_, err = reply(client, data.ChannelID, formatPrices(p, price))
	return err
}

func (h *PricingHandler) HandleGreeks(data slack.SlashCommand, client Poster) error {
	args := strings.Fields(data.Text)
	if len(args) != 6 {
		return usage(client, data.ChannelID, "/greeks <call|put> "+paramsUsage)
	}
	optionType, err := models.ParseOptionType(args[0])
	if err != nil {
		return replyError(client, data.ChannelID, err)
	}
	p, err := parseParams(args[1:])
	if err != nil {
		return replyError(client, data.ChannelID, err)
	}

	g, err := h.pricer.Greeks(p, optionType)
	if err != nil {
		return replyError(client, data.ChannelID, err)
	}
	_, err = reply(client, data.ChannelID, formatGreeks(optionType, g))
	return err
}

func (h *PricingHandler) HandleMonteCarlo(ctx context.Context, data slack.SlashCommand, client Poster) error {
	p, n, ok, err := h.simulationArgs(data, client, "/mc")
	if !ok {
		return err
	}

	h.background(client, data.ChannelID, func() string {
		res, err := h.pricer.MonteCarlo(ctx, p, n)
		if err != nil {
			return describeError(err)
		}
		return formatMonteCarlo(res)
	})
	return nil
}

func (h *PricingHandler) HandleCompare(ctx context.Context, data slack.SlashCommand, client Poster) error {
	p, n, ok, err := h.simulationArgs(data, client, "/compare")
	if !ok {
		return err
	}

	h.background(client, data.ChannelID, func() string {
		res, err := h.pricer.Compare(ctx, p, n)
		if err != nil {
			return describeError(err)
		}
		return formatComparison(res)
	})
	return nil
}

// background runs a simulation off the event loop and posts whatever it returns.
func (h *PricingHandler) background(client Poster, channelID string, run func() string) {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		if _, err := reply(client, channelID, run()); err != nil {
			h.log.Warn("simulation result post failed", zap.Error(err))
		}
	}()
}

// simulationArgs parses "<params> [paths]". When ok is false the user has
// already been answered and err is the result of that reply.
func (h *PricingHandler) simulationArgs(data slack.SlashCommand, client Poster, command string) (models.MarketParameters, int, bool, error) {
	args := strings.Fields(data.Text)
	if len(args) != 5 && len(args) != 6 {
		return models.MarketParameters{}, 0, false, usage(client, data.ChannelID, command+" "+paramsUsage+" [paths]")
	}
	p, err := parseParams(args[:5])
	if err != nil {
		return p, 0, false, replyError(client, data.ChannelID, err)
	}
	n := engine.DefaultNumSimulations
	if len(args) == 6 {
		if n, err = parseCount("paths", args[5]); err != nil {
			return p, 0, false, replyError(client, data.ChannelID, err)
		}
	}
	return p, n, true, nil
}

func parseParams(args []string) (models.MarketParameters, error) {
	names := [5]string{"spot", "strike", "years", "vol", "rate"}
	var vals [5]float64
	for i, name := range names {
		v, err := strconv.ParseFloat(args[i], 64)
		if err != nil {
			return models.MarketParameters{}, fmt.Errorf("%w: %s %q is not a number", models.ErrInvalidParameter, name, args[i])
		}
		vals[i] = v
	}
	return models.MarketParameters{
		Spot:           vals[0],
		Strike:         vals[1],
		TimeToMaturity: vals[2],
		Volatility:     vals[3],
		RiskFreeRate:   vals[4],
	}, nil
}

func parseCount(name, raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not an integer", models.ErrInvalidParameter, name, raw)
	}
	return n, nil
}

func usage(client Poster, channelID, text string) error {
	_, err := reply(client, channelID, "Invalid number of arguments. Usage: "+text)
	return err
}

func replyError(client Poster, channelID string, err error) error {
	_, postErr := reply(client, channelID, describeError(err))
	return postErr
}

// describeError prefixes err with what the user should do about it.
func describeError(err error) string {
	switch {
	case errors.Is(err, models.ErrInvalidParameter):
		return "Invalid input, check the arguments: " + err.Error()
	case errors.Is(err, models.ErrComputationTimeout):
		return "Timed out, retry with fewer simulations: " + err.Error()
	case errors.Is(err, models.ErrNumericInstability):
		return "Numeric fault, please report it: " + err.Error()
	}
	return "Error: " + err.Error()
}

func formatPrices(p models.MarketParameters, price models.OptionPrice) string {
	return fmt.Sprintf("Black-Scholes S=%.2f K=%.2f T=%.4f σ=%.4f r=%.4f\nCall: %.4f\nPut: %.4f",
		p.Spot, p.Strike, p.TimeToMaturity, p.Volatility, p.RiskFreeRate, price.Call, price.Put)
}

func formatGreeks(t models.OptionType, g models.Greeks) string {
	return fmt.Sprintf("%s Greeks\nDelta: %.4f\nGamma: %.4f\nTheta (per day): %.4f\nVega (per 1%%): %.4f\nRho (per 1%%): %.4f",
		t, g.Delta, g.Gamma, g.Theta, g.Vega, g.Rho)
}

func formatMonteCarlo(r models.MonteCarloResult) string {
	return fmt.Sprintf("Monte Carlo (%d paths, %.1f ms)\nCall: %.4f ± %.4f (95%% CI %.4f to %.4f)\nPut: %.4f ± %.4f",
		r.SimulationCount, r.ComputationTimeMs,
		r.CallPrice, r.StandardError, r.ConfidenceInterval95.Low, r.ConfidenceInterval95.High,
		r.PutPrice, r.PutStandardError)
}

func formatComparison(r models.ComparisonResult) string {
	return fmt.Sprintf("%s\nBlack-Scholes call: %.4f put: %.4f\nDifference call: %.4f (%.2f%%) put: %.4f (%.2f%%)",
		formatMonteCarlo(r.MonteCarlo),
		r.Analytic.Call, r.Analytic.Put,
		r.Differences.Call, r.Differences.CallPercent, r.Differences.Put, r.Differences.PutPercent)
}
