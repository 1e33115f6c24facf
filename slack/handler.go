package qbslack

import (
	"context"
	"sync"

	"github.com/bcdannyboy/quantbox/engine"
	"github.com/bcdannyboy/quantbox/market"
	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

// Poster is the slice of the Slack client the handlers use; *socketmode.Client satisfies it.
type Poster interface {
	PostMessage(channelID string, options ...slack.MsgOption) (string, string, error)
}

type MarketData interface {
	Parameters(ctx context.Context, symbol string, strike float64, expiry string, rate float64) (market.Snapshot, error)
}

type Handler struct {
	helpHandler        *HelpHandler
	pricingHandler     *PricingHandler
	convergenceHandler *ConvergenceHandler
	quoteHandler       *QuoteHandler

	// background commands still posting results
	wg sync.WaitGroup
}

func NewHandler(pricer engine.Pricer, md MarketData, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{
		helpHandler:  NewHelpHandler(),
		quoteHandler: NewQuoteHandler(pricer, md),
	}
	h.pricingHandler = NewPricingHandler(pricer, &h.wg, log)
	h.convergenceHandler = NewConvergenceHandler(pricer, &h.wg, log)
	return h
}

func (h *Handler) Handle(ctx context.Context, data slack.SlashCommand, client Poster) error {
	switch data.Command {
	case "/help":
		return h.helpHandler.HandleCommand(data, client)
	case "/bs":
		return h.pricingHandler.HandlePrices(data, client)
	case "/greeks":
		return h.pricingHandler.HandleGreeks(data, client)
	case "/mc":
		return h.pricingHandler.HandleMonteCarlo(ctx, data, client)
	case "/compare":
		return h.pricingHandler.HandleCompare(ctx, data, client)
	case "/convergence":
		return h.convergenceHandler.HandleCommand(ctx, data, client)
	case "/quote":
		return h.quoteHandler.HandleCommand(ctx, data, client)
	}
	return nil
}

// Wait blocks until background commands have posted their results.
func (h *Handler) Wait() {
	h.wg.Wait()
}

func reply(client Poster, channelID, text string, opts ...slack.MsgOption) (string, error) {
	opts = append([]slack.MsgOption{slack.MsgOptionText(text, false)}, opts...)
	_, ts, err := client.PostMessage(channelID, opts...)
	return ts, err
}
