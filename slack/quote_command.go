package qbslack

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bcdannyboy/quantbox/engine"
	"github.com/bcdannyboy/quantbox/models"
	"github.com/slack-go/slack"
)

type QuoteHandler struct {
	pricer engine.Pricer
	market MarketData
}

func NewQuoteHandler(pricer engine.Pricer, md MarketData) *QuoteHandler {
	return &QuoteHandler{pricer: pricer, market: md}
}

func (h *QuoteHandler) HandleCommand(ctx context.Context, data slack.SlashCommand, client Poster) error {
	if h.market == nil {
		_, err := reply(client, data.ChannelID, "Market data is not configured.")
		return err
	}
	args := strings.Fields(data.Text)
	if len(args) != 3 && len(args) != 4 {
		return usage(client, data.ChannelID, "/quote <symbol> <strike> <expiry YYYY-MM-DD> [rate]")
	}
	strike, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return replyError(client, data.ChannelID, fmt.Errorf("%w: strike %q is not a number", models.ErrInvalidParameter, args[1]))
	}
	rate := 0.0
	if len(args) == 4 {
		if rate, err = strconv.ParseFloat(args[3], 64); err != nil {
			return replyError(client, data.ChannelID, fmt.Errorf("%w: rate %q is not a number", models.ErrInvalidParameter, args[3]))
		}
	}

	snap, err := h.market.Parameters(ctx, strings.ToUpper(args[0]), strike, args[2], rate)
	if err != nil {
		return replyError(client, data.ChannelID, err)
	}
	price, err := h.pricer.Prices(snap.Parameters)
	if err != nil {
		return replyError(client, data.ChannelID, err)
	}

	text := fmt.Sprintf("%s spot %.2f, %s volatility %.4f over %d bars\n%s",
		snap.Symbol, snap.Spot, snap.Estimator, snap.Volatility, snap.Bars, formatPrices(snap.Parameters, price))
	_, err = reply(client, data.ChannelID, text)
	return err
}
