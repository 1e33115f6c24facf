package qbslack

import (
	"github.com/slack-go/slack"
)

const helpText = "Available commands:\n" +
	"/help - Show this help message\n" +
	"/bs <spot> <strike> <years> <vol> <rate> - Black-Scholes call and put prices\n" +
	"/greeks <call|put> <spot> <strike> <years> <vol> <rate> - Option Greeks\n" +
	"/mc <spot> <strike> <years> <vol> <rate> [paths] - Monte Carlo prices\n" +
	"/compare <spot> <strike> <years> <vol> <rate> [paths] - Monte Carlo against Black-Scholes\n" +
	"/convergence <spot> <strike> <years> <vol> <rate> <maxPaths> <step> - Convergence sweep\n" +
	"/quote <symbol> <strike> <expiry YYYY-MM-DD> [rate] - Price a listed underlying from market data"

type HelpHandler struct{}

func NewHelpHandler() *HelpHandler {
	return &HelpHandler{}
}

func (h *HelpHandler) HandleCommand(data slack.SlashCommand, client Poster) error {
	_, err := reply(client, data.ChannelID, helpText)
	return err
}
