// Package qbslack exposes the pricing engine as Slack slash commands over Socket Mode.
package qbslack

import (
	"context"

	"github.com/bcdannyboy/quantbox/engine"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"
	"go.uber.org/zap"
)

type SlackBot struct {
	client       *slack.Client
	socketClient *socketmode.Client
	eventHandler *Handler
	log          *zap.Logger
}

// NewSlackBot wires a bot; md may be nil, which disables /quote.
func NewSlackBot(appToken, botToken string, pricer engine.Pricer, md MarketData, log *zap.Logger) *SlackBot {
	if log == nil {
		log = zap.NewNop()
	}

	client := slack.New(
		botToken,
		slack.OptionAppLevelToken(appToken),
		slack.OptionLog(zap.NewStdLog(log.Named("slack"))),
	)

	socketClient := socketmode.New(
		client,
		socketmode.OptionLog(zap.NewStdLog(log.Named("socketmode"))),
	)

	return &SlackBot{
		client:       client,
		socketClient: socketClient,
		eventHandler: NewHandler(pricer, md, log),
		log:          log,
	}
}

// Start blocks until ctx is cancelled or the socket connection fails.
func (sb *SlackBot) Start(ctx context.Context) error {
	go func() {
		for evt := range sb.socketClient.Events {
			switch evt.Type {
			case socketmode.EventTypeConnecting:
				sb.log.Info("connecting to slack")
			case socketmode.EventTypeConnected:
				sb.log.Info("connected to slack")
			case socketmode.EventTypeConnectionError:
				sb.log.Warn("slack connection error")
			case socketmode.EventTypeSlashCommand:
				cmd, ok := evt.Data.(slack.SlashCommand)
				if !ok {
					continue
				}
				sb.socketClient.Ack(*evt.Request)
				if err := sb.eventHandler.Handle(ctx, cmd, sb.socketClient); err != nil {
					sb.log.Error("slash command failed", zap.String("command", cmd.Command), zap.Error(err))
				}
			}
		}
	}()

	err := sb.socketClient.RunContext(ctx)
	sb.eventHandler.Wait()
	return err
}
