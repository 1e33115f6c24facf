package qbslack_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcdannyboy/quantbox/engine"
	"github.com/bcdannyboy/quantbox/market"
	"github.com/bcdannyboy/quantbox/models"
	"github.com/bcdannyboy/quantbox/probability"
	qbslack "github.com/bcdannyboy/quantbox/slack"
)

type post struct {
	channel string
	text    string
	thread  string
}

type recorder struct {
	mu    sync.Mutex
	posts []post
}

func (r *recorder) PostMessage(channelID string, options ...slack.MsgOption) (string, string, error) {
	_, values, err := slack.UnsafeApplyMsgOptions("token", channelID, "https://slack.com/api/", options...)
	if err != nil {
		return "", "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts = append(r.posts, post{channel: channelID, text: values.Get("text"), thread: values.Get("thread_ts")})
	return channelID, "1700000000.000100", nil
}

func (r *recorder) all() []post {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]post(nil), r.posts...)
}

type stubMarket struct{ err error }

func (s stubMarket) Parameters(ctx context.Context, symbol string, strike float64, expiry string, rate float64) (market.Snapshot, error) {
	if s.err != nil {
		return market.Snapshot{}, s.err
	}
	p := models.MarketParameters{Spot: 100, Strike: strike, TimeToMaturity: 1, Volatility: 0.2, RiskFreeRate: rate}
	return market.Snapshot{Symbol: symbol, Spot: 100, Volatility: 0.2, Estimator: models.CloseToClose, Bars: 63, Parameters: p}, nil
}

func newHandler(md qbslack.MarketData) *qbslack.Handler {
	return newHandlerWith(engine.Config{}, md)
}

func newHandlerWith(cfg engine.Config, md qbslack.MarketData) *qbslack.Handler {
	eng := engine.New(cfg, probability.NewSimulator(probability.WithSeed(5)), nil, nil)
	return qbslack.NewHandler(eng, md, nil)
}

func command(name, text string) slack.SlashCommand {
	return slack.SlashCommand{Command: name, Text: text, ChannelID: "C123"}
}

func TestHelp(t *testing.T) {
	rec := &recorder{}
	require.NoError(t, newHandler(nil).Handle(context.Background(), command("/help", ""), rec))

	posts := rec.all()
	require.Len(t, posts, 1)
	assert.Equal(t, "C123", posts[0].channel)
	assert.Contains(t, posts[0].text, "/convergence")
}

func TestBlackScholesCommand(t *testing.T) {
	rec := &recorder{}
	h := newHandler(nil)

	require.NoError(t, h.Handle(context.Background(), command("/bs", "100 100 1 0.2 0.05"), rec))
	require.NoError(t, h.Handle(context.Background(), command("/bs", "100 100"), rec))
	require.NoError(t, h.Handle(context.Background(), command("/bs", "100 abc 1 0.2 0.05"), rec))
	require.NoError(t, h.Handle(context.Background(), command("/bs", "100 100 1 -0.2 0.05"), rec))

	posts := rec.all()
	require.Len(t, posts, 4)
	assert.Contains(t, posts[0].text, "Call: 10.4506")
	assert.Contains(t, posts[0].text, "Put: 5.5735")
	assert.Contains(t, posts[1].text, "Usage: /bs")
	assert.Contains(t, posts[2].text, `strike "abc" is not a number`)
	assert.True(t, strings.HasPrefix(posts[3].text, "Invalid input"), posts[3].text)
}

func TestGreeksCommand(t *testing.T) {
	rec := &recorder{}
	h := newHandler(nil)

	require.NoError(t, h.Handle(context.Background(), command("/greeks", "put 100 100 1 0.2 0.05"), rec))
	require.NoError(t, h.Handle(context.Background(), command("/greeks", "straddle 100 100 1 0.2 0.05"), rec))

	posts := rec.all()
	require.Len(t, posts, 2)
	assert.Contains(t, posts[0].text, "Put Greeks")
	assert.Contains(t, posts[0].text, "Delta: -0.3632")
	assert.True(t, strings.HasPrefix(posts[1].text, "Invalid input"), posts[1].text)
}

func TestMonteCarloCommands(t *testing.T) {
	rec := &recorder{}
	h := newHandler(nil)

	require.NoError(t, h.Handle(context.Background(), command("/mc", "100 100 1 0.2 0.05 20000"), rec))
	h.Wait()
	require.NoError(t, h.Handle(context.Background(), command("/compare", "100 100 1 0.2 0.05 20000"), rec))
	h.Wait()
	require.NoError(t, h.Handle(context.Background(), command("/mc", "100 100 1 0.2 0.05 lots"), rec))

	posts := rec.all()
	require.Len(t, posts, 3)
	assert.Contains(t, posts[0].text, "Monte Carlo (20000 paths")
	assert.Contains(t, posts[1].text, "Black-Scholes call: 10.4506")
	assert.Contains(t, posts[2].text, "is not an integer")
}

func TestConvergenceCommandPostsProgressInThread(t *testing.T) {
	rec := &recorder{}
	h := newHandler(nil)

	require.NoError(t, h.Handle(context.Background(), command("/convergence", "100 100 1 0.2 0.05 40000 5000"), rec))
	h.Wait()

	posts := rec.all()
	require.Len(t, posts, 5)
	assert.Contains(t, posts[0].text, "Starting convergence sweep")
	assert.Empty(t, posts[0].thread)
	assert.Equal(t, "Sweep 25% complete...", posts[1].text)
	assert.Equal(t, "Sweep 50% complete...", posts[2].text)
	assert.Equal(t, "Sweep 75% complete...", posts[3].text)
	assert.Contains(t, posts[4].text, "Error decay exponent")
	for _, p := range posts[1:] {
		assert.Equal(t, "1700000000.000100", p.thread)
	}
}

func TestConvergenceCommandReportsEngineErrors(t *testing.T) {
	rec := &recorder{}
	h := newHandler(nil)

	require.NoError(t, h.Handle(context.Background(), command("/convergence", "100 100 1 0.2 0.05 1000 5000"), rec))
	h.Wait()

	posts := rec.all()
	require.Len(t, posts, 2)
	assert.True(t, strings.HasPrefix(posts[1].text, "Invalid input"), posts[1].text)
}

func TestQuoteCommand(t *testing.T) {
	rec := &recorder{}
	require.NoError(t, newHandler(nil).Handle(context.Background(), command("/quote", "spy 100 2025-01-17"), rec))
	require.NoError(t, newHandler(stubMarket{}).Handle(context.Background(), command("/quote", "spy 100 2025-01-17 0.05"), rec))
	require.NoError(t, newHandler(stubMarket{err: errors.New("upstream down")}).Handle(context.Background(), command("/quote", "spy 100 2025-01-17"), rec))

	posts := rec.all()
	require.Len(t, posts, 3)
	assert.Equal(t, "Market data is not configured.", posts[0].text)
	assert.Contains(t, posts[1].text, "SPY spot 100.00")
	assert.Contains(t, posts[1].text, "Call: 10.4506")
	assert.Contains(t, posts[2].text, "upstream down")
}

func TestUnknownCommandIsIgnored(t *testing.T) {
	rec := &recorder{}
	require.NoError(t, newHandler(nil).Handle(context.Background(), command("/fcs", "SPY"), rec))
	assert.Empty(t, rec.all())
}

func TestMonteCarloRunsOffTheEventLoop(t *testing.T) {
	rec := &recorder{}
	h := newHandler(nil)

	require.NoError(t, h.Handle(context.Background(), command("/mc", "100 100 1 0.2 0.05 200000"), rec))
	require.NoError(t, h.Handle(context.Background(), command("/help", ""), rec))
	h.Wait()

	posts := rec.all()
	require.Len(t, posts, 2)
	var texts []string
	for _, p := range posts {
		texts = append(texts, p.text)
	}
	assert.Contains(t, strings.Join(texts, "\n"), "Monte Carlo (200000 paths")
	assert.Contains(t, strings.Join(texts, "\n"), "Available commands")
}

func TestErrorRepliesSayWhatToDo(t *testing.T) {
	rec := &recorder{}
	slow := newHandlerWith(engine.Config{Timeout: time.Nanosecond}, nil)

	require.NoError(t, slow.Handle(context.Background(), command("/mc", "100 100 1 0.2 0.05 50000000"), rec))
	slow.Wait()
	require.NoError(t, newHandler(nil).Handle(context.Background(), command("/bs", "100 0 1 0.2 0.05"), rec))
	require.NoError(t, newHandler(nil).Handle(context.Background(), command("/bs", "-100 100 1 0.2 0.05"), rec))

	posts := rec.all()
	require.Len(t, posts, 3)
	assert.True(t, strings.HasPrefix(posts[0].text, "Timed out, retry with fewer simulations"), posts[0].text)
	assert.True(t, strings.HasPrefix(posts[1].text, "Numeric fault"), posts[1].text)
	assert.True(t, strings.HasPrefix(posts[2].text, "Invalid input"), posts[2].text)
}
