// Package market turns live quotes and price history into pricing inputs.
package market

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/bcdannyboy/quantbox/models"
	"github.com/bcdannyboy/quantbox/positions"
	"github.com/bcdannyboy/quantbox/tradier"
	"github.com/xhhuango/json"
	"go.uber.org/zap"
)

// Provider is the market data source, satisfied by *tradier.Client.
type Provider interface {
	GetQuote(ctx context.Context, symbol string) (*tradier.Quote, error)
	GetHistory(ctx context.Context, symbol, start, end, interval string) (*tradier.QuoteHistory, error)
}

type Config struct {
	QuoteTTL     time.Duration
	LookbackDays int
	Estimator    models.VolatilityEstimator
}

type Service struct {
	provider Provider
	cache    *bigcache.BigCache
	cfg      Config
	log      *zap.Logger
	now      func() time.Time
}

// Snapshot is what a pricing request needs from the market, plus where it came from.
type Snapshot struct {
	Symbol     string
	Spot       float64
	Volatility float64
	Estimator  models.VolatilityEstimator
	Bars       int
	Parameters models.MarketParameters
}

func NewService(ctx context.Context, provider Provider, cfg Config, log *zap.Logger) (*Service, error) {
	if cfg.QuoteTTL <= 0 {
		cfg.QuoteTTL = 300 * time.Second
	}
	if cfg.LookbackDays < 2 {
		cfg.LookbackDays = 63
	}
	if cfg.Estimator == "" {
		cfg.Estimator = models.YangZhang
	}
	if log == nil {
		log = zap.NewNop()
	}

	cacheCfg := bigcache.DefaultConfig(cfg.QuoteTTL)
	cacheCfg.CleanWindow = cfg.QuoteTTL
	cacheCfg.Verbose = false
	cache, err := bigcache.New(ctx, cacheCfg)
	if err != nil {
		return nil, fmt.Errorf("quote cache: %w", err)
	}

	return &Service{provider: provider, cache: cache, cfg: cfg, log: log, now: time.Now}, nil
}

func (s *Service) Close() error {
	return s.cache.Close()
}

// Quote serves the latest quote, hitting the provider at most once per TTL per symbol.
func (s *Service) Quote(ctx context.Context, symbol string) (*tradier.Quote, error) {
	key := "quote:" + symbol
	if data, err := s.cache.Get(key); err == nil {
		quote := &tradier.Quote{}
		if err := json.Unmarshal(data, quote); err == nil {
			return quote, nil
		}
	} else if !errors.Is(err, bigcache.ErrEntryNotFound) {
		s.log.Warn("quote cache read failed", zap.String("symbol", symbol), zap.Error(err))
	}

	quote, err := s.provider.GetQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(quote); err == nil {
		if err := s.cache.Set(key, data); err != nil {
			s.log.Warn("quote cache write failed", zap.String("symbol", symbol), zap.Error(err))
		}
	}
	return quote, nil
}

// RealizedVolatility estimates annualized volatility over the configured lookback window.
func (s *Service) RealizedVolatility(ctx context.Context, symbol string) (float64, int, error) {
	end := s.now()
	// calendar window wide enough to hold the requested trading days
	start := end.AddDate(0, 0, -(s.cfg.LookbackDays*7/5 + 10))

	history, err := s.provider.GetHistory(ctx, symbol, start.Format("2006-01-02"), end.Format("2006-01-02"), "daily")
	if err != nil {
		return 0, 0, err
	}

	bars := history.Bars()
	if len(bars) > s.cfg.LookbackDays {
		bars = bars[len(bars)-s.cfg.LookbackDays:]
	}

	vol, err := models.RealizedVolatility(bars, s.cfg.Estimator)
	if err != nil {
		return 0, 0, fmt.Errorf("%s realized volatility: %w", symbol, err)
	}
	return vol, len(bars), nil
}

// Parameters assembles pricing inputs for a listed underlying: spot from the
// last trade, maturity from the expiry date and volatility from recent history.
func (s *Service) Parameters(ctx context.Context, symbol string, strike float64, expiry string, rate float64) (Snapshot, error) {
	T, err := positions.YearFraction(expiry, s.now())
	if err != nil {
		return Snapshot{}, err
	}

	quote, err := s.Quote(ctx, symbol)
	if err != nil {
		return Snapshot{}, err
	}
	spot := quote.Last
	if spot <= 0 {
		spot = (quote.Bid + quote.Ask) / 2
	}

	vol, n, err := s.RealizedVolatility(ctx, symbol)
	if err != nil {
		return Snapshot{}, err
	}

	p := models.MarketParameters{
		Spot:           spot,
		Strike:         strike,
		TimeToMaturity: T,
		Volatility:     vol,
		RiskFreeRate:   rate,
	}
	if err := p.Validate(); err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		Symbol:     symbol,
		Spot:       spot,
		Volatility: vol,
		Estimator:  s.cfg.Estimator,
		Bars:       n,
		Parameters: p,
	}, nil
}
