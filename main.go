package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bcdannyboy/quantbox/api"
	"github.com/bcdannyboy/quantbox/config"
	"github.com/bcdannyboy/quantbox/engine"
	"github.com/bcdannyboy/quantbox/logger"
	"github.com/bcdannyboy/quantbox/market"
	"github.com/bcdannyboy/quantbox/models"
	"github.com/bcdannyboy/quantbox/positions"
	"github.com/bcdannyboy/quantbox/probability"
	qbslack "github.com/bcdannyboy/quantbox/slack"
	"github.com/bcdannyboy/quantbox/tradier"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	mpb "github.com/vbauerster/mpb/v7"
	"github.com/vbauerster/mpb/v7/decor"
	"github.com/xhhuango/json"
	"go.uber.org/zap"
)

const usageText = `usage: quantbox <command> [flags]

commands:
  serve    run the HTTP API (default)
  slack    run the Slack bot
  report   price one contract and write a JSON report`

func main() {
	mode := "serve"
	args := os.Args[1:]
	if len(args) > 0 {
		mode, args = args[0], args[1:]
	}

	configPath := os.Getenv("QUANTBOX_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %s\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.Logging.Level, File: cfg.Logging.File})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building logger: %s\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch mode {
	case "serve":
		err = serve(ctx, cfg, log)
	case "slack":
		err = runSlack(ctx, cfg, log)
	case "report":
		err = report(ctx, cfg, log, args)
	default:
		fmt.Fprintln(os.Stderr, usageText)
		os.Exit(2)
	}
	if err != nil {
		log.Error("quantbox exited with error", zap.String("mode", mode), zap.Error(err))
		os.Exit(1)
	}
}

func newEngine(cfg *config.Config, reg prometheus.Registerer, log *zap.Logger) (*engine.Engine, error) {
	method, err := models.ParseNormalMethod(cfg.Engine.NormalMethod)
	if err != nil {
		return nil, err
	}

	opts := []probability.Option{
		probability.WithWorkers(cfg.Engine.Workers),
		probability.WithChunkSize(cfg.Engine.ChunkSize),
		probability.WithNormalMethod(method),
		probability.WithMaxConvergencePoints(cfg.Engine.MaxConvergencePoints),
	}
	if cfg.Engine.Seed != 0 {
		opts = append(opts, probability.WithSeed(cfg.Engine.Seed))
	}
	sim := probability.NewSimulator(opts...)

	heatmap := positions.DefaultHeatmapConfig()
	heatmap.SpotSteps = cfg.Heatmap.SpotSteps
	heatmap.SpotRange = cfg.Heatmap.SpotRange
	heatmap.VolSteps = cfg.Heatmap.VolSteps
	heatmap.VolRange = cfg.Heatmap.VolRange
	heatmap.Workers = sim.Workers()
	if err := heatmap.Validate(); err != nil {
		return nil, fmt.Errorf("heatmap config: %w", err)
	}

	log.Info("engine configured",
		zap.Int("workers", sim.Workers()),
		zap.Int("chunk_size", cfg.Engine.ChunkSize),
		zap.String("normal_method", string(method)),
		zap.Bool("seeded", cfg.Engine.Seed != 0),
		zap.Duration("timeout", cfg.Engine.Timeout),
	)

	return engine.New(engine.Config{
		Timeout:        cfg.Engine.Timeout,
		MaxSimulations: cfg.Engine.MaxSimulations,
		Heatmap:        heatmap,
	}, sim, engine.NewMetrics(reg), log), nil
}

// newMarket returns nil when no Tradier key is configured.
func newMarket(ctx context.Context, cfg *config.Config, log *zap.Logger) (*market.Service, error) {
	if cfg.Tradier.Key == "" {
		log.Info("TRADIER_KEY not set, market data disabled")
		return nil, nil
	}
	estimator, err := models.ParseVolatilityEstimator(cfg.Tradier.VolEstimator)
	if err != nil {
		return nil, err
	}
	client := tradier.NewClient(cfg.Tradier.Key,
		tradier.WithBaseURL(cfg.Tradier.BaseURL),
		tradier.WithRateLimit(cfg.Tradier.RequestsPerSecond),
	)
	return market.NewService(ctx, client, market.Config{
		QuoteTTL:     cfg.Tradier.QuoteTTL,
		LookbackDays: cfg.Tradier.VolLookbackDays,
		Estimator:    estimator,
	}, log.Named("market"))
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	eng, err := newEngine(cfg, reg, log)
	if err != nil {
		return err
	}

	routerCfg := api.RouterConfig{Pricer: eng, Gatherer: reg, Logger: log, CORSOrigin: cfg.CORSOrigin}
	svc, err := newMarket(ctx, cfg, log)
	if err != nil {
		return err
	}
	if svc != nil {
		defer svc.Close()
		routerCfg.Market = svc
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("starting HTTP server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runSlack(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	if cfg.Slack.AppToken == "" || cfg.Slack.BotToken == "" {
		return errors.New("SLACK_APP_TOKEN and SLACK_BOT_TOKEN must be set")
	}

	eng, err := newEngine(cfg, prometheus.NewRegistry(), log)
	if err != nil {
		return err
	}

	var md qbslack.MarketData
	svc, err := newMarket(ctx, cfg, log)
	if err != nil {
		return err
	}
	if svc != nil {
		defer svc.Close()
		md = svc
	}

	bot := qbslack.NewSlackBot(cfg.Slack.AppToken, cfg.Slack.BotToken, eng, md, log.Named("slackbot"))
	err = bot.Start(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

type contractReport struct {
	GeneratedAt time.Time                `json:"generated_at"`
	Parameters  models.MarketParameters  `json:"parameters"`
	Prices      models.OptionPrice       `json:"prices"`
	CallGreeks  models.Greeks            `json:"call_greeks"`
	PutGreeks   models.Greeks            `json:"put_greeks"`
	Comparison  models.ComparisonResult  `json:"comparison"`
	Convergence models.ConvergenceResult `json:"convergence"`
}

func report(ctx context.Context, cfg *config.Config, log *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	var p models.MarketParameters
	fs.Float64Var(&p.Spot, "spot", 100, "spot price")
	fs.Float64Var(&p.Strike, "strike", 100, "strike price")
	fs.Float64Var(&p.TimeToMaturity, "years", 1, "time to maturity in years")
	fs.Float64Var(&p.Volatility, "vol", 0.2, "annualized volatility")
	fs.Float64Var(&p.RiskFreeRate, "rate", 0.05, "risk-free rate")
	paths := fs.Int("paths", engine.DefaultNumSimulations, "Monte Carlo paths for the comparison")
	maxPaths := fs.Int("max", 1_000_000, "largest convergence run")
	step := fs.Int("step", 50_000, "convergence step")
	out := fs.String("out", "report.json", "output file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	eng, err := newEngine(cfg, prometheus.NewRegistry(), log)
	if err != nil {
		return err
	}

	rep := contractReport{GeneratedAt: time.Now().UTC(), Parameters: p}
	if rep.Prices, err = eng.Prices(p); err != nil {
		return err
	}
	if rep.CallGreeks, err = eng.Greeks(p, models.Call); err != nil {
		return err
	}
	if rep.PutGreeks, err = eng.Greeks(p, models.Put); err != nil {
		return err
	}
	if rep.Comparison, err = eng.Compare(ctx, p, *paths); err != nil {
		return err
	}

	total := 1
	if *step > 0 && *maxPaths >= *step {
		total = *maxPaths / *step
	}
	progress := mpb.New(mpb.WithWidth(64))
	bar := progress.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name("Convergence"),
			decor.Percentage(decor.WCSyncSpace),
		),
		mpb.AppendDecorators(
			decor.CountersNoUnit("(%d / %d)", decor.WCSyncSpace),
		),
	)
	rep.Convergence, err = eng.Convergence(ctx, p, *maxPaths, *step, func(done, _ int) {
		bar.SetCurrent(int64(done))
	})
	if err != nil {
		bar.Abort(false)
		progress.Wait()
		return err
	}
	progress.Wait()

	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", *out, err)
	}

	log.Info("report written",
		zap.String("file", *out),
		zap.Float64("call", rep.Prices.Call),
		zap.Float64("mc_call", rep.Comparison.MonteCarlo.CallPrice),
		zap.Float64("final_difference", rep.Convergence.FinalDifference),
	)
	return nil
}
