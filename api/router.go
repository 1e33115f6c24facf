package api

import (
	"github.com/bcdannyboy/quantbox/engine"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Pricer     engine.Pricer
	Market     MarketData // optional
	Gatherer   prometheus.Gatherer
	Logger     *zap.Logger
	CORSOrigin string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(recoveryMiddleware(log), loggingMiddleware(log))
	if cfg.CORSOrigin != "" {
		r.Use(corsMiddleware(cfg.CORSOrigin))
	}

	h := NewHandler(cfg.Pricer, cfg.Market)

	apiGroup := r.Group("/api")
	apiGroup.GET("/health", h.Health)

	bs := apiGroup.Group("/black-scholes")
	bs.POST("/get-options-prices", h.OptionsPrices)
	bs.POST("/get-greeks-prices", h.Greeks)
	bs.POST("/get-heatmap-prices", h.Heatmap)

	mc := apiGroup.Group("/monte-carlo")
	mc.POST("/get-price", h.MonteCarlo)
	mc.POST("/get-price-parallel", h.MonteCarlo)
	mc.POST("/get-comparison", h.Comparison)
	mc.POST("/get-convergence", h.Convergence)

	if cfg.Market != nil {
		apiGroup.GET("/market/parameters", h.MarketParameters)
	}

	if cfg.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	return r
}
