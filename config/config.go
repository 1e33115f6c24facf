package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bcdannyboy/quantbox/models"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type LoggingConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type EngineConfig struct {
	Workers              int           `mapstructure:"workers"` // 0 = logical CPUs
	ChunkSize            int           `mapstructure:"chunk_size"`
	Seed                 uint64        `mapstructure:"seed"` // 0 = fresh seed per run
	Timeout              time.Duration `mapstructure:"timeout"`
	MaxSimulations       int           `mapstructure:"max_simulations"`
	MaxConvergencePoints int           `mapstructure:"max_convergence_points"`
	NormalMethod         string        `mapstructure:"normal_method"`
}

type HeatmapConfig struct {
	SpotSteps int     `mapstructure:"spot_steps"`
	SpotRange float64 `mapstructure:"spot_range"`
	VolSteps  int     `mapstructure:"vol_steps"`
	VolRange  float64 `mapstructure:"vol_range"`
}

type TradierConfig struct {
	Key               string        `mapstructure:"key"`
	BaseURL           string        `mapstructure:"base_url"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	QuoteTTL          time.Duration `mapstructure:"quote_ttl"`
	VolLookbackDays   int           `mapstructure:"vol_lookback_days"`
	VolEstimator      string        `mapstructure:"vol_estimator"`
}

type SlackConfig struct {
	AppToken string `mapstructure:"app_token"`
	BotToken string `mapstructure:"bot_token"`
}

type Config struct {
	Port       string        `mapstructure:"port"`
	CORSOrigin string        `mapstructure:"cors_origin"`
	Logging    LoggingConfig `mapstructure:"logging"`
	Engine     EngineConfig  `mapstructure:"engine"`
	Heatmap    HeatmapConfig `mapstructure:"heatmap"`
	Tradier    TradierConfig `mapstructure:"tradier"`
	Slack      SlackConfig   `mapstructure:"slack"`
}

func Default() *Config {
	return &Config{
		Port:       "8080",
		CORSOrigin: "http://localhost:3000",
		Logging: LoggingConfig{
			Level: "info",
		},
		Engine: EngineConfig{
			ChunkSize:            10_000,
			Timeout:              30 * time.Second,
			MaxSimulations:       10_000_000,
			MaxConvergencePoints: 1000,
			NormalMethod:         string(models.Ziggurat),
		},
		Heatmap: HeatmapConfig{
			SpotSteps: 100,
			SpotRange: 0.5,
			VolSteps:  10,
			VolRange:  0.5,
		},
		Tradier: TradierConfig{
			BaseURL:           "https://api.tradier.com",
			RequestsPerSecond: 2,
			QuoteTTL:          300 * time.Second,
			VolLookbackDays:   63,
			VolEstimator:      string(models.YangZhang),
		},
	}
}

// Load layers configuration: defaults, then the YAML file at path (skipped when
// missing), then a .env file, then the process environment. Environment names
// are the key paths upper-cased with dots as underscores (ENGINE_CHUNK_SIZE).
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envAliases {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envAliases keeps the short names the deployment already uses.
var envAliases = map[string]string{
	"logging.level":               "LOG_LEVEL",
	"logging.file":                "LOG_FILE",
	"tradier.requests_per_second": "TRADIER_RPS",
	"tradier.vol_lookback_days":   "TRADIER_VOL_LOOKBACK",
}

// setDefaults registers every key, which AutomaticEnv needs to see it.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("port", d.Port)
	v.SetDefault("cors_origin", d.CORSOrigin)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)

	v.SetDefault("engine.workers", d.Engine.Workers)
	v.SetDefault("engine.chunk_size", d.Engine.ChunkSize)
	v.SetDefault("engine.seed", d.Engine.Seed)
	v.SetDefault("engine.timeout", d.Engine.Timeout)
	v.SetDefault("engine.max_simulations", d.Engine.MaxSimulations)
	v.SetDefault("engine.max_convergence_points", d.Engine.MaxConvergencePoints)
	v.SetDefault("engine.normal_method", d.Engine.NormalMethod)

	v.SetDefault("heatmap.spot_steps", d.Heatmap.SpotSteps)
	v.SetDefault("heatmap.spot_range", d.Heatmap.SpotRange)
	v.SetDefault("heatmap.vol_steps", d.Heatmap.VolSteps)
	v.SetDefault("heatmap.vol_range", d.Heatmap.VolRange)

	v.SetDefault("tradier.key", d.Tradier.Key)
	v.SetDefault("tradier.base_url", d.Tradier.BaseURL)
	v.SetDefault("tradier.requests_per_second", d.Tradier.RequestsPerSecond)
	v.SetDefault("tradier.quote_ttl", d.Tradier.QuoteTTL)
	v.SetDefault("tradier.vol_lookback_days", d.Tradier.VolLookbackDays)
	v.SetDefault("tradier.vol_estimator", d.Tradier.VolEstimator)

	v.SetDefault("slack.app_token", d.Slack.AppToken)
	v.SetDefault("slack.bot_token", d.Slack.BotToken)
}

func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("config: port must be set")
	}
	if c.Engine.Workers < 0 {
		return fmt.Errorf("config: engine.workers must not be negative, got %d", c.Engine.Workers)
	}
	if c.Engine.ChunkSize <= 0 {
		return fmt.Errorf("config: engine.chunk_size must be positive, got %d", c.Engine.ChunkSize)
	}
	if c.Engine.Timeout < 0 {
		return fmt.Errorf("config: engine.timeout must not be negative, got %s", c.Engine.Timeout)
	}
	if c.Engine.MaxConvergencePoints <= 0 {
		return fmt.Errorf("config: engine.max_convergence_points must be positive, got %d", c.Engine.MaxConvergencePoints)
	}
	if _, err := models.ParseNormalMethod(c.Engine.NormalMethod); err != nil {
		return fmt.Errorf("config: engine.normal_method: %w", err)
	}
	if _, err := models.ParseVolatilityEstimator(c.Tradier.VolEstimator); err != nil {
		return fmt.Errorf("config: tradier.vol_estimator: %w", err)
	}
	if c.Tradier.RequestsPerSecond <= 0 {
		return fmt.Errorf("config: tradier.requests_per_second must be positive, got %v", c.Tradier.RequestsPerSecond)
	}
	if c.Tradier.VolLookbackDays < 2 {
		return fmt.Errorf("config: tradier.vol_lookback_days must be at least 2, got %d", c.Tradier.VolLookbackDays)
	}
	return nil
}
