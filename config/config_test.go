package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bcdannyboy/quantbox/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, 100, cfg.Heatmap.SpotSteps)
	require.Equal(t, 10, cfg.Heatmap.VolSteps)
	require.Equal(t, 300*time.Second, cfg.Tradier.QuoteTTL)
	require.Equal(t, "ziggurat", cfg.Engine.NormalMethod)
}

func TestLoadYAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "9090"
engine:
  workers: 4
  timeout: 5s
  seed: 1234
heatmap:
  vol_steps: 20
tradier:
  vol_estimator: parkinson
`), 0o600))

	t.Setenv("PORT", "7070")
	t.Setenv("ENGINE_MAX_SIMULATIONS", "5000")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "7070", cfg.Port, "environment wins over file")
	require.Equal(t, 4, cfg.Engine.Workers)
	require.Equal(t, 5*time.Second, cfg.Engine.Timeout)
	require.Equal(t, uint64(1234), cfg.Engine.Seed)
	require.Equal(t, 5000, cfg.Engine.MaxSimulations)
	require.Equal(t, 20, cfg.Heatmap.VolSteps)
	require.Equal(t, 100, cfg.Heatmap.SpotSteps, "unset keys keep defaults")
	require.Equal(t, "parkinson", cfg.Tradier.VolEstimator)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("ENGINE_CHUNK_SIZE", "lots")
	_, err := config.Load("")
	require.ErrorContains(t, err, "chunk_size")
}

func TestLoadShortEnvNames(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TRADIER_RPS", "5")
	t.Setenv("TRADIER_VOL_LOOKBACK", "21")
	t.Setenv("TRADIER_QUOTE_TTL", "1m")
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-test")

	cfg, err := config.Load("")
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, 5.0, cfg.Tradier.RequestsPerSecond)
	require.Equal(t, 21, cfg.Tradier.VolLookbackDays)
	require.Equal(t, time.Minute, cfg.Tradier.QuoteTTL)
	require.Equal(t, "xoxb-test", cfg.Slack.BotToken)
}

func TestLoadValidatesMergedValues(t *testing.T) {
	t.Setenv("ENGINE_NORMAL_METHOD", "sobol")
	_, err := config.Load("")
	require.ErrorContains(t, err, "normal_method")
}

func TestValidate(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())

	cfg.Engine.NormalMethod = "sobol"
	require.Error(t, cfg.Validate())

	cfg = config.Default()
	cfg.Tradier.VolLookbackDays = 1
	require.Error(t, cfg.Validate())

	cfg = config.Default()
	cfg.Engine.ChunkSize = 0
	require.Error(t, cfg.Validate())
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine: [1, 2"), 0o600))
	_, err := config.Load(path)
	require.Error(t, err)
}
