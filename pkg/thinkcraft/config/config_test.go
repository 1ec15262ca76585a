package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/thinkcraft/pkg/thinkcraft/config"
)

func TestAccessors(t *testing.T) {
	cfg := config.New(map[string]any{
		"name":     "thinkcraft",
		"enabled":  true,
		"limit":    128,
		"limit64":  int64(7),
		"whole":    float64(3),
		"fraction": 2.5,
		"timeout":  "1m30s",
		"seconds":  2,
		"tags":     []any{"a", "b"},
		"mixed":    []any{"a", 1},
		"nested":   map[string]any{"key": "value"},
	})

	assert.Equal(t, "thinkcraft", cfg.String("name", "x"))
	assert.Equal(t, "x", cfg.String("limit", "x"))
	assert.True(t, cfg.Bool("enabled", false))
	assert.True(t, cfg.Bool("name", true))

	assert.Equal(t, 128, cfg.Int("limit", 0))
	assert.Equal(t, 7, cfg.Int("limit64", 0))
	assert.Equal(t, 3, cfg.Int("whole", 0))
	assert.Equal(t, -1, cfg.Int("fraction", -1))
	assert.Equal(t, -1, cfg.Int("missing", -1))

	assert.InDelta(t, 2.5, cfg.Float("fraction", 0), 1e-9)
	assert.InDelta(t, 128.0, cfg.Float("limit", 0), 1e-9)

	assert.Equal(t, 90*time.Second, cfg.Duration("timeout", 0))
	assert.Equal(t, 2*time.Second, cfg.Duration("seconds", 0))
	assert.Equal(t, 2500*time.Millisecond, cfg.Duration("fraction", 0))
	assert.Equal(t, time.Second, cfg.Duration("name", time.Second))

	assert.Equal(t, []string{"a", "b"}, cfg.StringSlice("tags", nil))
	assert.Equal(t, []string{"d"}, cfg.StringSlice("mixed", []string{"d"}))

	assert.Equal(t, "value", cfg.Section("nested").String("key", ""))
	assert.False(t, cfg.Section("missing").Has("key"))
	assert.False(t, cfg.Section("name").Has("key"))

	assert.True(t, cfg.Has("name"))
	assert.NotNil(t, config.New(nil).Raw())
}

func TestFromYAMLAndJSON(t *testing.T) {
	y, err := config.FromYAML([]byte("bus:\n  async_limit: 16\n"))
	require.NoError(t, err)
	assert.Equal(t, 16, y.Section("bus").Int("async_limit", 0))

	j, err := config.FromJSON([]byte(`{"bus":{"async_limit":16}}`))
	require.NoError(t, err)
	assert.Equal(t, 16, j.Section("bus").Int("async_limit", 0))

	_, err = config.FromYAML([]byte("bus: [unclosed"))
	assert.Error(t, err)
	_, err = config.FromJSON([]byte("{"))
	assert.Error(t, err)
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TC_TEST_REDIS", "localhost:6379")

	yamlPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("redis:\n  addr: ${TC_TEST_REDIS}\n"), 0o600))
	cfg, err := config.FromFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", cfg.Section("redis").String("addr", ""))

	jsonPath := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"log":{"level":"debug"}}`), 0o600))
	cfg, err = config.FromFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Section("log").String("level", ""))

	txtPath := filepath.Join(dir, "config.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("x"), 0o600))
	_, err = config.FromFile(txtPath)
	assert.ErrorContains(t, err, "unsupported")

	_, err = config.FromFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestParse_Defaults(t *testing.T) {
	s := config.Parse(config.New(nil))
	assert.Equal(t, config.DefaultSettings(), s)
	require.NoError(t, s.Validate())
	assert.Equal(t, config.DriverMemory, s.Store.Driver)
	assert.False(t, s.Redis.Enabled())
}

func TestParse_Overrides(t *testing.T) {
	cfg, err := config.FromYAML([]byte(`
log:
  level: debug
  format: text
bus:
  strict: true
  async_limit: 8
  handler_timeout: 5s
  retry:
    max_attempts: 4
    initial_backoff: 10ms
  dlq:
    enabled: true
    max_retries: 2
    poll_interval: 1s
store:
  driver: sqlite
  path: /tmp/tc.db
audit:
  enabled: false
redis:
  addr: localhost:6379
  db: 2
  key_prefix: "tc:"
share_base_url: https://thinkcraft.example
`))
	require.NoError(t, err)

	s := config.Parse(cfg)
	require.NoError(t, s.Validate())
	assert.Equal(t, "debug", s.Log.Level)
	assert.Equal(t, "text", s.Log.Format)
	assert.True(t, s.Bus.Strict)
	assert.Equal(t, int64(8), s.Bus.AsyncLimit)
	assert.Equal(t, 5*time.Second, s.Bus.HandlerTimeout)
	assert.Equal(t, 4, s.Bus.Retry.MaxAttempts)
	assert.Equal(t, 10*time.Millisecond, s.Bus.Retry.InitialBackoff)
	assert.True(t, s.Bus.DLQ.Enabled)
	assert.Equal(t, 2, s.Bus.DLQ.MaxRetries)
	assert.Equal(t, time.Second, s.Bus.DLQ.PollInterval)
	assert.Equal(t, config.DriverSQLite, s.Store.Driver)
	assert.Equal(t, "/tmp/tc.db", s.Store.Path)
	assert.False(t, s.Audit.Enabled)
	assert.True(t, s.Redis.Enabled())
	assert.Equal(t, 2, s.Redis.DB)
	assert.Equal(t, "tc:", s.Redis.KeyPrefix)
	assert.Equal(t, "thinkcraft:events", s.Redis.Channel)
	assert.Equal(t, "https://thinkcraft.example", s.ShareBaseURL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Settings)
		want   string
	}{
		{"bad format", func(s *config.Settings) { s.Log.Format = "xml" }, "log.format"},
		{"bad level", func(s *config.Settings) { s.Log.Level = "loud" }, "log.level"},
		{"negative limit", func(s *config.Settings) { s.Bus.AsyncLimit = -1 }, "bus.async_limit"},
		{"negative timeout", func(s *config.Settings) { s.Bus.HandlerTimeout = -time.Second }, "bus.handler_timeout"},
		{"no attempts", func(s *config.Settings) { s.Bus.Retry.MaxAttempts = 0 }, "bus.retry.max_attempts"},
		{"dlq without interval", func(s *config.Settings) {
			s.Bus.DLQ.Enabled = true
			s.Bus.DLQ.PollInterval = 0
		}, "bus.dlq.poll_interval"},
		{"sqlite without path", func(s *config.Settings) { s.Store.Driver = config.DriverSQLite }, "store.path"},
		{"unknown driver", func(s *config.Settings) { s.Store.Driver = "postgres" }, "store.driver"},
		{"negative db", func(s *config.Settings) { s.Redis.DB = -1 }, "redis.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := config.DefaultSettings()
			tt.mutate(&s)
			assert.ErrorContains(t, s.Validate(), tt.want)
		})
	}
}

func TestValidate_ReportsAll(t *testing.T) {
	s := config.DefaultSettings()
	s.Log.Format = "xml"
	s.Store.Driver = "postgres"

	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.format")
	assert.Contains(t, err.Error(), "store.driver")
}

func TestLoad(t *testing.T) {
	s, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultSettings(), s)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  driver: postgres\n"), 0o600))
	_, err = config.Load(path)
	assert.ErrorContains(t, err, "store.driver")
}
