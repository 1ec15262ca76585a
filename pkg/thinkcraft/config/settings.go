package config

import (
	"errors"
	"fmt"
	"time"

	tcerrors "github.com/randalmurphal/thinkcraft/pkg/thinkcraft/errors"
)

// Settings is the typed configuration of a ThinkCraft process.
//
// Example YAML:
//
//	log:
//	  level: debug
//	  format: json
//	bus:
//	  strict: true
//	  async_limit: 128
//	  handler_timeout: 5s
//	  retry:
//	    max_attempts: 3
//	    initial_backoff: 50ms
//	  dlq:
//	    enabled: true
//	    max_retries: 5
//	    poll_interval: 10s
//	store:
//	  driver: sqlite
//	  path: ./thinkcraft.db
//	audit:
//	  enabled: true
//	  path: ./audit.db
//	redis:
//	  addr: ${REDIS_ADDR}
//	  channel: thinkcraft:events
//	  key_prefix: "thinkcraft:"
type Settings struct {
	Log   LogSettings
	Bus   BusSettings
	Store StoreSettings
	Audit AuditSettings
	Redis RedisSettings

	// ShareBaseURL is prepended to share links.
	ShareBaseURL string
}

// LogSettings configures the process logger.
type LogSettings struct {
	Level  string // debug, info, warn, error
	Format string // json or text
}

// BusSettings configures the event bus.
type BusSettings struct {
	Strict         bool
	AsyncLimit     int64
	HandlerTimeout time.Duration
	Retry          tcerrors.RetryConfig
	DLQ            DLQSettings
}

// DLQSettings configures dead-lettering and redelivery.
type DLQSettings struct {
	Enabled      bool
	MaxSize      int
	MaxRetries   int
	RetryDelay   time.Duration
	PollInterval time.Duration
}

// StoreSettings selects the aggregate store.
type StoreSettings struct {
	Driver string // memory or sqlite
	Path   string
}

// AuditSettings configures the audit trail. An empty Path keeps the trail
// in memory.
type AuditSettings struct {
	Enabled bool
	Path    string
}

// RedisSettings configures cache invalidation and cross-process
// notification. An empty Addr disables both.
type RedisSettings struct {
	Addr      string
	Password  string
	DB        int
	Channel   string
	KeyPrefix string
}

// Enabled reports whether a Redis server is configured.
func (r RedisSettings) Enabled() bool { return r.Addr != "" }

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// DefaultSettings returns the settings used for missing keys.
func DefaultSettings() Settings {
	return Settings{
		Log: LogSettings{Level: "info", Format: "json"},
		Bus: BusSettings{
			AsyncLimit: 256,
			Retry:      tcerrors.NoRetry,
			DLQ: DLQSettings{
				MaxSize:      10000,
				MaxRetries:   5,
				RetryDelay:   30 * time.Second,
				PollInterval: 10 * time.Second,
			},
		},
		Store:        StoreSettings{Driver: DriverMemory},
		Audit:        AuditSettings{Enabled: true},
		Redis:        RedisSettings{Channel: "thinkcraft:events"},
		ShareBaseURL: "http://localhost:8080",
	}
}

// Parse builds Settings from c, falling back to DefaultSettings for every
// missing key. It does not validate; call Validate.
func Parse(c Config) Settings {
	s := DefaultSettings()

	log := c.Section("log")
	s.Log.Level = log.String("level", s.Log.Level)
	s.Log.Format = log.String("format", s.Log.Format)

	bus := c.Section("bus")
	s.Bus.Strict = bus.Bool("strict", s.Bus.Strict)
	s.Bus.AsyncLimit = int64(bus.Int("async_limit", int(s.Bus.AsyncLimit)))
	s.Bus.HandlerTimeout = bus.Duration("handler_timeout", s.Bus.HandlerTimeout)
	if retry := bus.Section("retry"); retry.Has("max_attempts") {
		s.Bus.Retry = tcerrors.DefaultRetry
		s.Bus.Retry.MaxAttempts = retry.Int("max_attempts", s.Bus.Retry.MaxAttempts)
		s.Bus.Retry.InitialBackoff = retry.Duration("initial_backoff", s.Bus.Retry.InitialBackoff)
		s.Bus.Retry.MaxBackoff = retry.Duration("max_backoff", s.Bus.Retry.MaxBackoff)
	}
	dlq := bus.Section("dlq")
	s.Bus.DLQ.Enabled = dlq.Bool("enabled", s.Bus.DLQ.Enabled)
	s.Bus.DLQ.MaxSize = dlq.Int("max_size", s.Bus.DLQ.MaxSize)
	s.Bus.DLQ.MaxRetries = dlq.Int("max_retries", s.Bus.DLQ.MaxRetries)
	s.Bus.DLQ.RetryDelay = dlq.Duration("retry_delay", s.Bus.DLQ.RetryDelay)
	s.Bus.DLQ.PollInterval = dlq.Duration("poll_interval", s.Bus.DLQ.PollInterval)

	st := c.Section("store")
	s.Store.Driver = st.String("driver", s.Store.Driver)
	s.Store.Path = st.String("path", s.Store.Path)

	audit := c.Section("audit")
	s.Audit.Enabled = audit.Bool("enabled", s.Audit.Enabled)
	s.Audit.Path = audit.String("path", s.Audit.Path)

	redis := c.Section("redis")
	s.Redis.Addr = redis.String("addr", s.Redis.Addr)
	s.Redis.Password = redis.String("password", s.Redis.Password)
	s.Redis.DB = redis.Int("db", s.Redis.DB)
	s.Redis.Channel = redis.String("channel", s.Redis.Channel)
	s.Redis.KeyPrefix = redis.String("key_prefix", s.Redis.KeyPrefix)

	s.ShareBaseURL = c.String("share_base_url", s.ShareBaseURL)
	return s
}

// Validate reports every invalid setting at once.
func (s Settings) Validate() error {
	var errs []error
	switch s.Log.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format: must be json or text, got %q", s.Log.Format))
	}
	switch s.Log.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", s.Log.Level))
	}
	if s.Bus.AsyncLimit < 0 {
		errs = append(errs, errors.New("bus.async_limit: must not be negative"))
	}
	if s.Bus.HandlerTimeout < 0 {
		errs = append(errs, errors.New("bus.handler_timeout: must not be negative"))
	}
	if s.Bus.Retry.MaxAttempts < 1 {
		errs = append(errs, errors.New("bus.retry.max_attempts: must be at least 1"))
	}
	if s.Bus.DLQ.Enabled && s.Bus.DLQ.PollInterval <= 0 {
		errs = append(errs, errors.New("bus.dlq.poll_interval: must be positive"))
	}
	switch s.Store.Driver {
	case DriverMemory:
	case DriverSQLite:
		if s.Store.Path == "" {
			errs = append(errs, errors.New("store.path: required for sqlite"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.driver: must be memory or sqlite, got %q", s.Store.Driver))
	}
	if s.Redis.DB < 0 {
		errs = append(errs, errors.New("redis.db: must not be negative"))
	}
	return errors.Join(errs...)
}

// Load reads path and returns validated settings. An empty path returns
// the defaults.
func Load(path string) (Settings, error) {
	if path == "" {
		return DefaultSettings(), nil
	}
	c, err := FromFile(path)
	if err != nil {
		return Settings{}, err
	}
	s := Parse(c)
	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return s, nil
}
