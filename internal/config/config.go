// internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sirupsen/logrus"
)

// Config holds every setting read from the environment by the server, the
// historian and the pass-and-play binary. Each binary only reads what it uses.
type Config struct {
	// Env is one of dev/development or prod/production.
	Env            string   `env:"UNDERCOVER_ENV" envDefault:"dev"`
	Port           string   `env:"PORT" envDefault:"8080"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
	LogLevel       string   `env:"LOG_LEVEL"`

	// PublicURL is the client base URL encoded in join QR codes.
	PublicURL string `env:"PUBLIC_URL"`

	DefaultLanguage      string        `env:"DEFAULT_LANGUAGE" envDefault:"en"`
	DefaultTheme         string        `env:"DEFAULT_THEME"`
	SessionIdleTimeout   time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"1h"`
	SessionSweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"1m"`
	SubscriberBuffer     int           `env:"SUBSCRIBER_BUFFER" envDefault:"256"`

	// TokenExpire of 0 means player tokens never expire.
	TokenExpire time.Duration `env:"TOKEN_EXPIRE_TIME" envDefault:"12h"`

	// RedisAddr empty disables the action log.
	RedisAddr              string        `env:"REDIS_ADDR"`
	RedisDB                int           `env:"REDIS_DB" envDefault:"0"`
	HistorianQueue         string        `env:"HISTORIAN_QUEUE_NAME" envDefault:"undercover_actions"`
	HistorianBatchSize     int           `env:"HISTORIAN_BATCH_SIZE" envDefault:"20"`
	HistorianFlushInterval time.Duration `env:"HISTORIAN_FLUSH_INTERVAL" envDefault:"500ms"`
	GameInactivityTimeout  time.Duration `env:"GAME_INACTIVITY_TIMEOUT" envDefault:"10m"`

	// DatabaseURL empty disables game history.
	DatabaseURL string `env:"DATABASE_URL"`
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate rejects values that would leave a component unable to run.
func (c Config) Validate() error {
	if c.SessionIdleTimeout <= 0 {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT must be positive, got %s", c.SessionIdleTimeout)
	}
	if c.SessionSweepInterval <= 0 {
		return fmt.Errorf("SESSION_SWEEP_INTERVAL must be positive, got %s", c.SessionSweepInterval)
	}
	if c.SubscriberBuffer < 1 {
		return fmt.Errorf("SUBSCRIBER_BUFFER must be at least 1, got %d", c.SubscriberBuffer)
	}
	if c.HistorianBatchSize < 1 {
		return fmt.Errorf("HISTORIAN_BATCH_SIZE must be at least 1, got %d", c.HistorianBatchSize)
	}
	if c.HistorianFlushInterval <= 0 {
		return fmt.Errorf("HISTORIAN_FLUSH_INTERVAL must be positive, got %s", c.HistorianFlushInterval)
	}
	if c.GameInactivityTimeout <= 0 {
		return fmt.Errorf("GAME_INACTIVITY_TIMEOUT must be positive, got %s", c.GameInactivityTimeout)
	}
	if c.TokenExpire < 0 {
		return fmt.Errorf("TOKEN_EXPIRE_TIME must not be negative, got %s", c.TokenExpire)
	}
	return nil
}

// IsProduction reports whether the service runs in production mode.
func (c Config) IsProduction() bool {
	switch strings.ToLower(c.Env) {
	case "prod", "production":
		return true
	}
	return false
}

// ListenAddr binds to all hosts in production and to localhost otherwise.
func (c Config) ListenAddr() string {
	if c.IsProduction() {
		return ":" + c.Port
	}
	return "localhost:" + c.Port
}

// NewLogger builds the process logger. LOG_LEVEL wins when set; otherwise
// production logs at info in JSON and development logs at debug in text.
func (c Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	if c.IsProduction() {
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}
	if c.LogLevel != "" {
		if lvl, err := logrus.ParseLevel(c.LogLevel); err == nil {
			logger.SetLevel(lvl)
		} else {
			logger.Warnf("unknown LOG_LEVEL %q, keeping %s", c.LogLevel, logger.GetLevel())
		}
	}
	return logger
}
