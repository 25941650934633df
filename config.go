package pawnAuth

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// Config controls a [Manager]. Obtain one from [DefaultConfig] or
// [ConfigFromEnv] and adjust fields before passing it to [Builder.WithConfig].
//
// The env tags are read by [ConfigFromEnv]; unset variables keep the value
// already in the struct.
type Config struct {
	Storage    StorageConfig    `envPrefix:"STORAGE_"`
	Readiness  ReadinessConfig  `envPrefix:"READINESS_"`
	Remote     RemoteConfig     `envPrefix:"REMOTE_"`
	Navigation NavigationConfig `envPrefix:"NAV_"`
	Token      TokenConfig      `envPrefix:"TOKEN_"`
	Audit      AuditConfig      `envPrefix:"AUDIT_"`
	Metrics    MetricsConfig    `envPrefix:"METRICS_"`
}

/*
====================================
STORAGE CONFIG
====================================
*/

// StorageConfig describes the Redis-backed durable store used by the bundled
// commands. The manager itself only sees a storage.Adapter; these fields are
// read by the code that constructs one.
type StorageConfig struct {
	RedisAddr   string        `env:"REDIS_ADDR"`
	RedisPrefix string        `env:"REDIS_PREFIX"`
	TTL         time.Duration `env:"TTL"`
}

/*
====================================
READINESS CONFIG
====================================
*/

// ReadinessConfig holds the readiness timing contract.
type ReadinessConfig struct {
	// LoginGrace delays the readiness announcement after a successful LogIn
	// so consumers that subscribe right after the response see the durable
	// write as committed. SignIn announces immediately.
	LoginGrace time.Duration `env:"LOGIN_GRACE"`
}

/*
====================================
REMOTE CONFIG
====================================
*/

// RemoteConfig points the HTTP authenticator at the auth API.
type RemoteConfig struct {
	BaseURL    string        `env:"BASE_URL"`
	Timeout    time.Duration `env:"TIMEOUT"`
	Instrument bool          `env:"INSTRUMENT"`
}

// NavigationConfig names where Logout sends the operator.
type NavigationConfig struct {
	LoginPath string `env:"LOGIN_PATH"`
}

// TokenConfig tunes local expiry checks.
type TokenConfig struct {
	// Leeway tolerates clock drift between this process and the token issuer.
	Leeway time.Duration `env:"LEEWAY"`
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool `env:"ENABLED"`
	BufferSize int  `env:"BUFFER_SIZE"`
	DropIfFull bool `env:"DROP_IF_FULL"`
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool `env:"ENABLED"`
	EnableLatencyHistograms bool `env:"LATENCY_HISTOGRAMS"`
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		Storage: StorageConfig{
			RedisPrefix: "pawnauth",
		},
		Readiness: ReadinessConfig{
			LoginGrace: 50 * time.Millisecond,
		},
		Remote: RemoteConfig{
			BaseURL: "http://localhost:5000/api/auth",
			Timeout: 10 * time.Second,
		},
		Navigation: NavigationConfig{
			LoginPath: "/login",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
	}
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if c.Readiness.LoginGrace < 0 {
		return errors.New("Readiness LoginGrace must be >= 0")
	}
	if c.Readiness.LoginGrace > 5*time.Second {
		return errors.New("Readiness LoginGrace must be <= 5s")
	}

	if c.Remote.Timeout <= 0 {
		return errors.New("Remote Timeout must be > 0")
	}
	if c.Remote.BaseURL != "" {
		u, err := url.Parse(c.Remote.BaseURL)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return errors.New("Remote BaseURL must be an absolute http(s) URL")
		}
	}

	if !strings.HasPrefix(c.Navigation.LoginPath, "/") {
		return errors.New("Navigation LoginPath must start with /")
	}

	if c.Token.Leeway < 0 || c.Token.Leeway > 5*time.Minute {
		return errors.New("Token Leeway must be between 0 and 5m")
	}

	if c.Storage.TTL < 0 {
		return errors.New("Storage TTL must be >= 0")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}
