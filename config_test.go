package pawnAuth

import (
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{
			name:      "defaults valid",
			mutate:    func(*Config) {},
			wantValid: true,
		},
		{
			name: "zero grace valid",
			mutate: func(c *Config) {
				c.Readiness.LoginGrace = 0
			},
			wantValid: true,
		},
		{
			name: "negative grace invalid",
			mutate: func(c *Config) {
				c.Readiness.LoginGrace = -time.Millisecond
			},
			wantValid: false,
		},
		{
			name: "excessive grace invalid",
			mutate: func(c *Config) {
				c.Readiness.LoginGrace = 10 * time.Second
			},
			wantValid: false,
		},
		{
			name: "remote timeout zero invalid",
			mutate: func(c *Config) {
				c.Remote.Timeout = 0
			},
			wantValid: false,
		},
		{
			name: "remote base url relative invalid",
			mutate: func(c *Config) {
				c.Remote.BaseURL = "/api/auth"
			},
			wantValid: false,
		},
		{
			name: "remote base url ftp invalid",
			mutate: func(c *Config) {
				c.Remote.BaseURL = "ftp://example.com/auth"
			},
			wantValid: false,
		},
		{
			name: "remote base url empty valid",
			mutate: func(c *Config) {
				c.Remote.BaseURL = ""
			},
			wantValid: true,
		},
		{
			name: "login path without slash invalid",
			mutate: func(c *Config) {
				c.Navigation.LoginPath = "login"
			},
			wantValid: false,
		},
		{
			name: "leeway within bounds valid",
			mutate: func(c *Config) {
				c.Token.Leeway = 30 * time.Second
			},
			wantValid: true,
		},
		{
			name: "leeway too large invalid",
			mutate: func(c *Config) {
				c.Token.Leeway = time.Hour
			},
			wantValid: false,
		},
		{
			name: "audit enabled without buffer invalid",
			mutate: func(c *Config) {
				c.Audit.Enabled = true
				c.Audit.BufferSize = 0
			},
			wantValid: false,
		},
		{
			name: "latency histograms without metrics invalid",
			mutate: func(c *Config) {
				c.Metrics.EnableLatencyHistograms = true
			},
			wantValid: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantValid && err != nil {
				t.Fatalf("expected valid config, got %v", err)
			}
			if !tc.wantValid && err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Navigation.LoginPath = ""
	if _, err := New().WithConfig(cfg).Build(); err == nil {
		t.Fatal("expected build to fail")
	}
}

func TestConfigFromEnvironment(t *testing.T) {
	cfg, err := configFromEnv(env.Options{
		Prefix: "PAWNAUTH_",
		Environment: map[string]string{
			"PAWNAUTH_READINESS_LOGIN_GRACE": "120ms",
			"PAWNAUTH_REMOTE_BASE_URL":       "https://auth.pawnshop.example/api/auth",
			"PAWNAUTH_REMOTE_INSTRUMENT":     "true",
			"PAWNAUTH_STORAGE_REDIS_ADDR":    "127.0.0.1:6379",
			"PAWNAUTH_STORAGE_TTL":           "12h",
			"PAWNAUTH_METRICS_ENABLED":       "true",
			"UNRELATED_REMOTE_TIMEOUT":       "1s",
		},
	})
	if err != nil {
		t.Fatalf("config from env: %v", err)
	}

	if cfg.Readiness.LoginGrace != 120*time.Millisecond {
		t.Fatalf("unexpected grace %v", cfg.Readiness.LoginGrace)
	}
	if cfg.Remote.BaseURL != "https://auth.pawnshop.example/api/auth" || !cfg.Remote.Instrument {
		t.Fatalf("unexpected remote config %+v", cfg.Remote)
	}
	if cfg.Storage.RedisAddr != "127.0.0.1:6379" || cfg.Storage.TTL != 12*time.Hour {
		t.Fatalf("unexpected storage config %+v", cfg.Storage)
	}
	if !cfg.Metrics.Enabled {
		t.Fatal("expected metrics enabled")
	}
	// untouched fields keep their defaults
	if cfg.Remote.Timeout != 10*time.Second || cfg.Navigation.LoginPath != "/login" || cfg.Storage.RedisPrefix != "pawnauth" {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestConfigFromEnvironmentRejectsInvalid(t *testing.T) {
	_, err := configFromEnv(env.Options{
		Prefix:      "PAWNAUTH_",
		Environment: map[string]string{"PAWNAUTH_READINESS_LOGIN_GRACE": "soon"},
	})
	if err == nil {
		t.Fatal("expected parse error")
	}

	_, err = configFromEnv(env.Options{
		Prefix:      "PAWNAUTH_",
		Environment: map[string]string{"PAWNAUTH_NAV_LOGIN_PATH": "login"},
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestConfigFromEnvDefaultPrefix(t *testing.T) {
	t.Setenv("PAWNAUTH_TOKEN_LEEWAY", "15s")

	cfg, err := ConfigFromEnv("")
	if err != nil {
		t.Fatalf("config from env: %v", err)
	}
	if cfg.Token.Leeway != 15*time.Second {
		t.Fatalf("unexpected leeway %v", cfg.Token.Leeway)
	}
}
