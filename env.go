package pawnAuth

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// DefaultEnvPrefix is the variable prefix used by [ConfigFromEnv] when none
// is given, e.g. PAWNAUTH_READINESS_LOGIN_GRACE=100ms.
const DefaultEnvPrefix = "PAWNAUTH_"

// ConfigFromEnv overlays environment variables on [DefaultConfig] and
// validates the result. Loading a .env file is left to the caller.
func ConfigFromEnv(prefix string) (Config, error) {
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}
	return configFromEnv(env.Options{Prefix: prefix})
}

func configFromEnv(opts env.Options) (Config, error) {
	cfg := DefaultConfig()
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
