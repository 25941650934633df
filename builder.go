package pawnAuth

import (
	"context"
	"log/slog"
	"time"

	"github.com/MrEthical07/pawnAuth/internal/broadcast"
	"github.com/MrEthical07/pawnAuth/jwt"
	"github.com/MrEthical07/pawnAuth/storage"
)

// Builder assembles a [Manager]. Every dependency is optional: without
// storage the manager runs in memory only, without an authenticator SignIn
// and LogIn fail with [ErrAuthenticatorMissing], and without a navigator
// Logout does not navigate.
type Builder struct {
	config Config

	storage   storage.Adapter
	auth      Authenticator
	nav       Navigator
	now       func() time.Time
	logger    *slog.Logger
	auditSink AuditSink

	built bool
}

// New returns a Builder holding [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithStorage sets the durable store. Passing nil selects the no-storage
// mode explicitly.
func (b *Builder) WithStorage(a storage.Adapter) *Builder {
	b.storage = a
	return b
}

func (b *Builder) WithAuthenticator(a Authenticator) *Builder {
	b.auth = a
	return b
}

func (b *Builder) WithNavigator(n Navigator) *Builder {
	b.nav = n
	return b
}

// WithClock replaces time.Now for expiry checks and session timestamps.
// Grace timers always run on the wall clock.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, constructs the Manager and hydrates it
// from storage. A Builder can be used once.
func (b *Builder) Build() (*Manager, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	now := b.now
	if now == nil {
		now = time.Now
	}
	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	nav := b.nav
	if nav == nil {
		nav = noopNavigator{}
	}

	m := &Manager{
		config:  cfg,
		storage: b.storage,
		auth:    b.auth,
		nav:     nav,
		validator: jwt.Validator{
			Now:    now,
			Leeway: cfg.Token.Leeway,
		},
		now:     now,
		logger:  logger.With(slog.String("component", "pawnauth")),
		audit:   newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics: NewMetrics(cfg.Metrics),
		ready:   broadcast.New(false),
		user:    broadcast.New[*UserProfile](nil),
	}

	m.Hydrate(context.Background())

	b.built = true

	return m, nil
}
