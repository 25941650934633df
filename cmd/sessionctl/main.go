// Command sessionctl drives a pawnAuth session from the terminal.
//
// Usage:
//
//	sessionctl [flags] login|signin|status|whoami|logout
//
// The session lives in Redis (PAWNAUTH_STORAGE_REDIS_ADDR or REDIS_ADDR) so
// it survives between invocations. Without an address an in-process
// miniredis is used and the session ends with the process. Manager settings
// come from PAWNAUTH_* variables, optionally loaded from a .env file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	pawnAuth "github.com/MrEthical07/pawnAuth"
	"github.com/MrEthical07/pawnAuth/jwt"
	"github.com/MrEthical07/pawnAuth/metrics/export/prometheus"
	"github.com/MrEthical07/pawnAuth/remote"
	"github.com/MrEthical07/pawnAuth/storage"
	"github.com/alicebob/miniredis/v2"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

var errUsage = errors.New("usage: sessionctl [flags] login|signin|status|whoami|logout")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("sessionctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		email       = fs.String("email", "", "account email for login and signin")
		pass        = fs.String("password", "", "account password; defaults to SESSIONCTL_PASSWORD")
		verbose     = fs.Bool("v", false, "debug logging")
		showMetrics = fs.Bool("metrics", false, "print session metrics on exit")
		audit       = fs.Bool("audit", false, "write audit events as JSON lines to stderr")
		wait        = fs.Duration("wait", 5*time.Second, "how long login waits for readiness")
	)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != 1 {
		return errUsage
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := pawnAuth.ConfigFromEnv("")
	if err != nil {
		return err
	}
	if *showMetrics {
		cfg.Metrics.Enabled = true
		cfg.Metrics.EnableLatencyHistograms = true
	}

	if *audit {
		cfg.Audit.Enabled = true
		cfg.Audit.DropIfFull = false
	}

	client, cleanup, err := openRedis(cfg.Storage.RedisAddr, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	authenticator, err := remote.New(cfg.Remote)
	if err != nil {
		return err
	}

	m, err := pawnAuth.New().
		WithConfig(cfg).
		WithStorage(storage.NewRedis(client, cfg.Storage.RedisPrefix, cfg.Storage.TTL)).
		WithAuthenticator(authenticator).
		WithNavigator(pawnAuth.NavigatorFunc(func(path string) {
			fmt.Fprintf(stdout, "-> %s\n", path)
		})).
		WithLogger(logger).
		WithAuditSink(pawnAuth.NewJSONWriterSink(stderr)).
		Build()
	if err != nil {
		return err
	}
	defer m.Close()
	if *showMetrics {
		defer func() { fmt.Fprint(stdout, prometheus.New(m).Render()) }()
	}

	creds := pawnAuth.Credentials{Email: *email, Password: *pass}
	if creds.Password == "" {
		creds.Password = os.Getenv("SESSIONCTL_PASSWORD")
	}

	switch cmd := fs.Arg(0); cmd {
	case "login", "signin":
		return authenticate(ctx, m, cmd, creds, *wait, stdout)
	case "status":
		return status(ctx, m, jwt.Validator{Leeway: cfg.Token.Leeway}, stdout)
	case "whoami":
		user := m.GetCurrentUser(ctx)
		if user == nil || !m.IsAuthenticated(ctx) {
			fmt.Fprintln(stdout, "not signed in")
			return nil
		}
		fmt.Fprintf(stdout, "%s <%s> id=%s roles=%s\n", user.Username, user.Email, user.ID, strings.Join(user.Roles, ","))
		return nil
	case "logout":
		m.Logout(ctx)
		fmt.Fprintln(stdout, "signed out")
		return nil
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func authenticate(ctx context.Context, m *pawnAuth.Manager, cmd string, creds pawnAuth.Credentials, wait time.Duration, stdout io.Writer) error {
	var (
		s   *pawnAuth.Session
		err error
	)
	if cmd == "signin" {
		s, err = m.SignIn(ctx, creds)
	} else {
		s, err = m.LogIn(ctx, creds)
	}
	if err != nil {
		return err
	}

	waitCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	if err := m.WaitReady(waitCtx); err != nil {
		return fmt.Errorf("wait for readiness: %w", err)
	}

	name := "operator"
	if s.User != nil && s.User.Username != "" {
		name = s.User.Username
	}
	fmt.Fprintf(stdout, "welcome back, %s (session %s, expires %s)\n", name, s.ID, s.ExpiresAt.Format(time.RFC3339))
	return nil
}

func status(ctx context.Context, m *pawnAuth.Manager, v jwt.Validator, stdout io.Writer) error {
	if !m.IsAuthenticated(ctx) {
		fmt.Fprintln(stdout, "not signed in")
		return nil
	}
	s := m.Session()
	if s == nil {
		fmt.Fprintln(stdout, "signed in")
		return nil
	}
	fmt.Fprintf(stdout, "signed in, expires %s (in %s)\n",
		s.ExpiresAt.Format(time.RFC3339),
		v.Remaining(s.Token).Round(time.Second),
	)
	return nil
}

func openRedis(addr string, logger *slog.Logger) (redis.UniversalClient, func(), error) {
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr != "" {
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		logger.Debug("using redis", slog.String("addr", addr))
		return client, func() { _ = client.Close() }, nil
	}

	mr, err := miniredis.Run()
	if err != nil {
		return nil, nil, fmt.Errorf("start miniredis: %w", err)
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
	logger.Warn("no redis address; session will not outlive this process", slog.String("addr", mr.Addr()))
	return client, func() {
		_ = client.Close()
		mr.Close()
	}, nil
}
