// Command authstub serves a development stand-in for the pawn-shop
// authentication API.
//
// Endpoints:
//
//	POST /api/auth/signin  JSON {"email","password"}; registers unknown emails
//	POST /api/auth/login   JSON {"email","password"}
//
// Both answer {"token","user"} with an HS256 token. Configuration comes from
// the environment (or a .env file):
//
//	AUTHSTUB_ADDR       listen address (default :5000)
//	AUTHSTUB_SECRET     HMAC signing secret, at least 32 bytes
//	AUTHSTUB_TOKEN_TTL  token lifetime (default 1h)
//	AUTHSTUB_SEED       optional "email:password" account created at start
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	pawnAuth "github.com/MrEthical07/pawnAuth"
	"github.com/MrEthical07/pawnAuth/jwt"
	"github.com/MrEthical07/pawnAuth/password"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type config struct {
	Addr     string        `env:"ADDR" envDefault:":5000"`
	Prefix   string        `env:"PREFIX" envDefault:"/api/auth"`
	Secret   string        `env:"SECRET,required"`
	TokenTTL time.Duration `env:"TOKEN_TTL" envDefault:"1h"`
	Seed     string        `env:"SEED"`
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	if err := run(logger); err != nil {
		logger.Error("authstub stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := env.ParseAsWithOptions[config](env.Options{Prefix: "AUTHSTUB_"})
	if err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	if len(cfg.Secret) < 32 {
		return errors.New("AUTHSTUB_SECRET must be at least 32 bytes")
	}

	hasher, err := password.NewArgon2(password.DefaultConfig())
	if err != nil {
		return err
	}
	issuer, err := jwt.NewIssuer(jwt.Config{
		TTL:           cfg.TokenTTL,
		SigningMethod: jwt.MethodHS256,
		PrivateKey:    []byte(cfg.Secret),
		Issuer:        "authstub",
	})
	if err != nil {
		return err
	}

	srv := newServer(hasher, issuer, logger)
	if cfg.Seed != "" {
		email, pass, ok := strings.Cut(cfg.Seed, ":")
		if !ok {
			return errors.New("AUTHSTUB_SEED must be email:password")
		}
		if _, err := srv.register(pawnAuth.Credentials{Email: email, Password: pass}, "", []string{"admin"}); err != nil {
			return fmt.Errorf("seed account: %w", err)
		}
	}

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.routes(cfg.Prefix),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", cfg.Addr), slog.String("prefix", cfg.Prefix))
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
