package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/vid-verifier/internal/application/presentation"
	"github.com/vid-verifier/internal/config"
	"github.com/vid-verifier/internal/infrastructure/identity"
	jwtinfra "github.com/vid-verifier/internal/infrastructure/jwt"
	"github.com/vid-verifier/internal/infrastructure/memory"
	"github.com/vid-verifier/internal/infrastructure/notify"
	s3infra "github.com/vid-verifier/internal/infrastructure/s3"
	"github.com/vid-verifier/internal/infrastructure/sns"
	"github.com/vid-verifier/internal/infrastructure/teams"
	"github.com/vid-verifier/internal/infrastructure/verifiedid"
	"github.com/vid-verifier/internal/infrastructure/webhook"
	"github.com/vid-verifier/internal/metrics"
	"github.com/vid-verifier/internal/pkg/background"
	transporthttp "github.com/vid-verifier/internal/transport/http"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()
	slog.SetDefault(newLogger(cfg))
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	repo := memory.NewRequestRepo()
	m.TrackRequests(repo.Len)

	tokens, err := newTokenProvider(ctx, cfg)
	if err != nil {
		slog.Error("failed to set up token provider", "err", err)
		os.Exit(1)
	}
	notifier, err := newNotifier(ctx, cfg)
	if err != nil {
		slog.Error("failed to set up notification sinks", "err", err)
		os.Exit(1)
	}

	dispatcher := background.NewDispatcher(cfg.OutboundTimeout)
	svc := presentation.NewService(presentation.ServiceDeps{
		Tokens:     tokens,
		Client:     verifiedid.NewClient(cfg.VerifiedIDAPIURL, cfg.OutboundTimeout),
		Requests:   repo,
		Notifier:   notifier,
		Poster:     webhook.NewClient(cfg.OutboundTimeout),
		Dispatcher: dispatcher,
		Metrics:    m,
		Settings: presentation.Settings{
			Authority:             cfg.DefaultAuthority,
			DefaultCredentialType: cfg.DefaultCredentialType,
			Origin:                cfg.Origin,
		},
	})

	router := transporthttp.NewRouter(ctx, cfg, &transporthttp.Deps{Presentations: svc, Gatherer: reg})
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		err := repo.RunSweeper(gctx, cfg.StoreSweepInterval)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("forced shutdown: %w", err)
		}
		// Deliveries already dispatched get the rest of the shutdown window.
		if err := dispatcher.Wait(shutdownCtx); err != nil {
			slog.Warn("background tasks still running at shutdown", "err", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("server stopped with error", "err", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// newLogger returns a JSON handler outside development and a text handler in it.
func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.AppEnv == "development" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

// newTokenProvider picks the credential: a signed client assertion when a key
// is configured, otherwise the secret or secret reference.
func newTokenProvider(ctx context.Context, cfg *config.Config) (*identity.TokenProvider, error) {
	opts := identity.Options{
		AuthorityHost: cfg.AuthorityHost,
		TenantID:      cfg.TenantID,
		ClientID:      cfg.ClientID,
		Scope:         cfg.ClientAPIResource,
		Secret:        cfg.ClientSecret,
		SecretRef:     cfg.ClientSecretRef,
		HTTPClient:    &http.Client{Timeout: cfg.OutboundTimeout},
	}
	if cfg.ClientAssertionKeyPath != "" {
		signer, err := jwtinfra.NewAssertionSigner(cfg)
		if err != nil {
			return nil, err
		}
		opts.Signer = signer
	}
	if opts.Signer == nil && opts.Secret == "" && strings.HasPrefix(cfg.ClientSecretRef, "s3://") {
		client, err := s3infra.NewClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		opts.Objects = s3infra.NewReader(client)
	}
	return identity.NewTokenProvider(opts), nil
}

func newNotifier(ctx context.Context, cfg *config.Config) (*notify.Fanout, error) {
	var sinks []notify.Sink
	if cfg.HasSink(config.SinkTeams) {
		sinks = append(sinks, teams.NewNotifier(webhook.NewClient(cfg.OutboundTimeout), cfg.TeamsNotificationsEndpoint))
	}
	if cfg.HasSink(config.SinkSNS) {
		client, err := sns.NewClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sns.NewPublisher(client, cfg.SNSTopicARN))
	}
	return notify.NewFanout(sinks...), nil
}
