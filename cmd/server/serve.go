package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hongminglow/fraudpulse-be/internal/accounts"
	"github.com/hongminglow/fraudpulse-be/internal/auth"
	"github.com/hongminglow/fraudpulse-be/internal/config"
	"github.com/hongminglow/fraudpulse-be/internal/events"
	"github.com/hongminglow/fraudpulse-be/internal/fraud"
	"github.com/hongminglow/fraudpulse-be/internal/predictlog"
	"github.com/hongminglow/fraudpulse-be/internal/reports"
	"github.com/hongminglow/fraudpulse-be/internal/server"
	"github.com/hongminglow/fraudpulse-be/internal/storage/backend"
	"github.com/hongminglow/fraudpulse-be/internal/tracing"
)

const shutdownTimeout = 15 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the FraudPulse HTTP API.

The database schema and bootstrap administrator are created on start, and the
model artifact must load before any route is served.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return runServe(cfg)
		},
	}
}

func runServe(cfg config.Config) error {
	logger := newLogger(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pipe, modelPath, err := loadPipeline(cfg, "")
	if err != nil {
		return fmt.Errorf("load model %s: %w", modelPath, err)
	}
	logger.Info("model loaded", "path", modelPath, "version", pipe.Version(), "threshold", pipe.Threshold())

	shutdownTracing, err := tracing.Init(ctx, tracing.Options{
		Endpoint:     cfg.OTelEndpoint,
		Insecure:     cfg.OTelInsecure,
		ModelVersion: pipe.Version(),
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracing shutdown", "error", err)
		}
	}()

	store, err := backend.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer store.Close()

	directory := accounts.NewService(store, logger)
	if _, err := directory.EnsureBootstrapAdmin(ctx, cfg.BootstrapAdminUsername, cfg.BootstrapAdminPassword); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	revoker, closeRevoker, err := newRevoker(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRevoker()

	publisher, err := newPublisher(cfg, logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	predictions := predictlog.New(store, pipe.Version())
	srv, err := server.New(cfg, server.Deps{
		Accounts:     directory,
		Assessor:     fraud.NewService(pipe, predictions, publisher, logger),
		Reports:      reports.NewBuilder(predictions, logger),
		Tokens:       auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL),
		Revoker:      revoker,
		ModelVersion: pipe.Version(),
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("FraudPulse backend listening", "addr", cfg.HTTPAddress())
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down", "signal", sig.String())
		case <-gCtx.Done():
		}
		ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()
		if err := srv.Shutdown(ctxShutdown); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("server exited with error", "error", err)
		return err
	}
	logger.Info("server shut down gracefully")
	return nil
}

func newRevoker(ctx context.Context, cfg config.Config, logger *slog.Logger) (auth.Revoker, func(), error) {
	if cfg.RedisURL == "" {
		logger.Info("token revocation kept in memory")
		return auth.NewMemoryRevoker(), func() {}, nil
	}
	r, err := auth.NewRedisRevoker(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("init redis revoker: %w", err)
	}
	logger.Info("token revocation backed by redis")
	return r, func() {
		if err := r.Close(); err != nil {
			logger.Warn("close redis", "error", err)
		}
	}, nil
}

func newPublisher(cfg config.Config, logger *slog.Logger) (events.Publisher, error) {
	if cfg.KafkaBroker == "" {
		return events.Nop{}, nil
	}
	p, err := events.NewKafkaPublisher(cfg.KafkaBroker, cfg.KafkaTopic, logger)
	if err != nil {
		return nil, fmt.Errorf("init kafka publisher: %w", err)
	}
	logger.Info("publishing prediction events", "broker", cfg.KafkaBroker, "topic", cfg.KafkaTopic)
	return p, nil
}
