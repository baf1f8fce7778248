// Command etag-demo serves a handful of example routes behind the
// conditional GET middleware.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/go-etag/internal/config"
	"github.com/Sternrassler/go-etag/internal/server"
	"github.com/Sternrassler/go-etag/internal/visits"
	"github.com/Sternrassler/go-etag/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger := logging.Setup(logging.Config{
		Level:   logging.LogLevel(cfg.LogLevel),
		Pretty:  cfg.LogPretty,
		Output:  os.Stderr,
		Service: "etag-demo",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	counter, closeCounter := newCounter(ctx, cfg, logger)
	defer closeCounter()

	srv := server.New(server.Options{
		Middlewares: server.DefaultMiddlewares(logger),
		Logger:      logger,
		Counter:     counter,
		ChunkDelay:  cfg.ChunkDelay,
	})

	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Addr(), err)
	}

	return serve(ctx, ln, srv, cfg.ShutdownTimeout, logger)
}

// newCounter connects to Redis when configured. An unreachable Redis
// falls back to the in-memory counter so the demo still starts.
func newCounter(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (visits.Counter, func()) {
	if !cfg.HasRedis() {
		logger.Info().Msg("Using in-memory visit counter")
		return visits.NewMemoryCounter(), func() {}
	}

	redisClient, err := visits.NewRedisClient(cfg.RedisURL)
	if err != nil {
		logger.Warn().Err(err).Msg("Visit counter unavailable, using in-memory counter")
		return visits.NewMemoryCounter(), func() {}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		redisClient.Close()
		logger.Warn().Err(err).Str("redis", redisClient.Options().Addr).
			Msg("Visit counter unavailable, using in-memory counter")
		return visits.NewMemoryCounter(), func() {}
	}

	logger.Info().Str("redis", redisClient.Options().Addr).Str("key", cfg.VisitsKey).
		Msg("Connected to Redis")
	return visits.NewRedisCounter(redisClient, cfg.VisitsKey), func() { redisClient.Close() }
}

// serve runs h on ln until ctx is done, then shuts down gracefully.
func serve(ctx context.Context, ln net.Listener, h http.Handler, shutdownTimeout time.Duration, logger zerolog.Logger) error {
	httpSrv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", ln.Addr().String()).Msg("Starting etag demo server")
		errCh <- httpSrv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
