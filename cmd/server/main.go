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

	"community-live/auth"
	"community-live/domain/event"
	"community-live/internal"
	"community-live/moderation"
	"community-live/observability"
	"community-live/projection"
	"community-live/repositories"
	"community-live/runtime"
	"community-live/runtime/workers"
	"community-live/search"
	"community-live/sink"
	"community-live/transport/ws"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// The pattern guarantees every defer (database close, index flush) executes before the process exits.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()

	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}

	logger := logs.GetLoggerFromString(config.LogLevel)

	ctx := context.Background()

	// 2. Storage (BadgerDB + Bluge)
	db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	stats := observability.NewStats()
	if logger.Enabled(ctx, slog.LevelDebug) {
		debugPort := 8081
		endpoint := "/inspect"
		logger.Info("Debug store inspector available",
			"url", fmt.Sprintf("http://localhost:%d%s", debugPort, endpoint))
		internal.StartDebugServer(db, debugPort, endpoint, internal.MessageMapper, stats.Snapshot)
	}

	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer func() {
		logger.Info("Closing Bluge...")
		_ = blugeWriter.Close()
	}()

	// 3. Moderation
	data, err := moderation.LoadCensoredWords()
	if err != nil {
		return exitRuntime, fmt.Errorf("loading censored words failed: %w", err)
	}
	logger.Info(fmt.Sprintf("%d unique censored words loaded", len(data.Words)),
		"languages", data.Languages)
	moderator, err := moderation.NewModerator(data.Words, charReplacement)
	if err != nil {
		return exitRuntime, fmt.Errorf("moderator init failed: %w", err)
	}

	// 4. Runtime components
	registry := runtime.NewRegistry()
	limiter := runtime.NewRateLimiter(config.RateQuota, config.RateWindow)
	messageRepository := repositories.NewMessageRepository(db, logger, config.LimitMessages)
	roomDirectory := repositories.NewRoomDirectory(db)
	profileDirectory := repositories.NewProfileDirectory(db)
	searchIndex := search.NewIndex(blugeWriter, logger)
	timeline := projection.NewTimeline(config.HistoryLimit)
	tokenValidator := auth.NewValidator(config.JWTSecret)

	events := make(chan event.DomainEvent, config.BufferSize)

	fanout := workers.NewEventFanout(logger, events, registry, config.SinkTimeout).
		Add(timeline, sink.NewSearchSink(searchIndex, logger), stats)
	health := workers.NewHealthMonitoringWorker(logger, events, config.MetricInterval)

	sup := workers.NewSupervisor(logger)
	sup.Add(fanout, health)

	dispatcher := runtime.NewDispatcher(
		logger, registry, limiter, messageRepository,
		tokenValidator, profileDirectory, roomDirectory,
		searchIndex, &moderator, timeline, events,
		runtime.Limits{
			History:          config.HistoryLimit,
			MaxContentLength: config.MaxContentLength,
			Search:           config.SearchLimit,
		},
	)

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 2)

	go func() {
		logger.Info("Starting supervisor...")
		sup.Run(ctx)
	}()

	// 6. HTTP surface
	wsServer := ws.NewServer(dispatcher, logger, config.ConnectionBufferSize)

	router := chi.NewRouter()
	router.Get("/ws", wsServer.HandleWS)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	httpServer := &http.Server{Addr: address, Handler: router}

	go func() {
		logger.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		return exitRuntime, err
	}

	// 8. Final Cleanup (Graceful Shutdown)
	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown was not clean", "error", err)
	}
	sup.Stop()
	logger.Info("Program stopped cleanly")

	return exitOK, nil
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG).
			WithBypassLockGuard(true)
	} else {
		options = options.WithLoggingLevel(badger.INFO)
	}

	return options
}
