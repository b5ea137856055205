package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "go.uber.org/automaxprocs"

	"github.com/zoobzio/relay"
	"github.com/zoobzio/relay/config"
	"github.com/zoobzio/relay/openrouter"
	"github.com/zoobzio/relay/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel()}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("error loading config", "error", err)
		os.Exit(1)
	}

	stopEvents := server.LogEvents(logger)
	defer stopEvents()

	var opts []relay.Option
	if os.Getenv("RELAY_DEBUG") != "" {
		opts = append(opts, relay.WithDebug())
	}

	provider := openrouter.New(cfg.Provider)
	r := relay.New(provider, cfg.Tasks, opts...)
	handler := server.NewHandler(r, cfg.RequestTimeout)

	gin.SetMode(gin.ReleaseMode)
	router := server.NewRouter(handler, cfg.AllowedOrigins, logger)
	slog.Info("AllowOrigins URL:", "urls", cfg.AllowedOrigins)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("relay listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("error starting server", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("error shutting down", "error", err)
	}
}

func logLevel() slog.Level {
	if os.Getenv("RELAY_DEBUG") != "" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
