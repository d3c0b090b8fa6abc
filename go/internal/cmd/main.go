package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/sizeup/go/internal/config"
	"github.com/mcdev12/sizeup/go/internal/estimation"
	"github.com/mcdev12/sizeup/go/internal/gateway"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	cfg, err := config.Load(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	log.Info().
		Str("port", cfg.Port).
		Dur("round_length", cfg.RoundLength()).
		Msg("starting sizeup server")

	// Wire the websocket hub and the session core together. The hub
	// broadcasts for the core; the core consumes the hub's inbound events.
	connCfg := gateway.DefaultConnectionConfig()
	connCfg.PingInterval = cfg.Gateway.PingInterval()
	connCfg.ReadTimeout = cfg.Gateway.ReadTimeout()
	connCfg.WriteTimeout = cfg.Gateway.WriteTimeout()
	connCfg.MaxMessageSize = cfg.Gateway.MaxMessageBytes

	connectionManager := gateway.NewConnectionManager(connCfg)
	app := estimation.NewApp(connectionManager, clockwork.NewRealClock(), cfg.RoundLength())
	connectionManager.SetEventSink(app)

	wsHandler := gateway.NewHandler(connectionManager)

	server := setupServer(cfg, wsHandler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go connectionManager.Start(ctx)

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	cancel()

	log.Info().Msg("sizeup server shutdown complete")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
