// jitSUS Server - Main Entry Point
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"jitsus/internal/api"
	"jitsus/internal/config"
	"jitsus/internal/events"
	"jitsus/internal/server"
	"jitsus/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	version   = "1.0.0"
	buildTime = "dev"

	flags    = config.Default()
	envFiles []string

	rootCmd = &cobra.Command{
		Use:     "jitsus-server",
		Short:   "Starts the jitSUS card duel server.",
		Version: version + " (" + buildTime + ")",
		Args:    cobra.NoArgs,
		RunE:    runServer,
		Example: `  jitsus-server
  jitsus-server --host 0.0.0.0 --port 6433 --max-clients 50
  jitsus-server --log-level debug --http-addr 127.0.0.1:8080 --nats-url nats://localhost:4222`,

		SilenceUsage: true,
	}
)

const httpShutdownTimeout = 5 * time.Second

func init() {
	f := rootCmd.Flags()
	f.StringVar(&flags.Host, "host", flags.Host, "Server host (env JITSUS_HOST)")
	f.IntVar(&flags.Port, "port", flags.Port, "Server port (env JITSUS_PORT)")
	f.IntVar(&flags.MaxClients, "max-clients", flags.MaxClients, "Maximum simultaneous connections (env JITSUS_MAX_CLIENTS)")
	f.StringVar(&flags.LogLevel, "log-level", flags.LogLevel, "Log level: debug, info, warn, error (env JITSUS_LOG_LEVEL)")
	f.StringVar(&flags.LogFile, "log-file", flags.LogFile, "Also write logs to this file (env JITSUS_LOG_FILE)")
	f.StringVar(&flags.HTTPAddr, "http-addr", flags.HTTPAddr, "Serve the admin API on this address (env JITSUS_HTTP_ADDR)")
	f.StringVar(&flags.NATSURL, "nats-url", flags.NATSURL, "Publish match results to this NATS server (env JITSUS_NATS_URL)")
	f.DurationVar(&flags.MoveTimeout, "move-timeout", flags.MoveTimeout, "Forfeit players who do not move in time, 0 disables (env JITSUS_MOVE_TIMEOUT)")
	f.StringSliceVar(&envFiles, "env-file", nil, "Load variables from these .env files instead of ./.env")
}

// loadConfig layers defaults, .env files, the environment and explicitly set flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return config.Config{}, errors.Wrap(err, "load config failed")
	}

	f := cmd.Flags()
	if f.Changed("host") {
		cfg.Host = flags.Host
	}
	if f.Changed("port") {
		cfg.Port = flags.Port
	}
	if f.Changed("max-clients") {
		cfg.MaxClients = flags.MaxClients
	}
	if f.Changed("log-level") {
		cfg.LogLevel = flags.LogLevel
	}
	if f.Changed("log-file") {
		cfg.LogFile = flags.LogFile
	}
	if f.Changed("http-addr") {
		cfg.HTTPAddr = flags.HTTPAddr
	}
	if f.Changed("nats-url") {
		cfg.NATSURL = flags.NATSURL
	}
	if f.Changed("move-timeout") {
		cfg.MoveTimeout = flags.MoveTimeout
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// initLogging sets up the logging system
func initLogging(cfg config.Config) error {
	if err := logger.SetGlobalLogLevel(cfg.LogLevel); err != nil {
		return err
	}
	if cfg.LogFile != "" {
		if err := logger.SetFile(cfg.LogFile); err != nil {
			return errors.Wrap(err, "failed to set log file")
		}
		logger.Server.Info("Logging to file: %s", cfg.LogFile)
	}
	return nil
}

func runServer(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := initLogging(cfg); err != nil {
		return err
	}

	logger.Server.Info("Starting jitSUS server v%s", version)

	cfgs := []server.Cfg{
		server.WithMaxClients(cfg.MaxClients),
		server.WithMoveTimeout(cfg.MoveTimeout),
	}
	if cfg.NATSURL != "" {
		publisher, err := events.Connect(cfg.NATSURL)
		if err != nil {
			return err
		}
		logger.Server.Info("Publishing match results to %s on %s", cfg.NATSURL, events.SubjectMatchFinished)
		cfgs = append(cfgs, server.WithPublisher(publisher))
	}

	gameServer, err := server.NewServer(cfg.Address(), cfgs...)
	if err != nil {
		return errors.Wrap(err, "new server failed")
	}
	if err := gameServer.Listen(); err != nil {
		return err
	}

	var httpServer *http.Server
	if cfg.HTTPAddr != "" {
		if !strings.EqualFold(cfg.LogLevel, "debug") && !strings.EqualFold(cfg.LogLevel, "trace") {
			gin.SetMode(gin.ReleaseMode)
		}
		httpServer = &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           api.SetupRouter(gameServer),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.API.Info("Admin API listening on %s", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.API.Error("Admin API failed: %v", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() { serveErr <- gameServer.Serve() }()

	select {
	case <-ctx.Done():
		logger.Server.Info("Received shutdown signal, stopping server...")
	case err = <-serveErr:
		if err != nil {
			logger.Server.Error("Server stopped accepting connections: %v", err)
		}
	}

	if httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.API.Warn("Admin API shutdown failed: %v", err)
		}
	}
	if stopErr := gameServer.Stop(); stopErr != nil {
		return stopErr
	}
	return err
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logger.Server.Fatal("%v", err)
	}
}
