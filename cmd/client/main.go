// jitSUS Client - Main Entry Point
package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"jitsus/internal/client"
	"jitsus/pkg/logger"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	version = "1.0.0"

	host     string
	port     int
	username string
	logLevel string
	logFile  string

	rootCmd = &cobra.Command{
		Use:     "jitsus-client",
		Short:   "Connects to a jitSUS server and plays card duels.",
		Version: version,
		Args:    cobra.NoArgs,
		RunE:    runClient,
	}
)

func init() {
	f := rootCmd.Flags()
	f.StringVar(&host, "host", "localhost", "Server host")
	f.IntVar(&port, "port", 6433, "Server port")
	f.StringVarP(&username, "username", "u", "", "Log in with this name instead of prompting")
	f.StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	f.StringVar(&logFile, "log-file", "", "Also write logs to this file")
}

func runClient(cmd *cobra.Command, _ []string) error {
	if err := logger.SetGlobalLogLevel(logLevel); err != nil {
		return err
	}
	if logFile != "" {
		if err := logger.SetFile(logFile); err != nil {
			return errors.Wrap(err, "failed to set log file")
		}
	}
	if port < 1 || port > 65535 {
		return errors.Errorf("invalid port %d", port)
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	logger.Client.Info("Starting jitSUS client v%s, server %s", version, addr)

	gameClient, err := client.NewClient(addr, client.WithUsername(username))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := gameClient.Start(ctx); err != nil {
		return err
	}
	logger.Client.Info("Client shutting down gracefully")
	return nil
}

func main() {
	rootCmd.SilenceUsage = true
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
