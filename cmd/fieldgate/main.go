// Command fieldgate runs the field gateway: it wires configuration, the
// planter simulator, and the TCP listener together and blocks until a
// termination signal is received.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/fieldgate/agent/internal/config"
	"github.com/fieldgate/agent/internal/gateway"
)

func main() {
	if err := run(); err != nil {
		logrus.WithError(err).Fatal("fieldgate exited with error")
	}
}

func run() error {
	configPath := flag.String("config", "", "path to a YAML configuration file (optional)")
	flag.Parse()

	logger := logrus.StandardLogger()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	svc, err := gateway.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("build gateway service: %w", err)
	}

	// Install SIGTERM/SIGINT handlers at startup so the stop event they set
	// is observed by the running service, rather than inside a closure that
	// is constructed but never wired to the signal package.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.WithFields(logrus.Fields{
		"tcp_addr": fmt.Sprintf("%s:%d", cfg.TCPHost, cfg.TCPPort),
	}).Info("starting fieldgate")
	svc.Start(ctx)

	<-ctx.Done()
	logger.Info("shutdown signal received, stopping fieldgate")
	svc.Stop()
	return nil
}
