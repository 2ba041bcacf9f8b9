// Command model-run hosts the in-memory reference Model behind the
// adapter, for exercising a host implementation without a real numeric
// model.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	model "github.com/decthings/model-go"
	"github.com/decthings/model-go/backend"
	"github.com/decthings/model-go/internal/logging"
)

func main() {
	logger := logging.NewLogger(logging.DefaultConfig())
	logging.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	logger.Info("starting model-run", "pid", os.Getpid())

	if err := model.Run(ctx, backend.NewModel(), model.Options{Logger: logger}); err != nil {
		logger.Error("session ended with error", "error", err)
		os.Exit(1)
	}
	logger.Info("session ended cleanly")
}
