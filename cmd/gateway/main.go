package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"hnreader/internal/gateway/app"
)

const shutdownTimeout = 10 * time.Second

func main() {
	a, err := app.New()
	if err != nil {
		logrus.Fatalf("Failed to initialize app: %v", err)
	}
	log := a.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() { serveErr <- a.Start() }()

	exitCode := 0
	select {
	case <-ctx.Done():
		log.Info("Shutting down hnreader gateway...")
	case err := <-serveErr:
		if err != nil {
			log.WithError(err).Error("Server error")
			exitCode = 1
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
		exitCode = 1
	}

	log.Info("Gateway exiting")
	if exitCode != 0 {
		cancel()
		stop()
		os.Exit(exitCode)
	}
}
