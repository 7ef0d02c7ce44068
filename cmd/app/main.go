// Command app is the core's entrypoint: it loads configuration, connects
// every backing store, starts the approval sweeper and outbox publisher
// alongside the HTTP server, and shuts all three down gracefully on
// SIGINT/SIGTERM.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/fnyamweya/caricash-nova-sub001/internal/bootstrap"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/mzap"
)

func main() {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := mzap.InitializeLogger()
	if err != nil {
		log.Fatalf("initialize logger: %v", err)
	}

	server, err := bootstrap.NewServer(cfg, logger)
	if err != nil {
		log.Fatalf("build server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go server.RunSweeper(ctx)
	go server.RunPublisher(ctx)

	go func() {
		if err := server.App.Listen(cfg.ServerAddress); err != nil {
			logger.Errorf("http server: %v", err)
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}

	_ = logger.Sync()
}
