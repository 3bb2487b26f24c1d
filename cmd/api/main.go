package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"bridgeguard/internal/config"
	"bridgeguard/internal/server"
)

func gracefulShutdown(fiberServer *server.FiberServer, done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Println("[SERVER] Shutting down gracefully, press Ctrl+C again to force")
	stop()

	finished := make(chan error, 1)
	go func() { finished <- fiberServer.Shutdown() }()

	select {
	case err := <-finished:
		if err != nil {
			log.Printf("[SERVER] Forced to shutdown with error: %v", err)
		}
	case <-time.After(15 * time.Second):
		log.Println("[SERVER] Shutdown timed out")
	}

	log.Println("[SERVER] Server exiting")
	done <- true
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[SERVER] Invalid configuration: %v", err)
	}

	srv, err := server.New(cfg)
	if err != nil {
		log.Fatalf("[SERVER] Startup failed: %v", err)
	}
	srv.RegisterFiberRoutes()

	done := make(chan bool, 1)

	go func() {
		if err := srv.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			log.Printf("[SERVER] Listen stopped: %v", err)
		}
	}()

	go gracefulShutdown(srv, done)

	<-done
	log.Println("[SERVER] Graceful shutdown complete.")
}
