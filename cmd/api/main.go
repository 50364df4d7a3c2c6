// Package main provides the entry point for the notes server application.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	// Embedded zone database so CSV timestamps render in Asia/Tokyo on
	// minimal images without /usr/share/zoneinfo.
	_ "time/tzdata"

	"github.com/samber/do/v2"

	"github.com/notekeep/notekeep-server/internal/di"
	"github.com/notekeep/notekeep-server/internal/logger"
)

func main() {
	// Create DI container
	injector := di.NewContainer()

	// Bootstrap all services
	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap server: %v\n", err)
		os.Exit(1)
	}

	// Get logger for shutdown messages
	log := do.MustInvoke[*logger.Logger](injector)

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	// The DI container shuts services down in reverse dependency order:
	// HTTP server first, then the count cache and the database pool.
	if err := injector.Shutdown(); err != nil {
		log.Error("Shutdown error", "error", err)
	}

	log.Info("Server stopped")
}
