// Package main runs the Elephoto storefront server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/elephoto/elephoto-server/internal/di"
	"github.com/elephoto/elephoto-server/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	injector := di.NewContainer()
	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "elephoto: bootstrap failed: %v\n", err)
		os.Exit(1)
	}

	log := do.MustInvoke[*logger.Logger](injector)
	log.Info("Storefront ready, waiting for signal")

	<-ctx.Done()
	stop()
	log.Info("Draining storefront", "cause", context.Cause(ctx))

	// Handles implement do.Shutdownable; the container stops the HTTP server
	// before the session store and database it depends on.
	if err := injector.Shutdown(); err != nil {
		log.Error("Shutdown error", "error", err)
	}

	log.Info("Shutdown complete")
}
