// Package di provides dependency injection configuration for the Elephoto server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/elephoto/elephoto-server/internal/auth"
	"github.com/elephoto/elephoto-server/internal/config"
	"github.com/elephoto/elephoto-server/internal/di/providers"
	"github.com/elephoto/elephoto-server/internal/logger"
	"github.com/elephoto/elephoto-server/internal/media/images"
	"github.com/elephoto/elephoto-server/internal/payment"
	"github.com/elephoto/elephoto-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Database layer
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideDatabase)
	do.Provide(injector, providers.ProvideSessionStore)

	// Storage layer
	do.Provide(injector, providers.ProvideObjectStorages)
	do.Provide(injector, providers.ProvideImageProcessor)

	// Payment layer
	do.Provide(injector, providers.ProvideProcessor)
	do.Provide(injector, providers.ProvideVerifier)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)
	do.Provide(injector, providers.ProvideAdminAuthService)

	// Business services
	do.Provide(injector, providers.ProvideCodeLimiter)
	do.Provide(injector, providers.ProvideLinks)
	do.Provide(injector, providers.ProvideAccessService)
	do.Provide(injector, providers.ProvideCartService)
	do.Provide(injector, providers.ProvideCheckoutService)
	do.Provide(injector, providers.ProvideReconcileService)
	do.Provide(injector, providers.ProvideUnlockService)
	do.Provide(injector, providers.ProvideAlbumService)

	// Workers
	do.Provide(injector, providers.ProvideSessionGCJob)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	// Invoke core services to trigger initialization
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	_ = do.MustInvoke[*providers.DatabaseHandle](injector)
	_ = do.MustInvoke[*providers.SessionStoreHandle](injector)
	_ = do.MustInvoke[*providers.ObjectStorages](injector)
	_ = do.MustInvoke[*images.Processor](injector)
	_ = do.MustInvoke[payment.Processor](injector)
	_ = do.MustInvoke[payment.Verifier](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)

	// Business services
	_ = do.MustInvoke[*service.AdminAuthService](injector)
	_ = do.MustInvoke[*service.AccessService](injector)
	_ = do.MustInvoke[*service.CartService](injector)
	_ = do.MustInvoke[*service.CheckoutService](injector)
	_ = do.MustInvoke[*service.ReconcileService](injector)
	_ = do.MustInvoke[*service.UnlockService](injector)
	_ = do.MustInvoke[*service.AlbumService](injector)

	// Workers
	_ = do.MustInvoke[*providers.SessionGCJob](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
