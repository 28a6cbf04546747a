package providers

import (
	"github.com/samber/do/v2"

	"github.com/elephoto/elephoto-server/internal/config"
	"github.com/elephoto/elephoto-server/internal/logger"
	"github.com/elephoto/elephoto-server/internal/media/images"
	"github.com/elephoto/elephoto-server/internal/payment"
	"github.com/elephoto/elephoto-server/internal/ratelimit"
	"github.com/elephoto/elephoto-server/internal/service"
)

// CodeLimiterHandle wraps the per-client access code limiter.
type CodeLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *CodeLimiterHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideCodeLimiter bounds how fast one client may try access codes.
func ProvideCodeLimiter(i do.Injector) (*CodeLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)

	limiter := ratelimit.NewPerInterval(cfg.RateLimit.CodeAttempts, cfg.RateLimit.CodeWindow, cfg.RateLimit.CodeAttempts)
	return &CodeLimiterHandle{KeyedRateLimiter: limiter}, nil
}

// ProvideLinks provides the public URL builder.
func ProvideLinks(i do.Injector) (service.Links, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return service.NewLinks(cfg.Server.PublicURL), nil
}

// ProvideAccessService provides access code resolution.
func ProvideAccessService(i do.Injector) (*service.AccessService, error) {
	db := do.MustInvoke[*DatabaseHandle](i)
	sessions := do.MustInvoke[*SessionStoreHandle](i)
	limiter := do.MustInvoke[*CodeLimiterHandle](i)
	links := do.MustInvoke[service.Links](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAccessService(db.Store, sessions.SessionStore, limiter, links, log.Component("access")), nil
}

// ProvideCartService provides the cart.
func ProvideCartService(i do.Injector) (*service.CartService, error) {
	db := do.MustInvoke[*DatabaseHandle](i)
	sessions := do.MustInvoke[*SessionStoreHandle](i)
	links := do.MustInvoke[service.Links](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCartService(db.Store, sessions.SessionStore, links, log.Component("cart")), nil
}

// ProvideCheckoutService provides checkout session creation.
func ProvideCheckoutService(i do.Injector) (*service.CheckoutService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	db := do.MustInvoke[*DatabaseHandle](i)
	sessions := do.MustInvoke[*SessionStoreHandle](i)
	processor := do.MustInvoke[payment.Processor](i)
	links := do.MustInvoke[service.Links](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCheckoutService(db.Store, sessions.SessionStore, processor, db.Store, links, cfg.Stripe.Currency, log.Component("checkout")), nil
}

// ProvideReconcileService provides payment notification handling.
func ProvideReconcileService(i do.Injector) (*service.ReconcileService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	db := do.MustInvoke[*DatabaseHandle](i)
	verifier := do.MustInvoke[payment.Verifier](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	policy := service.ParseFailurePolicy(cfg.Reconcile.FailurePolicy)
	return service.NewReconcileService(verifier, db.Store, db.Store, db.Store, sseHandle.Manager, policy, log.Component("reconcile")), nil
}

// ProvideUnlockService provides claim and download of paid originals.
func ProvideUnlockService(i do.Injector) (*service.UnlockService, error) {
	db := do.MustInvoke[*DatabaseHandle](i)
	sessions := do.MustInvoke[*SessionStoreHandle](i)
	storages := do.MustInvoke[*ObjectStorages](i)
	links := do.MustInvoke[service.Links](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewUnlockService(db.Store, sessions.SessionStore, storages.Originals, links, log.Component("unlock")), nil
}

// ProvideAlbumService provides admin album uploads.
func ProvideAlbumService(i do.Injector) (*service.AlbumService, error) {
	db := do.MustInvoke[*DatabaseHandle](i)
	storages := do.MustInvoke[*ObjectStorages](i)
	processor := do.MustInvoke[*images.Processor](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAlbumService(db.Store, storages.Originals, storages.Displays, processor, log.Component("albums")), nil
}
