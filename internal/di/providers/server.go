package providers

import (
	"context"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/elephoto/elephoto-server/internal/api"
	"github.com/elephoto/elephoto-server/internal/config"
	"github.com/elephoto/elephoto-server/internal/logger"
	"github.com/elephoto/elephoto-server/internal/service"
)

// version is reported in the OpenAPI document.
const version = "1.0.0"

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	api *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Server.Shutdown(ctx)
	h.api.Close()
	return err
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	db := do.MustInvoke[*DatabaseHandle](i)
	sessions := do.MustInvoke[*SessionStoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	storages := do.MustInvoke[*ObjectStorages](i)
	log := do.MustInvoke[*logger.Logger](i)

	services := &api.Services{
		Access:    do.MustInvoke[*service.AccessService](i),
		Cart:      do.MustInvoke[*service.CartService](i),
		Checkout:  do.MustInvoke[*service.CheckoutService](i),
		Reconcile: do.MustInvoke[*service.ReconcileService](i),
		Unlock:    do.MustInvoke[*service.UnlockService](i),
		Album:     do.MustInvoke[*service.AlbumService](i),
		AdminAuth: do.MustInvoke[*service.AdminAuthService](i),
	}

	handler := api.NewServer(api.Config{
		PublicURL:      cfg.Server.PublicURL,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		SessionTTL:     cfg.Session.TTL,
		Version:        version,
	}, db.Store, sessions.SessionStore, services, &api.StorageServices{
		Displays: storages.Displays,
	}, sseHandle.Manager, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr, "public_url", cfg.Server.PublicURL)

	return &HTTPServerHandle{Server: srv, api: handler}, nil
}
