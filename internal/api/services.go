package api

import (
	"github.com/elephoto/elephoto-server/internal/media/images"
	"github.com/elephoto/elephoto-server/internal/service"
)

// Services groups all business logic services used by the API server.
type Services struct {
	Access    *service.AccessService
	Cart      *service.CartService
	Checkout  *service.CheckoutService
	Reconcile *service.ReconcileService
	Unlock    *service.UnlockService
	Album     *service.AlbumService
	AdminAuth *service.AdminAuthService
}

// StorageServices groups file storage served directly over HTTP.
type StorageServices struct {
	Displays *images.Storage // Public watermarked display copies
}
