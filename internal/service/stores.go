package service

import (
	"context"
	"errors"
	"time"

	"github.com/elephoto/elephoto-server/internal/domain"
	"github.com/elephoto/elephoto-server/internal/media/images"
	"github.com/elephoto/elephoto-server/internal/sse"
	"github.com/elephoto/elephoto-server/internal/store"
)

// Catalog reads albums and photos from the record store.
type Catalog interface {
	GetAlbum(ctx context.Context, id string) (*domain.Album, error)
	GetAlbumByCode(ctx context.Context, code string) (*domain.Album, error)
	GetPhoto(ctx context.Context, id string) (*domain.Photo, error)
	GetPhotosByIDs(ctx context.Context, ids []string) (map[string]*domain.Photo, error)
	ListPhotosByAlbum(ctx context.Context, albumID string) ([]*domain.Photo, error)
}

// AlbumWriter creates and removes albums and their photos.
type AlbumWriter interface {
	CreateAlbum(ctx context.Context, album *domain.Album) error
	DeleteAlbum(ctx context.Context, id string) error
	ListAlbums(ctx context.Context) ([]*domain.Album, error)
	CreatePhotos(ctx context.Context, photos []*domain.Photo) error
}

// CheckoutRecorder keeps snapshots of payment sessions opened with the processor.
type CheckoutRecorder interface {
	CreateCheckout(ctx context.Context, c *domain.Checkout) error
	CompleteCheckout(ctx context.Context, id string, at time.Time) error
}

// PaymentLedger applies payments and keeps the audit trail of notifications.
type PaymentLedger interface {
	MarkPhotosPaid(ctx context.Context, ids []string, at time.Time) (int64, error)
	RecordPaymentEvent(ctx context.Context, e *domain.PaymentEvent) error
	GetPaymentEvent(ctx context.Context, eventID string) (*domain.PaymentEvent, error)
	ListPaymentEventsByOutcome(ctx context.Context, outcome domain.ReconcileOutcome) ([]*domain.PaymentEvent, error)
}

// ObjectStore holds photo bytes under album-scoped keys.
type ObjectStore interface {
	Save(key string, data []byte) error
	Open(key string) (*images.Object, error)
	Hash(key string) (string, error)
	Delete(key string) error
}

// Emitter pushes events to connected storefront clients.
type Emitter interface {
	Emit(event sse.Event)
}

// loadSession returns the stored browsing session, or a fresh one when the
// id is unknown or expired.
func loadSession(ctx context.Context, sessions store.SessionStore, id string) (*domain.BrowsingSession, error) {
	s, err := sessions.GetSession(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.NewBrowsingSession(id), nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}
