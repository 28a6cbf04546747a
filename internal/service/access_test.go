package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elephoto/elephoto-server/internal/domain"
	domainerrors "github.com/elephoto/elephoto-server/internal/errors"
	"github.com/elephoto/elephoto-server/internal/ratelimit"
)

func TestAccessService_Resolve(t *testing.T) {
	env := newTestEnv(t)
	album, _ := env.seedAlbum(t, "CASAMENTO01", 2)
	svc := env.access()
	ctx := context.Background()

	t.Run("normalizes the code", func(t *testing.T) {
		got, err := svc.Resolve(ctx, "sess-1", "10.0.0.1", "  casamento01 ")
		require.NoError(t, err)
		assert.Equal(t, album.ID, got.ID)

		view, err := svc.Current(ctx, "sess-1")
		require.NoError(t, err)
		assert.Equal(t, album.ID, view.AlbumID)
		assert.Equal(t, "CASAMENTO01", view.AlbumCode)
	})

	t.Run("unknown code", func(t *testing.T) {
		_, err := svc.Resolve(ctx, "sess-2", "10.0.0.1", "NOPE")
		requireCode(t, err, domainerrors.CodeNotFound)
	})

	t.Run("empty code", func(t *testing.T) {
		_, err := svc.Resolve(ctx, "sess-2", "10.0.0.1", "   ")
		requireCode(t, err, domainerrors.CodeValidation)
	})
}

func TestAccessService_Resolve_InvalidCodeSkipsLookup(t *testing.T) {
	env := newTestEnv(t)
	catalog := &countingCatalog{Store: env.db}
	svc := NewAccessService(catalog, env.sessions, nil, env.links, env.logger)

	for _, raw := range []string{"CASA-01", "'; DROP TABLE albums;--", "ÁLBUM"} {
		_, err := svc.Resolve(context.Background(), "sess", "10.0.0.1", raw)
		requireCode(t, err, domainerrors.CodeValidation)
	}
	assert.Zero(t, catalog.lookups)
}

func TestAccessService_Resolve_SwitchingAlbumClearsCart(t *testing.T) {
	env := newTestEnv(t)
	_, photosA := env.seedAlbum(t, "ALBUMA", 2)
	albumB, _ := env.seedAlbum(t, "ALBUMB", 1)
	ctx := context.Background()

	env.enterAlbum(t, "sess", "ALBUMA", photosA...)

	_, err := env.access().Resolve(ctx, "sess", "10.0.0.1", "albumb")
	require.NoError(t, err)

	view, err := env.access().Current(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, albumB.ID, view.AlbumID)
	assert.Zero(t, view.Cart.Count())
}

func TestAccessService_Resolve_ReenteringSameCodeClearsCart(t *testing.T) {
	env := newTestEnv(t)
	_, photos := env.seedAlbum(t, "FESTA", 2)
	env.enterAlbum(t, "sess", "FESTA", photos...)

	_, err := env.access().Resolve(context.Background(), "sess", "10.0.0.1", "FESTA")
	require.NoError(t, err)

	summary, err := env.cart().Summary(context.Background(), "sess")
	require.NoError(t, err)
	assert.Zero(t, summary.Count())
}

func TestAccessService_Resolve_RateLimited(t *testing.T) {
	env := newTestEnv(t)
	env.seedAlbum(t, "FESTA", 1)

	limiter := ratelimit.NewPerInterval(2, time.Minute, 2)
	t.Cleanup(limiter.Stop)
	svc := NewAccessService(env.db, env.sessions, limiter, env.links, env.logger)
	ctx := context.Background()

	_, err := svc.Resolve(ctx, "sess", "10.0.0.1", "WRONG1")
	requireCode(t, err, domainerrors.CodeNotFound)
	_, err = svc.Resolve(ctx, "sess", "10.0.0.1", "WRONG2")
	requireCode(t, err, domainerrors.CodeNotFound)

	_, err = svc.Resolve(ctx, "sess", "10.0.0.1", "FESTA")
	requireCode(t, err, domainerrors.CodeRateLimited)

	// Other clients keep their own budget.
	_, err = svc.Resolve(ctx, "other", "10.0.0.2", "FESTA")
	require.NoError(t, err)
}

func TestAccessService_ListPhotos(t *testing.T) {
	env := newTestEnv(t)
	album, photos := env.seedAlbum(t, "FESTA", 2)
	env.addPhoto(t, album, "pho-preview", domain.Unpurchasable{})
	env.seedAlbum(t, "OUTRO", 3)
	ctx := context.Background()

	t.Run("requires an album", func(t *testing.T) {
		_, err := env.access().ListPhotos(ctx, "fresh")
		requireCode(t, err, domainerrors.CodeForbidden)
	})

	env.enterAlbum(t, "sess", "FESTA", photos[0])

	t.Run("only the active album", func(t *testing.T) {
		got, err := env.access().ListPhotos(ctx, "sess")
		require.NoError(t, err)
		require.Len(t, got, 3)

		byID := make(map[string]GalleryPhoto)
		for _, g := range got {
			byID[g.ID] = g
			assert.Contains(t, g.DisplayURL, testPublicURL+"/media/FESTA/")
			assert.Equal(t, "15.00", g.ListPrice)
			assert.Empty(t, g.DownloadURL)
		}
		assert.True(t, byID[photos[0].ID].InCart)
		assert.False(t, byID[photos[1].ID].InCart)
		assert.True(t, byID[photos[1].ID].Purchasable)
		assert.False(t, byID["pho-preview"].Purchasable)
	})

	t.Run("download link after payment", func(t *testing.T) {
		_, err := env.db.MarkPhotosPaid(ctx, []string{photos[1].ID, "pho-preview"}, time.Now())
		require.NoError(t, err)

		got, err := env.access().ListPhotos(ctx, "sess")
		require.NoError(t, err)
		for _, g := range got {
			switch g.ID {
			case photos[1].ID:
				assert.True(t, g.Paid)
				assert.Equal(t, testPublicURL+"/api/v1/photos/"+photos[1].ID+"/original", g.DownloadURL)
			case "pho-preview":
				assert.True(t, g.Paid)
				assert.Empty(t, g.DownloadURL)
			default:
				assert.False(t, g.Paid)
			}
		}
	})
}

func TestAccessService_Logout(t *testing.T) {
	env := newTestEnv(t)
	_, photos := env.seedAlbum(t, "FESTA", 1)
	env.enterAlbum(t, "sess", "FESTA", photos...)
	ctx := context.Background()

	require.NoError(t, env.access().Logout(ctx, "sess"))

	view, err := env.access().Current(ctx, "sess")
	require.NoError(t, err)
	assert.Empty(t, view.AlbumID)
	assert.Zero(t, view.Cart.Count())

	albumID, err := env.access().ActiveAlbum(ctx, "sess")
	require.NoError(t, err)
	assert.Empty(t, albumID)
}
