package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/elephoto/elephoto-server/internal/errors"
	"github.com/elephoto/elephoto-server/internal/payment"
)

func (e *testEnv) checkout(processor payment.Processor) *CheckoutService {
	return NewCheckoutService(e.db, e.sessions, processor, e.db, e.links, "brl", e.logger)
}

func TestCheckoutService_Checkout(t *testing.T) {
	env := newTestEnv(t)
	album, photos := env.seedAlbum(t, "CASAMENTO01", 3)
	env.enterAlbum(t, "sess", "CASAMENTO01", photos...)
	ctx := context.Background()

	processor := &fakeProcessor{}
	result, err := env.checkout(processor).Checkout(ctx, "sess")
	require.NoError(t, err)

	assert.Equal(t, "cs_test_1", result.SessionID)
	assert.Equal(t, "https://checkout.stripe.test/pay/cs_test_1", result.RedirectURL)
	assert.Equal(t, int64(1684), result.AmountCents)

	require.Equal(t, 1, processor.calls())
	req := processor.requests[0]
	assert.Equal(t, "brl", req.Currency)
	assert.Equal(t, album.ID, req.ClientReference)
	assert.Equal(t, testPublicURL+"/?success=true", req.SuccessURL)
	assert.Equal(t, testPublicURL+"/?canceled=true", req.CancelURL)
	assert.Equal(t, []string{photos[0].ID, photos[1].ID, photos[2].ID}, payment.DecodeIDs(req.Metadata))

	require.Len(t, req.Items, 3)
	var sum int64
	for i, item := range req.Items {
		assert.Equal(t, photos[i].ID, item.PhotoID)
		assert.Equal(t, LineItemName, item.Name)
		assert.Contains(t, item.ImageURL, "/media/")
		sum += item.AmountCents
	}
	assert.Equal(t, int64(1684), sum)

	stored, err := env.db.GetCheckout(ctx, "cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, album.ID, stored.AlbumID)
	assert.Equal(t, int64(1684), stored.AmountCents)
	assert.Nil(t, stored.CompletedAt)

	// Nothing is paid and the cart is kept until the payment is confirmed.
	for _, p := range photos {
		got, err := env.db.GetPhoto(ctx, p.ID)
		require.NoError(t, err)
		assert.False(t, got.Paid)
	}
	summary, err := env.cart().Summary(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Count())
}

func TestCheckoutService_EmptyCart(t *testing.T) {
	env := newTestEnv(t)
	env.seedAlbum(t, "FESTA", 1)
	env.enterAlbum(t, "sess", "FESTA")

	processor := &fakeProcessor{}
	_, err := env.checkout(processor).Checkout(context.Background(), "sess")
	requireCode(t, err, domainerrors.CodeValidation)
	assert.Zero(t, processor.calls())
}

func TestCheckoutService_RequiresAlbum(t *testing.T) {
	env := newTestEnv(t)
	processor := &fakeProcessor{}
	_, err := env.checkout(processor).Checkout(context.Background(), "fresh")
	requireCode(t, err, domainerrors.CodeForbidden)
	assert.Zero(t, processor.calls())
}

func TestCheckoutService_ProcessorFailure(t *testing.T) {
	env := newTestEnv(t)
	_, photos := env.seedAlbum(t, "FESTA", 2)
	env.enterAlbum(t, "sess", "FESTA", photos...)
	ctx := context.Background()

	processor := &fakeProcessor{err: errors.New("connection reset by peer")}
	_, err := env.checkout(processor).Checkout(ctx, "sess")
	requireCode(t, err, domainerrors.CodeUpstream)

	summary, err := env.cart().Summary(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Count())
}

func TestCheckoutService_TooManyItems(t *testing.T) {
	env := newTestEnv(t)
	album, _ := env.seedAlbum(t, "GRANDE", 0)
	ctx := context.Background()
	env.enterAlbum(t, "sess", "GRANDE")

	for i := 0; i <= payment.MaxMetadataKeys; i++ {
		p := env.addPhoto(t, album, fmt.Sprintf("pho-grande-%d", i), nil)
		_, err := env.cart().Add(ctx, "sess", p.ID)
		require.NoError(t, err)
	}

	processor := &fakeProcessor{}
	_, err := env.checkout(processor).Checkout(ctx, "sess")
	requireCode(t, err, domainerrors.CodeValidation)
	assert.Zero(t, processor.calls())
}
