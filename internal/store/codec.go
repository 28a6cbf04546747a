package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/elephoto/elephoto-server/internal/domain"
)

// sessionRecord is the stored form of a browsing session. The cart item's
// Original is flattened to its ref so the record round-trips through JSON.
type sessionRecord struct {
	ID        string           `json:"id"`
	AlbumID   string           `json:"album_id,omitempty"`
	AlbumCode string           `json:"album_code,omitempty"`
	Items     []cartItemRecord `json:"items,omitempty"`
	UpdatedAt time.Time        `json:"updated_at"`
}

type cartItemRecord struct {
	PhotoID     string `json:"photo_id"`
	DisplayKey  string `json:"display_key"`
	ListPrice   string `json:"list_price"`
	OriginalRef string `json:"original_ref,omitempty"`
}

// MarshalSession encodes a browsing session for a key-value backend.
func MarshalSession(s *domain.BrowsingSession) ([]byte, error) {
	rec := sessionRecord{
		ID:        s.ID,
		AlbumID:   s.AlbumID,
		AlbumCode: s.AlbumCode,
		Items:     make([]cartItemRecord, len(s.Cart.Items)),
		UpdatedAt: s.UpdatedAt,
	}
	for i, item := range s.Cart.Items {
		rec.Items[i] = cartItemRecord{
			PhotoID:     item.PhotoID,
			DisplayKey:  item.DisplayKey,
			ListPrice:   item.ListPrice.String(),
			OriginalRef: domain.OriginalRef(item.Original),
		}
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	return data, nil
}

// UnmarshalSession decodes a browsing session written by MarshalSession.
func UnmarshalSession(data []byte) (*domain.BrowsingSession, error) {
	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}

	s := &domain.BrowsingSession{
		ID:        rec.ID,
		AlbumID:   rec.AlbumID,
		AlbumCode: rec.AlbumCode,
		UpdatedAt: rec.UpdatedAt,
	}
	for _, item := range rec.Items {
		price, err := decimal.NewFromString(item.ListPrice)
		if err != nil {
			return nil, fmt.Errorf("unmarshal session: list price %q: %w", item.ListPrice, err)
		}
		s.Cart.Items = append(s.Cart.Items, domain.CartItem{
			PhotoID:    item.PhotoID,
			DisplayKey: item.DisplayKey,
			ListPrice:  price,
			Original:   domain.OriginalFromRef(item.OriginalRef),
		})
	}
	return s, nil
}
