package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultListPrice is the flat per-photo price stored at upload time.
// Checkout charges progressive pricing instead; see package pricing.
var DefaultListPrice = decimal.RequireFromString("15.00")

// Original describes whether a photo has a high-resolution asset that can be
// unlocked. It is a closed set: Unpurchasable or Purchasable.
type Original interface {
	isOriginal()
}

// Unpurchasable marks a photo without a stored original.
type Unpurchasable struct{}

// Purchasable carries the private storage key of the original asset.
type Purchasable struct {
	Ref string
}

func (Unpurchasable) isOriginal() {}
func (Purchasable) isOriginal()   {}

// OriginalFromRef maps a stored key to its variant. An empty key means the
// photo cannot be unlocked.
func OriginalFromRef(ref string) Original {
	if ref == "" {
		return Unpurchasable{}
	}
	return Purchasable{Ref: ref}
}

// OriginalRef returns the storage key for o, or "" for Unpurchasable.
func OriginalRef(o Original) string {
	if p, ok := o.(Purchasable); ok {
		return p.Ref
	}
	return ""
}

// Photo is one sellable image within an album.
type Photo struct {
	ID      string
	AlbumID string
	// DisplayKey is the public, watermarked copy. Always readable.
	DisplayKey string
	// Original is never rendered to gallery clients.
	Original  Original
	ListPrice decimal.Decimal
	BlurHash  string
	Paid      bool
	PaidAt    *time.Time
	CreatedAt time.Time
}

// IsPurchasable reports whether the photo has an original that can be unlocked.
func (p *Photo) IsPurchasable() bool {
	_, ok := p.Original.(Purchasable)
	return ok
}
