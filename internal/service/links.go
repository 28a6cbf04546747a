package service

import (
	"net/url"
	"strings"
)

// Links builds the absolute URLs the storefront hands to browsers and to the
// payment processor.
type Links struct {
	base string
}

// NewLinks creates a link builder rooted at the public storefront URL.
func NewLinks(publicURL string) Links {
	return Links{base: strings.TrimRight(publicURL, "/")}
}

// DisplayURL is the public, watermarked copy of a photo.
func (l Links) DisplayURL(displayKey string) string {
	return l.base + "/media/" + escapeKey(displayKey)
}

// OriginalURL is the purchase-gated download of a photo's original.
func (l Links) OriginalURL(photoID string) string {
	return l.base + "/api/v1/photos/" + url.PathEscape(photoID) + "/original"
}

// SuccessURL is where the processor returns the customer after paying.
func (l Links) SuccessURL() string {
	return l.base + "/?success=true"
}

// CancelURL is where the processor returns the customer after abandoning payment.
func (l Links) CancelURL() string {
	return l.base + "/?canceled=true"
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
