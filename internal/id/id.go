// Package id generates identifiers for persisted entities and browsing sessions.
package id

import (
	"fmt"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Entity prefixes.
const (
	PrefixAlbum = "alb"
	PrefixPhoto = "pho"
	PrefixToken = "tok"
)

// Generate creates a prefixed unique ID using NanoID
// Format: prefix-nanoid (e.g., "pho-V1StGXR8_Z5jdHi6B-myT")
//
// Returns an error if the system has insufficient entropy for secure random generation.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// NewSessionID returns a random browsing-session identifier.
// Session ids travel in a cookie, so they use the plain UUID form.
func NewSessionID() string {
	return uuid.NewString()
}

// IsSessionID reports whether s looks like an id produced by NewSessionID.
func IsSessionID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil && len(s) == 36
}
