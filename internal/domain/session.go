package domain

import "time"

// SessionTTL is how long an idle browsing session is kept by the session store.
const SessionTTL = 24 * time.Hour

// BrowsingSession is the per-visitor state of the storefront: the album the
// visitor unlocked with a code and the photos they selected.
// It is loaded and saved explicitly by the services that need it.
type BrowsingSession struct {
	ID        string
	AlbumID   string
	AlbumCode string
	Cart      Cart
	UpdatedAt time.Time
}

// NewBrowsingSession creates an empty session with no active album.
func NewBrowsingSession(id string) *BrowsingSession {
	return &BrowsingSession{
		ID:        id,
		UpdatedAt: time.Now(),
	}
}

// HasAlbum reports whether a code has been resolved in this session.
func (s *BrowsingSession) HasAlbum() bool {
	return s.AlbumID != ""
}

// EnterAlbum makes album the active album. The cart is always emptied so a
// selection made under one code can never be checked out under another.
func (s *BrowsingSession) EnterAlbum(album *Album) {
	s.AlbumID = album.ID
	s.AlbumCode = album.Code
	s.Cart.Clear()
	s.UpdatedAt = time.Now()
}

// Leave forgets the active album and the cart.
func (s *BrowsingSession) Leave() {
	s.AlbumID = ""
	s.AlbumCode = ""
	s.Cart.Clear()
	s.UpdatedAt = time.Now()
}

// Touch bumps UpdatedAt after a mutation.
func (s *BrowsingSession) Touch() {
	s.UpdatedAt = time.Now()
}
