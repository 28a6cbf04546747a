package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/elephoto/elephoto-server/internal/domain"
	domainerrors "github.com/elephoto/elephoto-server/internal/errors"
	"github.com/elephoto/elephoto-server/internal/id"
	"github.com/elephoto/elephoto-server/internal/media/images"
	"github.com/elephoto/elephoto-server/internal/store"
)

// maxFilenameLength bounds the sanitized name kept in original keys.
const maxFilenameLength = 80

// Renderer produces the public display copy of an original.
type Renderer interface {
	Render(original []byte) (*images.Display, error)
}

// Upload is one file received by the album upload.
type Upload struct {
	Filename string
	Data     []byte
}

// AlbumService creates albums from uploaded photos.
type AlbumService struct {
	albums    AlbumWriter
	originals ObjectStore
	displays  ObjectStore
	renderer  Renderer
	now       func() time.Time
	logger    *slog.Logger
}

// NewAlbumService creates a new album service. originals must be private
// storage; displays is served publicly.
func NewAlbumService(albums AlbumWriter, originals, displays ObjectStore, renderer Renderer, logger *slog.Logger) *AlbumService {
	return &AlbumService{
		albums:    albums,
		originals: originals,
		displays:  displays,
		renderer:  renderer,
		now:       time.Now,
		logger:    logger,
	}
}

// AlbumCreated is the result of a successful upload.
type AlbumCreated struct {
	Album  *domain.Album
	Photos []*domain.Photo
}

// CreateAlbum registers an album under rawCode and stores every upload as an
// original plus a watermarked display copy. Any failure removes the album and
// every object stored so far.
func (s *AlbumService) CreateAlbum(ctx context.Context, rawCode string, uploads []Upload) (*AlbumCreated, error) {
	code := domain.NormalizeCode(rawCode)
	if code == "" || !domain.ValidCode(code) {
		return nil, domainerrors.Validationf("album code must contain only letters A-Z and digits, at most %d characters", domain.MaxCodeLength)
	}
	if len(uploads) == 0 {
		return nil, domainerrors.Validation("at least one photo is required")
	}

	albumID, err := id.Generate(id.PrefixAlbum)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to generate album id")
	}

	now := s.now()
	album := &domain.Album{ID: albumID, Code: code, CreatedAt: now}
	if err := s.albums.CreateAlbum(ctx, album); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.Conflictf("album code %s is already in use", code)
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to create album")
	}

	tx := &uploadBatch{svc: s}
	photos, err := s.storeUploads(ctx, tx, album, uploads, now)
	if err != nil {
		tx.rollback()
		if delErr := s.albums.DeleteAlbum(context.WithoutCancel(ctx), album.ID); delErr != nil {
			s.logger.Error("failed to remove album after upload failure", "album_code", code, "error", delErr)
		}
		s.logger.Warn("album upload aborted", "album_code", code, "error", err)
		return nil, err
	}

	s.logger.Info("album created", "album_code", code, "photos", len(photos))
	return &AlbumCreated{Album: album, Photos: photos}, nil
}

// ListAlbums returns every album, newest first.
func (s *AlbumService) ListAlbums(ctx context.Context) ([]*domain.Album, error) {
	albums, err := s.albums.ListAlbums(ctx)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to list albums")
	}
	return albums, nil
}

func (s *AlbumService) storeUploads(ctx context.Context, tx *uploadBatch, album *domain.Album, uploads []Upload, now time.Time) ([]*domain.Photo, error) {
	ts := now.Unix()
	photos := make([]*domain.Photo, 0, len(uploads))

	for i, up := range uploads {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(up.Data) == 0 {
			return nil, domainerrors.Validationf("file %q is empty", up.Filename)
		}

		display, err := s.renderer.Render(up.Data)
		if err != nil {
			return nil, domainerrors.Validationf("file %q is not a supported image", up.Filename).WithCause(err)
		}

		originalKey := fmt.Sprintf("%s/original_%d_%d_%s", album.Code, ts, i, SanitizeFilename(up.Filename))
		if err := tx.save(s.originals, originalKey, up.Data); err != nil {
			return nil, domainerrors.Upstream("failed to store original").WithCause(err)
		}

		displayKey := fmt.Sprintf("%s/display_%d_%d.jpg", album.Code, ts, i)
		if err := tx.save(s.displays, displayKey, display.Data); err != nil {
			return nil, domainerrors.Upstream("failed to store display copy").WithCause(err)
		}

		photoID, err := id.Generate(id.PrefixPhoto)
		if err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to generate photo id")
		}
		photos = append(photos, &domain.Photo{
			ID:         photoID,
			AlbumID:    album.ID,
			DisplayKey: displayKey,
			Original:   domain.Purchasable{Ref: originalKey},
			ListPrice:  domain.DefaultListPrice,
			BlurHash:   display.BlurHash,
			CreatedAt:  now,
		})
	}

	if err := s.albums.CreatePhotos(ctx, photos); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to save photos")
	}
	return photos, nil
}

// uploadBatch remembers stored objects so a failed upload can remove them.
type uploadBatch struct {
	svc   *AlbumService
	saved []savedObject
}

type savedObject struct {
	store ObjectStore
	key   string
}

func (b *uploadBatch) save(st ObjectStore, key string, data []byte) error {
	if err := st.Save(key, data); err != nil {
		return err
	}
	b.saved = append(b.saved, savedObject{store: st, key: key})
	return nil
}

func (b *uploadBatch) rollback() {
	for _, obj := range b.saved {
		if err := obj.store.Delete(obj.key); err != nil {
			b.svc.logger.Warn("failed to remove object after upload failure", "key", obj.key, "error", err)
		}
	}
}

var stripMarks = runes.Remove(runes.In(unicode.Mn))

// SanitizeFilename reduces an uploaded file name to a storage-safe form:
// accents are stripped, anything outside [A-Za-z0-9._-] becomes '_'.
func SanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))

	folded, _, err := transform.String(transform.Chain(norm.NFKD, stripMarks, norm.NFC), name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	lastUnderscore := false
	for _, r := range folded {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '-'):
			b.WriteRune(r)
			lastUnderscore = false
		case !lastUnderscore:
			b.WriteByte('_')
			lastUnderscore = true
		}
	}

	out := strings.Trim(b.String(), "._")
	if len(out) > maxFilenameLength {
		out = out[len(out)-maxFilenameLength:]
	}
	if out == "" {
		return "photo"
	}
	return out
}
