package images

import (
	"fmt"
	"image"

	"github.com/bbrks/go-blurhash"
	"github.com/nfnt/resize"
)

// placeholderEdge bounds the thumbnail a placeholder is computed from.
const placeholderEdge = 32

// Placeholder returns the BlurHash the gallery shows while a display copy
// loads. The longer side gets more components so portraits and landscapes
// blur alike.
func Placeholder(img image.Image) (string, error) {
	xComponents, yComponents := 4, 3
	if b := img.Bounds(); b.Dy() > b.Dx() {
		xComponents, yComponents = 3, 4
	}

	small := resize.Thumbnail(placeholderEdge, placeholderEdge, img, resize.Bilinear)
	hash, err := blurhash.Encode(xComponents, yComponents, small)
	if err != nil {
		return "", fmt.Errorf("encode placeholder: %w", err)
	}
	return hash, nil
}
