package images

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"log/slog"
	"math"

	"github.com/nfnt/resize"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// Display copy defaults, matching what the storefront has always served.
const (
	DefaultMaxDimension = 1080
	DefaultMaxBytes     = 300 * 1024
	DefaultQuality      = 85
	DefaultWatermark    = "ELEPHOTO"
)

// qualitySteps are tried in order when a display copy exceeds MaxBytes.
var qualitySteps = []int{75, 65, 55, 45}

// ProcessorOptions tunes display-copy rendering.
type ProcessorOptions struct {
	MaxDimension int
	MaxBytes     int
	Quality      int
	Watermark    string
	// WatermarkScale is the watermark glyph height relative to image width.
	WatermarkScale float64
	// WatermarkAlpha is the watermark opacity, 0 to 1.
	WatermarkAlpha float64
}

// DefaultProcessorOptions returns the production rendering settings.
func DefaultProcessorOptions() ProcessorOptions {
	return ProcessorOptions{
		MaxDimension:   DefaultMaxDimension,
		MaxBytes:       DefaultMaxBytes,
		Quality:        DefaultQuality,
		Watermark:      DefaultWatermark,
		WatermarkScale: 0.15,
		WatermarkAlpha: 0.4,
	}
}

// Display is a rendered, watermarked display copy.
type Display struct {
	Data     []byte
	Width    int
	Height   int
	BlurHash string
}

// Processor renders public display copies from uploaded originals.
type Processor struct {
	opts   ProcessorOptions
	logger *slog.Logger
}

// NewProcessor creates a new Processor instance.
func NewProcessor(opts ProcessorOptions, logger *slog.Logger) *Processor {
	return &Processor{
		opts:   opts,
		logger: logger,
	}
}

// Render decodes an original, downscales it to fit MaxDimension, stamps the
// diagonal watermark and encodes it as JPEG. The original bytes are not modified.
func (p *Processor) Render(original []byte) (*Display, error) {
	src, format, err := image.Decode(bytes.NewReader(original))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	scaled := resize.Thumbnail(uint(p.opts.MaxDimension), uint(p.opts.MaxDimension), src, resize.Lanczos3)

	canvas := image.NewRGBA(scaled.Bounds())
	xdraw.Draw(canvas, canvas.Bounds(), scaled, scaled.Bounds().Min, xdraw.Src)

	if p.opts.Watermark != "" {
		stampWatermark(canvas, p.opts.Watermark, p.opts.WatermarkScale, p.opts.WatermarkAlpha)
	}

	data, quality, err := p.encode(canvas)
	if err != nil {
		return nil, err
	}

	hash, err := Placeholder(canvas)
	if err != nil {
		return nil, err
	}

	if p.logger != nil {
		p.logger.Debug("rendered display copy",
			"source_format", format,
			"width", canvas.Bounds().Dx(),
			"height", canvas.Bounds().Dy(),
			"bytes", len(data),
			"quality", quality,
		)
	}

	return &Display{
		Data:     data,
		Width:    canvas.Bounds().Dx(),
		Height:   canvas.Bounds().Dy(),
		BlurHash: hash,
	}, nil
}

// encode writes img as JPEG, stepping quality down until it fits MaxBytes.
// If nothing fits, the smallest attempt is returned.
func (p *Processor) encode(img image.Image) ([]byte, int, error) {
	qualities := append([]int{p.opts.Quality}, qualitySteps...)

	var buf bytes.Buffer
	for _, q := range qualities {
		if q > p.opts.Quality {
			continue
		}
		buf.Reset()
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: q}); err != nil {
			return nil, 0, fmt.Errorf("encode jpeg: %w", err)
		}
		if p.opts.MaxBytes <= 0 || buf.Len() <= p.opts.MaxBytes {
			return buf.Bytes(), q, nil
		}
	}

	return buf.Bytes(), qualities[len(qualities)-1], nil
}

// stampWatermark draws text across the center of dst, rotated -45 degrees,
// with glyphs scaled to scale×width and blended at alpha.
func stampWatermark(dst *image.RGBA, text string, scale, alpha float64) {
	face := basicfont.Face7x13
	metrics := face.Metrics()
	textW := font.MeasureString(face, text).Ceil()
	textH := (metrics.Ascent + metrics.Descent).Ceil()
	if textW == 0 || textH == 0 {
		return
	}

	a := uint8(math.Round(255 * math.Max(0, math.Min(1, alpha))))
	glyphs := image.NewRGBA(image.Rect(0, 0, textW, textH))
	d := &font.Drawer{
		Dst:  glyphs,
		Src:  image.NewUniform(color.NRGBA{R: 255, G: 255, B: 255, A: a}),
		Face: face,
		Dot:  fixed.Point26_6{X: 0, Y: metrics.Ascent},
	}
	d.DrawString(text)

	bounds := dst.Bounds()
	k := scale * float64(bounds.Dx()) / float64(textH)
	theta := -math.Pi / 4
	cos, sin := math.Cos(theta), math.Sin(theta)

	// Source-to-destination affine: center, scale, rotate, move to image center.
	sx, sy := float64(textW)/2, float64(textH)/2
	dx := float64(bounds.Min.X) + float64(bounds.Dx())/2
	dy := float64(bounds.Min.Y) + float64(bounds.Dy())/2
	m := f64.Aff3{
		k * cos, -k * sin, 0,
		k * sin, k * cos, 0,
	}
	m[2] = dx - (m[0]*sx + m[1]*sy)
	m[5] = dy - (m[3]*sx + m[4]*sy)

	xdraw.BiLinear.Transform(dst, m, glyphs, glyphs.Bounds(), xdraw.Over, nil)
}
