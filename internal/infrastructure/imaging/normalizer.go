// Package imaging turns arbitrary uploaded pictures into the bounded JPEG
// form that the service persists.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxDimension   = 400
	DefaultQuality        = 80
	DefaultMaxInputPixels = 100_000_000
)

// ErrDecode marks input that is not a recognizable image.
var ErrDecode = errors.New("image decode failed")

// Options bounds the canonical output.
type Options struct {
	MaxDimension   int
	Quality        int
	MaxInputPixels int64
}

// Result holds the canonical JPEG bytes and its geometry.
type Result struct {
	Data         []byte
	Width        int
	Height       int
	SourceFormat string
	SourceWidth  int
	SourceHeight int
}

// Normalizer decodes, fits and re-encodes images. It has no side effects and
// is safe for concurrent use.
type Normalizer struct {
	opts Options
}

func NewNormalizer(opts Options) *Normalizer {
	if opts.MaxDimension <= 0 {
		opts.MaxDimension = DefaultMaxDimension
	}
	if opts.Quality < 1 || opts.Quality > 100 {
		opts.Quality = DefaultQuality
	}
	if opts.MaxInputPixels <= 0 {
		opts.MaxInputPixels = DefaultMaxInputPixels
	}
	return &Normalizer{opts: opts}
}

// Normalize fits src inside MaxDimension x MaxDimension without upscaling and
// encodes it as JPEG at the configured quality.
func (n *Normalizer) Normalize(src []byte) (Result, error) {
	if len(src) == 0 {
		return Result{}, fmt.Errorf("%w: empty input", ErrDecode)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(src))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Result{}, fmt.Errorf("%w: invalid dimensions %dx%d", ErrDecode, cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > n.opts.MaxInputPixels {
		return Result{}, fmt.Errorf("%w: %dx%d exceeds pixel limit", ErrDecode, cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	bounds := img.Bounds()
	width, height := FitWithin(bounds.Dx(), bounds.Dy(), n.opts.MaxDimension)

	// JPEG has no alpha channel, so transparent areas are flattened onto white.
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	if width == bounds.Dx() && height == bounds.Dy() {
		draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: n.opts.Quality}); err != nil {
		return Result{}, fmt.Errorf("encode jpeg: %w", err)
	}

	return Result{
		Data:         buf.Bytes(),
		Width:        width,
		Height:       height,
		SourceFormat: format,
		SourceWidth:  bounds.Dx(),
		SourceHeight: bounds.Dy(),
	}, nil
}

// FitWithin scales (w, h) down to fit a bound x bound box, preserving aspect
// ratio. Images already inside the box are returned unchanged.
func FitWithin(w, h, bound int) (int, int) {
	if w <= bound && h <= bound {
		return w, h
	}
	if w >= h {
		nh := (h*bound + w/2) / w
		if nh < 1 {
			nh = 1
		}
		return bound, nh
	}
	nw := (w*bound + h/2) / h
	if nw < 1 {
		nw = 1
	}
	return nw, bound
}
