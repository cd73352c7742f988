package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	return img
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, gradient(w, h), &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, gradient(w, h)))
	return buf.Bytes()
}

func decodedSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, "jpeg", format)
	return cfg.Width, cfg.Height
}

func TestNormalizeBoundsAndAspect(t *testing.T) {
	n := NewNormalizer(Options{})

	tests := []struct {
		name         string
		input        []byte
		wantW, wantH int
	}{
		{"large square jpeg", encodeJPEG(t, 1000, 1000), 400, 400},
		{"wide jpeg", encodeJPEG(t, 1200, 600), 400, 200},
		{"tall png", encodePNG(t, 300, 900), 133, 400},
		{"small png is not upscaled", encodePNG(t, 120, 80), 120, 80},
		{"small jpeg is not upscaled", encodeJPEG(t, 399, 10), 399, 10},
		{"exact bound", encodeJPEG(t, 400, 400), 400, 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := n.Normalize(tt.input)
			require.NoError(t, err)

			w, h := decodedSize(t, res.Data)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
			assert.Equal(t, w, res.Width)
			assert.Equal(t, h, res.Height)
			assert.LessOrEqual(t, max(w, h), 400)
		})
	}
}

func TestNormalizeIsIdempotentOnCanonicalImages(t *testing.T) {
	n := NewNormalizer(Options{})

	first, err := n.Normalize(encodeJPEG(t, 1600, 1600))
	require.NoError(t, err)

	second, err := n.Normalize(first.Data)
	require.NoError(t, err)

	assert.Equal(t, first.Width, second.Width)
	assert.Equal(t, first.Height, second.Height)
	assert.Equal(t, "jpeg", second.SourceFormat)
}

func TestNormalizeIsDeterministic(t *testing.T) {
	n := NewNormalizer(Options{})
	input := encodePNG(t, 800, 500)

	a, err := n.Normalize(input)
	require.NoError(t, err)
	b, err := n.Normalize(input)
	require.NoError(t, err)

	assert.Equal(t, a.Data, b.Data)
}

func TestNormalizeFlattensTransparency(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	res, err := NewNormalizer(Options{}).Normalize(buf.Bytes())
	require.NoError(t, err)

	out, err := jpeg.Decode(bytes.NewReader(res.Data))
	require.NoError(t, err)
	r, g, b, _ := out.At(5, 5).RGBA()
	assert.Greater(t, r>>8, uint32(240))
	assert.Greater(t, g>>8, uint32(240))
	assert.Greater(t, b>>8, uint32(240))
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	n := NewNormalizer(Options{})

	for _, input := range [][]byte{nil, []byte("not an image at all"), {0xFF, 0xD8, 0xFF, 0x00}} {
		_, err := n.Normalize(input)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrDecode), "expected ErrDecode, got %v", err)
	}
}

func TestNormalizeRejectsPixelBombs(t *testing.T) {
	n := NewNormalizer(Options{MaxInputPixels: 100})

	_, err := n.Normalize(encodePNG(t, 20, 20))
	assert.ErrorIs(t, err, ErrDecode)
}

func TestNormalizeHonorsOptions(t *testing.T) {
	n := NewNormalizer(Options{MaxDimension: 100, Quality: 50})

	res, err := n.Normalize(encodeJPEG(t, 500, 250))
	require.NoError(t, err)
	assert.Equal(t, 100, res.Width)
	assert.Equal(t, 50, res.Height)
	assert.Equal(t, 500, res.SourceWidth)
}

func TestFitWithin(t *testing.T) {
	tests := []struct {
		w, h, bound  int
		wantW, wantH int
	}{
		{1000, 1000, 400, 400, 400},
		{4000, 1, 400, 400, 1},
		{1, 4000, 400, 1, 400},
		{401, 400, 400, 400, 399},
		{10, 10, 400, 10, 10},
	}
	for _, tt := range tests {
		w, h := FitWithin(tt.w, tt.h, tt.bound)
		assert.Equal(t, tt.wantW, w, "%dx%d", tt.w, tt.h)
		assert.Equal(t, tt.wantH, h, "%dx%d", tt.w, tt.h)
	}
}
