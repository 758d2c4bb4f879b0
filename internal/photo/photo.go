// Package photo normalizes uploaded item and pet photos into bounded JPEGs.
package photo

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // registers GIF decoding
	"image/jpeg"
	_ "image/png" // registers PNG decoding

	"golang.org/x/image/draw"
)

const (
	// MaxSide bounds both dimensions of a stored photo.
	MaxSide = 800
	// Quality is the JPEG quality of stored photos.
	Quality = 80

	maxSourcePixels = 50_000_000
)

// ErrUndecodable is returned for data that is not a PNG, JPEG or GIF image.
var ErrUndecodable = errors.New("photo is not a PNG, JPEG or GIF image")

// Thumbnail decodes data, scales it down to fit MaxSide x MaxSide keeping the
// aspect ratio, and re-encodes it as JPEG. Smaller images keep their size.
func Thumbnail(data []byte) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, ErrUndecodable
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > maxSourcePixels {
		return nil, fmt.Errorf("%w: unsupported dimensions %dx%d", ErrUndecodable, cfg.Width, cfg.Height)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrUndecodable
	}

	w, h := Fit(src.Bounds().Dx(), src.Bounds().Dy(), MaxSide)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: Quality}); err != nil {
		return nil, fmt.Errorf("encode photo: %w", err)
	}
	return buf.Bytes(), nil
}

// Fit returns the largest size no bigger than maxSide on either side with the
// aspect ratio of w x h. It never scales up.
func Fit(w, h, maxSide int) (int, int) {
	if w <= maxSide && h <= maxSide {
		return w, h
	}
	if w >= h {
		return maxSide, max(1, h*maxSide/w)
	}
	return max(1, w*maxSide/h), maxSide
}
