// Package artwork prepares cover images before they are handed to the
// transcoder or embedded in tags.
package artwork

import (
	"bytes"
	"image"
	"image/jpeg"
	_ "image/png" // PNG decoder registration

	"golang.org/x/image/draw"
)

// Options controls cover preparation.
type Options struct {
	// MaxSize bounds both dimensions in pixels. 0 keeps the original size.
	MaxSize int

	// ToJPEG re-encodes the image as JPEG regardless of input format.
	ToJPEG bool
}

// Prepare applies Options to raw image bytes. With zero Options the
// input is returned untouched, so callers can pass covers through
// unconditionally.
func Prepare(data []byte, opts Options) ([]byte, error) {
	if opts.MaxSize <= 0 && !opts.ToJPEG {
		return data, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	if opts.MaxSize > 0 {
		img = resize(img, opts.MaxSize)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// resize scales img to fit within max×max, preserving aspect ratio.
// Images already inside the bound are returned unchanged.
func resize(img image.Image, max int) image.Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= max && height <= max {
		return img
	}

	ratio := float64(width) / float64(height)
	if width >= height {
		width = max
		height = int(float64(max) / ratio)
	} else {
		height = max
		width = int(float64(max) * ratio)
	}
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
