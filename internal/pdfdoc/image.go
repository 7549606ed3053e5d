package pdfdoc

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"golang.org/x/image/draw"
)

// NormalizeImage bounds a PNG page image to maxWidth pixels, preserving the
// aspect ratio. Images already within bounds are returned unchanged.
func NormalizeImage(data []byte, maxWidth int) ([]byte, error) {
	src, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode page image: %w", err)
	}

	bounds := src.Bounds()
	if maxWidth <= 0 || bounds.Dx() <= maxWidth {
		return data, nil
	}

	height := bounds.Dy() * maxWidth / bounds.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("failed to encode resized image: %w", err)
	}
	return buf.Bytes(), nil
}
