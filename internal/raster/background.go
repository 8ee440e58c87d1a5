package raster

import (
	"errors"
	"image"
)

const DefaultWhiteThreshold = 240

var ErrInvalidThreshold = errors.New("threshold must be between 0 and 255")

// IsNearWhite reports whether all three colour channels exceed threshold.
func IsNearWhite(r, g, b uint8, threshold int) bool {
	return int(r) > threshold && int(g) > threshold && int(b) > threshold
}

// RemoveBackground zeroes the alpha of every near-white pixel and returns
// the result together with the number of pixels it matched.
func RemoveBackground(img image.Image, threshold int) (*image.NRGBA, int, error) {
	if threshold < 0 || threshold > 255 {
		return nil, 0, ErrInvalidThreshold
	}
	out := ToNRGBA(img)
	removed := 0
	b := out.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := out.Pix[(y-b.Min.Y)*out.Stride:]
		for x := 0; x < b.Dx(); x++ {
			i := x * 4
			if IsNearWhite(row[i], row[i+1], row[i+2], threshold) {
				row[i+3] = 0
				removed++
			}
		}
	}
	return out, removed, nil
}

// CountTransparent returns the number of fully transparent pixels.
func CountTransparent(img *image.NRGBA) int {
	n := 0
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] == 0 {
			n++
		}
	}
	return n
}
