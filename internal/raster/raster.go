// Package raster decodes, transforms and encodes the bitmap assets written
// by brandkit. Every transform returns a fresh *image.NRGBA and leaves its
// input untouched.
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	_ "golang.org/x/image/webp"
)

const dirPerm = os.FileMode(0o755)

var ErrEmptyImage = errors.New("image has no pixels")

// Open decodes a PNG, JPEG, GIF, BMP, TIFF or WebP file.
func Open(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("open %s: %w", path, ErrEmptyImage)
	}
	return img, nil
}

// ToNRGBA converts img to straight-alpha RGBA with its origin at (0,0).
func ToNRGBA(img image.Image) *image.NRGBA {
	return imaging.Clone(img)
}

// Mode names the colour model of img the way the asset reports print it.
func Mode(img image.Image) string {
	switch img.(type) {
	case *image.NRGBA, *image.RGBA:
		return "RGBA"
	case *image.NRGBA64, *image.RGBA64:
		return "RGBA64"
	case *image.Gray:
		return "L"
	case *image.Gray16:
		return "I;16"
	case *image.Paletted:
		return "P"
	case *image.YCbCr:
		return "YCbCr"
	case *image.CMYK:
		return "CMYK"
	default:
		return fmt.Sprintf("%T", img)
	}
}

// FitSize returns the largest size with the source aspect ratio that fits a
// square target: the longer source side becomes the target side and the
// other side is truncated.
func FitSize(srcW, srcH, dstW, dstH int) (int, int) {
	if srcW <= 0 || srcH <= 0 {
		return dstW, dstH
	}
	ratio := float64(srcW) / float64(srcH)
	var w, h int
	if ratio > 1 {
		w = dstW
		h = int(float64(dstW) / ratio)
	} else {
		h = dstH
		w = int(float64(dstH) * ratio)
	}
	return max(w, 1), max(h, 1)
}

// Fit places img on a w×h canvas. Square targets keep the source aspect
// ratio and centre the scaled image over bg; other targets are stretched.
func Fit(img image.Image, w, h int, bg color.Color) *image.NRGBA {
	if w != h {
		return Resize(img, w, h)
	}
	b := img.Bounds()
	nw, nh := FitSize(b.Dx(), b.Dy(), w, h)
	scaled := Resize(img, nw, nh)

	canvas := imaging.New(w, h, bg)
	offset := image.Pt((w-nw)/2, (h-nh)/2)
	return imaging.Overlay(canvas, scaled, offset, 1.0)
}

// Resize scales img to exactly w×h with a Lanczos kernel. An image that
// already has that size is copied pixel for pixel.
func Resize(img image.Image, w, h int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return ToNRGBA(img)
	}
	return imaging.Resize(img, w, h, imaging.Lanczos)
}

// Dimensions decodes only the header of the image at path.
func Dimensions(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("decode %s: %w", path, err)
	}
	return cfg.Width, cfg.Height, nil
}

type saveOptions struct {
	atomic bool
	backup string
	level  png.CompressionLevel
}

type SaveOption func(*saveOptions)

// Atomic writes to "<path>.new" and renames it over path once encoding
// has succeeded.
func Atomic() SaveOption {
	return func(o *saveOptions) { o.atomic = true }
}

// Backup copies an existing file at path to backupPath before it is
// overwritten. A missing original is not an error.
func Backup(backupPath string) SaveOption {
	return func(o *saveOptions) { o.backup = backupPath }
}

func Compression(level png.CompressionLevel) SaveOption {
	return func(o *saveOptions) { o.level = level }
}

// Save encodes img as PNG at path, creating parent directories.
func Save(path string, img image.Image, opts ...SaveOption) error {
	o := saveOptions{level: png.BestCompression}
	for _, opt := range opts {
		opt(&o)
	}
	if err := ensureDir(path); err != nil {
		return fmt.Errorf("prepare output directory: %w", err)
	}
	if o.backup != "" {
		if err := copyIfExists(path, o.backup); err != nil {
			return fmt.Errorf("backup %s: %w", path, err)
		}
	}

	dest := path
	if o.atomic {
		dest = path + ".new"
	}
	if err := writePNG(dest, img, o.level); err != nil {
		if o.atomic {
			_ = os.Remove(dest)
		}
		return err
	}
	if o.atomic {
		if err := os.Rename(dest, path); err != nil {
			_ = os.Remove(dest)
			return fmt.Errorf("replace %s: %w", path, err)
		}
	}
	return nil
}

// Encode writes img as PNG to w.
func Encode(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression))
}

func writePNG(path string, img image.Image, level png.CompressionLevel) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	if err := imaging.Encode(f, img, imaging.PNG, imaging.PNGCompressionLevel(level)); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, dirPerm)
}

func copyIfExists(src, dst string) (err error) {
	in, err := os.Open(src)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer in.Close()

	if err := ensureDir(dst); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	_, err = io.Copy(out, in)
	return err
}

// DefaultTransparentPath derives "<base>-transparent.png" from an input path.
func DefaultTransparentPath(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + "-transparent.png"
}
