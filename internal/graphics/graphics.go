// Package graphics renders store listing and social preview images.
package graphics

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"

	"go.uber.org/zap"
	"golang.org/x/image/font"

	"brandkit/internal/canvas"
	"brandkit/internal/config"
	"brandkit/internal/domain"
	"brandkit/internal/raster"
)

const (
	FeatureGraphicPath = "public/feature-graphic.png"
	OGImagePath        = "public/og-image.png"
)

const (
	tagline  = "AI-Powered Cryptocurrency Analysis"
	ogLine   = "AI-Powered Crypto Trading Analysis"
	features = "Real-Time Signals • Whale Tracking • Multi-Timeframe Analysis"
)

var white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

func boldFace(cfg config.Config, size float64) font.Face {
	face, _ := canvas.LoadFace(cfg.Fonts.Bold, size)
	return face
}

func regularFace(cfg config.Config, size float64) font.Face {
	face, _ := canvas.LoadFace(cfg.Fonts.Regular, size)
	return face
}

// loadLogo decodes the logo at rel under cfg.Root. A missing or broken
// logo is logged and yields nil so the graphic is still produced.
func loadLogo(cfg config.Config, rel string, logger *zap.Logger) image.Image {
	img, err := raster.Open(cfg.Path(rel))
	if err != nil {
		logger.Warn("could not load logo", zap.String("path", rel), zap.Error(err))
		return nil
	}
	return img
}

func pasteLogo(c *canvas.Canvas, logo image.Image, size, x, y int) {
	if logo == nil {
		return
	}
	c.Paste(raster.Resize(logo, size, size), x, y)
}

func save(cfg config.Config, rel string, img image.Image) domain.FileResult {
	b := img.Bounds()
	res := domain.FileResult{Target: domain.Target{Path: rel, Width: b.Dx(), Height: b.Dy()}}
	dst := cfg.Path(rel)
	if err := raster.Save(dst, img, raster.Atomic()); err != nil {
		res.Err = fmt.Errorf("%s: %w", rel, err)
		res.Error = res.Err.Error()
		return res
	}
	if info, err := os.Stat(dst); err == nil {
		res.Bytes = info.Size()
	}
	return res
}

func joinResults(results []domain.FileResult) error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errors.Join(errs...)
}

// Generate writes the 1024×500 feature graphic and the 1200×630 social
// preview image, both decorated with the source logo when it exists.
func Generate(cfg config.Config, logger *zap.Logger) ([]domain.FileResult, error) {
	logo := loadLogo(cfg, config.SourceLogo, logger)
	results := []domain.FileResult{
		save(cfg, FeatureGraphicPath, FeatureGraphic(cfg, logo)),
		save(cfg, OGImagePath, OGImage(cfg, logo)),
	}
	return results, joinResults(results)
}

// GenerateStore writes the gradient variant of the feature graphic using
// the PWA icon as its logo.
func GenerateStore(cfg config.Config, logger *zap.Logger) (domain.FileResult, error) {
	logo := loadLogo(cfg, config.PWALogo, logger)
	res := save(cfg, FeatureGraphicPath, StoreFeatureGraphic(cfg, logo))
	return res, res.Err
}
