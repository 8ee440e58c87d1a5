package icons

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"go.uber.org/zap"

	"brandkit/internal/config"
	"brandkit/internal/domain"
	"brandkit/internal/raster"
)

// Verification is the measured size of a written icon.
type Verification struct {
	Target domain.Target
	Width  int
	Height int
	Err    error
}

func (v Verification) OK() bool {
	return v.Err == nil && v.Width == v.Target.Width && v.Height == v.Target.Height
}

type Report struct {
	Source   string
	Results  []domain.FileResult
	Verified []Verification
}

// Failed counts targets that could not be written or did not verify. A
// target failing both ways counts once.
func (r Report) Failed() int {
	failed := map[string]bool{}
	for _, res := range r.Results {
		if res.Err != nil {
			failed[res.Target.Path] = true
		}
	}
	for _, v := range r.Verified {
		if !v.OK() {
			failed[v.Target.Path] = true
		}
	}
	return len(failed)
}

func openSource(cfg config.Config) (string, image.Image, error) {
	src := cfg.Path(config.SourceLogo)
	if _, err := os.Stat(src); err != nil {
		return src, nil, fmt.Errorf("source logo not found at %s: %w", src, err)
	}
	img, err := raster.Open(src)
	if err != nil {
		return src, nil, err
	}
	return src, img, nil
}

// FixLogos fits the source logo into every icon target, padding square
// targets with bg, then reopens each output to confirm its size. A
// failing target is logged and skipped; the returned error joins every
// per-target failure. A missing source logo aborts before anything is
// written.
func FixLogos(cfg config.Config, bg color.Color, logger *zap.Logger) (Report, error) {
	src, img, err := openSource(cfg)
	rep := Report{Source: src}
	if err != nil {
		return rep, err
	}
	logger.Debug("source logo", zap.String("path", src), zap.String("mode", raster.Mode(img)),
		zap.Int("width", img.Bounds().Dx()), zap.Int("height", img.Bounds().Dy()))

	targets := Targets()
	var errs []error
	for _, t := range targets {
		res := writeTarget(cfg, t, raster.Fit(img, t.Width, t.Height, bg))
		if res.Err != nil {
			logger.Warn("icon failed", zap.String("path", t.Path), zap.Error(res.Err))
			errs = append(errs, res.Err)
		}
		rep.Results = append(rep.Results, res)
	}

	rep.Verified = VerifyTargets(cfg, targets)
	for _, v := range rep.Verified {
		if v.Err == nil && !v.OK() {
			errs = append(errs, fmt.Errorf("%s: got %dx%d, want %dx%d", v.Target.Path, v.Width, v.Height, v.Target.Width, v.Target.Height))
		}
	}
	return rep, errors.Join(errs...)
}

func writeTarget(cfg config.Config, t domain.Target, img image.Image) domain.FileResult {
	res := domain.FileResult{Target: t}
	dst := cfg.Path(t.Path)
	if err := raster.Save(dst, img, raster.Atomic()); err != nil {
		res.Err = fmt.Errorf("%s: %w", t.Path, err)
		res.Error = res.Err.Error()
		return res
	}
	if info, err := os.Stat(dst); err == nil {
		res.Bytes = info.Size()
	}
	return res
}

// VerifyTargets decodes the header of every target file under cfg.Root.
func VerifyTargets(cfg config.Config, targets []domain.Target) []Verification {
	out := make([]Verification, 0, len(targets))
	for _, t := range targets {
		w, h, err := raster.Dimensions(cfg.Path(t.Path))
		out = append(out, Verification{Target: t, Width: w, Height: h, Err: err})
	}
	return out
}

// Optimized is one Optimize output with its size relative to the source
// file at the time it was written.
type Optimized struct {
	domain.FileResult
	InputBytes int64
}

// Reduction is the percentage saved relative to the input file.
func (o Optimized) Reduction() float64 {
	if o.InputBytes <= 0 {
		return 0
	}
	return float64(o.InputBytes-o.Bytes) / float64(o.InputBytes) * 100
}

// Optimize resizes the source logo to every icon target without padding
// and rewrites each with maximum PNG compression through a ".new" file
// renamed into place.
func Optimize(cfg config.Config, logger *zap.Logger) ([]Optimized, error) {
	src, img, err := openSource(cfg)
	if err != nil {
		return nil, err
	}
	var (
		out  []Optimized
		errs []error
	)
	for _, t := range Targets() {
		var inBytes int64
		if info, err := os.Stat(src); err == nil {
			inBytes = info.Size()
		}
		res := domain.FileResult{Target: t}
		dst := cfg.Path(t.Path)
		if err := raster.Save(dst, raster.Resize(img, t.Width, t.Height), raster.Atomic(), raster.Compression(png.BestCompression)); err != nil {
			res.Err = fmt.Errorf("%s: %w", t.Path, err)
			res.Error = res.Err.Error()
			logger.Warn("optimize failed", zap.String("path", t.Path), zap.Error(err))
			errs = append(errs, res.Err)
		} else if info, err := os.Stat(dst); err == nil {
			res.Bytes = info.Size()
		}
		out = append(out, Optimized{FileResult: res, InputBytes: inBytes})
	}
	return out, errors.Join(errs...)
}

// Favicon writes a multi-resolution favicon.ico next to the PNG favicon.
func Favicon(cfg config.Config, sizes []int) (domain.FileResult, error) {
	if len(sizes) == 0 {
		sizes = raster.DefaultFaviconSizes
	}
	res := domain.FileResult{Target: square(FaviconICO, sizes[0])}
	_, img, err := openSource(cfg)
	if err != nil {
		return res, err
	}
	dst := cfg.Path(FaviconICO)
	if err := raster.WriteICO(dst, img, sizes); err != nil {
		res.Err = fmt.Errorf("%s: %w", FaviconICO, err)
		res.Error = res.Err.Error()
		return res, res.Err
	}
	if info, err := os.Stat(dst); err == nil {
		res.Bytes = info.Size()
	}
	return res, nil
}
