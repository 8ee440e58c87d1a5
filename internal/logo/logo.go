// Package logo draws the app's 512×512 logo designs and installs one of
// them as the project source logo.
package logo

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"brandkit/internal/config"
	"brandkit/internal/domain"
	"brandkit/internal/raster"
)

// Size is the side length of every design.
const Size = 512

type Variant string

const (
	Professional    Variant = "professional"
	Chart           Variant = "chart"
	GistExact       Variant = "gist-exact"
	GistTransparent Variant = "gist"
	GistBrand       Variant = "gist-brand"
)

// backupNames maps variants to the file that receives the previous logo
// before it is replaced. Gist variants overwrite in place.
var backupNames = map[Variant]string{
	Professional: "zikalyze-logo-old.png",
	Chart:        "zikalyze-logo-backup.png",
}

func Variants() []Variant {
	return []Variant{Professional, Chart, GistExact, GistTransparent, GistBrand}
}

func ParseVariant(s string) (Variant, error) {
	v := Variant(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Variants() {
		if v == known {
			return v, nil
		}
	}
	names := make([]string, 0, len(Variants()))
	for _, known := range Variants() {
		names = append(names, string(known))
	}
	return "", fmt.Errorf("unknown logo variant %q (want one of %s)", s, strings.Join(names, ", "))
}

// Render draws variant v with palette p.
func Render(v Variant, p domain.Palette) (*image.NRGBA, error) {
	switch v {
	case Professional:
		return drawProfessional(p), nil
	case Chart:
		return drawChart(p), nil
	case GistExact:
		return renderGist(exactGist(p), Size)
	case GistTransparent:
		return renderGist(transparentGist(p), Size)
	case GistBrand:
		return renderGist(brandGist(p), Size)
	default:
		return nil, fmt.Errorf("unknown logo variant %q", v)
	}
}

type Result struct {
	Variant Variant
	Path    string
	Backup  string
}

// Generate renders v and writes it to the source logo path under
// cfg.Root. Professional and chart designs first copy an existing logo
// aside; Backup stays empty when there was nothing to keep.
func Generate(cfg config.Config, v Variant) (Result, error) {
	img, err := Render(v, cfg.Palette)
	if err != nil {
		return Result{}, err
	}
	res := Result{Variant: v, Path: cfg.Path(config.SourceLogo)}
	var opts []raster.SaveOption
	if name, ok := backupNames[v]; ok && fileExists(res.Path) {
		res.Backup = filepath.Join(filepath.Dir(res.Path), name)
		opts = append(opts, raster.Backup(res.Backup))
	}
	if err := raster.Save(res.Path, img, opts...); err != nil {
		return Result{}, fmt.Errorf("write %s logo: %w", v, err)
	}
	return res, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
