// Package icons writes the web, PWA and Android launcher icon sets from
// the project source logo.
package icons

import (
	"path"

	"brandkit/internal/config"
	"brandkit/internal/domain"
)

// Density is an Android launcher icon resolution tier.
type Density struct {
	Name string
	Size int
}

var Densities = []Density{
	{Name: "mdpi", Size: 48},
	{Name: "hdpi", Size: 72},
	{Name: "xhdpi", Size: 96},
	{Name: "xxhdpi", Size: 144},
	{Name: "xxxhdpi", Size: 192},
}

// launcherVariants share one bitmap per density.
var launcherVariants = []string{"ic_launcher", "ic_launcher_round", "ic_launcher_foreground"}

const (
	androidRes  = "android/app/src/main/res"
	FaviconICO  = "public/favicon.ico"
	faviconPNG  = "public/favicon.png"
	pwaLarge    = config.PWALogo
	pwaSmall    = "public/pwa-192x192.png"
	logoMaxSide = 512
)

func square(p string, size int) domain.Target {
	return domain.Target{Path: p, Width: size, Height: size}
}

// WebTargets are the web and PWA icons. The first entry rewrites the
// source logo itself at its canonical size.
func WebTargets() []domain.Target {
	return []domain.Target{
		square(config.SourceLogo, logoMaxSide),
		square(pwaLarge, 512),
		square(pwaSmall, 192),
		square(faviconPNG, 48),
	}
}

func AndroidTargets() []domain.Target {
	out := make([]domain.Target, 0, len(Densities)*len(launcherVariants))
	for _, d := range Densities {
		dir := path.Join(androidRes, "mipmap-"+d.Name)
		for _, name := range launcherVariants {
			out = append(out, square(path.Join(dir, name+".png"), d.Size))
		}
	}
	return out
}

// Targets returns every icon written by FixLogos and Optimize.
func Targets() []domain.Target {
	return append(WebTargets(), AndroidTargets()...)
}
