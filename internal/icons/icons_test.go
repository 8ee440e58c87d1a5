package icons

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"brandkit/internal/config"
	"brandkit/internal/raster"

	"go.uber.org/zap"
)

var slate = color.NRGBA{R: 15, G: 23, B: 42, A: 255}

func projectWithLogo(t *testing.T, w, h int) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Root = t.TempDir()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 200, 40, 90, 255
	}
	if err := raster.Save(cfg.Path(config.SourceLogo), img); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestTargetTable(t *testing.T) {
	targets := Targets()
	if len(targets) != 19 {
		t.Fatalf("expected 19 targets, got %d", len(targets))
	}
	seen := map[string]bool{}
	for _, tg := range targets {
		if seen[tg.Path] {
			t.Fatalf("duplicate target %s", tg.Path)
		}
		seen[tg.Path] = true
		if !tg.Square() {
			t.Fatalf("expected square target, got %+v", tg)
		}
	}
	want := "android/app/src/main/res/mipmap-xxhdpi/ic_launcher_round.png"
	for _, tg := range targets {
		if tg.Path == want {
			if tg.Width != 144 {
				t.Fatalf("expected xxhdpi at 144px, got %d", tg.Width)
			}
			return
		}
	}
	t.Fatalf("missing %s", want)
}

func TestFixLogosWritesExactSizes(t *testing.T) {
	cfg := projectWithLogo(t, 300, 200)
	rep, err := FixLogos(cfg, slate, zap.NewNop())
	if err != nil {
		t.Fatalf("fix logos: %v", err)
	}
	if rep.Failed() != 0 {
		t.Fatalf("expected no failures, got %d", rep.Failed())
	}
	if len(rep.Verified) != len(Targets()) {
		t.Fatalf("expected every target verified, got %d", len(rep.Verified))
	}
	for _, v := range rep.Verified {
		if !v.OK() {
			t.Fatalf("%s: got %dx%d", v.Target.Path, v.Width, v.Height)
		}
	}

	img, err := raster.Open(cfg.Path(pwaLarge))
	if err != nil {
		t.Fatal(err)
	}
	pwa := raster.ToNRGBA(img)
	if got := pwa.NRGBAAt(256, 10); got != slate {
		t.Fatalf("expected padding colour in the top margin, got %+v", got)
	}
	if got := pwa.NRGBAAt(256, 256); got.R < 180 {
		t.Fatalf("expected logo in the centre, got %+v", got)
	}
}

func TestFixLogosCountsBlockedTargetOnce(t *testing.T) {
	cfg := projectWithLogo(t, 64, 64)
	if err := os.MkdirAll(filepath.Join(cfg.Path("public/favicon.png"), "child"), 0o755); err != nil {
		t.Fatal(err)
	}
	rep, err := FixLogos(cfg, slate, zap.NewNop())
	if err == nil {
		t.Fatal("expected error for the blocked target")
	}
	if got := rep.Failed(); got != 1 {
		t.Fatalf("expected 1 failed icon, got %d", got)
	}
	if _, err := os.Stat(cfg.Path("public/favicon.png.new")); !os.IsNotExist(err) {
		t.Fatalf("expected no leftover temp file, stat err=%v", err)
	}
}

func TestFixLogosMissingSourceWritesNothing(t *testing.T) {
	cfg := config.Default()
	cfg.Root = t.TempDir()
	if _, err := FixLogos(cfg, slate, zap.NewNop()); err == nil {
		t.Fatal("expected error for missing source logo")
	}
	if _, err := os.Stat(cfg.Path(pwaLarge)); !os.IsNotExist(err) {
		t.Fatalf("expected no outputs, stat err=%v", err)
	}
}

func TestOptimizeReplacesInPlace(t *testing.T) {
	cfg := projectWithLogo(t, 512, 512)
	results, err := Optimize(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if len(results) != len(Targets()) {
		t.Fatalf("expected %d results, got %d", len(Targets()), len(results))
	}
	for _, r := range results {
		if r.Err != nil {
			t.Fatalf("%s: %v", r.Target.Path, r.Err)
		}
		if r.InputBytes <= 0 || r.Bytes <= 0 {
			t.Fatalf("%s: expected sizes, got in=%d out=%d", r.Target.Path, r.InputBytes, r.Bytes)
		}
		if _, err := os.Stat(cfg.Path(r.Target.Path) + ".new"); !os.IsNotExist(err) {
			t.Fatalf("%s: temp file left behind", r.Target.Path)
		}
	}
	w, h, err := raster.Dimensions(cfg.Path("android/app/src/main/res/mipmap-mdpi/ic_launcher.png"))
	if err != nil || w != 48 || h != 48 {
		t.Fatalf("expected 48x48 mdpi icon, got %dx%d err=%v", w, h, err)
	}
}

func TestReduction(t *testing.T) {
	o := Optimized{InputBytes: 200}
	o.Bytes = 150
	if got := o.Reduction(); got != 25 {
		t.Fatalf("expected 25%%, got %.2f", got)
	}
	if got := (Optimized{}).Reduction(); got != 0 {
		t.Fatalf("expected 0 for empty input, got %.2f", got)
	}
}

func TestFaviconWritesICO(t *testing.T) {
	cfg := projectWithLogo(t, 64, 64)
	res, err := Favicon(cfg, nil)
	if err != nil {
		t.Fatalf("favicon: %v", err)
	}
	data, err := os.ReadFile(cfg.Path(FaviconICO))
	if err != nil {
		t.Fatal(err)
	}
	if int64(len(data)) != res.Bytes {
		t.Fatalf("expected reported size %d, got %d", len(data), res.Bytes)
	}
	if !strings.HasPrefix(string(data), "\x00\x00\x01\x00\x03\x00") {
		t.Fatalf("unexpected ICO header % x", data[:6])
	}
	if filepath.Ext(res.Target.Path) != ".ico" {
		t.Fatalf("unexpected target %+v", res.Target)
	}
}
