package graphics

import (
	"image"
	"image/color"
	"os"
	"path"
	"strings"
	"testing"
	"time"

	"brandkit/internal/config"
	"brandkit/internal/raster"

	"go.uber.org/zap"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Root = t.TempDir()
	cfg.Fonts = config.Fonts{}
	return cfg
}

func writeLogo(t *testing.T, cfg config.Config, rel string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 250, 10, 10, 255
	}
	if err := raster.Save(cfg.Path(rel), img); err != nil {
		t.Fatal(err)
	}
}

func TestGenerateWithoutLogoStillWritesGraphics(t *testing.T) {
	cfg := testConfig(t)
	results, err := Generate(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	want := map[string][2]int{
		FeatureGraphicPath: {1024, 500},
		OGImagePath:        {1200, 630},
	}
	if len(results) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(results))
	}
	for rel, size := range want {
		w, h, err := raster.Dimensions(cfg.Path(rel))
		if err != nil {
			t.Fatalf("%s: %v", rel, err)
		}
		if w != size[0] || h != size[1] {
			t.Fatalf("%s: got %dx%d, want %dx%d", rel, w, h, size[0], size[1])
		}
	}
}

func TestFeatureGraphicPlacesLogo(t *testing.T) {
	cfg := testConfig(t)
	logo := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	for i := 0; i < len(logo.Pix); i += 4 {
		logo.Pix[i], logo.Pix[i+3] = 250, 255
	}
	img := FeatureGraphic(cfg, logo)
	if got := img.NRGBAAt(140, 250); got.R < 240 || got.G > 20 {
		t.Fatalf("expected logo at (140,250), got %+v", got)
	}
	if got := img.NRGBAAt(512, 495); got != cfg.Palette.Primary {
		t.Fatalf("expected bottom accent bar, got %+v", got)
	}
	bare := FeatureGraphic(cfg, nil)
	if got := bare.NRGBAAt(140, 250); got.R == 250 {
		t.Fatalf("expected no logo, got %+v", got)
	}
}

func TestGradientEndpoints(t *testing.T) {
	a := color.NRGBA{R: 15, G: 23, B: 42, A: 255}
	b := color.NRGBA{R: 30, G: 41, B: 59, A: 255}
	if got := Gradient(a, b, 0); got != a {
		t.Fatalf("expected start colour, got %+v", got)
	}
	if got := Gradient(a, b, 1); got != b {
		t.Fatalf("expected end colour, got %+v", got)
	}
	mid := Gradient(a, b, 0.5)
	if mid.R <= a.R || mid.R >= b.R {
		t.Fatalf("expected an intermediate colour, got %+v", mid)
	}
}

func TestStoreFeatureGraphicGradient(t *testing.T) {
	cfg := testConfig(t)
	img := StoreFeatureGraphic(cfg, nil)
	left, right := img.NRGBAAt(0, 5), img.NRGBAAt(1023, 5)
	if left != cfg.Palette.Background {
		t.Fatalf("expected background on the left edge, got %+v", left)
	}
	if right.B <= left.B {
		t.Fatalf("expected the gradient to lighten to the right, got %+v -> %+v", left, right)
	}
}

func TestGenerateStoreUsesPWAIcon(t *testing.T) {
	cfg := testConfig(t)
	writeLogo(t, cfg, config.PWALogo)
	if _, err := GenerateStore(cfg, zap.NewNop()); err != nil {
		t.Fatalf("generate store: %v", err)
	}
	img, err := raster.Open(cfg.Path(FeatureGraphicPath))
	if err != nil {
		t.Fatal(err)
	}
	if got := raster.ToNRGBA(img).NRGBAAt(180, 250); got.R < 240 {
		t.Fatalf("expected pwa icon pasted at x=80, got %+v", got)
	}
}

func TestPlayStoreKit(t *testing.T) {
	old := now
	now = func() time.Time { return time.Date(2026, 2, 12, 0, 0, 0, 0, time.UTC) }
	defer func() { now = old }()

	cfg := testConfig(t)
	cfg.StoreURL = "https://play.google.com/store/apps/details?id=com.zikalyze.app"
	writeLogo(t, cfg, config.SourceLogo)

	results, err := PlayStoreKit(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("play store kit: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected icon, feature, qr and readme, got %d results", len(results))
	}

	w, h, err := raster.Dimensions(cfg.Path(path.Join(PlayStoreDir, storeIconFile)))
	if err != nil || w != 512 || h != 512 {
		t.Fatalf("expected 512x512 icon, got %dx%d err=%v", w, h, err)
	}

	img, err := raster.Open(cfg.Path(path.Join(PlayStoreDir, storeFeature)))
	if err != nil {
		t.Fatal(err)
	}
	feature := raster.ToNRGBA(img)
	if got := feature.NRGBAAt(50, 50); got != cfg.Palette.GistFill {
		t.Fatalf("expected gist background outside the logo, got %+v", got)
	}
	if got := feature.NRGBAAt(512, 250); got.R < 240 {
		t.Fatalf("expected logo in the centre, got %+v", got)
	}

	qw, qh, err := raster.Dimensions(cfg.Path(path.Join(PlayStoreDir, storeQRFile)))
	if err != nil || qw != qh || qw == 0 {
		t.Fatalf("expected square qr code, got %dx%d err=%v", qw, qh, err)
	}

	readme, err := os.ReadFile(cfg.Path(path.Join(PlayStoreDir, storeReadme)))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"icon-512x512.png", "store-qr.png", "#B5EAD7", "XXXHDPI", "2026-02-12"} {
		if !strings.Contains(string(readme), want) {
			t.Fatalf("readme missing %q", want)
		}
	}
}

func TestPlayStoreKitNeedsLogo(t *testing.T) {
	cfg := testConfig(t)
	if _, err := PlayStoreKit(cfg, zap.NewNop()); err == nil {
		t.Fatal("expected error without a source logo")
	}
}

func TestReadmeWithoutQR(t *testing.T) {
	cfg := testConfig(t)
	text, err := Readme(cfg, false)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(text, "QR Code") {
		t.Fatal("expected the qr section to be omitted")
	}
}
