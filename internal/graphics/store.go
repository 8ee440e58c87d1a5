package graphics

import (
	"bytes"
	_ "embed"
	"fmt"
	"image"
	"image/color"
	"os"
	"path"
	"strings"
	"text/template"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"go.uber.org/zap"
	"rsc.io/qr"

	"brandkit/internal/canvas"
	"brandkit/internal/config"
	"brandkit/internal/domain"
	"brandkit/internal/icons"
	"brandkit/internal/raster"
)

const (
	PlayStoreDir   = "android/play-store-assets"
	storeIconFile  = "icon-512x512.png"
	storeFeature   = "feature-graphic-1024x500.png"
	storeQRFile    = "store-qr.png"
	storeReadme    = "README.md"
	qrModuleScale  = 8
	storeLogoSize  = 400
	storeLogoLeftX = (1024 - storeLogoSize) / 2
	storeLogoTopY  = (500 - storeLogoSize) / 2
)

//go:embed playstore.md.tmpl
var readmeSource string

var readmeTemplate = template.Must(template.New("readme").Parse(readmeSource))

// now is replaced in tests.
var now = time.Now

// Gradient returns the colour at t in [0,1] on a straight RGB blend from
// a to b.
func Gradient(a, b color.NRGBA, t float64) color.NRGBA {
	ca, _ := colorful.MakeColor(a)
	cb, _ := colorful.MakeColor(b)
	r, g, bl := ca.BlendRgb(cb, t).Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: bl, A: 255}
}

// StoreFeatureGraphic draws the 1024×500 header on a left to right
// background gradient. logo may be nil.
func StoreFeatureGraphic(cfg config.Config, logo image.Image) *image.NRGBA {
	const width, height = 1024, 500
	p := cfg.Palette
	c := canvas.New(width, height, p.Background)
	for x := 0; x < width; x++ {
		col := Gradient(p.Background, p.Surface, float64(x)/width)
		c.Rect(canvas.Box{X0: float64(x), Y0: 0, X1: float64(x + 1), Y1: height}, col, nil, 0)
	}

	const logoSize = 200
	pasteLogo(c, logo, logoSize, 80, (height-logoSize)/2)

	const textX = 320
	c.Text(textX, 140, cfg.AppName+" AI", p.Primary, boldFace(cfg, 72))
	c.Text(textX, 230, tagline, white, regularFace(cfg, 36))
	c.Text(textX, 290, features, color.NRGBA{R: 180, G: 180, B: 180, A: 255}, regularFace(cfg, 24))
	c.Rect(canvas.Box{X0: textX, Y0: 360, X1: width - 80, Y1: 364}, p.Primary, nil, 0)
	return c.Image()
}

// StoreKitFeature centres a 400px copy of logo on the gist background.
func StoreKitFeature(p domain.Palette, logo image.Image) *image.NRGBA {
	c := canvas.New(1024, 500, p.GistFill)
	c.Paste(raster.Resize(logo, storeLogoSize, storeLogoSize), storeLogoLeftX, storeLogoTopY)
	return c.Image()
}

// QRCode encodes url with medium error correction, 8 pixels per module.
func QRCode(url string) (image.Image, error) {
	code, err := qr.Encode(url, qr.M)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	code.Scale = qrModuleScale
	return code.Image(), nil
}

type readmeData struct {
	AppName       string
	ApplicationID string
	Icon          string
	Feature       string
	QR            string
	StoreURL      string
	Background    string
	Densities     []densityRow
	Generated     string
}

type densityRow struct {
	Name string
	Size int
}

// Readme renders the upload instructions for the play store kit.
func Readme(cfg config.Config, withQR bool) (string, error) {
	data := readmeData{
		AppName:       cfg.AppName,
		ApplicationID: cfg.ApplicationID,
		Icon:          storeIconFile,
		Feature:       storeFeature,
		StoreURL:      cfg.StoreURL,
		Background:    strings.ToUpper(config.Hex(cfg.Palette.GistFill)),
		Generated:     now().Format("2006-01-02"),
	}
	if withQR {
		data.QR = storeQRFile
	}
	for _, d := range icons.Densities {
		data.Densities = append(data.Densities, densityRow{Name: strings.ToUpper(d.Name), Size: d.Size})
	}
	var buf bytes.Buffer
	if err := readmeTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render readme: %w", err)
	}
	return buf.String(), nil
}

// PlayStoreKit writes the Play Console upload folder: the hi-res icon,
// the centred feature graphic, a QR code for the listing when a store
// URL is configured, and README.md. Unlike the other graphics it needs
// the source logo.
func PlayStoreKit(cfg config.Config, logger *zap.Logger) ([]domain.FileResult, error) {
	logo, err := raster.Open(cfg.Path(config.SourceLogo))
	if err != nil {
		return nil, fmt.Errorf("load logo: %w", err)
	}
	logger.Debug("store kit logo", zap.Int("width", logo.Bounds().Dx()), zap.Int("height", logo.Bounds().Dy()),
		zap.String("mode", raster.Mode(logo)))

	results := []domain.FileResult{
		save(cfg, path.Join(PlayStoreDir, storeIconFile), raster.Resize(logo, 512, 512)),
		save(cfg, path.Join(PlayStoreDir, storeFeature), StoreKitFeature(cfg.Palette, logo)),
	}

	withQR := false
	if cfg.StoreURL != "" {
		code, err := QRCode(cfg.StoreURL)
		if err != nil {
			logger.Warn("skipping store qr", zap.Error(err))
		} else {
			res := save(cfg, path.Join(PlayStoreDir, storeQRFile), code)
			results = append(results, res)
			withQR = res.Err == nil
		}
	}

	results = append(results, writeReadme(cfg, withQR))
	return results, joinResults(results)
}

func writeReadme(cfg config.Config, withQR bool) domain.FileResult {
	rel := path.Join(PlayStoreDir, storeReadme)
	res := domain.FileResult{Target: domain.Target{Path: rel}}
	text, err := Readme(cfg, withQR)
	if err == nil {
		dst := cfg.Path(rel)
		if err = os.MkdirAll(cfg.Path(PlayStoreDir), 0o755); err == nil {
			err = os.WriteFile(dst, []byte(text), 0o644)
		}
	}
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", rel, err)
		res.Error = res.Err.Error()
		return res
	}
	res.Bytes = int64(len(text))
	return res
}
