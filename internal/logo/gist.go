package logo

import (
	"bytes"
	_ "embed"
	"fmt"
	"image"
	"image/color"
	"text/template"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"brandkit/internal/config"
	"brandkit/internal/domain"
	"brandkit/internal/raster"
)

//go:embed gist.svg.tmpl
var gistSource string

var gistTemplate = template.Must(template.New("gist").Parse(gistSource))

type gistPoint struct {
	X, Y int
	Fill string
}

// gistParams fills gist.svg.tmpl. Colours are SVG paint values.
type gistParams struct {
	Background  *color.NRGBA
	Frame       bool
	FrameFill   string
	FrameStroke string
	FrameWidth  int
	Line        string
	Arrow       string
	Cap         string
	Points      []gistPoint
}

func exactGist(p domain.Palette) gistParams {
	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	stroke := config.Hex(p.GistStroke)
	return gistParams{
		Background:  &white,
		Frame:       true,
		FrameFill:   config.Hex(p.GistFill),
		FrameStroke: "none",
		Line:        stroke,
		Arrow:       stroke,
		Cap:         "round",
	}
}

func transparentGist(p domain.Palette) gistParams {
	g := exactGist(p)
	g.Background = nil
	g.Frame = false
	return g
}

func brandGist(p domain.Palette) gistParams {
	primary, accent := config.Hex(p.Primary), config.Hex(p.Accent)
	return gistParams{
		Frame:       true,
		FrameFill:   "none",
		FrameStroke: primary,
		FrameWidth:  8,
		Line:        primary,
		Arrow:       accent,
		Cap:         "round",
		Points: []gistPoint{
			{X: 185, Y: 320, Fill: accent},
			{X: 235, Y: 270, Fill: accent},
			{X: 285, Y: 320, Fill: primary},
			{X: 350, Y: 255, Fill: primary},
		},
	}
}

func gistSVG(g gistParams) ([]byte, error) {
	var buf bytes.Buffer
	if err := gistTemplate.Execute(&buf, g); err != nil {
		return nil, fmt.Errorf("render gist svg: %w", err)
	}
	return buf.Bytes(), nil
}

// renderGist rasterises the gist mark at size×size, scaling the 500 unit
// viewBox to fill the image.
func renderGist(g gistParams, size int) (*image.NRGBA, error) {
	svg, err := gistSVG(g)
	if err != nil {
		return nil, err
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svg))
	if err != nil {
		return nil, fmt.Errorf("parse gist svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	if g.Background != nil {
		bg := *g.Background
		for i := 0; i < len(dst.Pix); i += 4 {
			dst.Pix[i], dst.Pix[i+1], dst.Pix[i+2], dst.Pix[i+3] = bg.R, bg.G, bg.B, 255
		}
	}
	scanner := rasterx.NewScannerGV(size, size, dst, dst.Bounds())
	icon.Draw(rasterx.NewDasher(size, size, scanner), 1)
	return raster.ToNRGBA(dst), nil
}
