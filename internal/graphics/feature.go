package graphics

import (
	"image"
	"image/color"

	"brandkit/internal/canvas"
	"brandkit/internal/config"
	"brandkit/internal/domain"
)

// FeatureGraphic draws the 1024×500 listing header. logo may be nil.
func FeatureGraphic(cfg config.Config, logo image.Image) *image.NRGBA {
	const width, height = 1024, 500
	p := cfg.Palette
	c := canvas.New(width, height, p.Background)

	c.Ellipse(canvas.Box{X0: 50, Y0: 50, X1: 200, Y1: 200}, nil, p.Primary, 2)
	c.Ellipse(canvas.Box{X0: 850, Y0: 350, X1: 980, Y1: 480}, nil, p.Accent, 2)
	c.Ellipse(canvas.Box{X0: 700, Y0: 80, X1: 800, Y1: 180}, nil, p.Primary, 1)

	chart := []canvas.Point{
		canvas.Pt(100, 350), canvas.Pt(150, 300), canvas.Pt(200, 320), canvas.Pt(250, 250),
		canvas.Pt(300, 270), canvas.Pt(350, 200), canvas.Pt(400, 230), canvas.Pt(450, 150),
	}
	c.Line(chart, p.Primary, 3)
	for i := 0; i < len(chart); i += 2 {
		c.Dot(chart[i], 4, p.Primary)
	}

	grid := domain.WithAlpha(white, 10)
	for x := 0.0; x < width; x += 100 {
		c.Line([]canvas.Point{canvas.Pt(x, 0), canvas.Pt(x, height)}, grid, 1)
	}
	for y := 0.0; y < height; y += 100 {
		c.Line([]canvas.Point{canvas.Pt(0, y), canvas.Pt(width, y)}, grid, 1)
	}

	pasteLogo(c, logo, 120, 80, 190)

	const textX = 250
	c.Text(textX, 180, cfg.AppName+" AI", p.Primary, boldFace(cfg, 64))
	c.Text(textX, 260, tagline, p.Muted, regularFace(cfg, 24))
	c.Text(textX, 320, features, p.Text, boldFace(cfg, 14))

	c.Rect(canvas.Box{X0: 0, Y0: 490, X1: width, Y1: height}, p.Primary, nil, 0)
	return c.Image()
}

// OGImage draws the 1200×630 social preview image. logo may be nil.
func OGImage(cfg config.Config, logo image.Image) *image.NRGBA {
	const width, height = 1200, 630
	p := cfg.Palette
	c := canvas.New(width, height, p.Background)

	diag := domain.WithAlpha(white, 5)
	for x := -float64(height); x < width; x += 50 {
		c.Line([]canvas.Point{canvas.Pt(x, 0), canvas.Pt(x+height, height)}, diag, 1)
	}

	c.Ellipse(canvas.Box{X0: 100, Y0: 100, X1: 250, Y1: 250}, nil, p.Primary, 3)
	c.Ellipse(canvas.Box{X0: 950, Y0: 400, X1: 1100, Y1: 550}, nil, p.Accent, 2)
	c.Ellipse(canvas.Box{X0: 800, Y0: 80, X1: 880, Y1: 160}, nil, p.Primary, 1)

	drawNeuralIcon(c, 150, 300, p)
	drawChartPanel(c, 850, 200, p)

	pasteLogo(c, logo, 150, 100, 100)

	title := boldFace(cfg, 72)
	subtitle := regularFace(cfg, 28)
	c.Text(350, 260, cfg.AppName, p.Text, title)
	c.Text(350, 360, ogLine, p.Muted, subtitle)

	stats := boldFace(cfg, 16)
	pills := []struct {
		label string
		col   color.NRGBA
	}{
		{"Smart Money", p.Primary},
		{"ICT Analysis", p.Accent},
		{"Real-time", p.Primary},
	}
	const pillY, pillW, pillH = 430, 120, 32
	for i, pill := range pills {
		x := float64(350 + i*150)
		c.RoundedRect(canvas.Box{X0: x, Y0: pillY, X1: x + pillW, Y1: pillY + pillH}, 16, nil, pill.col, 2)
		c.Text(x+10, pillY+8, pill.label, pill.col, stats)
	}

	c.Text(350, 500, "80%", p.Text, title)
	c.Text(470, 520, "Accuracy Rate", p.Muted, subtitle)

	c.Rect(canvas.Box{X0: 0, Y0: 620, X1: width, Y1: height}, p.Primary, nil, 0)

	c.Polygon([]canvas.Point{canvas.Pt(0, 0), canvas.Pt(150, 0), canvas.Pt(0, 150)}, domain.WithAlpha(p.Primary, 25), nil, 0)
	c.Polygon([]canvas.Point{canvas.Pt(width, height), canvas.Pt(width, height-150), canvas.Pt(width-150, height)}, domain.WithAlpha(p.Accent, 25), nil, 0)
	return c.Image()
}

// drawNeuralIcon draws a ringed five node network with its top-left
// corner at (x, y).
func drawNeuralIcon(c *canvas.Canvas, x, y float64, p domain.Palette) {
	c.Ellipse(canvas.Box{X0: x, Y0: y, X1: x + 100, Y1: y + 100}, nil, p.Primary, 3)
	nodes := []canvas.Point{
		canvas.Pt(x+20, y+30), canvas.Pt(x+50, y+30), canvas.Pt(x+80, y+30),
		canvas.Pt(x+35, y+70), canvas.Pt(x+65, y+70),
	}
	for _, n := range nodes {
		c.Dot(n, 5, p.Primary)
	}
	for i := 0; i+2 < len(nodes); i++ {
		c.Line([]canvas.Point{nodes[i], nodes[i+2]}, p.Primary, 2)
	}
}

func drawChartPanel(c *canvas.Canvas, x, y float64, p domain.Palette) {
	const w, h = 280, 180
	c.Rect(canvas.Box{X0: x, Y0: y, X1: x + w, Y1: y + h}, p.ChartPanel, p.Primary, 1)
	offsets := [][2]float64{{20, 140}, {60, 110}, {100, 130}, {140, 70}, {180, 90}, {220, 40}, {260, 60}}
	pts := make([]canvas.Point, 0, len(offsets))
	for _, o := range offsets {
		pts = append(pts, canvas.Pt(x+o[0], y+o[1]))
	}
	c.Line(pts, p.Primary, 3)
	for i := 0; i < len(pts); i += 2 {
		c.Dot(pts[i], 3, p.Primary)
	}
}
