package logo

import (
	"image"
	"image/color"
	"math"

	"brandkit/internal/canvas"
	"brandkit/internal/domain"
)

func drawProfessional(p domain.Palette) *image.NRGBA {
	c := canvas.New(Size, Size, nil)
	const center = Size / 2

	outer := canvas.RegularPolygon(6, center, center, 180, -math.Pi/6)
	c.Polygon(outer, nil, p.Primary, 8)
	inner := canvas.RegularPolygon(6, center, center, 140, -math.Pi/6)
	c.Polygon(inner, nil, p.Accent, 4)

	drawZ(c, center, 196, 96, 120, 16, p.Primary)

	for i := 0; i < len(outer); i += 2 {
		c.Dot(outer[i], 6, p.Accent)
	}

	const barWidth, spacing, baseY = 10, 24, 356
	for i, h := range []float64{25, 40, 30} {
		x := float64(center - spacing + i*spacing)
		c.Rect(canvas.Box{X0: x - barWidth/2, Y0: baseY - h, X1: x + barWidth/2, Y1: baseY}, p.Accent, nil, 0)
	}
	return c.Image()
}

func drawChart(p domain.Palette) *image.NRGBA {
	c := canvas.New(Size, Size, nil)
	const center = Size / 2

	c.Ellipse(canvas.Square(center, center, 190), nil, p.Primary, 6)

	points := trendPoints()
	c.RoundLine(points, p.Primary, 10)
	for i, pt := range points {
		col := p.Primary
		if i < 3 {
			col = p.Accent
		}
		c.Dot(pt, 8, col)
	}

	const barWidth, baseY = 14, 376
	positions := []float64{156, 206, 256, 306, 356}
	heights := []float64{30, 50, 45, 70, 80}
	for i, x := range positions {
		col := p.Primary
		if i < 2 {
			col = p.Accent
		}
		c.Rect(canvas.Box{X0: x - barWidth/2, Y0: baseY - heights[i], X1: x + barWidth/2, Y1: baseY}, col, nil, 0)
	}

	drawZ(c, center, 116, 70, 80, 12, p.Primary)

	for _, pt := range []canvas.Point{canvas.Pt(96, 136), canvas.Pt(416, 136), canvas.Pt(96, 376), canvas.Pt(416, 376)} {
		c.Dot(pt, 3, p.Accent)
	}
	return c.Image()
}

// trendPoints is a seven point upward trend with small dips so the line
// reads as market data rather than a straight ramp.
func trendPoints() []canvas.Point {
	const n = 7
	const startX, endX, startY, endY = 116.0, 396.0, 336.0, 176.0
	wobble := map[int]float64{1: 15, 3: 10, 5: -10}
	pts := make([]canvas.Point, 0, n)
	for i := 0; i < n; i++ {
		x := startX + float64(i)*(endX-startX)/(n-1)
		y := startY - float64(i)*(startY-endY)/(n-1) + wobble[i]
		pts = append(pts, canvas.Pt(math.Trunc(x), math.Trunc(y)))
	}
	return pts
}

// drawZ draws a block "Z" of the given outer size whose top edge sits at topY.
func drawZ(c *canvas.Canvas, cx, topY, width, height, thickness float64, col color.NRGBA) {
	left, right := cx-width/2, cx+width/2
	bottom := topY + height
	half := thickness / 2

	c.Rect(canvas.Box{X0: left, Y0: topY, X1: right, Y1: topY + thickness}, col, nil, 0)
	c.Polygon([]canvas.Point{
		canvas.Pt(right-half, topY),
		canvas.Pt(right+half, topY),
		canvas.Pt(left+half, bottom),
		canvas.Pt(left-half, bottom),
	}, col, nil, 0)
	c.Rect(canvas.Box{X0: left, Y0: bottom - thickness, X1: right, Y1: bottom}, col, nil, 0)
}
