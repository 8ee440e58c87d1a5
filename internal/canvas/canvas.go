// Package canvas draws vector primitives at literal pixel coordinates.
// A Box is given by its top-left corner (X0,Y0) and its bottom-right corner
// (X1,Y1).
package canvas

import (
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"brandkit/internal/raster"
)

type Point struct {
	X float64
	Y float64
}

func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

type Box struct {
	X0, Y0, X1, Y1 float64
}

func (b Box) W() float64 { return b.X1 - b.X0 }
func (b Box) H() float64 { return b.Y1 - b.Y0 }

// Square returns the box of side 2r centred on (cx, cy).
func Square(cx, cy, r float64) Box {
	return Box{X0: cx - r, Y0: cy - r, X1: cx + r, Y1: cy + r}
}

type Canvas struct {
	dc *gg.Context
}

// New returns a w×h canvas filled with bg. A nil bg leaves it transparent.
func New(w, h int, bg color.Color) *Canvas {
	dc := gg.NewContext(w, h)
	if bg != nil {
		dc.SetColor(bg)
		dc.Clear()
	}
	return &Canvas{dc: dc}
}

func (c *Canvas) Width() int  { return c.dc.Width() }
func (c *Canvas) Height() int { return c.dc.Height() }

// Image returns a straight-alpha copy of the current pixels.
func (c *Canvas) Image() *image.NRGBA {
	return raster.ToNRGBA(c.dc.Image())
}

func (c *Canvas) stroke(col color.Color, width float64) {
	c.dc.SetColor(col)
	c.dc.SetLineWidth(math.Max(width, 1))
	c.dc.Stroke()
}

func (c *Canvas) fillStroke(fill, outline color.Color, width float64) {
	if fill != nil {
		c.dc.SetColor(fill)
		if outline != nil {
			c.dc.FillPreserve()
		} else {
			c.dc.Fill()
		}
	}
	if outline != nil {
		c.stroke(outline, width)
	}
	c.dc.ClearPath()
}

// Ellipse draws the ellipse inscribed in b.
func (c *Canvas) Ellipse(b Box, fill, outline color.Color, width float64) {
	c.dc.DrawEllipse((b.X0+b.X1)/2, (b.Y0+b.Y1)/2, b.W()/2, b.H()/2)
	c.fillStroke(fill, outline, width)
}

// Dot fills a circle of radius r centred on p.
func (c *Canvas) Dot(p Point, r float64, fill color.Color) {
	c.Ellipse(Square(p.X, p.Y, r), fill, nil, 0)
}

// Line strokes a polyline through points.
func (c *Canvas) Line(points []Point, col color.Color, width float64) {
	if len(points) < 2 {
		return
	}
	c.dc.SetLineCap(gg.LineCapButt)
	c.dc.SetLineJoin(gg.LineJoinRound)
	c.dc.MoveTo(points[0].X, points[0].Y)
	for _, p := range points[1:] {
		c.dc.LineTo(p.X, p.Y)
	}
	c.stroke(col, width)
}

// RoundLine strokes a polyline with round caps and joins.
func (c *Canvas) RoundLine(points []Point, col color.Color, width float64) {
	if len(points) < 2 {
		return
	}
	c.dc.SetLineCap(gg.LineCapRound)
	c.dc.SetLineJoin(gg.LineJoinRound)
	c.dc.MoveTo(points[0].X, points[0].Y)
	for _, p := range points[1:] {
		c.dc.LineTo(p.X, p.Y)
	}
	c.stroke(col, width)
	c.dc.SetLineCap(gg.LineCapButt)
}

func (c *Canvas) Polygon(points []Point, fill, outline color.Color, width float64) {
	if len(points) < 3 {
		return
	}
	c.dc.NewSubPath()
	c.dc.MoveTo(points[0].X, points[0].Y)
	for _, p := range points[1:] {
		c.dc.LineTo(p.X, p.Y)
	}
	c.dc.ClosePath()
	c.fillStroke(fill, outline, width)
}

// RegularPolygon returns the vertices of an n-gon of circumradius r.
// rotation is the angle of the first vertex in radians.
func RegularPolygon(n int, cx, cy, r, rotation float64) []Point {
	pts := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		a := rotation + 2*math.Pi*float64(i)/float64(n)
		pts = append(pts, Point{X: cx + r*math.Cos(a), Y: cy + r*math.Sin(a)})
	}
	return pts
}

func (c *Canvas) Rect(b Box, fill, outline color.Color, width float64) {
	c.dc.DrawRectangle(b.X0, b.Y0, b.W(), b.H())
	c.fillStroke(fill, outline, width)
}

func (c *Canvas) RoundedRect(b Box, radius float64, fill, outline color.Color, width float64) {
	c.dc.DrawRoundedRectangle(b.X0, b.Y0, b.W(), b.H(), radius)
	c.fillStroke(fill, outline, width)
}

// Text draws s with its top-left corner at (x, y).
func (c *Canvas) Text(x, y float64, s string, col color.Color, face font.Face) {
	c.dc.SetFontFace(face)
	c.dc.SetColor(col)
	c.dc.DrawStringAnchored(s, x, y, 0, 1)
}

// MeasureText returns the advance width and line height of s in face.
func MeasureText(s string, face font.Face) (float64, float64) {
	dc := gg.NewContext(1, 1)
	dc.SetFontFace(face)
	return dc.MeasureString(s)
}

// Paste composites img at (x, y) using its alpha channel.
func (c *Canvas) Paste(img image.Image, x, y int) {
	c.dc.DrawImage(img, x, y)
}
