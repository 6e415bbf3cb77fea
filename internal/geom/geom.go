// Package geom holds the canvas-space arithmetic shared by the tool
// controller and the renderer.
package geom

import "math"

// Point is a location in canvas pixel space.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 { return math.Hypot(p.X-q.X, p.Y-q.Y) }

// Rect is an axis-aligned rectangle with its origin at the top-left.
// A normalized Rect always has non-negative W and H.
type Rect struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	W float64 `json:"w" yaml:"w"`
	H float64 `json:"h" yaml:"h"`
}

// RectFromPoints returns the normalized bounding box of a and b, so a drag
// in any direction yields the same rectangle.
func RectFromPoints(a, b Point) Rect {
	return Rect{
		X: math.Min(a.X, b.X),
		Y: math.Min(a.Y, b.Y),
		W: math.Abs(b.X - a.X),
		H: math.Abs(b.Y - a.Y),
	}
}

// Empty reports whether r has no area.
func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// Max returns the bottom-right corner.
func (r Rect) Max() Point { return Point{r.X + r.W, r.Y + r.H} }

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// Inset grows r by d on every side. Negative d shrinks it.
func (r Rect) Inset(d float64) Rect {
	return Rect{X: r.X - d, Y: r.Y - d, W: r.W + 2*d, H: r.H + 2*d}
}

// Intersect clips r to the rectangle (0,0)-(w,h).
func (r Rect) Intersect(w, h float64) Rect {
	x0 := math.Max(r.X, 0)
	y0 := math.Max(r.Y, 0)
	x1 := math.Min(r.X+r.W, w)
	y1 := math.Min(r.Y+r.H, h)
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Viewport maps device coordinates of a displayed canvas into canvas
// pixel space. The display may be scaled relative to the backing buffer.
type Viewport struct {
	// Origin is the device position of the canvas top-left corner.
	Origin Point
	// Displayed is the on-screen size of the canvas.
	DisplayedW, DisplayedH float64
	// Backing is the pixel size of the canvas buffer.
	BackingW, BackingH float64
}

// ToCanvas converts a device point into canvas pixel space.
func (v Viewport) ToCanvas(p Point) Point {
	sx, sy := 1.0, 1.0
	if v.DisplayedW > 0 {
		sx = v.BackingW / v.DisplayedW
	}
	if v.DisplayedH > 0 {
		sy = v.BackingH / v.DisplayedH
	}
	return Point{(p.X - v.Origin.X) * sx, (p.Y - v.Origin.Y) * sy}
}

// FitViewport returns a viewport that shows a backing buffer of bw×bh
// scaled uniformly to fit inside the area, anchored at its top-left.
func FitViewport(area Rect, bw, bh float64) Viewport {
	v := Viewport{Origin: Point{area.X, area.Y}, BackingW: bw, BackingH: bh, DisplayedW: bw, DisplayedH: bh}
	if bw <= 0 || bh <= 0 || area.Empty() {
		return v
	}
	z := math.Min(area.W/bw, area.H/bh)
	v.DisplayedW = bw * z
	v.DisplayedH = bh * z
	return v
}

// RotatedExtent returns the size of the bounding box of a w×h rectangle
// rotated by deg degrees. Quarter turns are exact.
func RotatedExtent(w, h int, deg float64) (int, int) {
	switch NormalizeDegrees(deg) {
	case 0, 180:
		return w, h
	case 90, 270:
		return h, w
	}
	rad := deg * math.Pi / 180
	c := math.Abs(math.Cos(rad))
	s := math.Abs(math.Sin(rad))
	fw := float64(w)*c + float64(h)*s
	fh := float64(h)*c + float64(w)*s
	return int(math.Round(fw)), int(math.Round(fh))
}

// NormalizeDegrees maps deg into [0,360).
func NormalizeDegrees(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	if d >= 360 {
		d = 0
	}
	return d
}
