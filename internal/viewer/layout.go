package viewer

import (
	"fmt"
	"image"

	"github.com/example/studio/internal/editstate"
	"github.com/example/studio/internal/geom"
	"github.com/example/studio/internal/palette"
	"github.com/example/studio/internal/studio"
	"github.com/example/studio/internal/tool"
)

const (
	toolbarWidth = 120
	statusHeight = 24
	buttonHeight = 18
	swatchSize   = 14
)

// layout places the canvas in the window. The canvas is scaled to fit the
// area right of the toolbar and above the status bar.
type layout struct {
	width, height int
	view          geom.Viewport
}

func newLayout(width, height int, frame image.Image) layout {
	l := layout{width: width, height: height}
	area := l.canvasArea()
	var fw, fh float64
	if frame != nil {
		fw, fh = float64(frame.Bounds().Dx()), float64(frame.Bounds().Dy())
	}
	l.view = geom.FitViewport(geom.Rect{
		X: float64(area.Min.X), Y: float64(area.Min.Y),
		W: float64(area.Dx()), H: float64(area.Dy()),
	}, fw, fh)
	return l
}

// canvasArea is the region available to the canvas.
func (l layout) canvasArea() image.Rectangle {
	return image.Rect(toolbarWidth, 0, l.width, l.height-statusHeight)
}

// canvasRect is the on-screen rectangle of the displayed canvas.
func (l layout) canvasRect() image.Rectangle {
	x, y := int(l.view.Origin.X), int(l.view.Origin.Y)
	return image.Rect(x, y, x+int(l.view.DisplayedW), y+int(l.view.DisplayedH))
}

// toCanvas maps a window position into canvas pixels.
func (l layout) toCanvas(x, y float32) geom.Point {
	return l.view.ToCanvas(geom.Pt(float64(x), float64(y)))
}

// toScreen maps a canvas position back into the window.
func (l layout) toScreen(p geom.Point) image.Point {
	sx, sy := 1.0, 1.0
	if l.view.BackingW > 0 {
		sx = l.view.DisplayedW / l.view.BackingW
	}
	if l.view.BackingH > 0 {
		sy = l.view.DisplayedH / l.view.BackingH
	}
	return image.Pt(int(l.view.Origin.X+p.X*sx), int(l.view.Origin.Y+p.Y*sy))
}

// hotspot is a clickable toolbar entry.
type hotspot struct {
	rect   image.Rectangle
	label  string
	swatch *palette.Color
	active bool
	do     func(v *Viewer) bool
}

// toolbar lays out the toolbar for the current session status. Drawing and
// hit testing share the result.
func toolbar(info studio.Info, set tool.Settings, focus int) []hotspot {
	var spots []hotspot
	y := 4
	row := func(label string, active bool, do func(v *Viewer) bool) {
		spots = append(spots, hotspot{
			rect:   image.Rect(2, y, toolbarWidth-2, y+buttonHeight),
			label:  label,
			active: active,
			do:     do,
		})
		y += buttonHeight + 1
	}

	for _, t := range tool.All() {
		act := toolAction(t)
		label := t.String()
		if r, ok := toolKeys[act]; ok {
			label = fmt.Sprintf("%c:%s", r, t)
		}
		row(label, t == info.Tool, func(v *Viewer) bool { return v.Perform(act) })
	}

	y += 4
	x := 4
	for _, e := range palette.Colors() {
		col := e.Color
		spots = append(spots, hotspot{
			rect:   image.Rect(x, y, x+swatchSize, y+swatchSize),
			label:  e.Name,
			swatch: &col,
			active: col == set.Color,
			do: func(v *Viewer) bool {
				v.sess.SetColor(col)
				return true
			},
		})
		x += swatchSize + 2
		if x+swatchSize > toolbarWidth {
			x = 4
			y += swatchSize + 2
		}
	}
	if x != 4 {
		y += swatchSize + 2
	}
	y += 4

	switch info.Tool {
	case tool.Adjust:
		for i, r := range editstate.Ranges {
			val, _ := info.Adjustments.Get(r.Name)
			idx := i
			row(fmt.Sprintf("%s %.0f%s", r.Name, val, r.Unit), i == focus, func(v *Viewer) bool {
				v.mu.Lock()
				v.focus = idx
				v.mu.Unlock()
				return true
			})
		}
	case tool.Shape:
		for i, k := range []editstate.ShapeKind{editstate.ShapeRect, editstate.ShapeCircle, editstate.ShapeLine} {
			kind := k
			row(fmt.Sprintf("%d:%s", i+1, k), k == set.ShapeKind, func(v *Viewer) bool {
				v.sess.SetShapeKind(kind)
				return true
			})
		}
		fallthrough
	case tool.Draw:
		for _, w := range palette.Widths() {
			width := w
			row(fmt.Sprintf("width %g", w), w == set.Width, func(v *Viewer) bool {
				v.sess.SetWidth(width)
				return true
			})
		}
	case tool.Text:
		for _, size := range palette.TextSizes() {
			sz := size
			row(fmt.Sprintf("size %g", size), size == set.TextSize, func(v *Viewer) bool {
				v.sess.SetTextSize(sz)
				return true
			})
		}
	case tool.Transform:
		row("[:rotate left", false, func(v *Viewer) bool { return v.Perform(ActRotateLeft) })
		row("]:rotate right", false, func(v *Viewer) bool { return v.Perform(ActRotateRight) })
		row("f:flip horizontal", false, func(v *Viewer) bool { return v.Perform(ActFlipH) })
		row("F:flip vertical", false, func(v *Viewer) bool { return v.Perform(ActFlipV) })
	}
	return spots
}

// hit returns the index of the hotspot under p, or -1.
func hit(spots []hotspot, p image.Point) int {
	for i, s := range spots {
		if p.In(s.rect) {
			return i
		}
	}
	return -1
}
