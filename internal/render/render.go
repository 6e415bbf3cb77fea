// Package render turns a source image and an edit state into pixels.
// Rendering is a pure function of its inputs: the same inputs always give
// byte-identical output.
package render

import (
	"image"
	"image/draw"
	"log"
	"math"

	"github.com/gogpu/gg"

	"github.com/example/studio/internal/editstate"
	"github.com/example/studio/internal/geom"
	"github.com/example/studio/internal/palette"
	"github.com/example/studio/internal/theme"
)

// Overlays is the transient editing state drawn over the composite. None
// of it is part of an export.
type Overlays struct {
	// MaskPaths are drawn only when ShowMask is set.
	MaskPaths []editstate.Path
	ShowMask  bool
	// SubjectMask is blended over the whole canvas at half opacity.
	SubjectMask image.Image
	// Crop, when non-nil, dims everything outside the rectangle.
	Crop *geom.Rect
	// Selection, when non-nil, is outlined with a dashed box.
	Selection *geom.Rect
}

// Renderer draws edit states using a theme for the overlay colors.
type Renderer struct {
	theme *theme.Theme
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithTheme sets the overlay colors.
func WithTheme(t *theme.Theme) Option {
	return func(r *Renderer) {
		if t != nil {
			r.theme = t
		}
	}
}

// New returns a Renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{theme: theme.Default()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Theme returns the overlay theme in use.
func (r *Renderer) Theme() *theme.Theme { return r.theme }

// Composite renders st without any editing overlays. This is the image
// that is exported, cropped or sent to the generation service.
func (r *Renderer) Composite(src image.Image, st editstate.State) *image.RGBA {
	return r.Render(src, st, Overlays{})
}

// Render draws, in order: the filtered and transformed source, draw paths,
// mask paths, shapes, texts, the subject mask, the crop dim and the
// selection box.
func (r *Renderer) Render(src image.Image, st editstate.State, ov Overlays) *image.RGBA {
	if src == nil {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}
	base := ApplyAdjustments(src, st.Adjustments)
	out := ApplyTransforms(base, st.Transforms)
	if !hasVectorContent(st, ov) {
		return out
	}

	w, h := out.Bounds().Dx(), out.Bounds().Dy()
	dc := gg.NewContext(w, h)
	defer dc.Close()

	for _, p := range st.Paths {
		strokePath(dc, p)
	}
	if ov.ShowMask {
		for _, p := range ov.MaskPaths {
			strokePath(dc, p)
		}
	}
	for _, sh := range st.Shapes {
		strokeShape(dc, sh)
	}
	for _, t := range st.Texts {
		drawText(dc, t)
	}
	if ov.SubjectMask != nil {
		dc.DrawImageEx(gg.ImageBufFromImage(ov.SubjectMask), gg.DrawImageOptions{
			DstWidth:  float64(w),
			DstHeight: float64(h),
			Opacity:   0.5,
		})
	}
	if ov.Crop != nil && !ov.Crop.Empty() {
		r.drawCrop(dc, *ov.Crop, float64(w), float64(h))
	}
	if ov.Selection != nil {
		r.drawSelection(dc, *ov.Selection)
	}

	layer := dc.Image()
	draw.Draw(out, out.Bounds(), layer, layer.Bounds().Min, draw.Over)
	return out
}

func hasVectorContent(st editstate.State, ov Overlays) bool {
	return len(st.Paths) > 0 || len(st.Shapes) > 0 || len(st.Texts) > 0 ||
		(ov.ShowMask && len(ov.MaskPaths) > 0) || ov.SubjectMask != nil ||
		ov.Crop != nil || ov.Selection != nil
}

func setColor(dc *gg.Context, c palette.Color) {
	dc.SetRGBA(float64(c.R)/255, float64(c.G)/255, float64(c.B)/255, float64(c.A)/255)
}

func strokeWidth(w float64) float64 {
	if w <= 0 || math.IsNaN(w) {
		return 1
	}
	return w
}

func strokePath(dc *gg.Context, p editstate.Path) {
	if len(p.Points) == 0 {
		return
	}
	setColor(dc, p.Color)
	width := strokeWidth(p.Width)
	if len(p.Points) == 1 {
		// A lone point is a dot the size of the brush.
		dc.DrawCircle(p.Points[0].X, p.Points[0].Y, width/2)
		if err := dc.Fill(); err != nil {
			log.Printf("render: dot: %v", err)
		}
		return
	}
	dc.SetLineWidth(width)
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)
	dc.MoveTo(p.Points[0].X, p.Points[0].Y)
	for _, pt := range p.Points[1:] {
		dc.LineTo(pt.X, pt.Y)
	}
	if err := dc.Stroke(); err != nil {
		log.Printf("render: path: %v", err)
	}
}

func strokeShape(dc *gg.Context, sh editstate.Shape) {
	setColor(dc, sh.Color)
	dc.SetLineWidth(strokeWidth(sh.Width))
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)
	switch sh.Kind {
	case editstate.ShapeRect:
		b := sh.Bounds()
		dc.DrawRectangle(b.X, b.Y, b.W, b.H)
	case editstate.ShapeCircle:
		dc.DrawCircle(sh.P1.X, sh.P1.Y, sh.Radius())
	case editstate.ShapeLine:
		dc.DrawLine(sh.P1.X, sh.P1.Y, sh.P2.X, sh.P2.Y)
	default:
		return
	}
	if err := dc.Stroke(); err != nil {
		log.Printf("render: shape %s: %v", sh.Kind, err)
	}
}

// outlineSteps is the number of offsets used to build a text outline ring.
const outlineSteps = 16

func drawText(dc *gg.Context, t editstate.Text) {
	if t.Text == "" {
		return
	}
	face, err := faceForSize(t.Size)
	if err != nil {
		log.Printf("render: text: %v", err)
		return
	}
	dc.SetFont(face)
	x := t.Anchor.X
	y := t.Anchor.Y + face.Metrics().Ascent
	if o := t.Outline; o != nil && o.Width > 0 {
		setColor(dc, o.Color)
		for i := 0; i < outlineSteps; i++ {
			a := 2 * math.Pi * float64(i) / outlineSteps
			dc.DrawString(t.Text, x+o.Width*math.Cos(a), y+o.Width*math.Sin(a))
		}
	}
	setColor(dc, t.Color)
	dc.DrawString(t.Text, x, y)
}

func (r *Renderer) drawCrop(dc *gg.Context, c geom.Rect, w, h float64) {
	setColor(dc, r.theme.CropDim)
	dim := []geom.Rect{
		{X: 0, Y: 0, W: w, H: c.Y},
		{X: 0, Y: c.Y + c.H, W: w, H: h - c.Y - c.H},
		{X: 0, Y: c.Y, W: c.X, H: c.H},
		{X: c.X + c.W, Y: c.Y, W: w - c.X - c.W, H: c.H},
	}
	for _, d := range dim {
		if d.Empty() {
			continue
		}
		dc.DrawRectangle(d.X, d.Y, d.W, d.H)
		if err := dc.Fill(); err != nil {
			log.Printf("render: crop dim: %v", err)
		}
	}
	setColor(dc, r.theme.CropBorder)
	dc.SetLineWidth(2)
	dc.DrawRectangle(c.X, c.Y, c.W, c.H)
	if err := dc.Stroke(); err != nil {
		log.Printf("render: crop border: %v", err)
	}
}

// selectionPad keeps the dashed box clear of the element it surrounds.
const selectionPad = 4

func (r *Renderer) drawSelection(dc *gg.Context, b geom.Rect) {
	b = b.Inset(selectionPad)
	dc.SetLineWidth(2)
	dc.SetLineCap(gg.LineCapButt)
	for i, col := range []palette.Color{r.theme.SelectionLight, r.theme.SelectionDark} {
		setColor(dc, col)
		dc.SetDash(6, 6)
		dc.SetDashOffset(float64(i * 6))
		dc.DrawRectangle(b.X, b.Y, b.W, b.H)
		if err := dc.Stroke(); err != nil {
			log.Printf("render: selection: %v", err)
		}
	}
	dc.ClearDash()
}
