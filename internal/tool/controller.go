package tool

import (
	"strings"

	"github.com/example/studio/internal/editstate"
	"github.com/example/studio/internal/geom"
	"github.com/example/studio/internal/palette"
	"github.com/example/studio/internal/render"
)

// Settings are the drawing parameters applied to new elements.
type Settings struct {
	Color     palette.Color
	Width     float64
	TextSize  float64
	Outline   *editstate.Outline
	ShapeKind editstate.ShapeKind
	MaskWidth float64
}

// DefaultSettings returns the palette defaults.
func DefaultSettings() Settings {
	return Settings{
		Color:     palette.ColorAt(palette.DefaultColorIndex()),
		Width:     palette.WidthAt(palette.DefaultWidthIndex()),
		TextSize:  palette.DefaultTextSize(),
		ShapeKind: editstate.ShapeRect,
		MaskWidth: 24,
	}
}

type gesture int

const (
	gestureNone gesture = iota
	gestureDraw
	gestureMask
	gestureShape
	gestureDrag
	gestureCrop
)

// Controller is the interaction state machine. It is not safe for
// concurrent use; the owning session serializes calls.
type Controller struct {
	tool      Tool
	settings  Settings
	maskColor palette.Color

	down    bool
	start   geom.Point
	gesture gesture
	openID  string

	// drag state for the select tool
	dragOffset geom.Point
	dragMoved  bool

	selection   editstate.Ref
	crop        *geom.Rect
	pendingText *geom.Point
	mask        []editstate.Path
}

// Option configures a Controller.
type Option func(*Controller)

// WithSettings replaces the default drawing settings.
func WithSettings(s Settings) Option { return func(c *Controller) { c.settings = s } }

// WithMaskColor sets the brush color used for removal-mask strokes.
func WithMaskColor(col palette.Color) Option { return func(c *Controller) { c.maskColor = col } }

// NewController returns a controller with no active tool.
func NewController(opts ...Option) *Controller {
	c := &Controller{
		settings:  DefaultSettings(),
		maskColor: palette.Color{R: 255, A: 128},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Tool returns the active tool.
func (c *Controller) Tool() Tool { return c.tool }

// SetTool activates t and drops the previous tool's ephemeral state. Mask
// strokes are kept until cleared or the session resets.
func (c *Controller) SetTool(t Tool) {
	c.tool = t
	c.crop = nil
	c.pendingText = nil
	c.selection = editstate.Ref{}
	c.endGesture()
}

// Reset clears all ephemeral state, mask strokes included. The active tool
// and settings are kept.
func (c *Controller) Reset() {
	c.SetTool(c.tool)
	c.mask = nil
}

func (c *Controller) endGesture() {
	c.down = false
	c.gesture = gestureNone
	c.openID = ""
	c.dragMoved = false
	c.dragOffset = geom.Point{}
}

// Settings returns the current drawing settings.
func (c *Controller) Settings() Settings {
	s := c.settings
	if s.Outline != nil {
		o := *s.Outline
		s.Outline = &o
	}
	return s
}

// SetColor sets the stroke and text color.
func (c *Controller) SetColor(col palette.Color) { c.settings.Color = col }

// SetWidth sets the stroke width. Non-positive widths are ignored.
func (c *Controller) SetWidth(w float64) {
	if w > 0 {
		c.settings.Width = w
	}
}

// SetTextSize sets the size of new text. Non-positive sizes are ignored.
func (c *Controller) SetTextSize(size float64) {
	if size > 0 {
		c.settings.TextSize = size
	}
}

// SetOutline sets the outline of new text; nil disables it.
func (c *Controller) SetOutline(o *editstate.Outline) {
	if o == nil || o.Width <= 0 {
		c.settings.Outline = nil
		return
	}
	cp := *o
	c.settings.Outline = &cp
}

// SetShapeKind selects the kind of new shapes. Unknown kinds are ignored.
func (c *Controller) SetShapeKind(k editstate.ShapeKind) {
	if k.Valid() {
		c.settings.ShapeKind = k
	}
}

// SetMaskWidth sets the removal brush width. Non-positive widths are ignored.
func (c *Controller) SetMaskWidth(w float64) {
	if w > 0 {
		c.settings.MaskWidth = w
	}
}

// Selection returns the selected element reference, if any.
func (c *Controller) Selection() editstate.Ref { return c.selection }

// CropRect returns the current crop rectangle.
func (c *Controller) CropRect() (geom.Rect, bool) {
	if c.crop == nil {
		return geom.Rect{}, false
	}
	return *c.crop, true
}

// SetCropRect replaces the crop rectangle, normalizing negative sizes.
// It does nothing unless the crop tool is active.
func (c *Controller) SetCropRect(r geom.Rect) {
	if c.tool != Crop {
		return
	}
	n := geom.RectFromPoints(geom.Pt(r.X, r.Y), geom.Pt(r.X+r.W, r.Y+r.H))
	c.crop = &n
}

// PendingText returns the insertion point awaiting ConfirmText.
func (c *Controller) PendingText() (geom.Point, bool) {
	if c.pendingText == nil {
		return geom.Point{}, false
	}
	return *c.pendingText, true
}

// MaskPaths returns a copy of the removal-mask strokes.
func (c *Controller) MaskPaths() []editstate.Path { return editstate.ClonePaths(c.mask) }

// ClearMask removes every mask stroke.
func (c *Controller) ClearMask() Effect {
	if len(c.mask) == 0 {
		return 0
	}
	c.mask = nil
	if c.gesture == gestureMask {
		c.endGesture()
	}
	return Redraw
}

// Dragging reports whether a pointer interval is open.
func (c *Controller) Dragging() bool { return c.down }

// PointerDown starts an interaction at p, in canvas pixels.
func (c *Controller) PointerDown(st editstate.State, p geom.Point) (editstate.State, Effect) {
	var eff Effect
	if !c.selection.IsZero() {
		c.selection = editstate.Ref{}
		eff |= Redraw
	}
	c.endGesture()
	c.down = true
	c.start = p

	switch c.tool {
	case Draw:
		path := editstate.NewPath(p, c.settings.Color, c.settings.Width)
		c.gesture, c.openID = gestureDraw, path.ID
		return st.AppendPath(path), eff | Redraw
	case Remove:
		path := editstate.NewPath(p, c.maskColor, c.settings.MaskWidth)
		c.gesture, c.openID = gestureMask, path.ID
		c.mask = append(c.mask, path)
		return st, eff | Redraw
	case Text:
		pt := p
		c.pendingText = &pt
		return st, eff | Redraw
	case Shape:
		sh := editstate.Shape{
			ID:    editstate.NewID(),
			Kind:  c.settings.ShapeKind,
			P1:    p,
			P2:    p,
			Color: c.settings.Color,
			Width: c.settings.Width,
		}
		c.gesture, c.openID = gestureShape, sh.ID
		return st.AppendShape(sh), eff | Redraw
	case Select:
		ref, ok := st.HitTest(p)
		if !ok {
			return st, eff
		}
		c.selection = ref
		c.gesture = gestureDrag
		c.dragOffset = p.Sub(anchorOf(st, ref))
		return st, eff | Redraw
	case Crop:
		r := geom.Rect{X: p.X, Y: p.Y}
		c.crop = &r
		c.gesture = gestureCrop
		return st, eff | Redraw
	}
	return st, eff
}

// PointerMove continues the open interaction. Moves without a preceding
// PointerDown are ignored.
func (c *Controller) PointerMove(st editstate.State, p geom.Point) (editstate.State, Effect) {
	if !c.down {
		return st, 0
	}
	switch c.gesture {
	case gestureDraw:
		for i := range st.Paths {
			if st.Paths[i].ID == c.openID {
				paths := editstate.ClonePaths(st.Paths)
				paths[i] = paths[i].Extend(p)
				return st.WithPaths(paths), Redraw
			}
		}
		c.endGesture()
	case gestureMask:
		for i := range c.mask {
			if c.mask[i].ID == c.openID {
				c.mask[i] = c.mask[i].Extend(p)
				return st, Redraw
			}
		}
		c.endGesture()
	case gestureShape:
		if sh, ok := st.ShapeByID(c.openID); ok {
			sh.P2 = p
			return st.ReplaceShape(sh), Redraw
		}
		c.endGesture()
	case gestureDrag:
		return c.drag(st, p)
	case gestureCrop:
		r := geom.RectFromPoints(c.start, p)
		c.crop = &r
		return st, Redraw
	}
	return st, 0
}

func (c *Controller) drag(st editstate.State, p geom.Point) (editstate.State, Effect) {
	target := p.Sub(c.dragOffset)
	switch c.selection.Kind {
	case editstate.KindText:
		t, ok := st.TextByID(c.selection.ID)
		if !ok {
			break
		}
		d := target.Sub(t.Anchor)
		if d == (geom.Point{}) {
			return st, 0
		}
		c.dragMoved = true
		return st.ReplaceText(t.Translate(d)), Redraw
	case editstate.KindShape:
		sh, ok := st.ShapeByID(c.selection.ID)
		if !ok {
			break
		}
		d := target.Sub(sh.P1)
		if d == (geom.Point{}) {
			return st, 0
		}
		c.dragMoved = true
		return st.ReplaceShape(sh.Translate(d)), Redraw
	}
	c.selection = editstate.Ref{}
	c.endGesture()
	return st, Redraw
}

// PointerUp closes the interaction. Finished strokes, shapes and drags
// that moved an element are reported for commit.
func (c *Controller) PointerUp(st editstate.State) (editstate.State, Effect) {
	if !c.down {
		return st, 0
	}
	var eff Effect
	switch c.gesture {
	case gestureDraw, gestureShape:
		eff = Commit | Redraw
	case gestureDrag:
		if c.dragMoved {
			eff = Commit | Redraw
		}
	}
	c.endGesture()
	return st, eff
}

// PointerLeave behaves like PointerUp so no gesture outlives the pointer.
func (c *Controller) PointerLeave(st editstate.State) (editstate.State, Effect) {
	return c.PointerUp(st)
}

// ConfirmText places text at the pending insertion point. Blank text or a
// missing insertion point is a no-op.
func (c *Controller) ConfirmText(st editstate.State, s string) (editstate.State, Effect) {
	s = strings.TrimSpace(s)
	if s == "" || c.pendingText == nil {
		return st, 0
	}
	t := editstate.Text{
		ID:     editstate.NewID(),
		Text:   s,
		Anchor: *c.pendingText,
		Color:  c.settings.Color,
		Size:   c.settings.TextSize,
	}
	if o := c.settings.Outline; o != nil {
		cp := *o
		t.Outline = &cp
	}
	c.pendingText = nil
	return st.AppendText(t), Commit | Redraw
}

// CancelText drops the pending insertion point.
func (c *Controller) CancelText() Effect {
	if c.pendingText == nil {
		return 0
	}
	c.pendingText = nil
	return Redraw
}

// DeleteSelected removes the selected element.
func (c *Controller) DeleteSelected(st editstate.State) (editstate.State, Effect) {
	ref := c.selection
	if ref.IsZero() {
		return st, 0
	}
	c.selection = editstate.Ref{}
	if _, ok := st.Resolve(ref); !ok {
		return st, Redraw
	}
	c.endGesture()
	return st.Remove(ref.Kind, ref.ID), Commit | Redraw
}

// Sync drops references that no longer resolve in st, as after an undo.
func (c *Controller) Sync(st editstate.State) {
	if !c.selection.IsZero() {
		if _, ok := st.Resolve(c.selection); !ok {
			c.selection = editstate.Ref{}
			if c.gesture == gestureDrag {
				c.endGesture()
			}
		}
	}
	switch c.gesture {
	case gestureDraw:
		found := false
		for _, p := range st.Paths {
			if p.ID == c.openID {
				found = true
				break
			}
		}
		if !found {
			c.endGesture()
		}
	case gestureShape:
		if _, ok := st.ShapeByID(c.openID); !ok {
			c.endGesture()
		}
	}
}

// Overlays returns what the renderer should draw over st for the active
// tool.
func (c *Controller) Overlays(st editstate.State) render.Overlays {
	ov := render.Overlays{
		MaskPaths: c.mask,
		ShowMask:  c.tool == Remove,
	}
	if c.tool == Crop && c.crop != nil {
		r := *c.crop
		ov.Crop = &r
	}
	if !c.selection.IsZero() {
		if b, ok := st.Resolve(c.selection); ok {
			ov.Selection = &b
		}
	}
	return ov
}

func anchorOf(st editstate.State, ref editstate.Ref) geom.Point {
	switch ref.Kind {
	case editstate.KindText:
		if t, ok := st.TextByID(ref.ID); ok {
			return t.Anchor
		}
	case editstate.KindShape:
		if sh, ok := st.ShapeByID(ref.ID); ok {
			return sh.P1
		}
	}
	return geom.Point{}
}
