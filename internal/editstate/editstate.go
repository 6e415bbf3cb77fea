// Package editstate models the non-destructive edits layered over a source
// image. Values are treated as immutable: every update returns a copy.
package editstate

import (
	"github.com/google/uuid"

	"github.com/example/studio/internal/geom"
	"github.com/example/studio/internal/palette"
)

// State is the aggregate snapshot stored in history and fed to the renderer.
// It holds no interaction state such as selection or crop rectangles.
type State struct {
	Adjustments Adjustments `json:"adjustments" yaml:"adjustments"`
	Transforms  Transforms  `json:"transforms" yaml:"transforms"`
	Paths       []Path      `json:"paths,omitempty" yaml:"paths,omitempty"`
	Texts       []Text      `json:"texts,omitempty" yaml:"texts,omitempty"`
	Shapes      []Shape     `json:"shapes,omitempty" yaml:"shapes,omitempty"`
}

// Initial returns the neutral state with empty collections.
func Initial() State {
	return State{Adjustments: DefaultAdjustments()}
}

// NewID returns a fresh element id.
func NewID() string { return uuid.NewString() }

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := State{Adjustments: s.Adjustments, Transforms: s.Transforms}
	if s.Paths != nil {
		out.Paths = make([]Path, len(s.Paths))
		for i, p := range s.Paths {
			out.Paths[i] = p.Clone()
		}
	}
	if s.Texts != nil {
		out.Texts = make([]Text, len(s.Texts))
		for i, t := range s.Texts {
			out.Texts[i] = t.Clone()
		}
	}
	if s.Shapes != nil {
		out.Shapes = append([]Shape(nil), s.Shapes...)
	}
	return out
}

// WithAdjustments returns a copy of s using a, clamped into range.
func (s State) WithAdjustments(a Adjustments) State {
	out := s.Clone()
	out.Adjustments = a.Clamped()
	return out
}

// WithTransforms returns a copy of s using t with its angle normalized.
func (s State) WithTransforms(t Transforms) State {
	out := s.Clone()
	out.Transforms = t.Normalized()
	return out
}

// WithPaths returns a copy of s with its draw paths replaced.
func (s State) WithPaths(paths []Path) State {
	out := s.Clone()
	out.Paths = clonePaths(paths)
	return out
}

// WithTexts returns a copy of s with its text elements replaced.
func (s State) WithTexts(texts []Text) State {
	out := s.Clone()
	out.Texts = make([]Text, len(texts))
	for i, t := range texts {
		out.Texts[i] = t.Clone()
	}
	return out
}

// WithShapes returns a copy of s with its shapes replaced.
func (s State) WithShapes(shapes []Shape) State {
	out := s.Clone()
	out.Shapes = append([]Shape(nil), shapes...)
	return out
}

// AppendPath returns a copy of s with p appended to the draw paths.
func (s State) AppendPath(p Path) State {
	out := s.Clone()
	out.Paths = append(out.Paths, p.Clone())
	return out
}

// AppendText returns a copy of s with t appended.
func (s State) AppendText(t Text) State {
	out := s.Clone()
	out.Texts = append(out.Texts, t.Clone())
	return out
}

// AppendShape returns a copy of s with sh appended.
func (s State) AppendShape(sh Shape) State {
	out := s.Clone()
	out.Shapes = append(out.Shapes, sh)
	return out
}

// ReplaceText swaps the text element sharing t's id. Unknown ids leave s as is.
func (s State) ReplaceText(t Text) State {
	out := s.Clone()
	for i := range out.Texts {
		if out.Texts[i].ID == t.ID {
			out.Texts[i] = t.Clone()
		}
	}
	return out
}

// ReplaceShape swaps the shape sharing sh's id.
func (s State) ReplaceShape(sh Shape) State {
	out := s.Clone()
	for i := range out.Shapes {
		if out.Shapes[i].ID == sh.ID {
			out.Shapes[i] = sh
		}
	}
	return out
}

// Remove drops the element of the given kind and id.
func (s State) Remove(kind Kind, id string) State {
	out := s.Clone()
	switch kind {
	case KindText:
		kept := out.Texts[:0]
		for _, t := range out.Texts {
			if t.ID != id {
				kept = append(kept, t)
			}
		}
		out.Texts = kept
	case KindShape:
		kept := out.Shapes[:0]
		for _, sh := range out.Shapes {
			if sh.ID != id {
				kept = append(kept, sh)
			}
		}
		out.Shapes = kept
	}
	return out
}

// TextByID looks up a text element.
func (s State) TextByID(id string) (Text, bool) {
	for _, t := range s.Texts {
		if t.ID == id {
			return t, true
		}
	}
	return Text{}, false
}

// ShapeByID looks up a shape.
func (s State) ShapeByID(id string) (Shape, bool) {
	for _, sh := range s.Shapes {
		if sh.ID == id {
			return sh, true
		}
	}
	return Shape{}, false
}

// Path is a freehand polyline.
type Path struct {
	ID     string        `json:"id" yaml:"id"`
	Points []geom.Point  `json:"points" yaml:"points"`
	Color  palette.Color `json:"color" yaml:"color"`
	Width  float64       `json:"width" yaml:"width"`
}

// NewPath starts a path with a single point.
func NewPath(start geom.Point, col palette.Color, width float64) Path {
	return Path{ID: NewID(), Points: []geom.Point{start}, Color: col, Width: width}
}

// Clone returns a deep copy of p.
func (p Path) Clone() Path {
	p.Points = append([]geom.Point(nil), p.Points...)
	return p
}

// Extend returns a copy of p with pt appended.
func (p Path) Extend(pt geom.Point) Path {
	out := p.Clone()
	out.Points = append(out.Points, pt)
	return out
}

func clonePaths(paths []Path) []Path {
	if paths == nil {
		return nil
	}
	out := make([]Path, len(paths))
	for i, p := range paths {
		out[i] = p.Clone()
	}
	return out
}

// ClonePaths deep copies a path collection.
func ClonePaths(paths []Path) []Path { return clonePaths(paths) }

// Outline strokes the glyph edges before the fill is drawn.
type Outline struct {
	Color palette.Color `json:"color" yaml:"color"`
	Width float64       `json:"width" yaml:"width"`
}

// Text is a text annotation anchored at its top-left corner.
type Text struct {
	ID      string        `json:"id" yaml:"id"`
	Text    string        `json:"text" yaml:"text"`
	Anchor  geom.Point    `json:"anchor" yaml:"anchor"`
	Color   palette.Color `json:"color" yaml:"color"`
	Size    float64       `json:"size" yaml:"size"`
	Outline *Outline      `json:"outline,omitempty" yaml:"outline,omitempty"`
}

// Clone returns a copy of t that shares no pointers with it.
func (t Text) Clone() Text {
	if t.Outline != nil {
		o := *t.Outline
		t.Outline = &o
	}
	return t
}

// glyphWidthRatio approximates the advance of one glyph relative to the
// font size.
const glyphWidthRatio = 0.6

// Bounds returns the approximate hit box of the text: the anchor-aligned
// rectangle of size×0.6×runes by size.
func (t Text) Bounds() geom.Rect {
	n := float64(len([]rune(t.Text)))
	return geom.Rect{X: t.Anchor.X, Y: t.Anchor.Y, W: t.Size * glyphWidthRatio * n, H: t.Size}
}

// Translate returns t moved by d.
func (t Text) Translate(d geom.Point) Text {
	out := t.Clone()
	out.Anchor = out.Anchor.Add(d)
	return out
}

// ShapeKind discriminates shapes.
type ShapeKind string

const (
	ShapeRect   ShapeKind = "rectangle"
	ShapeCircle ShapeKind = "circle"
	ShapeLine   ShapeKind = "line"
)

// Valid reports whether k names a known shape.
func (k ShapeKind) Valid() bool {
	switch k {
	case ShapeRect, ShapeCircle, ShapeLine:
		return true
	}
	return false
}

// Shape is a stroked vector shape defined by two control points.
type Shape struct {
	ID    string        `json:"id" yaml:"id"`
	Kind  ShapeKind     `json:"kind" yaml:"kind"`
	P1    geom.Point    `json:"p1" yaml:"p1"`
	P2    geom.Point    `json:"p2" yaml:"p2"`
	Color palette.Color `json:"color" yaml:"color"`
	Width float64       `json:"width" yaml:"width"`
}

// Radius is the distance between the control points; used by circles.
func (s Shape) Radius() float64 { return s.P1.Dist(s.P2) }

// Bounds returns the axis-aligned box of the two control points.
func (s Shape) Bounds() geom.Rect { return geom.RectFromPoints(s.P1, s.P2) }

// Translate returns s moved by d.
func (s Shape) Translate(d geom.Point) Shape {
	s.P1 = s.P1.Add(d)
	s.P2 = s.P2.Add(d)
	return s
}

// Kind tags the element collection a selection points into.
type Kind string

const (
	KindText  Kind = "text"
	KindShape Kind = "shape"
)

// Ref is a weak reference to an element, resolved by id on every use.
type Ref struct {
	Kind Kind
	ID   string
}

// IsZero reports whether r refers to nothing.
func (r Ref) IsZero() bool { return r.ID == "" }

// Resolve returns the bounds of the referenced element and whether it still
// exists in s.
func (s State) Resolve(r Ref) (geom.Rect, bool) {
	switch r.Kind {
	case KindText:
		if t, ok := s.TextByID(r.ID); ok {
			return t.Bounds(), true
		}
	case KindShape:
		if sh, ok := s.ShapeByID(r.ID); ok {
			return sh.Bounds(), true
		}
	}
	return geom.Rect{}, false
}

// HitTest returns the first element containing p. Texts are tested before
// shapes, each in insertion order.
func (s State) HitTest(p geom.Point) (Ref, bool) {
	for _, t := range s.Texts {
		if t.Bounds().Contains(p) {
			return Ref{Kind: KindText, ID: t.ID}, true
		}
	}
	for _, sh := range s.Shapes {
		if sh.Bounds().Contains(p) {
			return Ref{Kind: KindShape, ID: sh.ID}, true
		}
	}
	return Ref{}, false
}
