package editstate

import (
	"testing"

	"gopkg.in/yaml.v3"
	"pgregory.net/rapid"

	"github.com/example/studio/internal/geom"
	"github.com/example/studio/internal/palette"
)

var red = palette.Color{R: 255, A: 255}

func TestInitialIsNeutral(t *testing.T) {
	s := Initial()
	if !s.Adjustments.IsNeutral() {
		t.Fatalf("initial adjustments not neutral: %+v", s.Adjustments)
	}
	if !s.Transforms.IsIdentity() {
		t.Fatalf("initial transforms not identity: %+v", s.Transforms)
	}
	if len(s.Paths)+len(s.Texts)+len(s.Shapes) != 0 {
		t.Fatalf("initial collections not empty")
	}
}

func TestCopyOnWrite(t *testing.T) {
	base := Initial().AppendPath(NewPath(geom.Pt(1, 1), red, 4))
	next := base.WithPaths([]Path{base.Paths[0].Extend(geom.Pt(2, 2))})
	if len(base.Paths[0].Points) != 1 {
		t.Fatalf("base path mutated: %v", base.Paths[0].Points)
	}
	if len(next.Paths[0].Points) != 2 {
		t.Fatalf("expected extended path, got %v", next.Paths[0].Points)
	}

	withText := base.AppendText(Text{ID: "t1", Text: "hi", Size: 10, Outline: &Outline{Color: red, Width: 2}})
	moved := withText.ReplaceText(withText.Texts[0].Translate(geom.Pt(5, 5)))
	moved.Texts[0].Outline.Width = 9
	if withText.Texts[0].Outline.Width != 2 {
		t.Fatalf("outline shared between snapshots")
	}
}

func TestAdjustmentsClamp(t *testing.T) {
	a, err := DefaultAdjustments().Set("brightness", 500)
	if err != nil {
		t.Fatal(err)
	}
	if a.Brightness != 200 {
		t.Fatalf("brightness = %v, want 200", a.Brightness)
	}
	a, _ = a.Set("hue-rotate", -10)
	if a.HueRotate != 0 {
		t.Fatalf("hue = %v, want 0", a.HueRotate)
	}
	if _, err := a.Set("vibrance", 1); err == nil {
		t.Fatalf("expected unknown adjustment error")
	}
}

func TestRotateLeftFourTimes(t *testing.T) {
	tr := Transforms{}
	for i := 0; i < 4; i++ {
		tr = tr.RotateLeft()
		if tr.Rotation < 0 || tr.Rotation >= 360 {
			t.Fatalf("rotation out of range: %v", tr.Rotation)
		}
	}
	if tr.Rotation != 0 {
		t.Fatalf("rotation = %v, want 0", tr.Rotation)
	}
}

func TestRotationAlwaysNormalized(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tr := Transforms{}
		steps := rapid.SliceOf(rapid.Bool()).Draw(t, "steps")
		for _, left := range steps {
			if left {
				tr = tr.RotateLeft()
			} else {
				tr = tr.RotateRight()
			}
		}
		if tr.Rotation < 0 || tr.Rotation >= 360 {
			t.Fatalf("rotation out of range: %v", tr.Rotation)
		}
	})
}

func TestTextBoundsApproximation(t *testing.T) {
	txt := Text{Text: "hello", Anchor: geom.Pt(10, 20), Size: 20}
	b := txt.Bounds()
	if b != (geom.Rect{X: 10, Y: 20, W: 60, H: 20}) {
		t.Fatalf("unexpected bounds %+v", b)
	}
}

func TestHitTestShapes(t *testing.T) {
	for _, kind := range []ShapeKind{ShapeRect, ShapeCircle, ShapeLine} {
		s := Initial().AppendShape(Shape{ID: string(kind), Kind: kind, P1: geom.Pt(50, 60), P2: geom.Pt(10, 20)})
		ref, ok := s.HitTest(geom.Pt(30, 40))
		if !ok || ref.ID != string(kind) || ref.Kind != KindShape {
			t.Fatalf("%s: inside point did not select: %+v %v", kind, ref, ok)
		}
		if _, ok := s.HitTest(geom.Pt(55, 40)); ok {
			t.Fatalf("%s: outside point selected", kind)
		}
	}
}

func TestHitTestProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		kind := rapid.SampledFrom([]ShapeKind{ShapeRect, ShapeCircle, ShapeLine}).Draw(t, "kind")
		x1 := rapid.Float64Range(0, 400).Draw(t, "x1")
		y1 := rapid.Float64Range(0, 400).Draw(t, "y1")
		w := rapid.Float64Range(2, 200).Draw(t, "w")
		h := rapid.Float64Range(2, 200).Draw(t, "h")
		s := Initial().AppendShape(Shape{ID: "s", Kind: kind, P1: geom.Pt(x1+w, y1), P2: geom.Pt(x1, y1+h)})

		fx := rapid.Float64Range(0.01, 0.99).Draw(t, "fx")
		fy := rapid.Float64Range(0.01, 0.99).Draw(t, "fy")
		if _, ok := s.HitTest(geom.Pt(x1+fx*w, y1+fy*h)); !ok {
			t.Fatalf("point strictly inside not selected")
		}
		if _, ok := s.HitTest(geom.Pt(x1+w+1, y1+fy*h)); ok {
			t.Fatalf("point strictly outside selected")
		}
	})
}

func TestHitTestTextsBeforeShapes(t *testing.T) {
	s := Initial().
		AppendShape(Shape{ID: "shape", Kind: ShapeRect, P1: geom.Pt(0, 0), P2: geom.Pt(100, 100)}).
		AppendText(Text{ID: "text", Text: "abc", Anchor: geom.Pt(10, 10), Size: 20})
	ref, ok := s.HitTest(geom.Pt(15, 15))
	if !ok || ref.Kind != KindText {
		t.Fatalf("expected text hit, got %+v", ref)
	}
}

func TestRemoveInvalidatesRef(t *testing.T) {
	s := Initial().AppendShape(Shape{ID: "a", Kind: ShapeLine, P1: geom.Pt(0, 0), P2: geom.Pt(5, 5)})
	ref := Ref{Kind: KindShape, ID: "a"}
	if _, ok := s.Resolve(ref); !ok {
		t.Fatalf("expected ref to resolve")
	}
	s = s.Remove(KindShape, "a")
	if _, ok := s.Resolve(ref); ok {
		t.Fatalf("expected ref to be stale after removal")
	}
}

func TestYAMLDocument(t *testing.T) {
	doc := `
adjustments:
  brightness: 150
  contrast: 100
  saturation: 100
transforms:
  rotation: 90
paths:
  - id: p1
    color: "#FF0000"
    width: 4
    points:
      - {x: 1, y: 2}
      - {x: 3, y: 4}
`
	var s State
	if err := yaml.Unmarshal([]byte(doc), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s.Adjustments.Brightness != 150 || s.Transforms.Rotation != 90 {
		t.Fatalf("unexpected state %+v", s)
	}
	if len(s.Paths) != 1 || s.Paths[0].Color != red || len(s.Paths[0].Points) != 2 {
		t.Fatalf("unexpected paths %+v", s.Paths)
	}
}
