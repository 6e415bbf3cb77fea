package geom

import (
	"testing"

	"pgregory.net/rapid"
)

func TestRectFromPointsAnyDirection(t *testing.T) {
	want := Rect{X: 10, Y: 20, W: 30, H: 40}
	corners := [][2]Point{
		{Pt(10, 20), Pt(40, 60)},
		{Pt(40, 60), Pt(10, 20)},
		{Pt(40, 20), Pt(10, 60)},
		{Pt(10, 60), Pt(40, 20)},
	}
	for _, c := range corners {
		if got := RectFromPoints(c[0], c[1]); got != want {
			t.Fatalf("RectFromPoints(%v, %v) = %+v, want %+v", c[0], c[1], got, want)
		}
	}
}

func TestRectFromPointsNormalized(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := Pt(rapid.Float64Range(-500, 500).Draw(t, "ax"), rapid.Float64Range(-500, 500).Draw(t, "ay"))
		b := Pt(rapid.Float64Range(-500, 500).Draw(t, "bx"), rapid.Float64Range(-500, 500).Draw(t, "by"))
		r := RectFromPoints(a, b)
		if r.W < 0 || r.H < 0 {
			t.Fatalf("negative size %+v", r)
		}
		if !r.Contains(a) || !r.Contains(b) {
			t.Fatalf("rect %+v does not contain its corners %v %v", r, a, b)
		}
	})
}

func TestIntersect(t *testing.T) {
	r := Rect{X: -10, Y: 90, W: 50, H: 50}.Intersect(100, 100)
	if r != (Rect{X: 0, Y: 90, W: 40, H: 10}) {
		t.Fatalf("unexpected intersection %+v", r)
	}
	if !(Rect{X: 120, Y: 0, W: 10, H: 10}).Intersect(100, 100).Empty() {
		t.Fatalf("expected empty intersection outside bounds")
	}
}

func TestViewportToCanvas(t *testing.T) {
	v := Viewport{Origin: Pt(48, 24), DisplayedW: 200, DisplayedH: 100, BackingW: 400, BackingH: 200}
	got := v.ToCanvas(Pt(148, 74))
	if got != Pt(200, 100) {
		t.Fatalf("ToCanvas = %v, want (200,100)", got)
	}
}

func TestFitViewport(t *testing.T) {
	v := FitViewport(Rect{X: 0, Y: 0, W: 100, H: 100}, 400, 200)
	if v.DisplayedW != 100 || v.DisplayedH != 50 {
		t.Fatalf("unexpected fit %vx%v", v.DisplayedW, v.DisplayedH)
	}
}

func TestRotatedExtent(t *testing.T) {
	cases := []struct {
		deg  float64
		w, h int
	}{
		{0, 120, 80},
		{90, 80, 120},
		{180, 120, 80},
		{270, 80, 120},
		{45, 141, 141},
	}
	for _, c := range cases {
		w, h := RotatedExtent(120, 80, c.deg)
		if c.deg == 45 {
			w, h = RotatedExtent(100, 100, c.deg)
		}
		if w != c.w || h != c.h {
			t.Errorf("RotatedExtent at %v = %dx%d, want %dx%d", c.deg, w, h, c.w, c.h)
		}
	}
}

func TestNormalizeDegrees(t *testing.T) {
	cases := map[float64]float64{0: 0, 360: 0, -90: 270, 450: 90, -720: 0}
	for in, want := range cases {
		if got := NormalizeDegrees(in); got != want {
			t.Errorf("NormalizeDegrees(%v) = %v, want %v", in, got, want)
		}
	}
}
