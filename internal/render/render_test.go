package render

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/example/studio/internal/editstate"
	"github.com/example/studio/internal/geom"
	"github.com/example/studio/internal/palette"
)

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 7), G: uint8(y * 5), B: uint8(x + y), A: 255})
		}
	}
	// a translucent pixel must survive the round trip as well
	img.SetRGBA(1, 1, color.RGBA{R: 10, G: 20, B: 30, A: 40})
	return img
}

func TestInitialStateReproducesSource(t *testing.T) {
	src := gradient(12, 8)
	out := New().Render(src, editstate.Initial(), Overlays{})
	if !out.Bounds().Eq(src.Bounds()) {
		t.Fatalf("bounds %v, want %v", out.Bounds(), src.Bounds())
	}
	if !bytes.Equal(out.Pix, src.Pix) {
		t.Fatalf("initial render differs from source")
	}
}

func TestRenderIsIdempotent(t *testing.T) {
	src := gradient(64, 48)
	st := editstate.Initial().
		AppendPath(editstate.Path{ID: "p", Points: []geom.Point{{X: 5, Y: 5}, {X: 40, Y: 30}, {X: 60, Y: 10}}, Color: palette.Color{R: 255, A: 255}, Width: 4}).
		AppendShape(editstate.Shape{ID: "s", Kind: editstate.ShapeCircle, P1: geom.Pt(30, 24), P2: geom.Pt(40, 24), Color: palette.Color{B: 255, A: 255}, Width: 2}).
		AppendText(editstate.Text{ID: "t", Text: "Hi", Anchor: geom.Pt(4, 4), Size: 16, Color: palette.Color{G: 255, A: 255}, Outline: &editstate.Outline{Color: palette.Color{A: 255}, Width: 1}})
	st.Adjustments.Brightness = 130
	st.Adjustments.Blur = 2
	st.Transforms.Rotation = 30
	r := New()
	a := r.Render(src, st, Overlays{})
	b := r.Render(src, st, Overlays{})
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Fatalf("render is not deterministic")
	}
}

func TestQuarterTurnsAndFlips(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 2))
	marker := color.RGBA{R: 255, A: 255}
	src.SetRGBA(0, 0, marker)

	st := editstate.Initial()
	st.Transforms = st.Transforms.RotateRight()
	out := New().Composite(src, st)
	if out.Bounds().Dx() != 2 || out.Bounds().Dy() != 3 {
		t.Fatalf("rotated bounds %v", out.Bounds())
	}
	if out.RGBAAt(1, 0) != marker {
		t.Fatalf("clockwise turn should move top-left to top-right")
	}

	st = editstate.Initial()
	st.Transforms = st.Transforms.ToggleFlipH()
	out = New().Composite(src, st)
	if out.RGBAAt(2, 0) != marker {
		t.Fatalf("horizontal flip should move top-left to top-right")
	}

	st = editstate.Initial()
	st.Transforms = st.Transforms.ToggleFlipV()
	out = New().Composite(src, st)
	if out.RGBAAt(0, 1) != marker {
		t.Fatalf("vertical flip should move top-left to bottom-left")
	}
}

func TestArbitraryRotationExtent(t *testing.T) {
	src := gradient(100, 100)
	st := editstate.Initial()
	st.Transforms.Rotation = 45
	out := New().Composite(src, st)
	if out.Bounds().Dx() != 141 || out.Bounds().Dy() != 141 {
		t.Fatalf("45 degree extent %v", out.Bounds())
	}
	if out.RGBAAt(0, 0).A != 0 {
		t.Fatalf("corner outside rotated image should stay transparent")
	}
	if out.RGBAAt(70, 70).A == 0 {
		t.Fatalf("center should be covered")
	}
}

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestColorFilters(t *testing.T) {
	cases := []struct {
		name string
		set  func(*editstate.Adjustments)
		in   color.RGBA
		want color.RGBA
	}{
		{"brightness", func(a *editstate.Adjustments) { a.Brightness = 200 }, color.RGBA{100, 50, 200, 255}, color.RGBA{200, 100, 255, 255}},
		{"invert", func(a *editstate.Adjustments) { a.Invert = 100 }, color.RGBA{255, 0, 0, 255}, color.RGBA{0, 255, 255, 255}},
		{"contrast zero", func(a *editstate.Adjustments) { a.Contrast = 0 }, color.RGBA{10, 240, 90, 255}, color.RGBA{128, 128, 128, 255}},
		{"brightness zero", func(a *editstate.Adjustments) { a.Brightness = 0 }, color.RGBA{10, 240, 90, 255}, color.RGBA{0, 0, 0, 255}},
	}
	for _, c := range cases {
		a := editstate.DefaultAdjustments()
		c.set(&a)
		out := ApplyAdjustments(solid(2, 2, c.in), a)
		if got := out.RGBAAt(0, 0); got != c.want {
			t.Errorf("%s: got %v, want %v", c.name, got, c.want)
		}
	}
}

func TestGrayscaleEqualizesChannels(t *testing.T) {
	a := editstate.DefaultAdjustments()
	a.Grayscale = 100
	got := ApplyAdjustments(solid(1, 1, color.RGBA{200, 30, 90, 255}), a).RGBAAt(0, 0)
	if got.R != got.G || got.G != got.B {
		t.Fatalf("grayscale left color %v", got)
	}
}

func TestHueRotateFullTurnIsNeutral(t *testing.T) {
	a := editstate.DefaultAdjustments()
	a.HueRotate = 360
	a = a.Clamped()
	in := color.RGBA{200, 30, 90, 255}
	if got := ApplyAdjustments(solid(1, 1, in), a).RGBAAt(0, 0); got != in {
		t.Fatalf("360 degree hue rotation changed %v to %v", in, got)
	}
}

func TestBlurSpreadsColor(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 9, 9))
	img.SetRGBA(4, 4, color.RGBA{255, 255, 255, 255})
	a := editstate.DefaultAdjustments()
	a.Blur = 2
	out := ApplyAdjustments(img, a)
	if out.RGBAAt(5, 4).A == 0 || out.RGBAAt(4, 6).A == 0 {
		t.Fatalf("expected blurred alpha to reach neighbours")
	}
	if out.RGBAAt(4, 4).A == 255 {
		t.Fatalf("expected center to be softened")
	}
}

func TestMaskPathsOnlyWhenShown(t *testing.T) {
	src := solid(40, 40, color.RGBA{0, 0, 0, 255})
	mask := []editstate.Path{{ID: "m", Points: []geom.Point{{X: 5, Y: 20}, {X: 35, Y: 20}}, Color: palette.Color{R: 255, A: 255}, Width: 8}}
	r := New()
	hidden := r.Render(src, editstate.Initial(), Overlays{MaskPaths: mask})
	if hidden.RGBAAt(20, 20).R != 0 {
		t.Fatalf("mask drawn while hidden")
	}
	shown := r.Render(src, editstate.Initial(), Overlays{MaskPaths: mask, ShowMask: true})
	if shown.RGBAAt(20, 20).R < 200 {
		t.Fatalf("mask not drawn while shown: %v", shown.RGBAAt(20, 20))
	}
}

func TestDrawPathUsesColor(t *testing.T) {
	src := solid(100, 100, color.RGBA{255, 255, 255, 255})
	st := editstate.Initial().AppendPath(editstate.Path{ID: "p", Points: []geom.Point{{X: 10, Y: 50}, {X: 90, Y: 50}}, Color: palette.Color{B: 255, A: 255}, Width: 10})
	got := New().Composite(src, st).RGBAAt(50, 50)
	if got.B < 250 || got.R > 5 {
		t.Fatalf("expected blue stroke, got %v", got)
	}
	if corner := New().Composite(src, st).RGBAAt(50, 10); corner != (color.RGBA{255, 255, 255, 255}) {
		t.Fatalf("stroke leaked to %v", corner)
	}
}

func TestCropDimsOutside(t *testing.T) {
	src := solid(50, 50, color.RGBA{200, 200, 200, 255})
	crop := geom.Rect{X: 10, Y: 10, W: 20, H: 20}
	out := New().Render(src, editstate.Initial(), Overlays{Crop: &crop})
	if out.RGBAAt(20, 20) != (color.RGBA{200, 200, 200, 255}) {
		t.Fatalf("inside crop changed: %v", out.RGBAAt(20, 20))
	}
	if out.RGBAAt(2, 2).R >= 200 {
		t.Fatalf("outside crop not dimmed: %v", out.RGBAAt(2, 2))
	}
}

func TestSubjectMaskHalfOpacity(t *testing.T) {
	src := solid(10, 10, color.RGBA{0, 0, 0, 255})
	mask := solid(10, 10, color.RGBA{255, 255, 255, 255})
	got := New().Render(src, editstate.Initial(), Overlays{SubjectMask: mask}).RGBAAt(5, 5)
	if got.R < 110 || got.R > 145 {
		t.Fatalf("expected roughly half blend, got %v", got)
	}
}

func TestRenderMask(t *testing.T) {
	paths := []editstate.Path{{ID: "m", Points: []geom.Point{{X: 10, Y: 10}, {X: 30, Y: 10}}, Width: 6}}
	out := RenderMask(paths, 40, 20)
	if got := out.RGBAAt(20, 10); got.R < 250 || got.G < 250 || got.B < 250 {
		t.Fatalf("expected white stroke, got %v", got)
	}
	if got := out.RGBAAt(20, 18); got != (color.RGBA{0, 0, 0, 255}) {
		t.Fatalf("expected black background, got %v", got)
	}
}

func TestBlurRGBAZeroRadiusCopies(t *testing.T) {
	src := gradient(5, 5)
	out := blurRGBA(src, 0)
	if !bytes.Equal(out.Pix, src.Pix) {
		t.Fatalf("zero radius blur changed pixels")
	}
	out.Pix[0] ^= 0xFF
	if bytes.Equal(out.Pix, src.Pix) {
		t.Fatalf("zero radius blur aliased its input")
	}
}
