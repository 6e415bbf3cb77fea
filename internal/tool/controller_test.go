package tool

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/example/studio/internal/editstate"
	"github.com/example/studio/internal/geom"
	"github.com/example/studio/internal/palette"
)

func TestParseTool(t *testing.T) {
	for _, tl := range All() {
		got, err := Parse(tl.String())
		if err != nil || got != tl {
			t.Fatalf("Parse(%q) = %v, %v", tl.String(), got, err)
		}
	}
	if _, err := Parse("lasso"); err == nil {
		t.Fatalf("expected error for unknown tool")
	}
}

func TestDrawGestureCommitsOnce(t *testing.T) {
	c := NewController()
	c.SetTool(Draw)
	st := editstate.Initial()
	st, eff := c.PointerDown(st, geom.Pt(1, 1))
	if eff.Has(Commit) || len(st.Paths) != 1 {
		t.Fatalf("down: eff=%v paths=%d", eff, len(st.Paths))
	}
	st, eff = c.PointerMove(st, geom.Pt(2, 2))
	if eff.Has(Commit) {
		t.Fatalf("move reported commit")
	}
	st, _ = c.PointerMove(st, geom.Pt(3, 3))
	st, eff = c.PointerUp(st)
	if !eff.Has(Commit) {
		t.Fatalf("up did not commit the stroke")
	}
	if n := len(st.Paths[0].Points); n != 3 {
		t.Fatalf("points = %d, want 3", n)
	}
	if st.Paths[0].Width != c.Settings().Width {
		t.Fatalf("path width %v, want %v", st.Paths[0].Width, c.Settings().Width)
	}
	if _, eff := c.PointerUp(st); eff != 0 {
		t.Fatalf("second up should be a no-op")
	}
}

func TestMoveWithoutDownIsIgnored(t *testing.T) {
	c := NewController()
	c.SetTool(Draw)
	st := editstate.Initial()
	out, eff := c.PointerMove(st, geom.Pt(5, 5))
	if eff != 0 || len(out.Paths) != 0 {
		t.Fatalf("move without down changed state")
	}
}

func TestLeaveClosesGesture(t *testing.T) {
	c := NewController()
	c.SetTool(Shape)
	st, _ := c.PointerDown(editstate.Initial(), geom.Pt(10, 10))
	st, _ = c.PointerMove(st, geom.Pt(30, 40))
	st, eff := c.PointerLeave(st)
	if !eff.Has(Commit) || c.Dragging() {
		t.Fatalf("leave should close and commit the shape")
	}
	if got := st.Shapes[0].P2; got != geom.Pt(30, 40) {
		t.Fatalf("p2 = %v", got)
	}
	if st2, eff := c.PointerMove(st, geom.Pt(50, 50)); eff != 0 || st2.Shapes[0].P2 != geom.Pt(30, 40) {
		t.Fatalf("move after leave changed the shape")
	}
}

func TestShapeUsesConfiguredKind(t *testing.T) {
	c := NewController()
	c.SetShapeKind(editstate.ShapeCircle)
	c.SetShapeKind("hexagon")
	c.SetTool(Shape)
	st, _ := c.PointerDown(editstate.Initial(), geom.Pt(5, 5))
	if st.Shapes[0].Kind != editstate.ShapeCircle {
		t.Fatalf("kind = %q", st.Shapes[0].Kind)
	}
	if st.Shapes[0].P1 != st.Shapes[0].P2 {
		t.Fatalf("new shape should have zero size")
	}
}

func TestSelectDragTranslatesText(t *testing.T) {
	c := NewController()
	c.SetTool(Select)
	st := editstate.Initial().AppendText(editstate.Text{ID: "t1", Text: "hello", Anchor: geom.Pt(10, 10), Size: 20})
	st, eff := c.PointerDown(st, geom.Pt(12, 12))
	if c.Selection() != (editstate.Ref{Kind: editstate.KindText, ID: "t1"}) {
		t.Fatalf("selection = %+v", c.Selection())
	}
	if !eff.Has(Redraw) {
		t.Fatalf("selecting should redraw")
	}
	st, _ = c.PointerMove(st, geom.Pt(22, 32))
	st, eff = c.PointerUp(st)
	if !eff.Has(Commit) {
		t.Fatalf("moving drag should commit")
	}
	if got := st.Texts[0].Anchor; got != geom.Pt(20, 30) {
		t.Fatalf("anchor = %v, want (20,30)", got)
	}
	if c.Selection().IsZero() {
		t.Fatalf("selection should survive the drag")
	}
}

func TestSelectDragTranslatesAllShapePoints(t *testing.T) {
	c := NewController()
	c.SetTool(Select)
	st := editstate.Initial().AppendShape(editstate.Shape{ID: "s", Kind: editstate.ShapeLine, P1: geom.Pt(0, 0), P2: geom.Pt(10, 20), Width: 2})
	st, _ = c.PointerDown(st, geom.Pt(5, 5))
	st, _ = c.PointerMove(st, geom.Pt(8, 9))
	sh := st.Shapes[0]
	if sh.P1 != geom.Pt(3, 4) || sh.P2 != geom.Pt(13, 24) {
		t.Fatalf("shape = %v %v", sh.P1, sh.P2)
	}
}

func TestClickWithoutMoveDoesNotCommit(t *testing.T) {
	c := NewController()
	c.SetTool(Select)
	st := editstate.Initial().AppendText(editstate.Text{ID: "t1", Text: "x", Anchor: geom.Pt(0, 0), Size: 20})
	st, _ = c.PointerDown(st, geom.Pt(2, 2))
	st, _ = c.PointerMove(st, geom.Pt(2, 2))
	if _, eff := c.PointerUp(st); eff.Has(Commit) {
		t.Fatalf("select without movement committed")
	}
}

func TestDownOutsideClearsSelection(t *testing.T) {
	c := NewController()
	c.SetTool(Select)
	st := editstate.Initial().AppendText(editstate.Text{ID: "t1", Text: "x", Anchor: geom.Pt(0, 0), Size: 20})
	st, _ = c.PointerDown(st, geom.Pt(2, 2))
	st, _ = c.PointerUp(st)
	_, eff := c.PointerDown(st, geom.Pt(90, 90))
	if !c.Selection().IsZero() {
		t.Fatalf("selection not cleared")
	}
	if !eff.Has(Redraw) {
		t.Fatalf("clearing the selection should redraw")
	}
}

func TestCropDragAnyDirection(t *testing.T) {
	c := NewController()
	c.SetTool(Crop)
	st := editstate.Initial()
	st, _ = c.PointerDown(st, geom.Pt(50, 50))
	c.PointerMove(st, geom.Pt(10, 20))
	r, ok := c.CropRect()
	if !ok || r != (geom.Rect{X: 10, Y: 20, W: 40, H: 30}) {
		t.Fatalf("crop = %+v ok=%v", r, ok)
	}
	if ov := c.Overlays(st); ov.Crop == nil || *ov.Crop != r {
		t.Fatalf("crop overlay missing")
	}
	c.SetTool(Draw)
	if _, ok := c.CropRect(); ok {
		t.Fatalf("tool switch kept the crop rect")
	}
}

func TestCropRectNormalized(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := NewController()
		c.SetTool(Crop)
		coord := rapid.IntRange(-500, 500)
		a := geom.Pt(float64(coord.Draw(t, "ax")), float64(coord.Draw(t, "ay")))
		b := geom.Pt(float64(coord.Draw(t, "bx")), float64(coord.Draw(t, "by")))
		st, _ := c.PointerDown(editstate.Initial(), a)
		c.PointerMove(st, b)
		r, _ := c.CropRect()
		if r.W < 0 || r.H < 0 {
			t.Fatalf("negative size %+v", r)
		}
		if !r.Contains(a) || !r.Contains(b) {
			t.Fatalf("rect %+v misses a drag end", r)
		}
	})
}

func TestConfirmText(t *testing.T) {
	c := NewController()
	c.SetTool(Text)
	st := editstate.Initial()
	if _, eff := c.ConfirmText(st, "orphan"); eff != 0 {
		t.Fatalf("confirm without a pending point should be a no-op")
	}
	st, _ = c.PointerDown(st, geom.Pt(7, 8))
	st, _ = c.PointerUp(st)
	if len(st.Texts) != 0 {
		t.Fatalf("text created before confirmation")
	}
	if _, eff := c.ConfirmText(st, "   "); eff != 0 {
		t.Fatalf("blank text should be a no-op")
	}
	c.SetOutline(&editstate.Outline{Color: palette.Color{A: 255}, Width: 2})
	st, eff := c.ConfirmText(st, "  caption ")
	if !eff.Has(Commit) || len(st.Texts) != 1 {
		t.Fatalf("confirm failed: eff=%v", eff)
	}
	tx := st.Texts[0]
	if tx.Text != "caption" || tx.Anchor != geom.Pt(7, 8) || tx.Outline == nil {
		t.Fatalf("text = %+v", tx)
	}
	if _, ok := c.PendingText(); ok {
		t.Fatalf("pending point not cleared")
	}
}

func TestSetToolClearsPendingText(t *testing.T) {
	c := NewController()
	c.SetTool(Text)
	c.PointerDown(editstate.Initial(), geom.Pt(1, 1))
	c.SetTool(Text)
	if _, ok := c.PendingText(); ok {
		t.Fatalf("pending text survived tool selection")
	}
}

func TestMaskPathsStayOutOfState(t *testing.T) {
	c := NewController()
	c.SetTool(Remove)
	st := editstate.Initial()
	st, _ = c.PointerDown(st, geom.Pt(1, 1))
	st, _ = c.PointerMove(st, geom.Pt(5, 5))
	st, eff := c.PointerUp(st)
	if eff.Has(Commit) {
		t.Fatalf("mask stroke committed to history")
	}
	if len(st.Paths) != 0 {
		t.Fatalf("mask stroke leaked into edit state")
	}
	if got := len(c.MaskPaths()); got != 1 {
		t.Fatalf("mask paths = %d", got)
	}
	if ov := c.Overlays(st); !ov.ShowMask || len(ov.MaskPaths) != 1 {
		t.Fatalf("mask should show while removing")
	}
	c.SetTool(Draw)
	if ov := c.Overlays(st); ov.ShowMask {
		t.Fatalf("mask visible under another tool")
	}
	if len(c.MaskPaths()) != 1 {
		t.Fatalf("tool switch dropped the mask")
	}
	c.ClearMask()
	if len(c.MaskPaths()) != 0 {
		t.Fatalf("mask not cleared")
	}
}

func TestDeleteSelectedAndSync(t *testing.T) {
	c := NewController()
	c.SetTool(Select)
	st := editstate.Initial().
		AppendShape(editstate.Shape{ID: "a", Kind: editstate.ShapeRect, P1: geom.Pt(0, 0), P2: geom.Pt(10, 10)}).
		AppendShape(editstate.Shape{ID: "b", Kind: editstate.ShapeRect, P1: geom.Pt(50, 50), P2: geom.Pt(60, 60)})
	st, _ = c.PointerDown(st, geom.Pt(55, 55))
	st, _ = c.PointerUp(st)
	st, eff := c.DeleteSelected(st)
	if !eff.Has(Commit) || len(st.Shapes) != 1 || st.Shapes[0].ID != "a" {
		t.Fatalf("delete failed: eff=%v shapes=%+v", eff, st.Shapes)
	}

	st, _ = c.PointerDown(st, geom.Pt(5, 5))
	c.Sync(editstate.Initial())
	if !c.Selection().IsZero() {
		t.Fatalf("stale selection survived sync")
	}
	if ov := c.Overlays(editstate.Initial()); ov.Selection != nil {
		t.Fatalf("stale selection rendered")
	}
}

func TestInvalidSettingsIgnored(t *testing.T) {
	c := NewController()
	before := c.Settings()
	c.SetWidth(0)
	c.SetTextSize(-3)
	c.SetMaskWidth(0)
	after := c.Settings()
	if before.Width != after.Width || before.TextSize != after.TextSize || before.MaskWidth != after.MaskWidth {
		t.Fatalf("invalid settings applied: %+v", after)
	}
}
