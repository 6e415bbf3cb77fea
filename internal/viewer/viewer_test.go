package viewer

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/mobile/event/key"

	"github.com/example/studio/internal/genai"
	"github.com/example/studio/internal/geom"
	"github.com/example/studio/internal/imageio"
	"github.com/example/studio/internal/studio"
	"github.com/example/studio/internal/theme"
	"github.com/example/studio/internal/tool"
)

func newSession(t *testing.T, w, h int, opts ...studio.Option) *studio.Session {
	t.Helper()
	s := studio.New(opts...)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	s.LoadImage(img)
	return s
}

func TestLookup(t *testing.T) {
	cases := []struct {
		ev   key.Event
		want Action
	}{
		{key.Event{Code: key.CodeZ, Rune: 'z', Modifiers: key.ModControl}, ActUndo},
		{key.Event{Code: key.CodeZ, Rune: 'Z', Modifiers: key.ModControl | key.ModShift}, ActRedo},
		{key.Event{Code: key.CodeY, Rune: 'y', Modifiers: key.ModControl}, ActRedo},
		{key.Event{Code: key.CodeC, Rune: 'c'}, ActToolCrop},
		{key.Event{Code: key.CodeF, Rune: 'F', Modifiers: key.ModShift}, ActFlipV},
		{key.Event{Code: key.CodeReturnEnter, Rune: '\r'}, ActConfirm},
		{key.Event{Code: key.CodeEscape, Rune: -1}, ActCancel},
		{key.Event{Code: key.CodeUpArrow, Rune: -1}, ActIncrease},
	}
	for _, c := range cases {
		got, ok := lookup(c.ev)
		if !ok || got != c.want {
			t.Errorf("lookup(%+v) = %q, %v; want %q", c.ev, got, ok, c.want)
		}
	}
	if _, ok := lookup(key.Event{Code: key.CodeW, Rune: 'w'}); ok {
		t.Errorf("unbound key resolved")
	}
}

func TestEveryToolHasAKey(t *testing.T) {
	for _, tl := range tool.All() {
		if _, ok := toolKeys[toolAction(tl)]; !ok {
			t.Errorf("tool %s has no shortcut", tl)
		}
	}
}

func TestLayoutMapsBothWays(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 100, 50))
	l := newLayout(toolbarWidth+200, 100+statusHeight, frame)
	if got := l.canvasRect(); got != image.Rect(toolbarWidth, 0, toolbarWidth+200, 100) {
		t.Fatalf("canvasRect = %v", got)
	}
	p := l.toCanvas(float32(toolbarWidth+100), 50)
	if p != geom.Pt(50, 25) {
		t.Fatalf("toCanvas = %+v", p)
	}
	if back := l.toScreen(p); back != image.Pt(toolbarWidth+100, 50) {
		t.Fatalf("toScreen = %v", back)
	}
}

func TestCropThroughKeys(t *testing.T) {
	s := newSession(t, 100, 100)
	v := New(s)
	if !v.Perform(ActToolCrop) || s.Tool() != tool.Crop {
		t.Fatalf("crop tool not selected")
	}
	s.PointerDown(geom.Pt(10, 10))
	s.PointerMove(geom.Pt(60, 60))
	s.PointerUp()
	v.handleKey(key.Event{Code: key.CodeReturnEnter, Direction: key.DirPress})
	if b := s.Frame().Bounds(); b.Dx() != 50 || b.Dy() != 50 {
		t.Fatalf("frame = %v", b)
	}
}

func TestTypingPlacesText(t *testing.T) {
	s := newSession(t, 40, 40)
	v := New(s)
	v.Perform(ActToolText)
	s.PointerDown(geom.Pt(5, 20))
	s.PointerUp()
	for _, r := range "hix" {
		v.handleKey(key.Event{Rune: r, Code: key.CodeA, Direction: key.DirPress})
	}
	v.handleKey(key.Event{Rune: -1, Code: key.CodeDeleteBackspace, Direction: key.DirPress})
	if typed, ok := v.Typing(); !ok || typed != "hi" {
		t.Fatalf("typed = %q, %v", typed, ok)
	}
	v.handleKey(key.Event{Rune: '\r', Code: key.CodeReturnEnter, Direction: key.DirPress})
	texts := s.State().Texts
	if len(texts) != 1 || texts[0].Text != "hi" || texts[0].Anchor != geom.Pt(5, 20) {
		t.Fatalf("texts = %+v", texts)
	}
	if _, ok := v.Typing(); ok {
		t.Fatalf("still typing after confirm")
	}
}

func TestArrowsAdjustFocusedSlider(t *testing.T) {
	s := newSession(t, 10, 10)
	v := New(s)
	v.Perform(ActToolAdjust)
	v.Perform(ActIncrease)
	v.Perform(ActIncrease)
	if got := s.Info().Adjustments.Brightness; got != 110 {
		t.Fatalf("brightness = %v", got)
	}
	v.Perform(ActFocusNext)
	if v.focused().Name != "contrast" {
		t.Fatalf("focus = %s", v.focused().Name)
	}
	v.Perform(ActDecrease)
	if got := s.Info().Adjustments.Contrast; got != 95 {
		t.Fatalf("contrast = %v", got)
	}
}

func TestExportWritesFile(t *testing.T) {
	s := newSession(t, 8, 8)
	out := filepath.Join(t.TempDir(), "nested", "result")
	v := New(s, WithOutput(out, imageio.JPEG, 0.5))
	v.Perform(ActExport)
	data, err := os.ReadFile(out + ".jpg")
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if len(data) < 2 || data[0] != 0xff || data[1] != 0xd8 {
		t.Fatalf("not a jpeg")
	}
	if msg := v.statusMessage(); !strings.HasPrefix(msg, "exported ") {
		t.Fatalf("message = %q", msg)
	}
}

func TestUpscaleOffersCandidate(t *testing.T) {
	s := newSession(t, 8, 8, studio.WithService(genai.NewMock()))
	v := New(s, WithRequestTimeout(time.Second))
	v.Perform(ActUpscale)
	v.wait()
	if s.Candidate() == nil {
		t.Fatalf("no candidate after upscale")
	}
	st := v.snapshot(320, 240, -1)
	if !st.candidate || st.frame != s.Candidate() {
		t.Fatalf("snapshot does not show candidate")
	}
	v.Perform(ActConfirm)
	if s.Candidate() != nil {
		t.Fatalf("candidate not accepted")
	}
	if b := s.Frame().Bounds(); b.Dx() != 1 || b.Dy() != 1 {
		t.Fatalf("frame = %v", b)
	}
}

func TestJobWithoutServiceReportsFailure(t *testing.T) {
	s := newSession(t, 8, 8)
	v := New(s)
	v.Perform(ActSelectSubject)
	v.wait()
	if msg := v.statusMessage(); !strings.Contains(msg, "failed") {
		t.Fatalf("message = %q", msg)
	}
	if len(v.Busy()) != 0 {
		t.Fatalf("job still marked running")
	}
}

func TestMessageExpires(t *testing.T) {
	v := New(newSession(t, 4, 4))
	now := time.Unix(100, 0)
	v.now = func() time.Time { return now }
	v.say("hello")
	if v.statusMessage() != "hello" {
		t.Fatalf("message missing")
	}
	now = now.Add(messageDuration)
	if v.statusMessage() != "" {
		t.Fatalf("message did not expire")
	}
}

func TestToolbarAndHit(t *testing.T) {
	s := newSession(t, 4, 4)
	info := s.Info()
	spots := toolbar(info, s.Settings(), 0)
	i := hit(spots, spots[int(tool.Crop)].rect.Min.Add(image.Pt(1, 1)))
	if i != int(tool.Crop) || !strings.HasSuffix(spots[i].label, "crop") {
		t.Fatalf("hit = %d", i)
	}
	spots[i].do(New(s))
	if s.Tool() != tool.Crop {
		t.Fatalf("button did not select crop")
	}
	s.SetTool(tool.Adjust)
	adjust := toolbar(s.Info(), s.Settings(), 0)
	if len(adjust) <= len(spots) {
		t.Fatalf("adjust tool shows no sliders")
	}
}

func TestRenderWindowChrome(t *testing.T) {
	s := newSession(t, 50, 50)
	v := New(s)
	v.NotifyChanged()
	v.NotifyChanged()
	st := v.snapshot(320, 240, -1)
	dst := image.NewRGBA(image.Rect(0, 0, st.width, st.height))
	th := theme.Default()
	renderWindow(context.Background(), dst, th, st)
	if got := dst.RGBAAt(0, st.height-1); got != color.RGBA(th.StatusBackground) {
		t.Fatalf("status bar = %v", got)
	}
	if got := dst.RGBAAt(toolbarWidth-1, st.height-statusHeight-1); got != color.RGBA(th.ToolbarBackground) {
		t.Fatalf("toolbar = %v", got)
	}
	cr := newLayout(st.width, st.height, st.frame).canvasRect()
	if got := dst.RGBAAt(cr.Min.X+cr.Dx()/2, cr.Min.Y+cr.Dy()/2); got != (color.RGBA{255, 255, 255, 255}) {
		t.Fatalf("canvas = %v", got)
	}
	if !strings.Contains(statusText(st), "50x50") {
		t.Fatalf("status = %q", statusText(st))
	}
}
