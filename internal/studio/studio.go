// Package studio is the editing session: it owns the source image, the
// live edit state, its history and the active tool, and re-renders the
// frame after every mutation. Shells drive it through Commands.
package studio

import (
	"context"
	"errors"
	"image"
	"image/draw"
	"math"
	"sync"
	"time"

	"github.com/example/studio/internal/aitools"
	"github.com/example/studio/internal/editstate"
	"github.com/example/studio/internal/genai"
	"github.com/example/studio/internal/geom"
	"github.com/example/studio/internal/history"
	"github.com/example/studio/internal/imageio"
	"github.com/example/studio/internal/palette"
	"github.com/example/studio/internal/render"
	"github.com/example/studio/internal/theme"
	"github.com/example/studio/internal/tool"
)

var (
	// ErrNoImage is returned by operations that need a loaded image.
	ErrNoImage = errors.New("no image loaded")
	// ErrNoService is returned by AI commands when no generation service
	// is configured.
	ErrNoService = errors.New("no generation service configured")
	// ErrClosed is returned when a result arrives after Close.
	ErrClosed = errors.New("session closed")
	// ErrStale is returned when the source image was replaced while a
	// request was running.
	ErrStale = errors.New("source image changed during the request")
)

// Session is safe for concurrent use. Every method serializes on one
// mutex, which the debounce timer also takes before committing.
type Session struct {
	mu sync.Mutex

	src      *image.RGBA
	live     editstate.State
	history  *history.History
	debounce *history.Debouncer
	ctrl     *tool.Controller
	renderer *render.Renderer
	ai       *aitools.Orchestrator

	subjectMask    image.Image
	subjectMaskEnc *imageio.Encoded
	candidate      *image.RGBA
	frame          *image.RGBA
	closed         bool
	// gen counts source replacements.
	gen uint64

	onChange func()
}

type settings struct {
	window   time.Duration
	limit    int
	clock    history.Clock
	theme    *theme.Theme
	svc      genai.Service
	onChange func()
	tool     []tool.Option
}

// Option configures a Session.
type Option func(*settings)

// WithDebounceWindow sets the quiet period for slider commits.
func WithDebounceWindow(d time.Duration) Option { return func(s *settings) { s.window = d } }

// WithHistoryLimit caps the number of history entries.
func WithHistoryLimit(n int) Option { return func(s *settings) { s.limit = n } }

// WithClock replaces the wall clock used by the debouncer.
func WithClock(c history.Clock) Option { return func(s *settings) { s.clock = c } }

// WithTheme sets the overlay colors.
func WithTheme(t *theme.Theme) Option { return func(s *settings) { s.theme = t } }

// WithService enables the AI commands.
func WithService(svc genai.Service) Option { return func(s *settings) { s.svc = svc } }

// WithOnChange registers a callback run, without the session lock held,
// whenever the frame or the history changes.
func WithOnChange(fn func()) Option { return func(s *settings) { s.onChange = fn } }

// WithToolOptions configures the tool controller.
func WithToolOptions(opts ...tool.Option) Option {
	return func(s *settings) { s.tool = append(s.tool, opts...) }
}

// New returns an empty session.
func New(opts ...Option) *Session {
	cfg := settings{window: history.DefaultWindow, limit: history.DefaultLimit, clock: history.SystemClock}
	for _, o := range opts {
		o(&cfg)
	}
	th := cfg.theme
	if th == nil {
		th = theme.Default()
	}
	s := &Session{
		live:     editstate.Initial(),
		ctrl:     tool.NewController(append([]tool.Option{tool.WithMaskColor(th.MaskBrush)}, cfg.tool...)...),
		renderer: render.New(render.WithTheme(th)),
		onChange: cfg.onChange,
	}
	s.history = history.New(s.live, cfg.limit)
	s.debounce = history.NewDebouncer(cfg.window, s.debounceExpired, history.WithClock(cfg.clock))
	if cfg.svc != nil {
		s.ai = aitools.New(cfg.svc)
	}
	return s
}

func (s *Session) debounceExpired() {
	s.mu.Lock()
	st, ok := s.debounce.Take()
	if ok {
		s.history.Commit(st)
	}
	s.mu.Unlock()
	if ok {
		s.changed()
	}
}

func (s *Session) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}

// update runs fn under the lock and notifies listeners afterwards.
func (s *Session) update(fn func() bool) bool {
	s.mu.Lock()
	ok := fn()
	s.mu.Unlock()
	if ok {
		s.changed()
	}
	return ok
}

// redraw recomputes the frame. Callers hold s.mu.
func (s *Session) redraw() {
	if s.src == nil {
		s.frame = nil
		return
	}
	ov := s.ctrl.Overlays(s.live)
	ov.SubjectMask = s.subjectMask
	s.frame = s.renderer.Render(s.src, s.live, ov)
}

// commit flushes a pending debounced state and records st. Callers hold s.mu.
func (s *Session) commit(st editstate.State) {
	if pending, ok := s.debounce.Take(); ok {
		s.history.Commit(pending)
	}
	s.live = st
	s.history.Commit(st)
}

func (s *Session) apply(st editstate.State, eff tool.Effect) bool {
	if eff.Has(tool.Commit) {
		s.commit(st)
	} else {
		s.live = st
	}
	if eff.Has(tool.Redraw) {
		s.redraw()
	}
	return eff != 0
}

// loadSource replaces the source and resets everything else. Callers hold s.mu.
func (s *Session) loadSource(img image.Image) {
	s.src = imageio.ToRGBA(img)
	s.gen++
	s.live = editstate.Initial()
	s.debounce.Cancel()
	s.history.Reset(s.live)
	s.ctrl.Reset()
	s.subjectMask = nil
	s.subjectMaskEnc = nil
	s.candidate = nil
	s.redraw()
}

// Load decodes enc and makes it the new source image.
func (s *Session) Load(enc *imageio.Encoded) error {
	img, err := enc.Decode()
	if err != nil {
		return err
	}
	s.LoadImage(img)
	return nil
}

// LoadImage makes img the new source image and resets the session.
func (s *Session) LoadImage(img image.Image) {
	s.update(func() bool {
		s.loadSource(img)
		return true
	})
}

// Source returns the current source image.
func (s *Session) Source() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src
}

// State returns a copy of the live edit state.
func (s *Session) State() editstate.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live.Clone()
}

// Apply replaces the live state and commits it, as a scripted edit.
func (s *Session) Apply(st editstate.State) {
	s.update(func() bool {
		st = st.WithAdjustments(st.Adjustments).WithTransforms(st.Transforms)
		s.commit(st)
		s.ctrl.Sync(s.live)
		s.redraw()
		return true
	})
}

// Frame returns the latest render including editing overlays.
func (s *Session) Frame() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

// Composite renders the live state without overlays.
func (s *Session) Composite() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.compositeLocked()
}

func (s *Session) compositeLocked() *image.RGBA {
	if s.src == nil {
		return nil
	}
	return s.renderer.Composite(s.src, s.live)
}

// Tool returns the active tool.
func (s *Session) Tool() tool.Tool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.Tool()
}

// SetTool activates t. An open gesture is closed first as if released.
func (s *Session) SetTool(t tool.Tool) {
	s.update(func() bool {
		st, eff := s.ctrl.PointerUp(s.live)
		s.apply(st, eff)
		s.ctrl.SetTool(t)
		s.redraw()
		return true
	})
}

// Settings returns the drawing settings of the tool controller.
func (s *Session) Settings() tool.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.Settings()
}

func (s *Session) setting(fn func(c *tool.Controller)) {
	s.mu.Lock()
	fn(s.ctrl)
	s.mu.Unlock()
}

func (s *Session) SetColor(c palette.Color)           { s.setting(func(t *tool.Controller) { t.SetColor(c) }) }
func (s *Session) SetWidth(w float64)                 { s.setting(func(t *tool.Controller) { t.SetWidth(w) }) }
func (s *Session) SetTextSize(size float64)           { s.setting(func(t *tool.Controller) { t.SetTextSize(size) }) }
func (s *Session) SetOutline(o *editstate.Outline)    { s.setting(func(t *tool.Controller) { t.SetOutline(o) }) }
func (s *Session) SetShapeKind(k editstate.ShapeKind) { s.setting(func(t *tool.Controller) { t.SetShapeKind(k) }) }
func (s *Session) SetMaskWidth(w float64)             { s.setting(func(t *tool.Controller) { t.SetMaskWidth(w) }) }

// PointerDown forwards a press at p, in canvas pixels.
func (s *Session) PointerDown(p geom.Point) {
	s.update(func() bool {
		if s.src == nil {
			return false
		}
		st, eff := s.ctrl.PointerDown(s.live, p)
		return s.apply(st, eff)
	})
}

// PointerMove forwards a drag to p, in canvas pixels.
func (s *Session) PointerMove(p geom.Point) {
	s.update(func() bool {
		st, eff := s.ctrl.PointerMove(s.live, p)
		return s.apply(st, eff)
	})
}

// PointerUp closes the open gesture.
func (s *Session) PointerUp() {
	s.update(func() bool {
		st, eff := s.ctrl.PointerUp(s.live)
		return s.apply(st, eff)
	})
}

// PointerLeave closes the open gesture as if released.
func (s *Session) PointerLeave() {
	s.update(func() bool {
		st, eff := s.ctrl.PointerLeave(s.live)
		return s.apply(st, eff)
	})
}

// ConfirmText places text at the pending insertion point.
func (s *Session) ConfirmText(text string) bool {
	return s.update(func() bool {
		st, eff := s.ctrl.ConfirmText(s.live, text)
		return s.apply(st, eff)
	})
}

// CancelText drops the pending insertion point.
func (s *Session) CancelText() {
	s.update(func() bool {
		return s.apply(s.live, s.ctrl.CancelText())
	})
}

// DeleteSelected removes the selected element.
func (s *Session) DeleteSelected() bool {
	return s.update(func() bool {
		st, eff := s.ctrl.DeleteSelected(s.live)
		return s.apply(st, eff)
	})
}

// ClearMask removes the removal-mask strokes.
func (s *Session) ClearMask() {
	s.update(func() bool {
		return s.apply(s.live, s.ctrl.ClearMask())
	})
}

// SetCropRect replaces the crop rectangle while the crop tool is active.
func (s *Session) SetCropRect(r geom.Rect) {
	s.update(func() bool {
		s.ctrl.SetCropRect(r)
		s.redraw()
		return true
	})
}

// SetAdjustment updates one adjustment for live preview. The history entry
// is committed once the debounce window passes without further changes.
func (s *Session) SetAdjustment(name string, v float64) error {
	var err error
	s.update(func() bool {
		var a editstate.Adjustments
		a, err = s.live.Adjustments.Set(name, v)
		if err != nil {
			return false
		}
		s.live = s.live.WithAdjustments(a)
		// Only committed content is scheduled; an open stroke commits on release.
		s.debounce.Schedule(s.history.Current().WithAdjustments(a))
		s.redraw()
		return true
	})
	return err
}

// ResetAdjustments restores neutral adjustments and commits immediately.
func (s *Session) ResetAdjustments() {
	s.update(func() bool {
		s.commit(s.live.WithAdjustments(editstate.DefaultAdjustments()))
		s.redraw()
		return true
	})
}

func (s *Session) transform(fn func(editstate.Transforms) editstate.Transforms) {
	s.update(func() bool {
		s.commit(s.live.WithTransforms(fn(s.live.Transforms)))
		s.redraw()
		return true
	})
}

func (s *Session) RotateLeft()  { s.transform(editstate.Transforms.RotateLeft) }
func (s *Session) RotateRight() { s.transform(editstate.Transforms.RotateRight) }
func (s *Session) FlipH()       { s.transform(editstate.Transforms.ToggleFlipH) }
func (s *Session) FlipV()       { s.transform(editstate.Transforms.ToggleFlipV) }

// Rotate sets an arbitrary rotation in degrees.
func (s *Session) Rotate(deg float64) {
	s.transform(func(t editstate.Transforms) editstate.Transforms {
		t.Rotation = deg
		return t.Normalized()
	})
}

// Undo steps back one history entry. A pending debounced commit is
// recorded first so it can be undone like any other.
func (s *Session) Undo() bool {
	return s.update(func() bool {
		s.debounce.Flush(s.history)
		st, ok := s.history.Undo()
		if !ok {
			return false
		}
		s.restore(st)
		return true
	})
}

// Redo steps forward one history entry.
func (s *Session) Redo() bool {
	return s.update(func() bool {
		s.debounce.Flush(s.history)
		st, ok := s.history.Redo()
		if !ok {
			return false
		}
		s.restore(st)
		return true
	})
}

func (s *Session) restore(st editstate.State) {
	s.live = st
	s.ctrl.Sync(s.live)
	s.redraw()
}

// cropSlack is how far a crop rectangle may overhang the image, in pixels,
// before it counts as out of bounds.
const cropSlack = 0.5

// ApplyCrop replaces the source with the composite restricted to the crop
// rectangle. Empty rectangles and rectangles reaching outside the image are
// ignored.
func (s *Session) ApplyCrop() bool {
	return s.update(func() bool {
		if s.src == nil {
			return false
		}
		r, ok := s.ctrl.CropRect()
		if !ok {
			return false
		}
		comp := s.compositeLocked()
		b := comp.Bounds()
		w, h := float64(b.Dx()), float64(b.Dy())
		if r.X < -cropSlack || r.Y < -cropSlack || r.X+r.W > w+cropSlack || r.Y+r.H > h+cropSlack {
			return false
		}
		r = r.Intersect(w, h)
		px := image.Rect(
			int(math.Round(r.X)), int(math.Round(r.Y)),
			int(math.Round(r.X+r.W)), int(math.Round(r.Y+r.H)),
		).Intersect(b)
		if px.Empty() {
			return false
		}
		out := image.NewRGBA(image.Rect(0, 0, px.Dx(), px.Dy()))
		draw.Draw(out, out.Bounds(), comp, px.Min, draw.Src)
		s.loadSource(out)
		return true
	})
}

// Export encodes the composite in the given format.
func (s *Session) Export(f imageio.Format, quality float64) (*imageio.Encoded, error) {
	img := s.Composite()
	if img == nil {
		return nil, ErrNoImage
	}
	return imageio.Encode(img, f, quality)
}

// Info summarizes the session for status displays.
type Info struct {
	Tool           tool.Tool
	Width, Height  int
	HistoryIndex   int
	HistoryLen     int
	CanUndo        bool
	CanRedo        bool
	Pending        bool
	Selection      editstate.Ref
	HasCandidate   bool
	HasSubjectMask bool
	// TextAnchor is where typed text will be placed while HasPendingText.
	TextAnchor     geom.Point
	HasPendingText bool
	Adjustments    editstate.Adjustments
}

// Info returns a snapshot of the session status.
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	in := Info{
		Tool:           s.ctrl.Tool(),
		HistoryIndex:   s.history.Index(),
		HistoryLen:     s.history.Len(),
		CanUndo:        s.history.CanUndo() || s.debounce.Pending(),
		CanRedo:        s.history.CanRedo() && !s.debounce.Pending(),
		Pending:        s.debounce.Pending(),
		Selection:      s.ctrl.Selection(),
		HasCandidate:   s.candidate != nil,
		HasSubjectMask: s.subjectMask != nil,
		Adjustments:    s.live.Adjustments,
	}
	in.TextAnchor, in.HasPendingText = s.ctrl.PendingText()
	if s.frame != nil {
		in.Width, in.Height = s.frame.Bounds().Dx(), s.frame.Bounds().Dy()
	}
	return in
}

// Close commits any pending state and discards AI results that arrive
// later.
func (s *Session) Close() {
	s.mu.Lock()
	s.debounce.Flush(s.history)
	s.closed = true
	s.mu.Unlock()
}

// canvas snapshots the composite for an AI request along with the source
// generation it was taken from.
func (s *Session) canvas() (*image.RGBA, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, 0, ErrClosed
	}
	if s.ai == nil {
		return nil, 0, ErrNoService
	}
	c := s.compositeLocked()
	if c == nil {
		return nil, 0, ErrNoImage
	}
	return c, s.gen, nil
}

// current reports whether results for gen may still be applied. Callers
// hold s.mu.
func (s *Session) current(gen uint64) error {
	switch {
	case s.closed:
		return ErrClosed
	case s.gen != gen:
		return ErrStale
	}
	return nil
}

var _ Commands = (*Session)(nil)

// Commands is the capability surface offered to shells.
type Commands interface {
	Load(enc *imageio.Encoded) error
	LoadImage(img image.Image)
	SetTool(t tool.Tool)
	PointerDown(p geom.Point)
	PointerMove(p geom.Point)
	PointerUp()
	PointerLeave()
	ConfirmText(text string) bool
	CancelText()
	SetAdjustment(name string, v float64) error
	RotateLeft()
	RotateRight()
	FlipH()
	FlipV()
	Undo() bool
	Redo() bool
	ApplyCrop() bool
	DeleteSelected() bool
	ClearMask()
	Export(f imageio.Format, quality float64) (*imageio.Encoded, error)
	Frame() *image.RGBA
	Composite() *image.RGBA
	Info() Info

	Upscale(ctx context.Context) error
	Harmonize(ctx context.Context, foreground *imageio.Encoded) error
	RemoveMasked(ctx context.Context) error
	SelectSubject(ctx context.Context) error
	RemoveBackground(ctx context.Context) error
	Submit(ctx context.Context, prompt string, extra ...*imageio.Encoded) error
	GenerateText(ctx context.Context, prompt string, onFragment func(string)) error
	Analyze(ctx context.Context, prompt string, onFragment func(string)) error
	Candidate() *image.RGBA
	AcceptCandidate() bool
	DiscardCandidate() bool
}
