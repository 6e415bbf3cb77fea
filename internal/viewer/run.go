package viewer

import (
	"context"
	"image"
	"log"
	"sync"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"
)

// frameDropThreshold specifies how many consecutive frames can be canceled
// before a draw is allowed to complete to keep the UI responsive.
const frameDropThreshold = 10

const (
	maxWindowW = 1600
	maxWindowH = 1000
	minWindowW = 640
	minWindowH = 480
)

// Run executes the UI loop using shiny's driver.
func (v *Viewer) Run() { driver.Main(v.Main) }

// snapshot captures the session for one frame.
func (v *Viewer) snapshot(width, height, hover int) paintState {
	info := v.sess.Info()
	set := v.sess.Settings()
	v.mu.Lock()
	focus := v.focus
	typed := v.typed
	v.mu.Unlock()
	st := paintState{
		width:    width,
		height:   height,
		frame:    v.sess.Frame(),
		info:     info,
		settings: set,
		spots:    toolbar(info, set, focus),
		hover:    hover,
		message:  v.statusMessage(),
		typed:    typed,
		typing:   info.HasPendingText,
		busy:     v.Busy(),
	}
	if c := v.sess.Candidate(); c != nil {
		st.frame = c
		st.candidate = true
	}
	return st
}

func windowSize(frame image.Image) (int, int) {
	w, h := minWindowW, minWindowH
	if frame != nil {
		w = frame.Bounds().Dx() + toolbarWidth
		h = frame.Bounds().Dy() + statusHeight
	}
	return min(max(w, minWindowW), maxWindowW), min(max(h, minWindowH), maxWindowH)
}

func (v *Viewer) Main(s screen.Screen) {
	width, height := windowSize(v.sess.Frame())
	w, err := s.NewWindow(&screen.NewWindowOptions{Width: width, Height: height, Title: "Studio"})
	if err != nil {
		log.Printf("new window: %v", err)
		return
	}
	defer w.Release()
	defer v.notifyClose()

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-v.updateCh:
				w.Send(paint.Event{})
			case <-done:
				return
			}
		}
	}()
	defer close(done)

	var paintMu sync.Mutex
	var paintCancel context.CancelFunc
	var dropCount int
	paintCh := make(chan paintState, 1)
	go func() {
		for st := range paintCh {
			ctx, cancel := context.WithCancel(context.Background())
			paintMu.Lock()
			paintCancel = cancel
			paintMu.Unlock()
			drawFrame(ctx, s, w, v, st)
			paintMu.Lock()
			if ctx.Err() == nil {
				dropCount = 0
			}
			paintCancel = nil
			paintMu.Unlock()
			cancel()
		}
	}()
	defer close(paintCh)
	stopPaint := func() {
		paintMu.Lock()
		if paintCancel != nil {
			paintCancel()
		}
		paintMu.Unlock()
	}

	hover := -1
	dragging := false
	var lay layout
	var spots []hotspot

	for {
		switch e := w.NextEvent().(type) {
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				stopPaint()
				return
			}
		case size.Event:
			width, height = e.WidthPx, e.HeightPx
			w.Send(paint.Event{})
		case paint.Event:
			paintMu.Lock()
			if paintCancel != nil && dropCount < frameDropThreshold {
				paintCancel()
				dropCount++
			}
			paintMu.Unlock()
			st := v.snapshot(width, height, hover)
			lay = newLayout(width, height, st.frame)
			spots = st.spots
			select {
			case paintCh <- st:
			default:
				select {
				case <-paintCh:
				default:
				}
				paintCh <- st
			}
		case mouse.Event:
			p := image.Pt(int(e.X), int(e.Y))
			if e.Direction == mouse.DirPress && v.dismissMessage() {
				w.Send(paint.Event{})
			}
			if !dragging && p.X < toolbarWidth {
				h := hit(spots, p)
				if h != hover {
					hover = h
					w.Send(paint.Event{})
				}
				if e.Button == mouse.ButtonLeft && e.Direction == mouse.DirPress && h >= 0 {
					spots[h].do(v)
					w.Send(paint.Event{})
				}
				continue
			}
			if hover != -1 {
				hover = -1
				w.Send(paint.Event{})
			}
			if e.Button != mouse.ButtonLeft && e.Button != mouse.ButtonNone {
				continue
			}
			if v.sess.Candidate() != nil {
				continue
			}
			cp := lay.toCanvas(e.X, e.Y)
			inside := p.In(lay.canvasRect())
			switch e.Direction {
			case mouse.DirPress:
				if inside {
					v.mu.Lock()
					v.typed = ""
					v.mu.Unlock()
					v.sess.PointerDown(cp)
					dragging = true
				}
			case mouse.DirRelease:
				if dragging {
					v.sess.PointerUp()
					dragging = false
				}
			case mouse.DirNone:
				if !dragging {
					continue
				}
				if !inside {
					v.sess.PointerLeave()
					dragging = false
					continue
				}
				v.sess.PointerMove(cp)
			}
		case key.Event:
			if e.Direction != key.DirPress {
				continue
			}
			if v.handleKey(e) {
				w.Send(paint.Event{})
			}
			if v.Quitting() {
				stopPaint()
				return
			}
		}
	}
}

// handleKey applies a key press. Text entry swallows printable keys.
func (v *Viewer) handleKey(e key.Event) bool {
	if _, typing := v.Typing(); typing && e.Modifiers&key.ModControl == 0 {
		switch e.Code {
		case key.CodeDeleteBackspace:
			return v.Backspace()
		case key.CodeReturnEnter:
			return v.Perform(ActConfirm)
		case key.CodeEscape:
			return v.Perform(ActCancel)
		}
		if e.Rune > 0 {
			return v.Type(e.Rune)
		}
		return false
	}
	a, ok := lookup(e)
	if !ok {
		return false
	}
	return v.Perform(a)
}

func drawFrame(ctx context.Context, s screen.Screen, w screen.Window, v *Viewer, st paintState) {
	b, err := s.NewBuffer(image.Point{st.width, st.height})
	if err != nil {
		log.Printf("new buffer: %v", err)
		return
	}
	defer b.Release()

	renderWindow(ctx, b.RGBA(), v.theme, st)
	if ctx.Err() != nil {
		return
	}
	w.Upload(image.Point{}, b, b.Bounds())
	w.Publish()
}
