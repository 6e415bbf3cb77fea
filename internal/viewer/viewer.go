// Package viewer is the interactive editor window. It forwards pointer and
// key events to a studio session and shows its frame.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/example/studio/internal/clipboard"
	"github.com/example/studio/internal/editstate"
	"github.com/example/studio/internal/imageio"
	"github.com/example/studio/internal/notify"
	"github.com/example/studio/internal/palette"
	"github.com/example/studio/internal/studio"
	"github.com/example/studio/internal/theme"
	"github.com/example/studio/internal/tool"
)

// messageDuration is how long a status message stays visible.
const messageDuration = 2 * time.Second

// Viewer holds the window state around a session.
type Viewer struct {
	sess     *studio.Session
	theme    *theme.Theme
	output   string
	format   imageio.Format
	quality  float64
	notifier *notify.Notifier
	prompt   string
	timeout  time.Duration
	onClose  func()
	now      func() time.Time

	updateCh  chan struct{}
	closeOnce sync.Once

	mu           sync.Mutex
	message      string
	messageUntil time.Time
	focus        int // index into editstate.Ranges for the adjust tool
	typed        string
	foreground   *imageio.Encoded
	running      map[string]bool
	jobs         sync.WaitGroup
	quit         bool
}

// Option modifies a Viewer during creation.
type Option func(*Viewer)

// WithTheme sets the chrome colors.
func WithTheme(t *theme.Theme) Option { return func(v *Viewer) { v.theme = t } }

// WithOutput sets the export path and format.
func WithOutput(path string, f imageio.Format, quality float64) Option {
	return func(v *Viewer) { v.output, v.format, v.quality = path, f, quality }
}

// WithNotifier sets the desktop notifier for exports and generation results.
func WithNotifier(n *notify.Notifier) Option { return func(v *Viewer) { v.notifier = n } }

// WithAnalyzePrompt sets the question asked by the analyze shortcut.
func WithAnalyzePrompt(p string) Option { return func(v *Viewer) { v.prompt = p } }

// WithRequestTimeout bounds every generation request.
func WithRequestTimeout(d time.Duration) Option { return func(v *Viewer) { v.timeout = d } }

// WithOnClose registers a callback for when the window closes.
func WithOnClose(fn func()) Option { return func(v *Viewer) { v.onClose = fn } }

// New creates a viewer for sess.
func New(sess *studio.Session, opts ...Option) *Viewer {
	v := &Viewer{
		sess:     sess,
		theme:    theme.Default(),
		output:   "edited.png",
		format:   imageio.PNG,
		quality:  0.92,
		prompt:   "Describe this image.",
		timeout:  2 * time.Minute,
		now:      time.Now,
		updateCh: make(chan struct{}, 1),
		running:  make(map[string]bool),
	}
	for _, o := range opts {
		o(v)
	}
	if v.theme == nil {
		v.theme = theme.Default()
	}
	return v
}

// NotifyChanged schedules a repaint. It never blocks and is safe on a nil
// viewer, so it can be handed to the session before the viewer exists.
func (v *Viewer) NotifyChanged() {
	if v == nil {
		return
	}
	select {
	case v.updateCh <- struct{}{}:
	default:
	}
}

func (v *Viewer) notifyClose() {
	v.closeOnce.Do(func() {
		v.sess.Close()
		if v.onClose != nil {
			v.onClose()
		}
	})
}

// say shows msg in the status bar for messageDuration.
func (v *Viewer) say(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Print(msg)
	v.mu.Lock()
	v.message = msg
	v.messageUntil = v.now().Add(messageDuration)
	v.mu.Unlock()
	v.NotifyChanged()
}

func (v *Viewer) statusMessage() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.message == "" || !v.now().Before(v.messageUntil) {
		return ""
	}
	return v.message
}

func (v *Viewer) dismissMessage() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.message == "" || !v.now().Before(v.messageUntil) {
		return false
	}
	v.messageUntil = time.Time{}
	return true
}

// Quitting reports whether the quit action was taken.
func (v *Viewer) Quitting() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.quit
}

// focused returns the adjustment edited by the arrow keys.
func (v *Viewer) focused() editstate.Range {
	v.mu.Lock()
	defer v.mu.Unlock()
	return editstate.Ranges[v.focus]
}

// Typing reports the text typed for a pending text placement.
func (v *Viewer) Typing() (string, bool) {
	info := v.sess.Info()
	if !info.HasPendingText {
		return "", false
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.typed, true
}

// runJob performs a generation request in the background. Only one job of
// each name runs at a time.
func (v *Viewer) runJob(name string, fn func(ctx context.Context) error) {
	v.mu.Lock()
	if v.running[name] {
		v.mu.Unlock()
		v.say("%s already running", name)
		return
	}
	v.running[name] = true
	v.mu.Unlock()
	v.say("%s…", name)
	v.jobs.Add(1)
	go func() {
		defer v.jobs.Done()
		ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
		err := fn(ctx)
		cancel()
		v.mu.Lock()
		delete(v.running, name)
		v.mu.Unlock()
		switch {
		case errors.Is(err, studio.ErrClosed):
			return
		case errors.Is(err, studio.ErrStale):
			v.say("%s discarded: image changed", name)
			return
		case err != nil:
			v.say("%s failed: %v", name, err)
		default:
			v.say("%s done", name)
		}
		var result image.Image
		if c := v.sess.Candidate(); c != nil {
			result = c
		}
		v.notifier.Generate(name, result, err)
	}()
}

// Busy lists running generation jobs.
func (v *Viewer) Busy() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	var out []string
	for name := range v.running {
		out = append(out, name)
	}
	return out
}

// wait blocks until background jobs have finished.
func (v *Viewer) wait() { v.jobs.Wait() }

func toolAction(t tool.Tool) Action { return Action("tool:" + t.String()) }

// Perform executes a command. It reports whether anything changed that
// needs a repaint.
func (v *Viewer) Perform(a Action) bool {
	info := v.sess.Info()
	if strings.HasPrefix(string(a), "tool:") {
		t, err := tool.Parse(strings.TrimPrefix(string(a), "tool:"))
		if err != nil {
			return false
		}
		v.mu.Lock()
		v.typed = ""
		v.mu.Unlock()
		v.sess.SetTool(t)
		return true
	}
	if strings.HasPrefix(string(a), "shape:") {
		k := editstate.ShapeKind(strings.TrimPrefix(string(a), "shape:"))
		if info.Tool != tool.Shape {
			return false
		}
		v.sess.SetShapeKind(k)
		v.say("shape: %s", k)
		return true
	}
	switch a {
	case ActQuit:
		v.mu.Lock()
		v.quit = true
		v.mu.Unlock()
		return false
	case ActUndo:
		if !v.sess.Undo() {
			v.say("nothing to undo")
		}
		return true
	case ActRedo:
		if !v.sess.Redo() {
			v.say("nothing to redo")
		}
		return true
	case ActExport:
		v.export()
		return true
	case ActCopy:
		img := v.sess.Composite()
		if img == nil {
			return false
		}
		if err := clipboard.CopyImage(img); err != nil {
			v.say("copy: %v", err)
		} else {
			v.say("copied image to clipboard")
		}
		return true
	case ActPaste:
		enc, err := clipboard.PasteImage()
		if err != nil {
			v.say("paste: %v", err)
			return true
		}
		v.mu.Lock()
		v.foreground = enc
		v.mu.Unlock()
		v.say("foreground ready; press Enter with the harmonize tool")
		return true
	case ActRotateLeft:
		v.sess.RotateLeft()
		return true
	case ActRotateRight:
		v.sess.RotateRight()
		return true
	case ActFlipH:
		v.sess.FlipH()
		return true
	case ActFlipV:
		v.sess.FlipV()
		return true
	case ActResetAdjust:
		v.sess.ResetAdjustments()
		return true
	case ActDelete:
		return v.sess.DeleteSelected()
	case ActConfirm:
		return v.confirm(info)
	case ActCancel:
		return v.cancel(info)
	case ActWider, ActNarrower:
		return v.stepWidth(info, a == ActWider)
	case ActUpscale:
		v.runJob("upscale", v.sess.Upscale)
		return true
	case ActSelectSubject:
		v.runJob("select subject", v.sess.SelectSubject)
		return true
	case ActRemoveBg:
		v.runJob("remove background", v.sess.RemoveBackground)
		return true
	case ActClearSubject:
		v.sess.ClearSubjectMask()
		return true
	case ActAnalyze:
		v.runJob("analyze", func(ctx context.Context) error {
			var sb strings.Builder
			err := v.sess.Analyze(ctx, v.prompt, func(s string) {
				sb.WriteString(s)
				v.say("%s", sb.String())
			})
			if err == nil && sb.Len() > 0 {
				if cerr := clipboard.CopyText(sb.String()); cerr != nil {
					log.Printf("copy analysis: %v", cerr)
				}
			}
			return err
		})
		return true
	case ActFocusNext, ActFocusPrev, ActIncrease, ActDecrease:
		return v.arrow(info, a)
	}
	return false
}

func (v *Viewer) confirm(info studio.Info) bool {
	if info.HasCandidate {
		v.sess.AcceptCandidate()
		v.say("result accepted")
		return true
	}
	if info.HasPendingText {
		v.mu.Lock()
		text := v.typed
		v.typed = ""
		v.mu.Unlock()
		v.sess.ConfirmText(text)
		return true
	}
	switch info.Tool {
	case tool.Crop:
		if !v.sess.ApplyCrop() {
			v.say("drag a crop rectangle inside the image first")
		}
		return true
	case tool.Remove:
		v.runJob("remove", v.sess.RemoveMasked)
		return true
	case tool.Harmonize:
		v.mu.Lock()
		fg := v.foreground
		v.mu.Unlock()
		v.runJob("harmonize", func(ctx context.Context) error { return v.sess.Harmonize(ctx, fg) })
		return true
	}
	return false
}

func (v *Viewer) cancel(info studio.Info) bool {
	switch {
	case info.HasCandidate:
		v.sess.DiscardCandidate()
		v.say("result discarded")
	case info.HasPendingText:
		v.mu.Lock()
		v.typed = ""
		v.mu.Unlock()
		v.sess.CancelText()
	case info.Tool == tool.Remove:
		v.sess.ClearMask()
	default:
		// Re-selecting the tool drops selection and crop.
		v.sess.SetTool(info.Tool)
	}
	return true
}

func (v *Viewer) stepWidth(info studio.Info, wider bool) bool {
	set := v.sess.Settings()
	step := 1
	if !wider {
		step = -1
	}
	switch info.Tool {
	case tool.Text:
		sizes := palette.TextSizes()
		i := nearest(sizes, set.TextSize) + step
		if i < 0 || i >= len(sizes) {
			return false
		}
		v.sess.SetTextSize(sizes[i])
	case tool.Remove:
		w := set.MaskWidth + float64(step)*4
		if w < 4 {
			return false
		}
		v.sess.SetMaskWidth(w)
	default:
		widths := palette.Widths()
		i := nearest(widths, set.Width) + step
		if i < 0 || i >= len(widths) {
			return false
		}
		v.sess.SetWidth(widths[i])
	}
	return true
}

func nearest(values []float64, x float64) int {
	best := 0
	for i, val := range values {
		if abs(val-x) < abs(values[best]-x) {
			best = i
		}
	}
	return best
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// arrow handles the arrow keys, which depend on the active tool.
func (v *Viewer) arrow(info studio.Info, a Action) bool {
	switch info.Tool {
	case tool.Adjust:
		v.mu.Lock()
		switch a {
		case ActFocusNext:
			v.focus = (v.focus + 1) % len(editstate.Ranges)
		case ActFocusPrev:
			v.focus = (v.focus + len(editstate.Ranges) - 1) % len(editstate.Ranges)
		}
		r := editstate.Ranges[v.focus]
		v.mu.Unlock()
		if a == ActIncrease || a == ActDecrease {
			cur, _ := info.Adjustments.Get(r.Name)
			step := (r.Max - r.Min) / 40
			if a == ActDecrease {
				step = -step
			}
			if err := v.sess.SetAdjustment(r.Name, cur+step); err != nil {
				v.say("%v", err)
			}
		}
		return true
	case tool.Transform:
		rot := v.sess.State().Transforms.Rotation
		switch a {
		case ActFocusNext, ActIncrease:
			v.sess.Rotate(rot + 15)
		default:
			v.sess.Rotate(rot - 15)
		}
		return true
	}
	return false
}

// Type feeds a printable rune to a pending text placement. It reports
// whether the rune was consumed.
func (v *Viewer) Type(r rune) bool {
	if _, ok := v.Typing(); !ok {
		return false
	}
	v.mu.Lock()
	v.typed += string(r)
	v.mu.Unlock()
	return true
}

// Backspace removes the last typed rune.
func (v *Viewer) Backspace() bool {
	if _, ok := v.Typing(); !ok {
		return false
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.typed == "" {
		return false
	}
	rs := []rune(v.typed)
	v.typed = string(rs[:len(rs)-1])
	return true
}

func (v *Viewer) export() {
	enc, err := v.sess.Export(v.format, v.quality)
	if err != nil {
		v.say("export: %v", err)
		return
	}
	path := imageio.EnsureExt(v.output, v.format)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			v.say("export: %v", err)
			return
		}
	}
	if err := imageio.WriteFile(path, enc); err != nil {
		v.say("export: %v", err)
		return
	}
	v.say("exported %s", path)
	v.notifier.Export(path)
}
