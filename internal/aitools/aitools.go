// Package aitools packages the canvas into requests for the generation
// service. Each action kind allows one request in flight.
package aitools

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/example/studio/internal/editstate"
	"github.com/example/studio/internal/genai"
	"github.com/example/studio/internal/imageio"
	"github.com/example/studio/internal/render"
)

var (
	ErrEmptyPrompt    = errors.New("prompt is empty")
	ErrNoMaskedRegion = errors.New("no region painted for removal")
	ErrNoSubjectMask  = errors.New("no subject mask; select the subject first")
	ErrNoForeground   = errors.New("no foreground image")
	ErrBusy           = errors.New("a request of this kind is already running")
)

// Action identifies a kind of request.
type Action string

const (
	Upscale          Action = "upscale"
	Harmonize        Action = "harmonize"
	RemoveMasked     Action = "remove"
	SelectSubject    Action = "select-subject"
	RemoveBackground Action = "remove-background"
	Submit           Action = "submit"
	GenerateText     Action = "text"
	Analyze          Action = "analyze"
)

// Instructions sent with the canvas for the fixed-prompt actions.
const (
	upscaleInstruction = "Upscale this image to a higher resolution. Sharpen fine detail and remove " +
		"compression artifacts without changing the content or composition."
	harmonizeInstruction = "The first image is a scene and the second is a foreground object. Place the " +
		"object into the scene and harmonize lighting, color, shadows and perspective so it looks native."
	removeMaskedInstruction = "The second image is a mask. Remove everything under the white area of the " +
		"mask from the first image and fill the region seamlessly with plausible surrounding content."
	selectSubjectInstruction = "Produce a black and white mask of this image: the main subject in solid " +
		"white, everything else in solid black. Same size as the input, no other content."
	removeBackgroundInstruction = "The second image is a subject mask. Keep only the white region of the " +
		"mask from the first image and make everything else fully transparent."
)

// Orchestrator issues generation requests. It holds no canvas state; the
// caller supplies the current composite with every call.
type Orchestrator struct {
	svc genai.Service

	mu   sync.Mutex
	busy map[Action]bool
}

// New returns an orchestrator for svc.
func New(svc genai.Service) *Orchestrator {
	return &Orchestrator{svc: svc, busy: make(map[Action]bool)}
}

// Busy reports whether a request of kind a is in flight.
func (o *Orchestrator) Busy(a Action) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.busy[a]
}

func (o *Orchestrator) begin(a Action) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.busy[a] {
		return fmt.Errorf("%s: %w", a, ErrBusy)
	}
	o.busy[a] = true
	return nil
}

func (o *Orchestrator) end(a Action) {
	o.mu.Lock()
	delete(o.busy, a)
	o.mu.Unlock()
}

func (o *Orchestrator) edit(ctx context.Context, a Action, prompt string, images ...*imageio.Encoded) (*imageio.Encoded, error) {
	if err := o.begin(a); err != nil {
		return nil, err
	}
	defer o.end(a)
	out, err := o.svc.EditOrCreate(ctx, prompt, images)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a, err)
	}
	return out, nil
}

func encodeCanvas(canvas image.Image) (*imageio.Encoded, error) {
	if canvas == nil {
		return nil, errors.New("no image loaded")
	}
	return imageio.EncodePNG(canvas)
}

// Upscale asks for a higher resolution rendition of canvas.
func (o *Orchestrator) Upscale(ctx context.Context, canvas image.Image) (*imageio.Encoded, error) {
	enc, err := encodeCanvas(canvas)
	if err != nil {
		return nil, err
	}
	return o.edit(ctx, Upscale, upscaleInstruction, enc)
}

// Harmonize blends foreground into canvas.
func (o *Orchestrator) Harmonize(ctx context.Context, canvas image.Image, foreground *imageio.Encoded) (*imageio.Encoded, error) {
	if foreground == nil {
		return nil, ErrNoForeground
	}
	enc, err := encodeCanvas(canvas)
	if err != nil {
		return nil, err
	}
	return o.edit(ctx, Harmonize, harmonizeInstruction, enc, foreground)
}

// RemoveMasked erases the painted region. Without mask strokes no request
// is made.
func (o *Orchestrator) RemoveMasked(ctx context.Context, canvas image.Image, mask []editstate.Path) (*imageio.Encoded, error) {
	if len(mask) == 0 {
		return nil, ErrNoMaskedRegion
	}
	enc, err := encodeCanvas(canvas)
	if err != nil {
		return nil, err
	}
	b := canvas.Bounds()
	m, err := imageio.EncodePNG(render.RenderMask(mask, b.Dx(), b.Dy()))
	if err != nil {
		return nil, err
	}
	return o.edit(ctx, RemoveMasked, removeMaskedInstruction, enc, m)
}

// SelectSubject asks for a black and white mask of the main subject.
func (o *Orchestrator) SelectSubject(ctx context.Context, canvas image.Image) (*imageio.Encoded, error) {
	enc, err := encodeCanvas(canvas)
	if err != nil {
		return nil, err
	}
	return o.edit(ctx, SelectSubject, selectSubjectInstruction, enc)
}

// RemoveBackground keeps only the subject marked by mask.
func (o *Orchestrator) RemoveBackground(ctx context.Context, canvas image.Image, mask *imageio.Encoded) (*imageio.Encoded, error) {
	if mask == nil {
		return nil, ErrNoSubjectMask
	}
	enc, err := encodeCanvas(canvas)
	if err != nil {
		return nil, err
	}
	return o.edit(ctx, RemoveBackground, removeBackgroundInstruction, enc, mask)
}

// Submit sends a free-form prompt with the given reference images.
func (o *Orchestrator) Submit(ctx context.Context, prompt string, images []*imageio.Encoded) (*imageio.Encoded, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}
	return o.edit(ctx, Submit, prompt, images...)
}

// GenerateText streams a text answer to prompt.
func (o *Orchestrator) GenerateText(ctx context.Context, prompt string, onFragment func(string)) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return ErrEmptyPrompt
	}
	if err := o.begin(GenerateText); err != nil {
		return err
	}
	defer o.end(GenerateText)
	if err := o.svc.GenerateTextStream(ctx, prompt, onFragment); err != nil {
		return fmt.Errorf("%s: %w", GenerateText, err)
	}
	return nil
}

// Analyze streams a description of canvas guided by prompt.
func (o *Orchestrator) Analyze(ctx context.Context, prompt string, canvas image.Image, onFragment func(string)) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return ErrEmptyPrompt
	}
	enc, err := encodeCanvas(canvas)
	if err != nil {
		return err
	}
	if err := o.begin(Analyze); err != nil {
		return err
	}
	defer o.end(Analyze)
	if err := o.svc.AnalyzeImageStream(ctx, prompt, enc, onFragment); err != nil {
		return fmt.Errorf("%s: %w", Analyze, err)
	}
	return nil
}
