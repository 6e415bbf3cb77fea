package genai

import (
	"context"
	"errors"
	"sync"

	"github.com/example/studio/internal/imageio"
)

// onePixelPNG is a 1x1 transparent PNG.
const onePixelPNG = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

// Call records one request made to a Mock.
type Call struct {
	Op     string
	Prompt string
	Images []*imageio.Encoded
}

// Mock is an in-memory Service for tests and offline runs.
type Mock struct {
	// Image is returned by EditOrCreate. A nil Image yields
	// ErrNoImageInResponse.
	Image *imageio.Encoded
	// Fragments are streamed by the text operations.
	Fragments []string
	// ShouldFail makes every call return a *ServiceError.
	ShouldFail  bool
	FailMessage string
	// Gate, when set, blocks every call until it is closed or receives.
	Gate chan struct{}

	mu    sync.Mutex
	calls []Call
}

var _ Service = (*Mock)(nil)

// NewMock returns a Mock that answers with a 1x1 image and the fragments
// "mock " and "response".
func NewMock() *Mock {
	img, err := imageio.Parse(onePixelPNG)
	if err != nil {
		panic(err)
	}
	return &Mock{Image: img, Fragments: []string{"mock ", "response"}}
}

// Calls returns the recorded requests.
func (m *Mock) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

func (m *Mock) record(ctx context.Context, c Call) error {
	m.mu.Lock()
	m.calls = append(m.calls, c)
	gate := m.Gate
	m.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return &ServiceError{Op: c.Op, Err: ctx.Err()}
		}
	}
	if m.ShouldFail {
		msg := m.FailMessage
		if msg == "" {
			msg = "mock service configured to fail"
		}
		return &ServiceError{Op: c.Op, Status: 500, Err: errors.New(msg)}
	}
	return nil
}

// EditOrCreate implements Service.
func (m *Mock) EditOrCreate(ctx context.Context, prompt string, images []*imageio.Encoded) (*imageio.Encoded, error) {
	if err := m.record(ctx, Call{Op: "edit", Prompt: prompt, Images: compact(images)}); err != nil {
		return nil, err
	}
	if m.Image == nil {
		return nil, ErrNoImageInResponse
	}
	return &imageio.Encoded{MIME: m.Image.MIME, Data: append([]byte(nil), m.Image.Data...)}, nil
}

// GenerateTextStream implements Service.
func (m *Mock) GenerateTextStream(ctx context.Context, prompt string, onFragment func(string)) error {
	if err := m.record(ctx, Call{Op: "text", Prompt: prompt}); err != nil {
		return err
	}
	m.emit(onFragment)
	return nil
}

// AnalyzeImageStream implements Service.
func (m *Mock) AnalyzeImageStream(ctx context.Context, prompt string, image *imageio.Encoded, onFragment func(string)) error {
	if err := m.record(ctx, Call{Op: "analyze", Prompt: prompt, Images: compact([]*imageio.Encoded{image})}); err != nil {
		return err
	}
	m.emit(onFragment)
	return nil
}

func (m *Mock) emit(onFragment func(string)) {
	if onFragment == nil {
		return
	}
	for _, f := range m.Fragments {
		onFragment(f)
	}
}
