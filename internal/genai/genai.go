// Package genai is the contract with the remote generation service and its
// backends.
package genai

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/studio/internal/imageio"
)

// Service generates and edits images and streams text.
type Service interface {
	// EditOrCreate sends the non-nil images in order followed by the
	// prompt and returns the generated image.
	EditOrCreate(ctx context.Context, prompt string, images []*imageio.Encoded) (*imageio.Encoded, error)
	// GenerateTextStream calls onFragment for every text fragment in
	// arrival order and returns when the stream ends.
	GenerateTextStream(ctx context.Context, prompt string, onFragment func(string)) error
	// AnalyzeImageStream is GenerateTextStream with one reference image.
	AnalyzeImageStream(ctx context.Context, prompt string, image *imageio.Encoded, onFragment func(string)) error
}

// ErrNoImageInResponse is returned when the service answered without an
// image payload.
var ErrNoImageInResponse = errors.New("no image in response")

// ServiceError reports a transport or API failure.
type ServiceError struct {
	Op     string
	Status int
	Err    error
}

func (e *ServiceError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: service returned %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// compact drops nil images, keeping order.
func compact(images []*imageio.Encoded) []*imageio.Encoded {
	out := make([]*imageio.Encoded, 0, len(images))
	for _, img := range images {
		if img != nil {
			out = append(out, img)
		}
	}
	return out
}
