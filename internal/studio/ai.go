package studio

import (
	"context"
	"fmt"
	"image"
	"log"

	"github.com/example/studio/internal/imageio"
)

// offer decodes an AI result and holds it as the candidate replacement.
// Results for a source that has since been replaced are dropped.
func (s *Session) offer(enc *imageio.Encoded, gen uint64) error {
	img, err := enc.DecodeRGBA()
	if err != nil {
		return fmt.Errorf("result: %w", err)
	}
	var stale error
	s.update(func() bool {
		if stale = s.current(gen); stale != nil {
			return false
		}
		s.candidate = img
		return true
	})
	if stale != nil {
		log.Printf("studio: dropping result: %v", stale)
	}
	return stale
}

// Upscale requests a higher resolution candidate of the composite.
func (s *Session) Upscale(ctx context.Context) error {
	c, gen, err := s.canvas()
	if err != nil {
		return err
	}
	out, err := s.ai.Upscale(ctx, c)
	if err != nil {
		return err
	}
	return s.offer(out, gen)
}

// Harmonize requests a candidate with foreground blended into the composite.
func (s *Session) Harmonize(ctx context.Context, foreground *imageio.Encoded) error {
	c, gen, err := s.canvas()
	if err != nil {
		return err
	}
	out, err := s.ai.Harmonize(ctx, c, foreground)
	if err != nil {
		return err
	}
	return s.offer(out, gen)
}

// RemoveMasked requests a candidate with the painted region erased.
func (s *Session) RemoveMasked(ctx context.Context) error {
	c, gen, err := s.canvas()
	if err != nil {
		return err
	}
	s.mu.Lock()
	mask := s.ctrl.MaskPaths()
	s.mu.Unlock()
	out, err := s.ai.RemoveMasked(ctx, c, mask)
	if err != nil {
		return err
	}
	return s.offer(out, gen)
}

// SelectSubject stores a subject mask drawn over the frame.
func (s *Session) SelectSubject(ctx context.Context) error {
	c, gen, err := s.canvas()
	if err != nil {
		return err
	}
	out, err := s.ai.SelectSubject(ctx, c)
	if err != nil {
		return err
	}
	mask, err := out.Decode()
	if err != nil {
		return fmt.Errorf("subject mask: %w", err)
	}
	var stale error
	s.update(func() bool {
		if stale = s.current(gen); stale != nil {
			return false
		}
		s.subjectMask = mask
		s.subjectMaskEnc = out
		s.redraw()
		return true
	})
	return stale
}

// ClearSubjectMask drops the subject mask.
func (s *Session) ClearSubjectMask() {
	s.update(func() bool {
		if s.subjectMask == nil {
			return false
		}
		s.subjectMask, s.subjectMaskEnc = nil, nil
		s.redraw()
		return true
	})
}

// RemoveBackground requests a candidate keeping only the masked subject.
func (s *Session) RemoveBackground(ctx context.Context) error {
	c, gen, err := s.canvas()
	if err != nil {
		return err
	}
	s.mu.Lock()
	mask := s.subjectMaskEnc
	s.mu.Unlock()
	out, err := s.ai.RemoveBackground(ctx, c, mask)
	if err != nil {
		return err
	}
	return s.offer(out, gen)
}

// Submit sends prompt with the composite followed by extra references.
func (s *Session) Submit(ctx context.Context, prompt string, extra ...*imageio.Encoded) error {
	c, gen, err := s.canvas()
	if err != nil {
		return err
	}
	enc, err := imageio.EncodePNG(c)
	if err != nil {
		return err
	}
	out, err := s.ai.Submit(ctx, prompt, append([]*imageio.Encoded{enc}, extra...))
	if err != nil {
		return err
	}
	return s.offer(out, gen)
}

// GenerateText streams a text answer. It needs no image.
func (s *Session) GenerateText(ctx context.Context, prompt string, onFragment func(string)) error {
	s.mu.Lock()
	ai, closed := s.ai, s.closed
	s.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if ai == nil {
		return ErrNoService
	}
	return ai.GenerateText(ctx, prompt, onFragment)
}

// Analyze streams a description of the composite.
func (s *Session) Analyze(ctx context.Context, prompt string, onFragment func(string)) error {
	c, _, err := s.canvas()
	if err != nil {
		return err
	}
	return s.ai.Analyze(ctx, prompt, c, onFragment)
}

// Candidate returns the pending AI result, if any.
func (s *Session) Candidate() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.candidate
}

// AcceptCandidate makes the candidate the new source and resets the session.
func (s *Session) AcceptCandidate() bool {
	return s.update(func() bool {
		if s.candidate == nil {
			return false
		}
		s.loadSource(s.candidate)
		return true
	})
}

// DiscardCandidate drops the candidate without touching anything else.
func (s *Session) DiscardCandidate() bool {
	return s.update(func() bool {
		if s.candidate == nil {
			return false
		}
		s.candidate = nil
		return true
	})
}
