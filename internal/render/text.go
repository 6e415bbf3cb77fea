package render

import (
	"fmt"
	"math"
	"sync"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	fontOnce   sync.Once
	fontSource *text.FontSource
	fontErr    error
	faces      sync.Map // map[float64]text.Face
)

func loadFont() {
	fontSource, fontErr = text.NewFontSource(goregular.TTF)
}

// faceForSize returns a cached face of the Go Regular font.
func faceForSize(size float64) (text.Face, error) {
	if size <= 0 || math.IsNaN(size) {
		size = 12
	}
	fontOnce.Do(loadFont)
	if fontErr != nil {
		return nil, fmt.Errorf("text font not initialised: %w", fontErr)
	}
	if f, ok := faces.Load(size); ok {
		return f.(text.Face), nil
	}
	f := fontSource.Face(size)
	faces.Store(size, f)
	return f, nil
}

// MeasureText returns the advance width and line height of s at size.
func MeasureText(s string, size float64) (width, height float64, err error) {
	face, err := faceForSize(size)
	if err != nil {
		return 0, 0, err
	}
	m := face.Metrics()
	return face.Advance(s), m.Ascent + m.Descent, nil
}
