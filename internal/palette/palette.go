// Package palette provides the named drawing colors, stroke widths and text
// sizes offered by the editor, plus the color value used across edit state.
package palette

import (
	"fmt"
	"image/color"
	"sort"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/image/colornames"
)

// Color is an sRGB color that serializes as a hex string.
type Color color.RGBA

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) { return color.RGBA(c).RGBA() }

// Hex returns #RRGGBB for opaque colors and #RRGGBBAA otherwise.
func (c Color) Hex() string {
	if c.A == 255 {
		return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02X%02X%02X%02X", c.R, c.G, c.B, c.A)
}

func (c Color) String() string { return c.Hex() }

// MarshalText implements encoding.TextMarshaler.
func (c Color) MarshalText() ([]byte, error) { return []byte(c.Hex()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Color) UnmarshalText(b []byte) error {
	col, err := ParseColor(string(b))
	if err != nil {
		return err
	}
	*c = col
	return nil
}

// ParseColor accepts #RRGGBB, #RRGGBBAA or an SVG color name such as "red".
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		if named, ok := colornames.Map[strings.ToLower(s)]; ok {
			return Color(named), nil
		}
		return Color{}, fmt.Errorf("unknown color %q", s)
	}
	hex := strings.TrimPrefix(s, "#")
	switch len(hex) {
	case 6:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return Color{}, err
		}
		return Color{R: uint8(val >> 16), G: uint8(val >> 8), B: uint8(val), A: 255}, nil
	case 8:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return Color{}, err
		}
		return Color{R: uint8(val >> 24), G: uint8(val >> 16), B: uint8(val >> 8), A: uint8(val)}, nil
	}
	return Color{}, fmt.Errorf("invalid hex length in %q", s)
}

// Entry is a palette color annotated with its display name.
type Entry struct {
	Name  string
	Color Color
}

const (
	defaultColorIndex = 2
	defaultWidthIndex = 2
)

var (
	mu      sync.RWMutex
	entries = []Entry{
		{"Black", Color{0, 0, 0, 255}},
		{"White", Color{255, 255, 255, 255}},
		{"Red", Color{255, 0, 0, 255}},
		{"Lime", Color{0, 255, 0, 255}},
		{"Blue", Color{0, 0, 255, 255}},
		{"Yellow", Color{255, 255, 0, 255}},
		{"Cyan", Color{0, 255, 255, 255}},
		{"Magenta", Color{255, 0, 255, 255}},
		{"Orange", Color{255, 165, 0, 255}},
		{"Purple", Color{128, 0, 128, 255}},
		{"Gray", Color{128, 128, 128, 255}},
	}
	widths    = []float64{2, 4, 6, 10, 16, 24}
	textSizes = []float64{16, 24, 32, 48, 64}
)

// DefaultColorIndex returns the palette index selected on startup.
func DefaultColorIndex() int { return defaultColorIndex }

// DefaultWidthIndex returns the width index selected on startup.
func DefaultWidthIndex() int { return defaultWidthIndex }

// Colors returns a copy of the palette.
func Colors() []Entry {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// Len returns the number of palette entries.
func Len() int {
	mu.RLock()
	defer mu.RUnlock()
	return len(entries)
}

// ColorAt returns the palette color at idx, clamped into range.
func ColorAt(idx int) Color {
	mu.RLock()
	defer mu.RUnlock()
	if len(entries) == 0 {
		return Color{}
	}
	return entries[clamp(idx, len(entries))].Color
}

// NameAt returns the display name of the palette entry at idx.
func NameAt(idx int) string {
	mu.RLock()
	defer mu.RUnlock()
	if len(entries) == 0 {
		return ""
	}
	return entries[clamp(idx, len(entries))].Name
}

// Ensure makes sure col is present in the palette and returns its index.
func Ensure(col Color, name string) int {
	mu.Lock()
	defer mu.Unlock()
	for idx, e := range entries {
		if e.Color == col {
			if name != "" && e.Name == "" {
				entries[idx].Name = name
			}
			return idx
		}
	}
	if name == "" {
		name = col.Hex()
	}
	entries = append(entries, Entry{Name: name, Color: col})
	return len(entries) - 1
}

// Widths returns a copy of the available stroke widths.
func Widths() []float64 {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]float64, len(widths))
	copy(out, widths)
	return out
}

// WidthAt returns the stroke width at idx, clamped into range.
func WidthAt(idx int) float64 {
	mu.RLock()
	defer mu.RUnlock()
	if len(widths) == 0 {
		return 1
	}
	return widths[clamp(idx, len(widths))]
}

// EnsureWidth makes sure width is an option and returns its index.
func EnsureWidth(width float64) int {
	if width < 1 {
		width = 1
	}
	mu.Lock()
	defer mu.Unlock()
	for idx, w := range widths {
		if w == width {
			return idx
		}
	}
	widths = append(widths, width)
	sort.Float64s(widths)
	for idx, w := range widths {
		if w == width {
			return idx
		}
	}
	return 0
}

// TextSizes returns a copy of the offered text sizes.
func TextSizes() []float64 {
	out := make([]float64, len(textSizes))
	copy(out, textSizes)
	return out
}

// DefaultTextSize returns the text size selected on startup.
func DefaultTextSize() float64 { return textSizes[1] }

func clamp(idx, n int) int {
	if idx < 0 {
		return 0
	}
	if idx >= n {
		return n - 1
	}
	return idx
}
