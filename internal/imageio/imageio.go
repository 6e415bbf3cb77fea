// Package imageio converts between decoded images, files and the
// "data:<mime>;base64,<payload>" strings exchanged with the generation
// service.
package imageio

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	// ErrUnreadableFile is returned when input bytes do not decode as an image.
	ErrUnreadableFile = errors.New("unreadable image file")
	// ErrInvalidDataURL is returned by Parse for malformed data URLs.
	ErrInvalidDataURL = errors.New("invalid data url")
)

// Encoded is an image in its encoded form together with its MIME type.
type Encoded struct {
	MIME string
	Data []byte
}

// String renders e as a base64 data URL.
func (e *Encoded) String() string {
	if e == nil {
		return ""
	}
	return "data:" + e.MIME + ";base64," + base64.StdEncoding.EncodeToString(e.Data)
}

// Parse decodes a base64 data URL.
func Parse(s string) (*Encoded, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(s), "data:")
	if !ok {
		return nil, fmt.Errorf("%w: missing data: prefix", ErrInvalidDataURL)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("%w: missing payload", ErrInvalidDataURL)
	}
	mime, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return nil, fmt.Errorf("%w: only base64 payloads are supported", ErrInvalidDataURL)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	if mime == "" {
		mime = "application/octet-stream"
	}
	return &Encoded{MIME: mime, Data: data}, nil
}

// Decode returns the pixels of e.
func (e *Encoded) Decode() (image.Image, error) {
	if e == nil || len(e.Data) == 0 {
		return nil, ErrUnreadableFile
	}
	img, _, err := image.Decode(bytes.NewReader(e.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	return img, nil
}

// DecodeRGBA returns the pixels of e as a zero-origin RGBA image.
func (e *Encoded) DecodeRGBA() (*image.RGBA, error) {
	img, err := e.Decode()
	if err != nil {
		return nil, err
	}
	return ToRGBA(img), nil
}

// Read consumes an image in any registered format (png, jpeg, gif, webp,
// bmp, tiff) and returns it encoded with the MIME type of that format.
func Read(r io.Reader) (*Encoded, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	return &Encoded{MIME: "image/" + format, Data: data}, nil
}

// ReadFile opens path and reads it as an image.
func ReadFile(path string) (*Encoded, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	defer f.Close()
	return Read(f)
}

// ToRGBA returns img as a zero-origin *image.RGBA, copying unless it
// already is one.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// Format is an export format.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
)

// ParseFormat accepts png, jpeg or jpg in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "png", "":
		return PNG, nil
	case "jpeg", "jpg":
		return JPEG, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// MIME returns the media type of f.
func (f Format) MIME() string {
	if f == JPEG {
		return "image/jpeg"
	}
	return "image/png"
}

// Ext returns the canonical file extension of f, dot included.
func (f Format) Ext() string {
	if f == JPEG {
		return ".jpg"
	}
	return ".png"
}

const (
	// MinQuality and MaxQuality bound the export quality factor.
	MinQuality = 0.1
	MaxQuality = 1.0
)

// JPEGQuality maps a quality factor in [0.1, 1] to the encoder's 1..100
// scale. Out of range factors are clamped.
func JPEGQuality(q float64) int {
	if math.IsNaN(q) || q < MinQuality {
		q = MinQuality
	}
	if q > MaxQuality {
		q = MaxQuality
	}
	return max(1, min(100, int(math.Round(q*100))))
}

// Encode encodes img in format f. Quality only applies to JPEG.
func Encode(img image.Image, f Format, quality float64) (*Encoded, error) {
	var buf bytes.Buffer
	switch f {
	case PNG, "":
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
	case JPEG:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality(quality)}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported export format %q", f)
	}
	return &Encoded{MIME: f.MIME(), Data: buf.Bytes()}, nil
}

// EncodePNG is Encode(img, PNG, 0).
func EncodePNG(img image.Image) (*Encoded, error) { return Encode(img, PNG, 0) }

// EnsureExt replaces or appends the extension of name so it matches f.
// An empty name becomes "image" plus the extension.
func EnsureExt(name string, f Format) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "image"
	}
	ext := filepath.Ext(name)
	switch strings.ToLower(ext) {
	case ".png", ".jpg", ".jpeg":
		name = strings.TrimSuffix(name, ext)
	}
	return name + f.Ext()
}

// WriteFile writes the encoded bytes to path.
func WriteFile(path string, e *Encoded) error {
	if e == nil {
		return errors.New("nothing to write")
	}
	if err := os.WriteFile(path, e.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
