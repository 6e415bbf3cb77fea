// Package clipboard exchanges images and text with the system clipboard.
// Images travel as PNG so a pasted image can be sent straight to the
// generation service as a reference.
package clipboard

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/example/studio/internal/imageio"
)

var (
	// ErrEmpty is returned when the clipboard holds nothing of the requested kind.
	ErrEmpty     = errors.New("clipboard holds no data of that kind")
	errNoDisplay = errors.New("clipboard initialization requires DISPLAY or WAYLAND_DISPLAY")
)

func hasDisplay() bool {
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}

// CopyImage publishes img to the clipboard as PNG.
func CopyImage(img image.Image) error {
	enc, err := imageio.EncodePNG(img)
	if err != nil {
		return err
	}
	return writePNG(enc.Data)
}

// PasteImage returns the clipboard image in encoded form.
func PasteImage() (*imageio.Encoded, error) {
	data, err := readPNG()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	enc, err := imageio.Read(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("clipboard image: %w", err)
	}
	return enc, nil
}

// CopyText publishes text to the clipboard.
func CopyText(text string) error {
	return writeText([]byte(text))
}

// PasteText returns the clipboard text.
func PasteText() (string, error) {
	data, err := readText()
	if err != nil {
		return "", err
	}
	// Some applications include a trailing NUL in STRING responses.
	data = bytes.TrimRight(data, "\x00")
	if len(data) == 0 {
		return "", ErrEmpty
	}
	return string(data), nil
}
