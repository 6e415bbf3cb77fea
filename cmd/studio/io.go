package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/example/studio/internal/clipboard"
	"github.com/example/studio/internal/imageio"
)

// pasteImageFn reads the clipboard image. Tests swap it.
var pasteImageFn = clipboard.PasteImage

// loadInput reads the source image from path or, when fromClipboard is
// set, from the clipboard.
func loadInput(path string, fromClipboard bool) (*imageio.Encoded, error) {
	if fromClipboard {
		enc, err := pasteImageFn()
		if err != nil {
			return nil, fmt.Errorf("failed to read clipboard image: %w", err)
		}
		return enc, nil
	}
	if path == "" {
		return nil, fmt.Errorf("no input image given")
	}
	return imageio.ReadFile(path)
}

// outputPath resolves name against the configured save directory and
// enforces the extension of f.
func (r *root) outputPath(name string, f imageio.Format) string {
	if !filepath.IsAbs(name) && r.config != nil && r.config.SaveDir != "" {
		name = filepath.Join(r.config.SaveDir, name)
	}
	return imageio.EnsureExt(name, f)
}

// writeOutput writes enc to path, creating parent directories.
func (r *root) writeOutput(path string, enc *imageio.Encoded) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := imageio.WriteFile(path, enc); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	r.notifyExport(path)
	return nil
}

// exportFlags are shared by every command that writes an image.
type exportFlags struct {
	output  string
	format  string
	quality float64
}

func (e *exportFlags) resolve(r *root) (string, imageio.Format, error) {
	f, err := imageio.ParseFormat(e.format)
	if err != nil {
		return "", "", err
	}
	return r.outputPath(e.output, f), f, nil
}
