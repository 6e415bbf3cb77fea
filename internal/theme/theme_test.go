package theme

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/studio/internal/palette"
)

func TestParseKeepsDefaults(t *testing.T) {
	th, err := Parse(strings.NewReader("Name: Mine\ncropdim: #00000080\nMaskBrush: magenta\nUnknown: #FFFFFF\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if th.Name != "Mine" {
		t.Errorf("name = %q", th.Name)
	}
	if th.CropDim != (palette.Color{A: 0x80}) {
		t.Errorf("CropDim = %v", th.CropDim)
	}
	if th.MaskBrush != (palette.Color{R: 255, B: 255, A: 255}) {
		t.Errorf("MaskBrush = %v", th.MaskBrush)
	}
	if th.CropBorder != Default().CropBorder {
		t.Errorf("missing key did not keep default")
	}
}

func TestParseRejectsBadColor(t *testing.T) {
	if _, err := Parse(strings.NewReader("CropBorder: #12\n")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLoaderEmbedded(t *testing.T) {
	l := &Loader{}
	th, err := l.Load("dark")
	if err != nil {
		t.Fatalf("Load(dark): %v", err)
	}
	if th.Name != "Dark" {
		t.Fatalf("name = %q", th.Name)
	}
}

func TestLoaderConfigDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "mine.theme"), []byte("Name: Mine\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	l := &Loader{ConfigDir: dir}
	th, err := l.Load("mine")
	if err != nil || th.Name != "Mine" {
		t.Fatalf("Load(mine) = %v, %v", th, err)
	}
	if _, err := l.Load("missing"); err == nil {
		t.Fatalf("expected not found error")
	}
}

func TestFieldsListsColors(t *testing.T) {
	fs := Fields(Default())
	if len(fs) == 0 || fs[0].Name != "Background" {
		t.Fatalf("unexpected fields %+v", fs)
	}
}
