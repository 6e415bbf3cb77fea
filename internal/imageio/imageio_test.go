package imageio

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/image/bmp"
)

func sample() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(x * 60), uint8(y * 80), 10, 255})
		}
	}
	return img
}

func TestDataURLRoundTrip(t *testing.T) {
	enc, err := EncodePNG(sample())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	s := enc.String()
	if !strings.HasPrefix(s, "data:image/png;base64,") {
		t.Fatalf("unexpected prefix: %.30s", s)
	}
	back, err := Parse(s)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if back.MIME != "image/png" || !bytes.Equal(back.Data, enc.Data) {
		t.Fatalf("parsed data differs")
	}
	img, err := back.DecodeRGBA()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(img.Pix, sample().Pix) {
		t.Fatalf("png round trip changed pixels")
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, s := range []string{
		"",
		"image/png;base64,AAAA",
		"data:image/png;base64",
		"data:image/png,plain",
		"data:image/png;base64,***",
	} {
		if _, err := Parse(s); !errors.Is(err, ErrInvalidDataURL) {
			t.Errorf("Parse(%q) err = %v", s, err)
		}
	}
}

func TestReadDetectsFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, sample()); err != nil {
		t.Fatalf("bmp: %v", err)
	}
	enc, err := Read(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if enc.MIME != "image/bmp" {
		t.Fatalf("mime = %q", enc.MIME)
	}
}

func TestUnreadableFile(t *testing.T) {
	if _, err := Read(strings.NewReader("not an image")); !errors.Is(err, ErrUnreadableFile) {
		t.Fatalf("err = %v", err)
	}
	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.png")); !errors.Is(err, ErrUnreadableFile) {
		t.Fatalf("missing file err = %v", err)
	}
	bad := &Encoded{MIME: "image/png", Data: []byte("junk")}
	if _, err := bad.Decode(); !errors.Is(err, ErrUnreadableFile) {
		t.Fatalf("decode err = %v", err)
	}
}

func TestJPEGQuality(t *testing.T) {
	cases := map[float64]int{0: 10, 0.1: 10, 0.5: 50, 0.92: 92, 1: 100, 3: 100}
	for in, want := range cases {
		if got := JPEGQuality(in); got != want {
			t.Errorf("JPEGQuality(%v) = %d, want %d", in, got, want)
		}
	}
}

func TestEncodeJPEG(t *testing.T) {
	enc, err := Encode(sample(), JPEG, 0.8)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if enc.MIME != "image/jpeg" {
		t.Fatalf("mime = %q", enc.MIME)
	}
	img, err := enc.Decode()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 3 {
		t.Fatalf("bounds = %v", img.Bounds())
	}
}

func TestEnsureExt(t *testing.T) {
	cases := []struct {
		name string
		f    Format
		want string
	}{
		{"photo", PNG, "photo.png"},
		{"photo.png", JPEG, "photo.jpg"},
		{"photo.JPEG", PNG, "photo.png"},
		{"archive.tar", JPEG, "archive.tar.jpg"},
		{"", PNG, "image.png"},
	}
	for _, c := range cases {
		if got := EnsureExt(c.name, c.f); got != c.want {
			t.Errorf("EnsureExt(%q, %s) = %q, want %q", c.name, c.f, got, c.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("JPG"); err != nil || f != JPEG {
		t.Fatalf("jpg = %v %v", f, err)
	}
	if _, err := ParseFormat("gif"); err == nil {
		t.Fatalf("gif export should be rejected")
	}
}

func TestWriteFile(t *testing.T) {
	enc, err := EncodePNG(sample())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	path := filepath.Join(t.TempDir(), "out.png")
	if err := WriteFile(path, enc); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil || !bytes.Equal(got, enc.Data) {
		t.Fatalf("file contents differ: %v", err)
	}
}
