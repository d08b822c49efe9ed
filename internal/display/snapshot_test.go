package display

import (
	"bytes"
	"errors"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/draw"
)

func TestEncodePNG_Dimensions(t *testing.T) {
	img := solidImage(160, 120, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	var buf bytes.Buffer
	if err := EncodePNG(&buf, img, DefaultWindowWidth, DefaultWindowHeight, draw.BiLinear); err != nil {
		t.Fatalf("EncodePNG() error = %v", err)
	}

	decoded, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	size := decoded.Bounds().Size()
	if size.X != 640 || size.Y != 480 {
		t.Errorf("snapshot size = %dx%d, want 640x480", size.X, size.Y)
	}

	r, g, b, _ := decoded.At(320, 240).RGBA()
	if r>>8 != 10 || g>>8 != 20 || b>>8 != 30 {
		t.Errorf("center pixel = (%d,%d,%d), want (10,20,30)", r>>8, g>>8, b>>8)
	}
}

func TestEncodePNG_Errors(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, nil, 10, 10, nil); err == nil {
		t.Error("EncodePNG(nil) should fail")
	}
	img := solidImage(2, 2, color.RGBA{A: 255})
	if err := EncodePNG(&buf, img, 0, 10, nil); err == nil {
		t.Error("EncodePNG() with zero width should fail")
	}
}

func TestSnapshotSurface(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	s := NewSnapshotSurface(path)
	s.Width, s.Height = 32, 24
	s.Limit = 2

	img := solidImage(4, 3, color.RGBA{G: 255, A: 255})

	if err := s.Present(img); err != nil {
		t.Fatalf("first Present() error = %v", err)
	}
	if err := s.Present(img); !errors.Is(err, ErrSnapshotDone) {
		t.Fatalf("second Present() error = %v, want ErrSnapshotDone", err)
	}
	if s.Written() != 2 {
		t.Errorf("Written() = %d, want 2", s.Written())
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("snapshot not written: %v", err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("png.DecodeConfig() error = %v", err)
	}
	if cfg.Width != 32 || cfg.Height != 24 {
		t.Errorf("snapshot size = %dx%d, want 32x24", cfg.Width, cfg.Height)
	}

	// No temporary files left behind.
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want 1", len(entries))
	}
}

func TestSnapshotSurface_BadDir(t *testing.T) {
	s := NewSnapshotSurface(filepath.Join(t.TempDir(), "missing", "frame.png"))
	if err := s.Present(solidImage(2, 2, color.RGBA{A: 255})); err == nil {
		t.Error("Present() into a missing directory should fail")
	}
}
