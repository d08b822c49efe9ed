package display

import (
	"errors"
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"github.com/muurk/tc2frames/internal/logging"
	"github.com/muurk/tc2frames/internal/thermal"
)

// Default window size for snapshots.
const (
	DefaultWindowWidth  = 640
	DefaultWindowHeight = 480
)

// ErrSnapshotDone is returned by SnapshotSurface once it has written its
// limit of frames, to stop the pipeline that drives it.
var ErrSnapshotDone = errors.New("snapshot limit reached")

// EncodePNG scales img to width x height and writes it as PNG.
func EncodePNG(w io.Writer, img *thermal.Image, width, height int, scaler draw.Scaler) error {
	if img == nil {
		return errors.New("no image to encode")
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid snapshot size %dx%d", width, height)
	}
	if err := png.Encode(w, Scale(img.RGBA(), width, height, scaler)); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return nil
}

// SaveSnapshot writes img to path as a PNG, replacing any existing file
// atomically.
func SaveSnapshot(path string, img *thermal.Image, width, height int, scaler draw.Scaler) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".snapshot-*.png")
	if err != nil {
		return fmt.Errorf("failed to create temporary snapshot file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := EncodePNG(tmp, img, width, height, scaler); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// SnapshotSurface is a display driver that writes each presented frame to
// a PNG file.
type SnapshotSurface struct {
	Path   string
	Width  int
	Height int
	Scaler draw.Scaler

	// Limit stops the surface after this many frames (0 = no limit)
	Limit int

	written int
}

// NewSnapshotSurface creates a surface writing single-frame snapshots to path.
func NewSnapshotSurface(path string) *SnapshotSurface {
	return &SnapshotSurface{
		Path:   path,
		Width:  DefaultWindowWidth,
		Height: DefaultWindowHeight,
		Scaler: draw.BiLinear,
		Limit:  1,
	}
}

// Present writes img to the snapshot file.
func (s *SnapshotSurface) Present(img *thermal.Image) error {
	if err := SaveSnapshot(s.Path, img, s.Width, s.Height, s.Scaler); err != nil {
		return err
	}
	s.written++

	logging.Info("Snapshot written",
		zap.String("path", s.Path),
		zap.Int("width", s.Width),
		zap.Int("height", s.Height),
		zap.Uint16("min", img.Range.Min),
		zap.Uint16("max", img.Range.Max),
	)

	if s.Limit > 0 && s.written >= s.Limit {
		return ErrSnapshotDone
	}
	return nil
}

// Written returns the number of frames saved so far.
func (s *SnapshotSurface) Written() int {
	return s.written
}
