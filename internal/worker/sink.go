package worker

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/MeKo-Tech/fastnoise/internal/tile"
)

// Folder layouts supported by FolderSink.
const (
	LayoutFlat   = "flat"   // dir/z3_x1_y2.png
	LayoutNested = "nested" // dir/3/1/2.png
)

// FolderSink writes tiles as PNG files below a directory.
type FolderSink struct {
	Dir    string
	Layout string
}

// NewFolderSink validates the layout and creates dir.
func NewFolderSink(dir, layout string) (*FolderSink, error) {
	switch layout {
	case "":
		layout = LayoutNested
	case LayoutFlat, LayoutNested:
	default:
		return nil, fmt.Errorf("invalid folder layout %q (use %s or %s)", layout, LayoutFlat, LayoutNested)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &FolderSink{Dir: dir, Layout: layout}, nil
}

// PathFor returns the file path of a tile.
func (s *FolderSink) PathFor(c tile.Coords) string {
	if s.Layout == LayoutFlat {
		return filepath.Join(s.Dir, c.Path("png"))
	}
	return filepath.Join(s.Dir,
		strconv.FormatUint(uint64(c.Z), 10),
		strconv.FormatUint(uint64(c.X), 10),
		strconv.FormatUint(uint64(c.Y), 10)+".png")
}

// Exists implements Sink.
func (s *FolderSink) Exists(c tile.Coords) (bool, error) {
	_, err := os.Stat(s.PathFor(c))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// Put implements Sink.
func (s *FolderSink) Put(c tile.Coords, data []byte) (string, error) {
	path := s.PathFor(c)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create tile directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write tile file: %w", err)
	}
	return path, nil
}
