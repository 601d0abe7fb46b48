package claims

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// HeatmapStore persists rendered heatmap PNGs and returns the reference
// clients use to fetch them.
type HeatmapStore interface {
	Put(ctx context.Context, name string, png []byte) (string, error)
	Delete(ctx context.Context, name string) error
}

// FileHeatmapStore writes heatmaps into a directory served statically under
// urlPrefix.
type FileHeatmapStore struct {
	dir       string
	urlPrefix string
}

func NewFileHeatmapStore(dir, urlPrefix string) (*FileHeatmapStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create heatmap dir: %w", err)
	}
	return &FileHeatmapStore{dir: dir, urlPrefix: strings.TrimSuffix(urlPrefix, "/")}, nil
}

func (s *FileHeatmapStore) Put(ctx context.Context, name string, png []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name = filepath.Base(name)

	// Write then rename so readers never observe a partial file.
	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create heatmap: %w", err)
	}
	if _, err := tmp.Write(png); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write heatmap: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close heatmap: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("store heatmap: %w", err)
	}
	return path.Join(s.urlPrefix, name), nil
}

func (s *FileHeatmapStore) Delete(_ context.Context, name string) error {
	err := os.Remove(filepath.Join(s.dir, filepath.Base(name)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
