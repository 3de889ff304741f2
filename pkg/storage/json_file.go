package storage

import (
	"context"
	"fmt"
	"iter"
	"os"
	"path/filepath"
)

// JSONFile stores the tracker document in a single file, overwritten on every
// save and read in full on every load.
type JSONFile[K comparable, V any] struct {
	path string
	cfg  config[K, V]
}

// NewJSONFile returns an adapter for path.
func NewJSONFile[K comparable, V any](path string, opts ...Option[K, V]) *JSONFile[K, V] {
	return &JSONFile[K, V]{path: path, cfg: applyOptions(opts)}
}

// Path returns the target file.
func (s *JSONFile[K, V]) Path() string {
	return s.path
}

// Save encodes every subject with its states and writes the document.
func (s *JSONFile[K, V]) Save(ctx context.Context, subjects []K, partitions map[string]map[K]V) error {
	if s.path == "" {
		return fmt.Errorf("storage: path is required")
	}
	data, err := EncodeDocument(s.cfg.codec, subjects, partitions, s.cfg.indent)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.cfg.atomic {
		return s.writeAtomic(data)
	}
	if err := os.WriteFile(s.path, data, s.cfg.fileMode); err != nil {
		return fmt.Errorf("storage: write %q: %w", s.path, err)
	}
	return nil
}

// Load reads and decodes the whole document before returning, so the
// sequence itself cannot fail.
func (s *JSONFile[K, V]) Load(ctx context.Context) (iter.Seq2[K, map[string]V], error) {
	if s.path == "" {
		return nil, fmt.Errorf("storage: path is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("storage: read %q: %w", s.path, err)
	}
	records, err := decodeDocument(s.cfg.codec, data, filepath.Base(s.path))
	if err != nil {
		return nil, fmt.Errorf("storage: load %q: %w", s.path, err)
	}
	return Pairs(records), nil
}

func (s *JSONFile[K, V]) writeAtomic(data []byte) error {
	dir, base := filepath.Split(s.path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return fmt.Errorf("storage: create temp for %q: %w", s.path, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("storage: write temp for %q: %w", s.path, err)
	}
	if err := tmp.Chmod(s.cfg.fileMode); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("storage: chmod temp for %q: %w", s.path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("storage: sync temp for %q: %w", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("storage: close temp for %q: %w", s.path, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		cleanup()
		return fmt.Errorf("storage: rename into %q: %w", s.path, err)
	}
	return nil
}
