package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Compile-time assertion that FileStore satisfies Store.
var _ Store = (*FileStore)(nil)

// FileStore writes each run into its own directory under a root, as
// indented JSON. Writes go through a temp file and an atomic rename so a
// crash never leaves a half-written result behind.
type FileStore struct {
	root       string
	resultName string
}

// FileOption is a functional option for configuring a FileStore.
type FileOption func(*FileStore)

// WithResultName overrides the result file name written inside each run
// directory. The default is [DefaultResultName].
func WithResultName(name string) FileOption {
	return func(s *FileStore) { s.resultName = name }
}

// NewFileStore returns a FileStore rooted at dir.
func NewFileStore(dir string, opts ...FileOption) *FileStore {
	s := &FileStore{root: dir, resultName: DefaultResultName}
	for _, o := range opts {
		o(s)
	}
	return s
}

// SaveRun writes run to <root>/<run.ID>/<result name> and returns that path.
func (s *FileStore) SaveRun(ctx context.Context, run *Run) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("store: save run %q: %w", run.ID, err)
	}

	dir := filepath.Join(s.root, run.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("store: create run dir %q: %w", dir, err)
	}

	path := filepath.Join(dir, s.resultName)
	if err := writeJSON(path, run); err != nil {
		return "", err
	}
	return path, nil
}

// SaveDebug writes an arbitrary intermediate value as JSON next to the
// run's result, for inspection when the pipeline ran at debug log level.
func (s *FileStore) SaveDebug(runID, name string, v any) error {
	dir := filepath.Join(s.root, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: create run dir %q: %w", dir, err)
	}
	return writeJSON(filepath.Join(dir, name), v)
}

// writeJSON writes v as indented JSON to path via a temp file in the same
// directory and an atomic rename.
func writeJSON(path string, v any) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("store: create temp for %s: %w", filepath.Base(path), err)
	}
	tmpName := tmp.Name()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("store: encode %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store: close temp %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store: rename %s: %w", filepath.Base(path), err)
	}
	return nil
}
