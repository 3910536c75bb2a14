package documents

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrInvalidID is returned for IDs that cannot name a file.
	ErrInvalidID = errors.New("invalid document id")
)

const jsonExt = ".json"

// JSONDir stores one document per <id>.json file in a directory.
type JSONDir[T any] struct {
	dir string
	log *slog.Logger
}

// NewJSONDir returns a JSONDir rooted at dir. The directory is created on
// first write.
func NewJSONDir[T any](dir string, log *slog.Logger) *JSONDir[T] {
	return &JSONDir[T]{dir: dir, log: log}
}

// Dir returns the backing directory.
func (d *JSONDir[T]) Dir() string { return d.dir }

// List decodes every *.json file in the directory. Files that cannot be read
// or decoded are logged and skipped so one bad document does not hide the
// rest. A missing directory yields an empty list.
func (d *JSONDir[T]) List() ([]T, error) {
	out := make([]T, 0)

	entries, err := os.ReadDir(d.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return out, nil
		}
		return nil, fmt.Errorf("read dir %s: %w", d.dir, err)
	}

	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != jsonExt {
			continue
		}
		path := filepath.Join(d.dir, e.Name())
		var doc T
		if err := readJSONFile(path, &doc); err != nil {
			d.log.Warn("skipping unreadable document",
				slog.String("path", path),
				slog.String("error", err.Error()))
			continue
		}
		out = append(out, doc)
	}
	return out, nil
}

// Get decodes the document with the given id.
func (d *JSONDir[T]) Get(id string) (T, error) {
	var doc T
	path, err := d.path(id)
	if err != nil {
		return doc, err
	}
	if err := readJSONFile(path, &doc); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return doc, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return doc, err
	}
	return doc, nil
}

// Save writes doc as <id>.json, replacing any previous version.
func (d *JSONDir[T]) Save(id string, doc T) error {
	path, err := d.path(id)
	if err != nil {
		return err
	}
	return writeJSONFile(path, doc)
}

// Delete removes <id>.json. Deleting a missing document is not an error.
func (d *JSONDir[T]) Delete(id string) error {
	path, err := d.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}

func (d *JSONDir[T]) path(id string) (string, error) {
	if err := validateName(id); err != nil {
		return "", err
	}
	return filepath.Join(d.dir, id+jsonExt), nil
}

// validateName rejects names that would escape their directory.
func validateName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidID, name)
	}
	return nil
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// writeJSONFile writes v as indented JSON through a temp file and rename so
// readers never see a partial document.
func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return writeFileAtomic(path, data)
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write content: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	success = true
	return nil
}
