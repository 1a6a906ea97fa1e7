// Package files reads and writes scene documents as JSON.
package files

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Faultbox/webray-editor/internal/scene"
)

// FileFormatError reports content that is not a scene document.
type FileFormatError struct {
	Source string
	Err    error
}

func (e *FileFormatError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("invalid scene file: %v", e.Err)
	}
	return fmt.Sprintf("invalid scene file %s: %v", e.Source, e.Err)
}

func (e *FileFormatError) Unwrap() error { return e.Err }

var topLevel = []string{"objects", "materials", "camera", "render_settings"}

// Decode reads one scene document from r. Any decoding or shape problem is
// returned as a *FileFormatError.
func Decode(r io.Reader) (*scene.Scene, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, &FileFormatError{Err: err}
	}
	for _, key := range topLevel {
		raw, ok := fields[key]
		if !ok || string(raw) == "null" {
			return nil, &FileFormatError{Err: fmt.Errorf("missing %q", key)}
		}
	}

	var doc scene.Scene
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &FileFormatError{Err: err}
	}
	if doc.Objects == nil {
		doc.Objects = []scene.Object{}
	}
	if doc.Materials == nil {
		doc.Materials = []scene.Material{}
	}
	return &doc, nil
}

// Load decodes r and replaces the store's document. On error the store is
// left untouched.
func Load(store *scene.Store, r io.Reader) error {
	doc, err := Decode(r)
	if err != nil {
		return err
	}
	return store.Replace(doc)
}

// LoadFile loads the scene at path into store.
func LoadFile(store *scene.Store, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := Load(store, f); err != nil {
		if ferr, ok := err.(*FileFormatError); ok {
			ferr.Source = path
		}
		return err
	}
	return nil
}

// Save writes doc as indented JSON.
func Save(w io.Writer, doc *scene.Scene) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(doc)
}

// SaveFile writes a snapshot of store to path, replacing it atomically.
func SaveFile(store *scene.Store, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".scene-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := Save(tmp, store.Snapshot()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
