package history

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Load reads a history file. A missing file is an empty history. A
// non-string content is kept as its JSON text, see Turn.UnmarshalJSON.
func Load(path string) (History, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return History{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading history %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return History{}, nil
	}

	var h History
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("parsing history %s: %w", path, err)
	}
	if h == nil {
		h = History{}
	}
	return h, nil
}

// Save overwrites path with h as an indented JSON array, creating parent
// directories as needed. There is no locking: concurrent writers to the same
// file race and the last write wins.
func Save(path string, h History) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating history directory: %w", err)
		}
	}
	if h == nil {
		h = History{}
	}

	data, err := Marshal(h)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing history %s: %w", path, err)
	}
	return nil
}

// Marshal encodes h the way history files are written: two-space indent and
// no HTML escaping, so non-ASCII and markup survive verbatim.
func Marshal(h History) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(h); err != nil {
		return nil, fmt.Errorf("encoding history: %w", err)
	}
	return buf.Bytes(), nil
}

// File is a history persisted at Path.
type File struct {
	Path string
}

// Load reads the file. See Load.
func (f File) Load() (History, error) { return Load(f.Path) }

// Save overwrites the file. See Save.
func (f File) Save(h History) error { return Save(f.Path, h) }

// Record appends one exchange to the file and returns the updated history.
func (f File) Record(user, assistant string) (History, error) {
	h, err := f.Load()
	if err != nil {
		return nil, err
	}
	h = h.Append(user, assistant)
	if err := f.Save(h); err != nil {
		return nil, err
	}
	return h, nil
}
