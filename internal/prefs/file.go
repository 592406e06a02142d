package prefs

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/prefscreen/internal/prefs/notify"
)

// ParseError represents an error while parsing a preference file.
type ParseError struct {
	Path    string
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Line > 0 && e.Column > 0 {
		return fmt.Sprintf("parse error in %s at line %d, column %d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// FileStore is a Store persisted as a flat TOML document. Every successful
// Set rewrites the file; Reload picks up edits made by other processes.
type FileStore struct {
	mem  *MemoryStore
	path string

	// Serializes file writes and reloads, and guards extra.
	ioMu sync.Mutex

	// Values the store cannot hold, such as arrays and datetimes. They are
	// written back unchanged until the key is set or deleted.
	extra map[string]any
}

// OpenFile loads the preference file at path. A missing file is not an
// error; it is created on the first Set.
func OpenFile(path string) (*FileStore, error) {
	values, err := readTOML(path)
	if err != nil {
		return nil, err
	}
	values, extra := splitUnsupported(values)
	return &FileStore{
		mem:   NewMemoryStore(values),
		path:  path,
		extra: extra,
	}, nil
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

// Get returns the value for key and whether it is present.
func (f *FileStore) Get(key string) (any, bool) {
	return f.mem.Get(key)
}

// Set stores and persists value. The file is only rewritten when the value
// changed.
func (f *FileStore) Set(key string, value any) error {
	changed, err := f.mem.set(key, value, "set")
	if err != nil {
		return err
	}
	if !f.dropExtra(key) && !changed {
		return nil
	}
	return f.write()
}

// Delete removes key and persists the result.
func (f *FileStore) Delete(key string) error {
	changed, err := f.mem.delete(key, "delete")
	if err != nil {
		return err
	}
	if !f.dropExtra(key) && !changed {
		return nil
	}
	return f.write()
}

// Extra returns a copy of the values read from the file that the store
// cannot hold. They are preserved across writes.
func (f *FileStore) Extra() map[string]any {
	f.ioMu.Lock()
	defer f.ioMu.Unlock()
	out := make(map[string]any, len(f.extra))
	for k, v := range f.extra {
		out[k] = v
	}
	return out
}

func (f *FileStore) dropExtra(key string) bool {
	f.ioMu.Lock()
	defer f.ioMu.Unlock()
	if _, ok := f.extra[key]; !ok {
		return false
	}
	delete(f.extra, key)
	return true
}

// OnChange registers an observer for every change.
func (f *FileStore) OnChange(observer notify.Observer) Subscription {
	return f.mem.OnChange(observer)
}

// Reload re-reads the file and reports whether any value changed. Observers
// receive a single reload change.
func (f *FileStore) Reload() (bool, error) {
	f.ioMu.Lock()
	values, err := readTOML(f.path)
	if err != nil {
		f.ioMu.Unlock()
		return false, err
	}
	values, f.extra = splitUnsupported(values)
	f.ioMu.Unlock()
	return f.mem.Replace(values, f.path), nil
}

// Snapshot returns a copy of all values.
func (f *FileStore) Snapshot() map[string]any {
	return f.mem.Snapshot()
}

// Close drops all observers.
func (f *FileStore) Close() error {
	return f.mem.Close()
}

// write persists the current values atomically. Observers run before the
// write, so it must not be called with ioMu held by the caller.
func (f *FileStore) write() error {
	f.ioMu.Lock()
	defer f.ioMu.Unlock()

	doc := f.mem.Snapshot()
	for k, v := range f.extra {
		if _, ok := doc[k]; !ok {
			doc[k] = v
		}
	}
	data, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding preferences: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating preference directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".prefs-*.toml")
	if err != nil {
		return fmt.Errorf("writing preferences: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing preferences: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing preferences: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", f.path, err)
	}
	return nil
}

// readTOML parses path into a flat key/value map. Nested tables are
// flattened with dot-separated keys.
func readTOML(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("reading preference file %s: %w", path, err)
	}
	return parseTOML(path, data)
}

func parseTOML(source string, data []byte) (map[string]any, error) {
	var doc map[string]any
	if err := toml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		perr := &ParseError{Path: source, Message: err.Error(), Err: err}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			perr.Line, perr.Column = derr.Position()
		}
		return nil, perr
	}

	out := make(map[string]any, len(doc))
	flatten("", doc, out)
	return out, nil
}

func flatten(prefix string, in map[string]any, out map[string]any) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			flatten(key, nested, out)
			continue
		}
		out[key] = v
	}
}

// splitUnsupported separates the values normalize accepts from the rest.
func splitUnsupported(values map[string]any) (supported, extra map[string]any) {
	supported = make(map[string]any, len(values))
	extra = make(map[string]any)
	for k, v := range values {
		if _, err := normalize(v); err != nil {
			extra[k] = v
			continue
		}
		supported[k] = v
	}
	return supported, extra
}

var _ Store = (*FileStore)(nil)
