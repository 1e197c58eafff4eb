package config

import (
	"os"
	"path/filepath"

	"github.com/juju/errors"
)

// FullReader resolves config source names and reads whole sources.
// Missing source is (nil, nil), optional includes rely on that.
type FullReader interface {
	Normalize(name string) string
	ReadAll(name string) ([]byte, error)
}

// OsFullReader resolves relative names against base directory, empty base is working directory.
type OsFullReader struct{ base string }

func NewOsFullReader(base string) *OsFullReader { return &OsFullReader{base: base} }

func (r *OsFullReader) SetBase(base string) error {
	abs, err := filepath.Abs(base)
	if err != nil {
		return errors.Annotatef(err, "config base=%s", base)
	}
	r.base = abs
	return nil
}

func (r *OsFullReader) Normalize(name string) string {
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}
	return filepath.Join(r.base, name)
}

func (r *OsFullReader) ReadAll(name string) ([]byte, error) {
	b, err := os.ReadFile(name)
	if os.IsNotExist(err) {
		return nil, nil
	}
	return b, err
}

// MockFullReader serves sources from memory.
type MockFullReader map[string]string

func NewMockFullReader(sources map[string]string) MockFullReader { return MockFullReader(sources) }

func (m MockFullReader) Normalize(name string) string { return filepath.Clean(name) }

func (m MockFullReader) ReadAll(name string) ([]byte, error) {
	if s, ok := m[name]; ok {
		return []byte(s), nil
	}
	return nil, nil
}
