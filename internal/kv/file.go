package kv

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/creatorpay/core/internal/common"
)

// File is a Store persisted as a single JSON document, the server-side
// analog of the dashboard's localStorage shim. Storage failures degrade to
// empty reads and no-op writes so callers stay usable without persistence.
type File struct {
	path string

	mu   sync.Mutex
	data map[string]string // base64-encoded values
}

var _ Store = (*File)(nil)

// NewFile opens (or lazily creates) the store at path. An unreadable or
// corrupt file yields an empty store, not an error.
func NewFile(path string) *File {
	f := &File{path: path, data: make(map[string]string)}
	raw, err := os.ReadFile(path)
	if err != nil {
		return f
	}
	var loaded map[string]string
	if err := json.Unmarshal(raw, &loaded); err == nil && loaded != nil {
		f.data = loaded
	}
	return f
}

func (f *File) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	enc, ok := f.data[key]
	if !ok {
		return nil, common.ErrNotFound
	}
	v, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return nil, common.ErrNotFound
	}
	return v, nil
}

func (f *File) Set(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = base64.StdEncoding.EncodeToString(value)
	f.flush()
	return nil
}

func (f *File) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	f.flush()
	return nil
}

func (f *File) List(_ context.Context, prefix string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0)
	for k := range f.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// flush writes the whole document atomically via rename. Write errors are
// swallowed: the in-memory copy stays authoritative for this process.
func (f *File) flush() {
	raw, err := json.MarshalIndent(f.data, "", "  ")
	if err != nil {
		return
	}
	tmp := f.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return
	}
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return
	}
	_ = os.Rename(tmp, f.path)
}
