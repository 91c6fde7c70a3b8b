// Package memfs is an in-memory goavi.FileSystem. Files grow on writes past
// their end and the gap is zero filled.
package memfs

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sort"
	"sync"

	"github.com/ugparu/goavi"
)

var errClosed = errors.New("memfs: file already closed")

// FS holds files by path. The zero value is not usable, call New.
type FS struct {
	mu         sync.Mutex
	files      map[string]*data
	writeLimit int64
}

// data is the shared content of a path; every open handle sees the same bytes.
type data struct {
	mu  sync.RWMutex
	buf []byte
}

// New returns an empty file system.
func New() *FS {
	return &FS{files: map[string]*data{}, writeLimit: -1}
}

// SetWriteLimit makes writes of files created afterwards fail once they would
// extend the file beyond n bytes. A negative n removes the limit.
func (m *FS) SetWriteLimit(n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeLimit = n
}

func (m *FS) Open(path string) (goavi.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.files[path]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return &File{d: d, limit: -1, readOnly: true}, nil
}

func (m *FS) Create(path string) (goavi.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := &data{}
	m.files[path] = d
	return &File{d: d, limit: m.writeLimit}, nil
}

func (m *FS) Remove(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[path]; !ok {
		return &fs.PathError{Op: "remove", Path: path, Err: fs.ErrNotExist}
	}
	delete(m.files, path)
	return nil
}

// WriteFile stores a copy of b under path.
func (m *FS) WriteFile(path string, b []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = &data{buf: append([]byte(nil), b...)}
}

// ReadFile returns a copy of the content of path.
func (m *FS) ReadFile(path string) ([]byte, error) {
	m.mu.Lock()
	d, ok := m.files[path]
	m.mu.Unlock()
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: path, Err: fs.ErrNotExist}
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]byte(nil), d.buf...), nil
}

// Exists reports whether path is present.
func (m *FS) Exists(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[path]
	return ok
}

// Paths lists every stored path in lexical order.
func (m *FS) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.files))
	for p := range m.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// File is one open handle.
type File struct {
	d        *data
	limit    int64
	readOnly bool
	closed   bool
}

func (f *File) ReadAt(p []byte, off int64) (int, error) {
	if f.closed {
		return 0, errClosed
	}
	if off < 0 {
		return 0, fmt.Errorf("memfs: negative offset %d", off)
	}
	f.d.mu.RLock()
	defer f.d.mu.RUnlock()
	if off >= int64(len(f.d.buf)) {
		return 0, io.EOF
	}
	n := copy(p, f.d.buf[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (f *File) WriteAt(p []byte, off int64) (int, error) {
	if f.closed {
		return 0, errClosed
	}
	if f.readOnly {
		return 0, fmt.Errorf("memfs: write to read-only handle")
	}
	if off < 0 {
		return 0, fmt.Errorf("memfs: negative offset %d", off)
	}
	end := off + int64(len(p))
	if f.limit >= 0 && end > f.limit {
		return 0, fmt.Errorf("memfs: write to %d exceeds limit %d", end, f.limit)
	}
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	if end > int64(len(f.d.buf)) {
		if end > int64(cap(f.d.buf)) {
			grown := make([]byte, end, max(end, 2*int64(cap(f.d.buf)))) //nolint:mnd
			copy(grown, f.d.buf)
			f.d.buf = grown
		} else {
			f.d.buf = f.d.buf[:end]
		}
	}
	return copy(f.d.buf[off:], p), nil
}

// Size returns the current length of the file.
func (f *File) Size() int64 {
	f.d.mu.RLock()
	defer f.d.mu.RUnlock()
	return int64(len(f.d.buf))
}

func (f *File) Close() error {
	if f.closed {
		return errClosed
	}
	f.closed = true
	return nil
}
