package goavi

import (
	"io"
	"os"
)

// File is the byte-addressed handle the container engine reads and writes through.
// Offsets are absolute. A short read or write without an error is treated as
// an I/O failure by the engine.
type File interface {
	io.ReaderAt
	io.WriterAt
	io.Closer
}

// FileSystem opens, creates and removes Files by path.
type FileSystem interface {
	Open(path string) (File, error)
	Create(path string) (File, error)
	Remove(path string) error
}

// OSFileSystem is the FileSystem backed by the os package.
type OSFileSystem struct{}

func (OSFileSystem) Open(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (OSFileSystem) Create(path string) (File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644) //nolint:mnd
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (OSFileSystem) Remove(path string) error {
	return os.Remove(path)
}

// ReadFull reads exactly len(b) bytes at off. Anything shorter is ErrRead.
func ReadFull(f io.ReaderAt, b []byte, off int64) error {
	n, err := f.ReadAt(b, off)
	if n == len(b) {
		return nil
	}
	if err == nil || err == io.EOF {
		return Errorf(ErrRead, "read", "short read at %d: %d of %d bytes", off, n, len(b))
	}
	return Wrap(ErrRead, "read", err)
}

// WriteFull writes all of b at off. Anything shorter is ErrWrite.
func WriteFull(f io.WriterAt, b []byte, off int64) error {
	n, err := f.WriteAt(b, off)
	if err != nil {
		return Wrap(ErrWrite, "write", err)
	}
	if n != len(b) {
		return Errorf(ErrWrite, "write", "short write at %d: %d of %d bytes", off, n, len(b))
	}
	return nil
}
