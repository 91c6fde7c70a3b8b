// Package codec holds what the pixel codecs share: the per-handle scratch buffer.
package codec

import (
	"github.com/ugparu/goavi/utils/logger"
)

const bufSize = 1024 // 1KB

// ScratchBuffer is the decode buffer owned by one container handle. It only
// ever grows; the previous contents are not kept across a reallocation.
type ScratchBuffer struct {
	data []byte
}

// NewScratchBuffer returns a buffer with a small initial capacity.
func NewScratchBuffer() *ScratchBuffer {
	return &ScratchBuffer{
		data: make([]byte, 0, bufSize),
	}
}

// Ensure returns a slice of exactly n bytes backed by the buffer.
func (b *ScratchBuffer) Ensure(n int) []byte {
	if cap(b.data) < n {
		logger.Debugf(b, "scratch realloc to: %d", n)
		b.data = make([]byte, n)
	}
	b.data = b.data[:n]
	return b.data
}

// Cap reports the current capacity.
func (b *ScratchBuffer) Cap() int {
	return cap(b.data)
}

// Release drops the backing array.
func (b *ScratchBuffer) Release() {
	b.data = nil
}

func (b *ScratchBuffer) String() string {
	return "SCRATCH"
}
