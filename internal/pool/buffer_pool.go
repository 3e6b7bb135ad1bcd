// Package pool provides pooled text buffers for building fixed-width lines
// and whole batch payloads without per-line allocations.
package pool

import (
	"io"
	"sync"
)

const (
	LineBufferDefaultSize   = 512              // typical fixed-width record is 240-500 columns
	LineBufferMaxThreshold  = 1024 * 16        // 16KiB
	BatchBufferDefaultSize  = 1024 * 64        // 64KiB
	BatchBufferMaxThreshold = 1024 * 1024 * 16 // 16MiB
)

// ByteBuffer is an append-only text buffer.
type ByteBuffer struct {
	// B is the underlying byte slice.
	B []byte
}

// NewByteBuffer creates a ByteBuffer with the given initial capacity.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{B: make([]byte, 0, defaultSize)}
}

// Bytes returns the buffered bytes without copying.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// String returns a copy of the buffered text.
func (bb *ByteBuffer) String() string {
	return string(bb.B)
}

// Len returns the number of buffered bytes.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// Reset empties the buffer and keeps its capacity.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Grow ensures room for n more bytes. Small buffers grow by at least
// LineBufferDefaultSize, larger ones by a quarter of their capacity.
func (bb *ByteBuffer) Grow(n int) {
	if cap(bb.B)-len(bb.B) >= n {
		return
	}

	growBy := LineBufferDefaultSize
	if cap(bb.B) > 4*LineBufferDefaultSize {
		growBy = cap(bb.B) / 4
	}
	if growBy < n {
		growBy = n
	}

	buf := make([]byte, len(bb.B), len(bb.B)+growBy)
	copy(buf, bb.B)
	bb.B = buf
}

// Write appends p. It never fails.
func (bb *ByteBuffer) Write(p []byte) (int, error) {
	bb.B = append(bb.B, p...)
	return len(p), nil
}

// WriteString appends s. It never fails.
func (bb *ByteBuffer) WriteString(s string) (int, error) {
	bb.B = append(bb.B, s...)
	return len(s), nil
}

// WriteByte appends c. It never fails.
func (bb *ByteBuffer) WriteByte(c byte) error {
	bb.B = append(bb.B, c)
	return nil
}

// WriteTo writes the buffered bytes to w.
func (bb *ByteBuffer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(bb.B)
	return int64(n), err
}

// ByteBufferPool recycles ByteBuffers. Buffers that grew beyond maxThreshold
// are dropped instead of being kept alive by the pool.
type ByteBufferPool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewByteBufferPool creates a pool of buffers with the given initial size.
// A maxThreshold of zero keeps every buffer.
func NewByteBufferPool(defaultSize int, maxThreshold int) *ByteBufferPool {
	return &ByteBufferPool{
		pool: sync.Pool{
			New: func() any {
				return NewByteBuffer(defaultSize)
			},
		},
		maxThreshold: maxThreshold,
	}
}

// Get returns an empty buffer.
func (p *ByteBufferPool) Get() *ByteBuffer {
	bb, _ := p.pool.Get().(*ByteBuffer)
	return bb
}

// Put returns bb to the pool.
func (p *ByteBufferPool) Put(bb *ByteBuffer) {
	if bb == nil {
		return
	}
	if p.maxThreshold > 0 && cap(bb.B) > p.maxThreshold {
		return
	}

	bb.Reset()
	p.pool.Put(bb)
}

var (
	linePool  = NewByteBufferPool(LineBufferDefaultSize, LineBufferMaxThreshold)
	batchPool = NewByteBufferPool(BatchBufferDefaultSize, BatchBufferMaxThreshold)
)

// GetLineBuffer returns a buffer sized for one record line.
func GetLineBuffer() *ByteBuffer {
	return linePool.Get()
}

// PutLineBuffer returns a line buffer to its pool.
func PutLineBuffer(bb *ByteBuffer) {
	linePool.Put(bb)
}

// GetBatchBuffer returns a buffer sized for a batch payload.
func GetBatchBuffer() *ByteBuffer {
	return batchPool.Get()
}

// PutBatchBuffer returns a batch buffer to its pool.
func PutBatchBuffer(bb *ByteBuffer) {
	batchPool.Put(bb)
}
