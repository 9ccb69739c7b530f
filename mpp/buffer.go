package mpp

import (
	"errors"
	"fmt"
	"sync"

	"github.com/eapache/queue"
)

// Buffer pool errors.
var (
	// ErrGroupExhausted indicates every buffer in the group is in use.
	ErrGroupExhausted = errors.New("buffer group exhausted")

	// ErrGroupReleased indicates the group has already been put back.
	ErrGroupReleased = errors.New("buffer group released")
)

// BufferGroup is a pool of equally sized buffers a codec context draws
// frame or packet memory from. Buffers cycle through a FIFO free list;
// the group never grows past its initial count.
type BufferGroup struct {
	mu       sync.Mutex
	kind     GroupKind
	size     int
	free     *queue.Queue
	released bool
}

// NewBufferGroup allocates a group of count buffers of bufferSize bytes.
func NewBufferGroup(kind GroupKind, bufferSize, count int) (*BufferGroup, error) {
	if bufferSize <= 0 || count <= 0 {
		return nil, fmt.Errorf("invalid buffer group geometry: size=%d count=%d", bufferSize, count)
	}
	g := &BufferGroup{
		kind: kind,
		size: bufferSize,
		free: queue.New(),
	}
	for i := 0; i < count; i++ {
		g.free.Add(make([]byte, bufferSize))
	}
	return g, nil
}

// Kind reports whether the group backs frame or packet memory.
func (g *BufferGroup) Kind() GroupKind {
	return g.kind
}

// BufferSize returns the fixed size of each buffer in the group.
func (g *BufferGroup) BufferSize() int {
	return g.size
}

// Free returns the number of buffers currently available.
func (g *BufferGroup) Free() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.released {
		return 0
	}
	return g.free.Length()
}

// Get takes a buffer from the free list. The buffer must be returned with
// Release once the caller is done with its contents.
func (g *BufferGroup) Get() (*Buffer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.released {
		return nil, ErrGroupReleased
	}
	if g.free.Length() == 0 {
		return nil, ErrGroupExhausted
	}
	data := g.free.Remove().([]byte)
	return &Buffer{group: g, Data: data}, nil
}

// Put releases the group and drops its free list. Buffers still checked
// out become unpooled; releasing them afterwards is a no-op. Putting a
// group twice is tolerated.
func (g *BufferGroup) Put() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.released {
		return
	}
	g.released = true
	g.free = queue.New()
}

// Buffer is one fixed-size slab checked out of a BufferGroup.
type Buffer struct {
	group *BufferGroup
	Data  []byte
}

// Release returns the buffer to its group. Releasing twice, or releasing
// into a group that has already been put, is a no-op.
func (b *Buffer) Release() {
	if b == nil || b.group == nil {
		return
	}
	g := b.group
	b.group = nil

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.released {
		return
	}
	g.free.Add(b.Data)
}
