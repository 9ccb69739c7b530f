package mjpeg

import (
	"errors"
	"sync"

	"github.com/rkmedia/mjpeg/mpp"
)

// failPoint selects which acquisition or transform step a recording
// backend fails at.
type failPoint int

const (
	failNone failPoint = iota
	failCreateContext
	failInit
	failFrameGroup
	failPacketGroup
	failConfigure
	failTransform
)

// recordingBackend is an mpp.Backend test double that records acquisition
// and release events and can be told to fail at a chosen step.
type recordingBackend struct {
	mu     sync.Mutex
	fail   failPoint
	events []string
	groups []*mpp.BufferGroup
}

func (b *recordingBackend) record(event string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBackend) setFail(p failPoint) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fail = p
}

func (b *recordingBackend) failAt(p failPoint) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fail == p
}

func (b *recordingBackend) CreateContext() (mpp.Context, error) {
	if b.failAt(failCreateContext) {
		return nil, errors.New("injected create failure")
	}
	b.record("context.create")
	return &recordingContext{backend: b}, nil
}

func (b *recordingBackend) BufferGroup(kind mpp.GroupKind, bufferSize, count int) (*mpp.BufferGroup, error) {
	if kind == mpp.GroupFrame && b.failAt(failFrameGroup) {
		return nil, errors.New("injected frame group failure")
	}
	if kind == mpp.GroupPacket && b.failAt(failPacketGroup) {
		return nil, errors.New("injected packet group failure")
	}
	g, err := mpp.NewBufferGroup(kind, bufferSize, count)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	b.groups = append(b.groups, g)
	b.mu.Unlock()
	return g, nil
}

// allGroupsReleased reports whether every group handed out has been put
// back. A put group has an empty free list.
func (b *recordingBackend) allGroupsReleased() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, g := range b.groups {
		if g.Free() != 0 {
			return false
		}
	}
	return true
}

// recordingContext passes data through unchanged, like the stub backend,
// while reporting lifecycle events to its backend.
type recordingContext struct {
	backend *recordingBackend
	cfg     mpp.ContextConfig
	dir     mpp.Direction

	pendingFrame  *mpp.Frame
	pendingPacket *mpp.Packet
}

func (c *recordingContext) Init(coding mpp.CodingType, dir mpp.Direction) error {
	if c.backend.failAt(failInit) {
		return errors.New("injected init failure")
	}
	c.dir = dir
	c.backend.record("context.init")
	return nil
}

func (c *recordingContext) Configure(cfg mpp.ContextConfig) error {
	if c.backend.failAt(failConfigure) {
		return errors.New("injected configure failure")
	}
	c.cfg = cfg
	c.backend.record("context.configure")
	return nil
}

func (c *recordingContext) PutFrame(frame *mpp.Frame) error {
	if c.backend.failAt(failTransform) {
		return errors.New("injected transform failure")
	}
	c.pendingFrame = frame
	return nil
}

func (c *recordingContext) GetPacket() (*mpp.Packet, error) {
	if c.pendingFrame == nil {
		return nil, errors.New("no frame pending")
	}
	frame := c.pendingFrame
	c.pendingFrame = nil
	return &mpp.Packet{
		Data:      append([]byte(nil), frame.Data...),
		Timestamp: frame.Timestamp,
	}, nil
}

func (c *recordingContext) PutPacket(pkt *mpp.Packet) error {
	if c.backend.failAt(failTransform) {
		return errors.New("injected transform failure")
	}
	c.pendingPacket = pkt
	return nil
}

func (c *recordingContext) GetFrame() (*mpp.Frame, error) {
	if c.pendingPacket == nil {
		return nil, errors.New("no packet pending")
	}
	pkt := c.pendingPacket
	c.pendingPacket = nil
	return &mpp.Frame{
		Data:      append([]byte(nil), pkt.Data...),
		Width:     c.cfg.MaxWidth,
		Height:    c.cfg.MaxHeight,
		Format:    c.cfg.Format,
		Timestamp: pkt.Timestamp,
	}, nil
}

func (c *recordingContext) Destroy() error {
	c.backend.record("context.destroy")
	return nil
}
