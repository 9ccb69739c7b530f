package mpp

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Stub is an in-memory Backend that stands in for real codec hardware.
// Its contexts copy bytes through unchanged instead of coding them, which
// keeps tests deterministic and removes any dependency on a real engine.
type Stub struct{}

// NewStub creates a byte-copy test backend.
func NewStub() *Stub {
	return &Stub{}
}

// CreateContext allocates a fresh stub context.
func (s *Stub) CreateContext() (Context, error) {
	return &stubContext{}, nil
}

// BufferGroup allocates a plain in-memory buffer pool.
func (s *Stub) BufferGroup(kind GroupKind, bufferSize, count int) (*BufferGroup, error) {
	return NewBufferGroup(kind, bufferSize, count)
}

// stubContext passes data through unchanged: a submitted frame comes back
// as an identical packet, and a submitted packet comes back as a frame
// whose dimensions are the configured maximums.
type stubContext struct {
	coding      CodingType
	dir         Direction
	cfg         ContextConfig
	initialized bool
	configured  bool
	destroyed   bool

	pendingFrame  *Frame
	pendingPacket *Packet
}

func (c *stubContext) Init(coding CodingType, dir Direction) error {
	if c.destroyed {
		return errors.New("context destroyed")
	}
	if c.initialized {
		return errors.New("context already initialized")
	}
	if coding != CodingMJPEG {
		return fmt.Errorf("unsupported coding type %d", coding)
	}
	c.coding = coding
	c.dir = dir
	c.initialized = true
	return nil
}

func (c *stubContext) Configure(cfg ContextConfig) error {
	if !c.initialized || c.destroyed {
		return errors.New("context not initialized")
	}
	c.cfg = cfg
	c.configured = true

	logrus.WithFields(logrus.Fields{
		"function":  "stubContext.Configure",
		"direction": c.dir,
		"width":     cfg.Width,
		"height":    cfg.Height,
	}).Debug("Stub context configured")
	return nil
}

func (c *stubContext) PutFrame(frame *Frame) error {
	if err := c.checkUsable(DirectionEncode); err != nil {
		return err
	}
	if frame == nil || len(frame.Data) == 0 {
		return errors.New("empty frame")
	}
	c.pendingFrame = frame
	return nil
}

func (c *stubContext) GetPacket() (*Packet, error) {
	if err := c.checkUsable(DirectionEncode); err != nil {
		return nil, err
	}
	if c.pendingFrame == nil {
		return nil, errors.New("no frame pending")
	}
	frame := c.pendingFrame
	c.pendingFrame = nil

	pkt := &Packet{Timestamp: frame.Timestamp}
	if buf, err := c.checkout(c.cfg.PacketGroup, len(frame.Data)); err == nil && buf != nil {
		n := copy(buf.Data, frame.Data)
		pkt.Data = buf.Data[:n]
		pkt.Buffer = buf
	} else if err != nil {
		return nil, err
	} else {
		pkt.Data = append([]byte(nil), frame.Data...)
	}
	return pkt, nil
}

func (c *stubContext) PutPacket(pkt *Packet) error {
	if err := c.checkUsable(DirectionDecode); err != nil {
		return err
	}
	if pkt == nil || len(pkt.Data) == 0 {
		return errors.New("empty packet")
	}
	c.pendingPacket = pkt
	return nil
}

func (c *stubContext) GetFrame() (*Frame, error) {
	if err := c.checkUsable(DirectionDecode); err != nil {
		return nil, err
	}
	if c.pendingPacket == nil {
		return nil, errors.New("no packet pending")
	}
	pkt := c.pendingPacket
	c.pendingPacket = nil

	frame := &Frame{
		Width:     c.cfg.MaxWidth,
		Height:    c.cfg.MaxHeight,
		Format:    c.cfg.Format,
		Timestamp: pkt.Timestamp,
	}
	if buf, err := c.checkout(c.cfg.FrameGroup, len(pkt.Data)); err == nil && buf != nil {
		n := copy(buf.Data, pkt.Data)
		frame.Data = buf.Data[:n]
		frame.Buffer = buf
	} else if err != nil {
		return nil, err
	} else {
		frame.Data = append([]byte(nil), pkt.Data...)
	}
	return frame, nil
}

func (c *stubContext) Destroy() error {
	c.destroyed = true
	c.pendingFrame = nil
	c.pendingPacket = nil
	return nil
}

func (c *stubContext) checkUsable(dir Direction) error {
	if c.destroyed {
		return errors.New("context destroyed")
	}
	if !c.configured {
		return errors.New("context not configured")
	}
	if c.dir != dir {
		return fmt.Errorf("context initialized for direction %d", c.dir)
	}
	return nil
}

// checkout draws a pooled buffer when a group is configured and the data
// fits; a nil group means plain allocation is used instead.
func (c *stubContext) checkout(group *BufferGroup, need int) (*Buffer, error) {
	if group == nil || need > group.BufferSize() {
		return nil, nil
	}
	buf, err := group.Get()
	if err != nil {
		return nil, fmt.Errorf("buffer group: %w", err)
	}
	return buf, nil
}
