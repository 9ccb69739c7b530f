package mjpeg

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rkmedia/mjpeg/mpp"
)

// Decoder is one MJPEG→NV12 coding session, structurally symmetric to
// Encoder: exclusive ownership of a backend context and two buffer groups,
// one mutex serializing all operations, cumulative statistics.
type Decoder struct {
	mu sync.Mutex

	id      uuid.UUID
	cfg     DecoderConfig
	backend mpp.Backend

	ctx         mpp.Context
	frameGroup  *mpp.BufferGroup
	packetGroup *mpp.BufferGroup
	resources   resourceStack

	framesDecoded uint64
	bytesDecoded  uint64
	state         sessionState
}

// NewDecoder creates a decoder session backed by the default software
// JPEG backend.
func NewDecoder(cfg *DecoderConfig) (*Decoder, error) {
	return NewDecoderWithBackend(cfg, mpp.NewSoftJPEG())
}

// NewDecoderWithBackend creates a decoder session driving the given
// backend, with the same validate-first, rollback-on-failure guarantees
// as NewEncoderWithBackend.
func NewDecoderWithBackend(cfg *DecoderConfig, backend mpp.Backend) (*Decoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if backend == nil {
		return nil, fmt.Errorf("%w: backend is nil", ErrInvalidParam)
	}

	dec := &Decoder{
		id:      uuid.New(),
		cfg:     *cfg,
		backend: backend,
	}

	if err := dec.acquire(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "NewDecoderWithBackend",
			"session":  dec.id,
			"error":    err.Error(),
		}).Error("Failed to acquire decoder resources")
		return nil, err
	}
	dec.state = stateReady

	logrus.WithFields(logrus.Fields{
		"function":   "NewDecoderWithBackend",
		"session":    dec.id,
		"max_width":  dec.cfg.MaxWidth,
		"max_height": dec.cfg.MaxHeight,
	}).Info("MJPEG decoder session ready")
	return dec, nil
}

// acquire mirrors Encoder.acquire with the decode direction and the
// maximum-dimension buffer sizing.
func (d *Decoder) acquire() (err error) {
	defer func() {
		if err != nil {
			d.resources.unwind()
			d.ctx = nil
			d.frameGroup = nil
			d.packetGroup = nil
		}
	}()

	ctx, err := d.backend.CreateContext()
	if err != nil {
		return fmt.Errorf("%w: create context: %v", ErrInit, err)
	}
	d.ctx = ctx
	d.resources.push(func() {
		if derr := ctx.Destroy(); derr != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Decoder.acquire",
				"session":  d.id,
				"error":    derr.Error(),
			}).Error("Failed to destroy decoder context")
		}
	})

	if err = ctx.Init(mpp.CodingMJPEG, mpp.DirectionDecode); err != nil {
		return fmt.Errorf("%w: init context: %v", ErrInit, err)
	}

	rawSize := int(RawFrameSize(d.cfg.MaxWidth, d.cfg.MaxHeight))

	d.frameGroup, err = d.backend.BufferGroup(mpp.GroupFrame, rawSize, frameBufferCount)
	if err != nil {
		return fmt.Errorf("%w: frame buffer group: %v", ErrMemory, err)
	}
	fg := d.frameGroup
	d.resources.push(func() { fg.Put() })

	d.packetGroup, err = d.backend.BufferGroup(mpp.GroupPacket, rawSize, packetBufferCount)
	if err != nil {
		return fmt.Errorf("%w: packet buffer group: %v", ErrMemory, err)
	}
	pg := d.packetGroup
	d.resources.push(func() { pg.Put() })

	err = ctx.Configure(mpp.ContextConfig{
		MaxWidth:    d.cfg.MaxWidth,
		MaxHeight:   d.cfg.MaxHeight,
		Format:      d.cfg.OutputFormat,
		FrameGroup:  d.frameGroup,
		PacketGroup: d.packetGroup,
	})
	if err != nil {
		return fmt.Errorf("%w: configure context: %v", ErrInit, err)
	}
	return nil
}

// Decode reconstructs one raw NV12 frame from the compressed bitstream in
// src, writes it into dst, and returns the number of bytes written along
// with the frame's descriptor.
//
// src must be non-empty; an unparsable bitstream returns ErrDecode and
// leaves the session Ready. If dst is smaller than the reconstructed frame
// the output is truncated to len(dst) bytes; callers avoid truncation by
// pre-sizing dst with RawFrameSize.
func (d *Decoder) Decode(src, dst []byte) (int, FrameInfo, error) {
	var info FrameInfo
	if d == nil {
		return 0, info, fmt.Errorf("%w: decoder is nil", ErrInvalidParam)
	}
	if src == nil || dst == nil {
		return 0, info, fmt.Errorf("%w: nil buffer", ErrInvalidParam)
	}
	if len(src) == 0 {
		return 0, info, fmt.Errorf("%w: empty bitstream", ErrInvalidParam)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != stateReady {
		return 0, info, fmt.Errorf("%w: decoder session", ErrNotReady)
	}

	// Stage the bitstream through packet memory when it fits; oversized
	// inputs go to the backend directly for the duration of the call.
	data := src
	if staging, err := d.packetGroup.Get(); err == nil {
		if len(src) <= len(staging.Data) {
			defer staging.Release()
			n := copy(staging.Data, src)
			data = staging.Data[:n]
		} else {
			staging.Release()
		}
	}

	pkt := &mpp.Packet{Data: data, Timestamp: mediaTimestamp()}
	if err := d.ctx.PutPacket(pkt); err != nil {
		return 0, info, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	frame, err := d.ctx.GetFrame()
	if err != nil {
		return 0, info, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	defer frame.Release()

	n := copy(dst, frame.Data)
	info = FrameInfo{
		Width:     frame.Width,
		Height:    frame.Height,
		Format:    frame.Format,
		Timestamp: frame.Timestamp,
	}

	d.framesDecoded++
	d.bytesDecoded += uint64(n)

	logrus.WithFields(logrus.Fields{
		"function":   "Decoder.Decode",
		"session":    d.id,
		"frame_size": n,
		"width":      info.Width,
		"height":     info.Height,
		"frames":     d.framesDecoded,
	}).Debug("Frame decoded")
	return n, info, nil
}

// Stats returns the cumulative number of frames and bytes this session has
// produced. The snapshot is taken under the session lock.
func (d *Decoder) Stats() (frames, bytes uint64, err error) {
	if d == nil {
		return 0, 0, fmt.Errorf("%w: decoder is nil", ErrInvalidParam)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.framesDecoded, d.bytesDecoded, nil
}

// Config returns a copy of the session configuration. A nil receiver
// yields the zero configuration.
func (d *Decoder) Config() DecoderConfig {
	if d == nil {
		return DecoderConfig{}
	}
	return d.cfg
}

// Close tears the session down, releasing the packet group, frame group,
// and backend context in reverse acquisition order. It synchronizes with
// any in-flight operation and is a no-op on an already closed session.
func (d *Decoder) Close() error {
	if d == nil {
		return fmt.Errorf("%w: decoder is nil", ErrInvalidParam)
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == stateDestroyed {
		return nil
	}
	d.resources.unwind()
	d.ctx = nil
	d.frameGroup = nil
	d.packetGroup = nil
	d.state = stateDestroyed

	logrus.WithFields(logrus.Fields{
		"function": "Decoder.Close",
		"session":  d.id,
		"frames":   d.framesDecoded,
		"bytes":    d.bytesDecoded,
	}).Info("MJPEG decoder session closed")
	return nil
}
