package mjpeg

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rkmedia/mjpeg/mpp"
)

// Encoder is one NV12→MJPEG coding session. It exclusively owns a backend
// context and two buffer groups between creation and Close, serializes all
// operations through one mutex, and accumulates per-session statistics.
//
// A closed encoder must not be used again; Close itself is safe to call
// more than once.
type Encoder struct {
	mu sync.Mutex

	id      uuid.UUID
	cfg     EncoderConfig
	backend mpp.Backend

	ctx         mpp.Context
	frameGroup  *mpp.BufferGroup
	packetGroup *mpp.BufferGroup
	resources   resourceStack

	framesEncoded uint64
	bytesEncoded  uint64
	state         sessionState
}

// NewEncoder creates an encoder session backed by the default software
// JPEG backend.
func NewEncoder(cfg *EncoderConfig) (*Encoder, error) {
	return NewEncoderWithBackend(cfg, mpp.NewSoftJPEG())
}

// NewEncoderWithBackend creates an encoder session driving the given
// backend. The configuration is validated before anything is allocated;
// on any acquisition failure every resource obtained so far is released,
// in reverse acquisition order, and no session is returned.
func NewEncoderWithBackend(cfg *EncoderConfig, backend mpp.Backend) (*Encoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if backend == nil {
		return nil, fmt.Errorf("%w: backend is nil", ErrInvalidParam)
	}

	enc := &Encoder{
		id:      uuid.New(),
		cfg:     *cfg,
		backend: backend,
	}
	enc.cfg.Quality = cfg.effectiveQuality()

	if err := enc.acquire(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "NewEncoderWithBackend",
			"session":  enc.id,
			"error":    err.Error(),
		}).Error("Failed to acquire encoder resources")
		return nil, err
	}
	enc.state = stateReady

	logrus.WithFields(logrus.Fields{
		"function": "NewEncoderWithBackend",
		"session":  enc.id,
		"width":    enc.cfg.Width,
		"height":   enc.cfg.Height,
		"fps":      enc.cfg.FPS,
		"quality":  enc.cfg.Quality,
	}).Info("MJPEG encoder session ready")
	return enc, nil
}

// acquire obtains backend resources in creation order: context, direction
// init, frame group, packet group, codec configuration. Any failure
// unwinds what was already acquired, newest first.
func (e *Encoder) acquire() (err error) {
	defer func() {
		if err != nil {
			e.resources.unwind()
			e.ctx = nil
			e.frameGroup = nil
			e.packetGroup = nil
		}
	}()

	ctx, err := e.backend.CreateContext()
	if err != nil {
		return fmt.Errorf("%w: create context: %v", ErrInit, err)
	}
	e.ctx = ctx
	e.resources.push(func() {
		if derr := ctx.Destroy(); derr != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Encoder.acquire",
				"session":  e.id,
				"error":    derr.Error(),
			}).Error("Failed to destroy encoder context")
		}
	})

	if err = ctx.Init(mpp.CodingMJPEG, mpp.DirectionEncode); err != nil {
		return fmt.Errorf("%w: init context: %v", ErrInit, err)
	}

	rawSize := int(RawFrameSize(e.cfg.Width, e.cfg.Height))

	e.frameGroup, err = e.backend.BufferGroup(mpp.GroupFrame, rawSize, frameBufferCount)
	if err != nil {
		return fmt.Errorf("%w: frame buffer group: %v", ErrMemory, err)
	}
	fg := e.frameGroup
	e.resources.push(func() { fg.Put() })

	e.packetGroup, err = e.backend.BufferGroup(mpp.GroupPacket, rawSize, packetBufferCount)
	if err != nil {
		return fmt.Errorf("%w: packet buffer group: %v", ErrMemory, err)
	}
	pg := e.packetGroup
	e.resources.push(func() { pg.Put() })

	err = ctx.Configure(mpp.ContextConfig{
		Width:       e.cfg.Width,
		Height:      e.cfg.Height,
		FPS:         e.cfg.FPS,
		Bitrate:     e.cfg.Bitrate,
		Quality:     e.cfg.Quality,
		Format:      FormatNV12,
		FrameGroup:  e.frameGroup,
		PacketGroup: e.packetGroup,
	})
	if err != nil {
		return fmt.Errorf("%w: configure context: %v", ErrInit, err)
	}
	return nil
}

// Encode compresses one NV12 frame from src into dst and returns the
// number of bytes written.
//
// src must hold at least RawFrameSize(cfg.Width, cfg.Height) bytes and dst
// must have at least that capacity; violations return ErrInvalidParam
// before the backend is touched. A backend transform failure returns
// ErrEncode and leaves the session Ready for subsequent calls.
func (e *Encoder) Encode(src, dst []byte) (int, error) {
	if e == nil {
		return 0, fmt.Errorf("%w: encoder is nil", ErrInvalidParam)
	}
	if src == nil || dst == nil {
		return 0, fmt.Errorf("%w: nil buffer", ErrInvalidParam)
	}
	rawSize := int(RawFrameSize(e.cfg.Width, e.cfg.Height))
	if len(src) < rawSize {
		return 0, fmt.Errorf("%w: input %d bytes below frame size %d", ErrInvalidParam, len(src), rawSize)
	}
	if len(dst) < rawSize {
		return 0, fmt.Errorf("%w: output capacity %d below frame size %d", ErrInvalidParam, len(dst), rawSize)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != stateReady {
		return 0, fmt.Errorf("%w: encoder session", ErrNotReady)
	}

	staging, err := e.frameGroup.Get()
	if err != nil {
		return 0, fmt.Errorf("%w: frame buffer: %v", ErrMemory, err)
	}
	defer staging.Release()
	copy(staging.Data, src[:rawSize])

	frame := &mpp.Frame{
		Data:      staging.Data[:rawSize],
		Width:     e.cfg.Width,
		Height:    e.cfg.Height,
		Format:    FormatNV12,
		Timestamp: mediaTimestamp(),
	}
	if err := e.ctx.PutFrame(frame); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	pkt, err := e.ctx.GetPacket()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	defer pkt.Release()

	if len(pkt.Data) > len(dst) {
		return 0, fmt.Errorf("%w: packet %d bytes exceeds output capacity %d", ErrEncode, len(pkt.Data), len(dst))
	}
	n := copy(dst, pkt.Data)

	e.framesEncoded++
	e.bytesEncoded += uint64(n)

	logrus.WithFields(logrus.Fields{
		"function":    "Encoder.Encode",
		"session":     e.id,
		"packet_size": n,
		"frames":      e.framesEncoded,
	}).Debug("Frame encoded")
	return n, nil
}

// Stats returns the cumulative number of frames and bytes this session has
// produced. The snapshot is taken under the session lock.
func (e *Encoder) Stats() (frames, bytes uint64, err error) {
	if e == nil {
		return 0, 0, fmt.Errorf("%w: encoder is nil", ErrInvalidParam)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.framesEncoded, e.bytesEncoded, nil
}

// Config returns a copy of the session configuration, with the quality
// default already resolved. A nil receiver yields the zero configuration.
func (e *Encoder) Config() EncoderConfig {
	if e == nil {
		return EncoderConfig{}
	}
	return e.cfg
}

// Close tears the session down, releasing the packet group, frame group,
// and backend context in reverse acquisition order. It synchronizes with
// any in-flight operation and is a no-op on an already closed session.
func (e *Encoder) Close() error {
	if e == nil {
		return fmt.Errorf("%w: encoder is nil", ErrInvalidParam)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == stateDestroyed {
		return nil
	}
	e.resources.unwind()
	e.ctx = nil
	e.frameGroup = nil
	e.packetGroup = nil
	e.state = stateDestroyed

	logrus.WithFields(logrus.Fields{
		"function": "Encoder.Close",
		"session":  e.id,
		"frames":   e.framesEncoded,
		"bytes":    e.bytesEncoded,
	}).Info("MJPEG encoder session closed")
	return nil
}
