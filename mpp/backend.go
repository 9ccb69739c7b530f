package mpp

// CodingType selects the bitstream format a context is initialized for.
// The values match the coding enumeration of the hardware engine.
type CodingType int

const (
	CodingUnused CodingType = 0
	CodingAVC    CodingType = 7
	CodingMJPEG  CodingType = 8
	CodingVP8    CodingType = 9
)

// Direction selects whether a context compresses frames into packets or
// reconstructs frames from packets.
type Direction int

const (
	// DirectionEncode configures a context to accept frames and emit packets.
	DirectionEncode Direction = iota
	// DirectionDecode configures a context to accept packets and emit frames.
	DirectionDecode
)

// GroupKind distinguishes the two buffer pools a context draws from.
type GroupKind int

const (
	// GroupFrame backs raw picture memory.
	GroupFrame GroupKind = iota
	// GroupPacket backs compressed bitstream memory.
	GroupPacket
)

// Frame is one raw NV12 picture handed to or received from a context.
// When Buffer is non-nil the data is backed by pooled memory and must be
// returned with Release once the caller has copied it out.
type Frame struct {
	Data      []byte
	Width     uint32
	Height    uint32
	Format    uint32
	Timestamp uint64
	Buffer    *Buffer
}

// Release returns the frame's backing buffer to its group, if any.
func (f *Frame) Release() {
	if f != nil && f.Buffer != nil {
		f.Buffer.Release()
		f.Buffer = nil
	}
}

// Packet is one compressed bitstream unit, independently decodable in the
// MJPEG case. Buffer semantics match Frame.
type Packet struct {
	Data      []byte
	Timestamp uint64
	Buffer    *Buffer
}

// Release returns the packet's backing buffer to its group, if any.
func (p *Packet) Release() {
	if p != nil && p.Buffer != nil {
		p.Buffer.Release()
		p.Buffer = nil
	}
}

// ContextConfig carries the codec parameters applied to a context after
// Init. Encode contexts use Width/Height/FPS/Bitrate/Quality; decode
// contexts use MaxWidth/MaxHeight. FrameGroup and PacketGroup supply the
// pooled memory the context draws output pictures and packets from; a
// context falls back to plain allocation when a group is absent.
type ContextConfig struct {
	Width     uint32
	Height    uint32
	MaxWidth  uint32
	MaxHeight uint32
	FPS       uint32
	Bitrate   uint32
	Quality   uint32
	Format    uint32

	FrameGroup  *BufferGroup
	PacketGroup *BufferGroup
}

// Context is one logical codec instance inside the engine. A context is
// exclusively owned by a single session, which serializes all calls on it;
// implementations need not be safe for concurrent use.
//
// Calls block until the engine completes them. Timeout policy, if any, is
// the implementation's responsibility and is surfaced as an error.
type Context interface {
	// Init binds the context to a coding type and direction. It must be
	// called exactly once, before Configure.
	Init(coding CodingType, dir Direction) error

	// Configure applies codec parameters. It must be called after Init and
	// before any put/get operation.
	Configure(cfg ContextConfig) error

	// PutFrame submits one raw frame for compression (encode contexts).
	PutFrame(frame *Frame) error

	// GetPacket retrieves the packet produced for the last submitted frame
	// (encode contexts).
	GetPacket() (*Packet, error)

	// PutPacket submits one compressed packet for reconstruction (decode
	// contexts).
	PutPacket(pkt *Packet) error

	// GetFrame retrieves the frame reconstructed from the last submitted
	// packet (decode contexts).
	GetFrame() (*Frame, error)

	// Destroy releases the context. Destroying twice is a no-op.
	Destroy() error
}

// Backend owns physical codec contexts and buffer memory. Implementations
// must be safe for concurrent use: independent sessions share one backend
// and create resources in parallel.
type Backend interface {
	// CreateContext allocates a fresh codec context.
	CreateContext() (Context, error)

	// BufferGroup allocates a pool of count buffers of bufferSize bytes
	// for the given kind.
	BufferGroup(kind GroupKind, bufferSize, count int) (*BufferGroup, error)
}
