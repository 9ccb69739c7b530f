package mpp

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"

	"github.com/sirupsen/logrus"
)

// SoftJPEG is a Backend that performs real baseline JPEG coding in
// software. It honors the same contract as a hardware engine: frames in,
// independently decodable JPEG packets out, and the reverse. It is the
// default backend for sessions.
type SoftJPEG struct{}

// NewSoftJPEG creates a software JPEG backend.
func NewSoftJPEG() *SoftJPEG {
	return &SoftJPEG{}
}

// CreateContext allocates a fresh software codec context.
func (s *SoftJPEG) CreateContext() (Context, error) {
	return &softContext{}, nil
}

// BufferGroup allocates a plain in-memory buffer pool.
func (s *SoftJPEG) BufferGroup(kind GroupKind, bufferSize, count int) (*BufferGroup, error) {
	return NewBufferGroup(kind, bufferSize, count)
}

type softContext struct {
	coding      CodingType
	dir         Direction
	cfg         ContextConfig
	initialized bool
	configured  bool
	destroyed   bool

	pendingFrame  *Frame
	pendingPacket *Packet
}

func (c *softContext) Init(coding CodingType, dir Direction) error {
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

func (c *softContext) Configure(cfg ContextConfig) error {
	if !c.initialized || c.destroyed {
		return errors.New("context not initialized")
	}
	if c.dir == DirectionEncode && (cfg.Quality < 1 || cfg.Quality > 100) {
		return fmt.Errorf("invalid quality %d", cfg.Quality)
	}
	c.cfg = cfg
	c.configured = true

	logrus.WithFields(logrus.Fields{
		"function":  "softContext.Configure",
		"direction": c.dir,
		"width":     cfg.Width,
		"height":    cfg.Height,
		"quality":   cfg.Quality,
	}).Debug("Software JPEG context configured")
	return nil
}

func (c *softContext) PutFrame(frame *Frame) error {
	if err := c.checkUsable(DirectionEncode); err != nil {
		return err
	}
	if frame == nil || len(frame.Data) == 0 {
		return errors.New("empty frame")
	}
	if frame.Width == 0 || frame.Height == 0 {
		return fmt.Errorf("invalid frame dimensions %dx%d", frame.Width, frame.Height)
	}
	c.pendingFrame = frame
	return nil
}

func (c *softContext) GetPacket() (*Packet, error) {
	if err := c.checkUsable(DirectionEncode); err != nil {
		return nil, err
	}
	if c.pendingFrame == nil {
		return nil, errors.New("no frame pending")
	}
	frame := c.pendingFrame
	c.pendingFrame = nil

	img, err := nv12ToYCbCr(frame.Data, int(frame.Width), int(frame.Height))
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: int(c.cfg.Quality)}); err != nil {
		return nil, fmt.Errorf("jpeg encode: %w", err)
	}

	pkt := &Packet{Timestamp: frame.Timestamp}
	if c.cfg.PacketGroup != nil {
		buf, err := c.cfg.PacketGroup.Get()
		if err != nil {
			return nil, fmt.Errorf("packet buffer: %w", err)
		}
		if out.Len() > len(buf.Data) {
			buf.Release()
			return nil, fmt.Errorf("encoded packet %d bytes exceeds buffer size %d", out.Len(), len(buf.Data))
		}
		n := copy(buf.Data, out.Bytes())
		pkt.Data = buf.Data[:n]
		pkt.Buffer = buf
	} else {
		pkt.Data = out.Bytes()
	}
	return pkt, nil
}

func (c *softContext) PutPacket(pkt *Packet) error {
	if err := c.checkUsable(DirectionDecode); err != nil {
		return err
	}
	if pkt == nil || len(pkt.Data) == 0 {
		return errors.New("empty packet")
	}
	c.pendingPacket = pkt
	return nil
}

func (c *softContext) GetFrame() (*Frame, error) {
	if err := c.checkUsable(DirectionDecode); err != nil {
		return nil, err
	}
	if c.pendingPacket == nil {
		return nil, errors.New("no packet pending")
	}
	pkt := c.pendingPacket
	c.pendingPacket = nil

	img, err := jpeg.Decode(bytes.NewReader(pkt.Data))
	if err != nil {
		return nil, fmt.Errorf("jpeg decode: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if uint32(w) > c.cfg.MaxWidth || uint32(h) > c.cfg.MaxHeight {
		return nil, fmt.Errorf("decoded frame %dx%d exceeds configured maximum %dx%d",
			w, h, c.cfg.MaxWidth, c.cfg.MaxHeight)
	}

	frame := &Frame{
		Width:     uint32(w),
		Height:    uint32(h),
		Format:    c.cfg.Format,
		Timestamp: pkt.Timestamp,
	}

	need := nv12Size(w, h)
	if c.cfg.FrameGroup != nil {
		buf, err := c.cfg.FrameGroup.Get()
		if err != nil {
			return nil, fmt.Errorf("frame buffer: %w", err)
		}
		if need > len(buf.Data) {
			buf.Release()
			return nil, fmt.Errorf("decoded frame %d bytes exceeds buffer size %d", need, len(buf.Data))
		}
		frame.Data = buf.Data[:need]
		frame.Buffer = buf
	} else {
		frame.Data = make([]byte, need)
	}

	ycbcrToNV12(img, frame.Data, w, h)
	return frame, nil
}

func (c *softContext) Destroy() error {
	c.destroyed = true
	c.pendingFrame = nil
	c.pendingPacket = nil
	return nil
}

func (c *softContext) checkUsable(dir Direction) error {
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

// nv12Size is the NV12 byte size for the given dimensions, with chroma
// planes rounded up for odd sizes.
func nv12Size(w, h int) int {
	cw, ch := (w+1)/2, (h+1)/2
	return w*h + 2*cw*ch
}

// nv12ToYCbCr unpacks an NV12 buffer into a 4:2:0 image. Input shorter
// than the full frame is zero-padded rather than rejected.
func nv12ToYCbCr(data []byte, w, h int) (*image.YCbCr, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid dimensions %dx%d", w, h)
	}
	need := nv12Size(w, h)
	src := data
	if len(src) < need {
		padded := make([]byte, need)
		copy(padded, src)
		src = padded
	}

	img := image.NewYCbCr(image.Rect(0, 0, w, h), image.YCbCrSubsampleRatio420)
	ySize := w * h
	copy(img.Y, src[:ySize])

	cw, ch := (w+1)/2, (h+1)/2
	uv := src[ySize:]
	for row := 0; row < ch; row++ {
		for col := 0; col < cw; col++ {
			i := row*cw + col
			img.Cb[row*img.CStride+col] = uv[2*i]
			img.Cr[row*img.CStride+col] = uv[2*i+1]
		}
	}
	return img, nil
}

// ycbcrToNV12 packs a decoded image into an NV12 buffer of nv12Size(w, h)
// bytes. YCbCr sources copy plane data directly; anything else goes
// through the color model.
func ycbcrToNV12(img image.Image, dst []byte, w, h int) {
	ySize := w * h
	cw, ch := (w+1)/2, (h+1)/2
	uv := dst[ySize:]

	if yimg, ok := img.(*image.YCbCr); ok {
		min := yimg.Rect.Min
		for row := 0; row < h; row++ {
			for col := 0; col < w; col++ {
				dst[row*w+col] = yimg.Y[yimg.YOffset(min.X+col, min.Y+row)]
			}
		}
		for row := 0; row < ch; row++ {
			for col := 0; col < cw; col++ {
				off := yimg.COffset(min.X+col*2, min.Y+row*2)
				uv[2*(row*cw+col)] = yimg.Cb[off]
				uv[2*(row*cw+col)+1] = yimg.Cr[off]
			}
		}
		return
	}

	min := img.Bounds().Min
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			r, g, b, _ := img.At(min.X+col, min.Y+row).RGBA()
			y, _, _ := color.RGBToYCbCr(uint8(r>>8), uint8(g>>8), uint8(b>>8))
			dst[row*w+col] = y
		}
	}
	for row := 0; row < ch; row++ {
		for col := 0; col < cw; col++ {
			r, g, b, _ := img.At(min.X+col*2, min.Y+row*2).RGBA()
			_, cb, cr := color.RGBToYCbCr(uint8(r>>8), uint8(g>>8), uint8(b>>8))
			uv[2*(row*cw+col)] = cb
			uv[2*(row*cw+col)+1] = cr
		}
	}
}
