package mpp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEncodeStubContext(t *testing.T, cfg ContextConfig) Context {
	t.Helper()
	ctx, err := NewStub().CreateContext()
	require.NoError(t, err)
	require.NoError(t, ctx.Init(CodingMJPEG, DirectionEncode))
	require.NoError(t, ctx.Configure(cfg))
	return ctx
}

func newDecodeStubContext(t *testing.T, cfg ContextConfig) Context {
	t.Helper()
	ctx, err := NewStub().CreateContext()
	require.NoError(t, err)
	require.NoError(t, ctx.Init(CodingMJPEG, DirectionDecode))
	require.NoError(t, ctx.Configure(cfg))
	return ctx
}

func TestStubContextInit(t *testing.T) {
	ctx, err := NewStub().CreateContext()
	require.NoError(t, err)

	// Only MJPEG coding is supported.
	assert.Error(t, ctx.Init(CodingVP8, DirectionEncode))

	require.NoError(t, ctx.Init(CodingMJPEG, DirectionEncode))
	assert.Error(t, ctx.Init(CodingMJPEG, DirectionEncode), "double init must fail")
}

func TestStubContextRequiresConfigure(t *testing.T) {
	ctx, err := NewStub().CreateContext()
	require.NoError(t, err)
	require.NoError(t, ctx.Init(CodingMJPEG, DirectionEncode))

	err = ctx.PutFrame(&Frame{Data: []byte{1}})
	assert.Error(t, err)
}

func TestStubEncodePassthrough(t *testing.T) {
	ctx := newEncodeStubContext(t, ContextConfig{Width: 64, Height: 64})

	payload := bytes.Repeat([]byte{0xAB}, 6144)
	require.NoError(t, ctx.PutFrame(&Frame{
		Data: payload, Width: 64, Height: 64, Timestamp: 42,
	}))

	pkt, err := ctx.GetPacket()
	require.NoError(t, err)
	assert.Equal(t, payload, pkt.Data)
	assert.Equal(t, uint64(42), pkt.Timestamp)

	// put/get strictly alternate
	_, err = ctx.GetPacket()
	assert.Error(t, err)
}

func TestStubEncodeDrawsFromPacketGroup(t *testing.T) {
	group, err := NewBufferGroup(GroupPacket, 8192, 2)
	require.NoError(t, err)
	ctx := newEncodeStubContext(t, ContextConfig{Width: 64, Height: 64, PacketGroup: group})

	require.NoError(t, ctx.PutFrame(&Frame{Data: make([]byte, 6144)}))
	pkt, err := ctx.GetPacket()
	require.NoError(t, err)
	require.NotNil(t, pkt.Buffer)
	assert.Equal(t, 1, group.Free())

	pkt.Release()
	assert.Equal(t, 2, group.Free())
}

func TestStubDecodeReportsConfiguredMaximums(t *testing.T) {
	ctx := newDecodeStubContext(t, ContextConfig{MaxWidth: 640, MaxHeight: 480})

	payload := []byte{1, 2, 3, 4}
	require.NoError(t, ctx.PutPacket(&Packet{Data: payload, Timestamp: 7}))

	frame, err := ctx.GetFrame()
	require.NoError(t, err)
	assert.Equal(t, payload, frame.Data)
	assert.Equal(t, uint32(640), frame.Width)
	assert.Equal(t, uint32(480), frame.Height)
	assert.Equal(t, uint64(7), frame.Timestamp)
}

func TestStubDirectionEnforcement(t *testing.T) {
	enc := newEncodeStubContext(t, ContextConfig{Width: 64, Height: 64})
	assert.Error(t, enc.PutPacket(&Packet{Data: []byte{1}}))

	dec := newDecodeStubContext(t, ContextConfig{MaxWidth: 64, MaxHeight: 64})
	assert.Error(t, dec.PutFrame(&Frame{Data: []byte{1}}))
}

func TestStubDestroy(t *testing.T) {
	ctx := newEncodeStubContext(t, ContextConfig{Width: 64, Height: 64})
	require.NoError(t, ctx.Destroy())

	assert.Error(t, ctx.PutFrame(&Frame{Data: []byte{1}}))
	assert.NoError(t, ctx.Destroy(), "double destroy is a no-op")
}
