package mjpeg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rkmedia/mjpeg/mpp"
)

func validDecoderConfig() *DecoderConfig {
	return &DecoderConfig{MaxWidth: 640, MaxHeight: 480, OutputFormat: FormatNV12}
}

func TestNewDecoderNilConfig(t *testing.T) {
	dec, err := NewDecoder(nil)
	assert.ErrorIs(t, err, ErrInvalidParam)
	assert.Nil(t, dec)

	dec, err = NewDecoderWithBackend(validDecoderConfig(), mpp.NewStub())
	require.NoError(t, err)
	assert.NoError(t, dec.Close())
}

func TestNewDecoderRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  DecoderConfig
	}{
		{"max_width_below_min", DecoderConfig{MaxWidth: 15, MaxHeight: 480}},
		{"max_width_above_max", DecoderConfig{MaxWidth: 4097, MaxHeight: 480}},
		{"max_height_below_min", DecoderConfig{MaxWidth: 640, MaxHeight: 8}},
		{"max_height_above_max", DecoderConfig{MaxWidth: 640, MaxHeight: 8192}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec, err := NewDecoderWithBackend(&tt.cfg, mpp.NewStub())
			assert.ErrorIs(t, err, ErrInvalidParam)
			assert.Nil(t, dec)
		})
	}
}

func TestDecoderRollbackOnCreateFailure(t *testing.T) {
	tests := []struct {
		name    string
		fail    failPoint
		wantErr error
	}{
		{"create_context", failCreateContext, ErrInit},
		{"init", failInit, ErrInit},
		{"frame_group", failFrameGroup, ErrMemory},
		{"packet_group", failPacketGroup, ErrMemory},
		{"configure", failConfigure, ErrInit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &recordingBackend{fail: tt.fail}
			dec, err := NewDecoderWithBackend(validDecoderConfig(), backend)
			require.Error(t, err)
			assert.Nil(t, dec)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, backend.allGroupsReleased(), "buffer groups leaked")
			if tt.fail != failCreateContext {
				assert.Equal(t, "context.destroy", backend.events[len(backend.events)-1])
			}
		})
	}
}

func TestDecodeArgumentValidation(t *testing.T) {
	dec, err := NewDecoderWithBackend(validDecoderConfig(), mpp.NewStub())
	require.NoError(t, err)
	defer dec.Close()

	rawSize := int(RawFrameSize(640, 480))
	out := make([]byte, rawSize)

	tests := []struct {
		name string
		src  []byte
		dst  []byte
	}{
		{"nil_input", nil, out},
		{"empty_input", []byte{}, out},
		{"nil_output", make([]byte, 16), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, _, err := dec.Decode(tt.src, tt.dst)
			assert.ErrorIs(t, err, ErrInvalidParam)
			assert.Zero(t, n)

			frames, bytes, serr := dec.Stats()
			require.NoError(t, serr)
			assert.Zero(t, frames)
			assert.Zero(t, bytes)
		})
	}
}

func TestDecodeNilReceiver(t *testing.T) {
	var dec *Decoder
	_, _, err := dec.Decode(make([]byte, 1), make([]byte, 1))
	assert.ErrorIs(t, err, ErrInvalidParam)

	_, _, err = dec.Stats()
	assert.ErrorIs(t, err, ErrInvalidParam)

	assert.ErrorIs(t, dec.Close(), ErrInvalidParam)
	assert.Equal(t, DecoderConfig{}, dec.Config())
}

func TestDecodePopulatesFrameInfo(t *testing.T) {
	dec, err := NewDecoderWithBackend(validDecoderConfig(), mpp.NewStub())
	require.NoError(t, err)
	defer dec.Close()

	rawSize := int(RawFrameSize(640, 480))
	bitstream := make([]byte, 1024)
	out := make([]byte, rawSize)

	n, info, err := dec.Decode(bitstream, out)
	require.NoError(t, err)
	assert.Equal(t, len(bitstream), n)
	assert.Equal(t, uint32(640), info.Width)
	assert.Equal(t, uint32(480), info.Height)
	assert.Equal(t, FormatNV12, info.Format)
	assert.NotZero(t, info.Timestamp)
}

func TestDecodeTruncatesToOutputCapacity(t *testing.T) {
	dec, err := NewDecoderWithBackend(validDecoderConfig(), mpp.NewStub())
	require.NoError(t, err)
	defer dec.Close()

	bitstream := make([]byte, 1024)
	small := make([]byte, 100)

	n, _, err := dec.Decode(bitstream, small)
	require.NoError(t, err)
	assert.Equal(t, len(small), n)
}

func TestDecodeAccumulatesStats(t *testing.T) {
	dec, err := NewDecoderWithBackend(validDecoderConfig(), mpp.NewStub())
	require.NoError(t, err)
	defer dec.Close()

	rawSize := int(RawFrameSize(640, 480))
	out := make([]byte, rawSize)

	const frames = 4
	var total uint64
	for i := 0; i < frames; i++ {
		n, _, err := dec.Decode(make([]byte, 512*(i+1)), out)
		require.NoError(t, err)
		total += uint64(n)
	}

	gotFrames, gotBytes, err := dec.Stats()
	require.NoError(t, err)
	assert.Equal(t, uint64(frames), gotFrames)
	assert.Equal(t, total, gotBytes)
}

func TestDecodeBackendFailureKeepsSessionReady(t *testing.T) {
	backend := &recordingBackend{}
	dec, err := NewDecoderWithBackend(validDecoderConfig(), backend)
	require.NoError(t, err)
	defer dec.Close()

	rawSize := int(RawFrameSize(640, 480))
	out := make([]byte, rawSize)

	backend.setFail(failTransform)
	n, _, err := dec.Decode(make([]byte, 256), out)
	assert.ErrorIs(t, err, ErrDecode)
	assert.Zero(t, n)

	backend.setFail(failNone)
	_, _, err = dec.Decode(make([]byte, 256), out)
	assert.NoError(t, err)
}

func TestDecoderCloseIdempotent(t *testing.T) {
	dec, err := NewDecoderWithBackend(validDecoderConfig(), mpp.NewStub())
	require.NoError(t, err)

	assert.NoError(t, dec.Close())
	assert.NoError(t, dec.Close())
}

func TestDecodeAfterCloseNotReady(t *testing.T) {
	dec, err := NewDecoderWithBackend(validDecoderConfig(), mpp.NewStub())
	require.NoError(t, err)
	require.NoError(t, dec.Close())

	_, _, err = dec.Decode(make([]byte, 16), make([]byte, 16))
	assert.ErrorIs(t, err, ErrNotReady)
}
