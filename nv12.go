package mjpeg

// FormatNV12 identifies the planar YUV 4:2:0 layout used for raw frames:
// a full-resolution luma plane followed by a half-resolution interleaved
// chroma plane.
const FormatNV12 uint32 = 0

// RawFrameSize returns the number of bytes an NV12 frame of the given
// dimensions occupies: width*height for the luma plane plus width*height/2
// for the interleaved chroma plane. It returns 0 if either dimension is 0.
//
// The result is the minimum admissible size for both the raw input buffer
// of Encode and the raw output buffer of Decode.
func RawFrameSize(width, height uint32) uint32 {
	if width == 0 || height == 0 {
		return 0
	}
	return width * height * 3 / 2
}
