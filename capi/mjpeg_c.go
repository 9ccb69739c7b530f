// Package main provides the cgo exports for the mjpeg C API.
//
// Handles returned to C are opaque pointers that map back to Go sessions
// through package-level instance tables, following the usual c-shared
// pattern: the pointed-to value is an ID, never a Go object, so the
// garbage collector stays in charge of the sessions themselves.
package main

/*
#include <stdint.h>
#include <stddef.h>

// Status codes shared with the Go library. Values are fixed.
typedef enum MJPEG_STATUS {
    MJPEG_OK = 0,
    MJPEG_ERR_INVALID_PARAM = -1,
    MJPEG_ERR_MEMORY = -2,
    MJPEG_ERR_INIT = -3,
    MJPEG_ERR_ENCODE = -4,
    MJPEG_ERR_DECODE = -5,
    MJPEG_ERR_TIMEOUT = -6,
    MJPEG_ERR_NOT_READY = -7,
    MJPEG_ERR_UNKNOWN = -99
} MJPEG_STATUS;

// Fixed-layout, caller-allocated configuration and frame-info structs.
typedef struct MjpegEncoderConfig {
    uint32_t width;
    uint32_t height;
    uint32_t fps;
    uint32_t bitrate;
    uint32_t quality;
    uint32_t gop;
} MjpegEncoderConfig;

typedef struct MjpegDecoderConfig {
    uint32_t max_width;
    uint32_t max_height;
    uint32_t output_format;
} MjpegDecoderConfig;

typedef struct MjpegFrameInfo {
    uint32_t width;
    uint32_t height;
    uint32_t format;
    uint64_t timestamp;
} MjpegFrameInfo;
*/
import "C"

import (
	"sync"
	"unsafe"

	"github.com/sirupsen/logrus"

	"github.com/rkmedia/mjpeg"
)

func main() {} // Required for c-shared build mode

// Global instance tables mapping opaque handle IDs to Go sessions.
var (
	encoderInstances         = make(map[uintptr]*mjpeg.Encoder)
	decoderInstances         = make(map[uintptr]*mjpeg.Decoder)
	nextHandleID     uintptr = 1
	instanceMutex    sync.RWMutex
)

// handleID safely extracts the instance ID from an opaque pointer handle.
func handleID(h unsafe.Pointer) (uintptr, bool) {
	if h == nil {
		return 0, false
	}
	return *(*uintptr)(h), true
}

// newHandle stores an ID in freshly allocated memory so the address can
// travel through C as an opaque pointer.
func newHandle(id uintptr) unsafe.Pointer {
	h := new(uintptr)
	*h = id
	return unsafe.Pointer(h)
}

// createEncoderHandle registers a new encoder session and returns its
// opaque handle, or nil when creation fails.
func createEncoderHandle(cfg *mjpeg.EncoderConfig) unsafe.Pointer {
	enc, err := mjpeg.NewEncoder(cfg)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "createEncoderHandle",
			"error":    err.Error(),
		}).Error("Failed to create encoder session")
		return nil
	}

	instanceMutex.Lock()
	defer instanceMutex.Unlock()
	id := nextHandleID
	nextHandleID++
	encoderInstances[id] = enc
	return newHandle(id)
}

// createDecoderHandle registers a new decoder session and returns its
// opaque handle, or nil when creation fails.
func createDecoderHandle(cfg *mjpeg.DecoderConfig) unsafe.Pointer {
	dec, err := mjpeg.NewDecoder(cfg)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "createDecoderHandle",
			"error":    err.Error(),
		}).Error("Failed to create decoder session")
		return nil
	}

	instanceMutex.Lock()
	defer instanceMutex.Unlock()
	id := nextHandleID
	nextHandleID++
	decoderInstances[id] = dec
	return newHandle(id)
}

// lookupEncoder resolves a handle without removing it from the table.
func lookupEncoder(h unsafe.Pointer) *mjpeg.Encoder {
	id, ok := handleID(h)
	if !ok {
		return nil
	}
	instanceMutex.RLock()
	defer instanceMutex.RUnlock()
	return encoderInstances[id]
}

// lookupDecoder resolves a handle without removing it from the table.
func lookupDecoder(h unsafe.Pointer) *mjpeg.Decoder {
	id, ok := handleID(h)
	if !ok {
		return nil
	}
	instanceMutex.RLock()
	defer instanceMutex.RUnlock()
	return decoderInstances[id]
}

// takeEncoder removes a handle from the table and returns its session,
// so destroy happens at most once per live handle.
func takeEncoder(h unsafe.Pointer) *mjpeg.Encoder {
	id, ok := handleID(h)
	if !ok {
		return nil
	}
	instanceMutex.Lock()
	defer instanceMutex.Unlock()
	enc := encoderInstances[id]
	delete(encoderInstances, id)
	return enc
}

// takeDecoder removes a handle from the table and returns its session.
func takeDecoder(h unsafe.Pointer) *mjpeg.Decoder {
	id, ok := handleID(h)
	if !ok {
		return nil
	}
	instanceMutex.Lock()
	defer instanceMutex.Unlock()
	dec := decoderInstances[id]
	delete(decoderInstances, id)
	return dec
}

// destroyEncoderHandle is the Go-typed core of mjpeg_encoder_destroy.
func destroyEncoderHandle(h unsafe.Pointer) mjpeg.Status {
	enc := takeEncoder(h)
	if enc == nil {
		return mjpeg.StatusInvalidParam
	}
	return mjpeg.StatusOf(enc.Close())
}

// destroyDecoderHandle is the Go-typed core of mjpeg_decoder_destroy.
func destroyDecoderHandle(h unsafe.Pointer) mjpeg.Status {
	dec := takeDecoder(h)
	if dec == nil {
		return mjpeg.StatusInvalidParam
	}
	return mjpeg.StatusOf(dec.Close())
}

// cbytes converts a C byte pointer into a Go slice sharing the same
// memory for the duration of one call. There is no ceiling on n beyond
// the uint32 range of the ABI itself.
func cbytes(p *C.uint8_t, n C.uint32_t) []byte {
	if p == nil || n == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(p)), int(n))
}

// newFrameInfo allocates a zeroed frame descriptor in the C layout.
func newFrameInfo() *C.MjpegFrameInfo {
	return new(C.MjpegFrameInfo)
}

// setFrameInfo copies a frame descriptor into the caller's C struct.
func setFrameInfo(dst *C.MjpegFrameInfo, info mjpeg.FrameInfo) {
	dst.width = C.uint32_t(info.Width)
	dst.height = C.uint32_t(info.Height)
	dst.format = C.uint32_t(info.Format)
	dst.timestamp = C.uint64_t(info.Timestamp)
}

// frameInfo converts a C frame descriptor back to its Go form.
func frameInfo(src *C.MjpegFrameInfo) mjpeg.FrameInfo {
	return mjpeg.FrameInfo{
		Width:     uint32(src.width),
		Height:    uint32(src.height),
		Format:    uint32(src.format),
		Timestamp: uint64(src.timestamp),
	}
}

// Go-typed shims over the cgo exports, following the newFrameInfo /
// frameInfo pattern, so non-cgo test files can drive the exported
// functions without naming C types.

// cbytesFromGo is the Go-typed form of cbytes.
func cbytesFromGo(p *byte, n uint32) []byte {
	return cbytes((*C.uint8_t)(unsafe.Pointer(p)), C.uint32_t(n))
}

// encoderEncode is the Go-typed form of mjpeg_encoder_encode.
func encoderEncode(encoder unsafe.Pointer, nv12Data *byte, nv12Size uint32, jpegData *byte, jpegSize uint32, jpegLen *uint32) int32 {
	return int32(mjpeg_encoder_encode(encoder,
		(*C.uint8_t)(unsafe.Pointer(nv12Data)), C.uint32_t(nv12Size),
		(*C.uint8_t)(unsafe.Pointer(jpegData)), C.uint32_t(jpegSize),
		(*C.uint32_t)(unsafe.Pointer(jpegLen))))
}

// decoderDecode is the Go-typed form of mjpeg_decoder_decode.
func decoderDecode(decoder unsafe.Pointer, jpegData *byte, jpegSize uint32, nv12Data *byte, nv12Size uint32, nv12Len *uint32, info *C.MjpegFrameInfo) int32 {
	return int32(mjpeg_decoder_decode(decoder,
		(*C.uint8_t)(unsafe.Pointer(jpegData)), C.uint32_t(jpegSize),
		(*C.uint8_t)(unsafe.Pointer(nv12Data)), C.uint32_t(nv12Size),
		(*C.uint32_t)(unsafe.Pointer(nv12Len)), info))
}

// encoderGetStats is the Go-typed form of mjpeg_encoder_get_stats.
func encoderGetStats(encoder unsafe.Pointer, framesEncoded, bytesEncoded *uint64) int32 {
	return int32(mjpeg_encoder_get_stats(encoder,
		(*C.uint64_t)(unsafe.Pointer(framesEncoded)),
		(*C.uint64_t)(unsafe.Pointer(bytesEncoded))))
}

// decoderGetStats is the Go-typed form of mjpeg_decoder_get_stats.
func decoderGetStats(decoder unsafe.Pointer, framesDecoded, bytesDecoded *uint64) int32 {
	return int32(mjpeg_decoder_get_stats(decoder,
		(*C.uint64_t)(unsafe.Pointer(framesDecoded)),
		(*C.uint64_t)(unsafe.Pointer(bytesDecoded))))
}

// mjpeg_encoder_create creates an MJPEG encoder session.
//
// Returns an opaque handle on success, NULL on failure.
//
//export mjpeg_encoder_create
func mjpeg_encoder_create(config *C.MjpegEncoderConfig) unsafe.Pointer {
	if config == nil {
		return nil
	}
	cfg := &mjpeg.EncoderConfig{
		Width:   uint32(config.width),
		Height:  uint32(config.height),
		FPS:     uint32(config.fps),
		Bitrate: uint32(config.bitrate),
		Quality: uint32(config.quality),
		GOP:     uint32(config.gop),
	}
	return createEncoderHandle(cfg)
}

// mjpeg_encoder_destroy destroys an encoder session and releases its
// resources. The handle is invalid afterwards.
//
//export mjpeg_encoder_destroy
func mjpeg_encoder_destroy(encoder unsafe.Pointer) C.int32_t {
	return C.int32_t(destroyEncoderHandle(encoder))
}

// mjpeg_encoder_encode compresses one NV12 frame into the caller's JPEG
// buffer and stores the produced size in jpeg_len.
//
//export mjpeg_encoder_encode
func mjpeg_encoder_encode(encoder unsafe.Pointer, nv12_data *C.uint8_t, nv12_size C.uint32_t, jpeg_data *C.uint8_t, jpeg_size C.uint32_t, jpeg_len *C.uint32_t) C.int32_t {
	if nv12_data == nil || jpeg_data == nil || jpeg_len == nil {
		return C.int32_t(mjpeg.StatusInvalidParam)
	}
	enc := lookupEncoder(encoder)
	if enc == nil {
		return C.int32_t(mjpeg.StatusInvalidParam)
	}

	n, err := enc.Encode(cbytes(nv12_data, nv12_size), cbytes(jpeg_data, jpeg_size))
	if err != nil {
		return C.int32_t(mjpeg.StatusOf(err))
	}
	*jpeg_len = C.uint32_t(n)
	return C.int32_t(mjpeg.StatusOK)
}

// mjpeg_encoder_get_stats reports cumulative frames and bytes encoded.
// Either output pointer may be NULL.
//
//export mjpeg_encoder_get_stats
func mjpeg_encoder_get_stats(encoder unsafe.Pointer, frames_encoded *C.uint64_t, bytes_encoded *C.uint64_t) C.int32_t {
	enc := lookupEncoder(encoder)
	if enc == nil {
		return C.int32_t(mjpeg.StatusInvalidParam)
	}
	frames, bytes, err := enc.Stats()
	if err != nil {
		return C.int32_t(mjpeg.StatusOf(err))
	}
	if frames_encoded != nil {
		*frames_encoded = C.uint64_t(frames)
	}
	if bytes_encoded != nil {
		*bytes_encoded = C.uint64_t(bytes)
	}
	return C.int32_t(mjpeg.StatusOK)
}

// mjpeg_decoder_create creates an MJPEG decoder session.
//
// Returns an opaque handle on success, NULL on failure.
//
//export mjpeg_decoder_create
func mjpeg_decoder_create(config *C.MjpegDecoderConfig) unsafe.Pointer {
	if config == nil {
		return nil
	}
	cfg := &mjpeg.DecoderConfig{
		MaxWidth:     uint32(config.max_width),
		MaxHeight:    uint32(config.max_height),
		OutputFormat: uint32(config.output_format),
	}
	return createDecoderHandle(cfg)
}

// mjpeg_decoder_destroy destroys a decoder session and releases its
// resources. The handle is invalid afterwards.
//
//export mjpeg_decoder_destroy
func mjpeg_decoder_destroy(decoder unsafe.Pointer) C.int32_t {
	return C.int32_t(destroyDecoderHandle(decoder))
}

// mjpeg_decoder_decode reconstructs one NV12 frame from a JPEG bitstream,
// storing the produced size in nv12_len and the frame geometry in
// frame_info.
//
//export mjpeg_decoder_decode
func mjpeg_decoder_decode(decoder unsafe.Pointer, jpeg_data *C.uint8_t, jpeg_size C.uint32_t, nv12_data *C.uint8_t, nv12_size C.uint32_t, nv12_len *C.uint32_t, frame_info *C.MjpegFrameInfo) C.int32_t {
	if jpeg_data == nil || nv12_data == nil || nv12_len == nil || frame_info == nil {
		return C.int32_t(mjpeg.StatusInvalidParam)
	}
	dec := lookupDecoder(decoder)
	if dec == nil {
		return C.int32_t(mjpeg.StatusInvalidParam)
	}

	n, info, err := dec.Decode(cbytes(jpeg_data, jpeg_size), cbytes(nv12_data, nv12_size))
	if err != nil {
		return C.int32_t(mjpeg.StatusOf(err))
	}
	*nv12_len = C.uint32_t(n)
	setFrameInfo(frame_info, info)
	return C.int32_t(mjpeg.StatusOK)
}

// mjpeg_decoder_get_stats reports cumulative frames and bytes decoded.
// Either output pointer may be NULL.
//
//export mjpeg_decoder_get_stats
func mjpeg_decoder_get_stats(decoder unsafe.Pointer, frames_decoded *C.uint64_t, bytes_decoded *C.uint64_t) C.int32_t {
	dec := lookupDecoder(decoder)
	if dec == nil {
		return C.int32_t(mjpeg.StatusInvalidParam)
	}
	frames, bytes, err := dec.Stats()
	if err != nil {
		return C.int32_t(mjpeg.StatusOf(err))
	}
	if frames_decoded != nil {
		*frames_decoded = C.uint64_t(frames)
	}
	if bytes_decoded != nil {
		*bytes_decoded = C.uint64_t(bytes)
	}
	return C.int32_t(mjpeg.StatusOK)
}

// mjpeg_nv12_frame_size returns the NV12 buffer size for the given
// dimensions, or 0 if either dimension is 0.
//
//export mjpeg_nv12_frame_size
func mjpeg_nv12_frame_size(width, height C.uint32_t) C.uint32_t {
	return C.uint32_t(mjpeg.RawFrameSize(uint32(width), uint32(height)))
}

// Status strings handed to C are allocated once and live for the process
// lifetime, so callers never free them.
var statusStrings = make(map[mjpeg.Status]*C.char)

func init() {
	for _, s := range []mjpeg.Status{
		mjpeg.StatusOK,
		mjpeg.StatusInvalidParam,
		mjpeg.StatusMemory,
		mjpeg.StatusInit,
		mjpeg.StatusEncodeFailed,
		mjpeg.StatusDecodeFailed,
		mjpeg.StatusTimeout,
		mjpeg.StatusNotReady,
		mjpeg.StatusUnknown,
	} {
		statusStrings[s] = C.CString(mjpeg.Describe(s))
	}
}

// mjpeg_error_string returns human-readable text for a status code.
// Out-of-range values map to the unknown-error text.
//
//export mjpeg_error_string
func mjpeg_error_string(status C.int32_t) *C.char {
	if s, ok := statusStrings[mjpeg.Status(status)]; ok {
		return s
	}
	return statusStrings[mjpeg.StatusUnknown]
}

var versionString = C.CString(mjpeg.Version)

// mjpeg_version returns the library version string.
//
//export mjpeg_version
func mjpeg_version() *C.char {
	return versionString
}
