// Package mjpeg implements session-oriented MJPEG encoding and decoding of
// NV12 raw frames on top of a pluggable media-processing backend.
//
// The package does not perform the pixel transform itself. That work is
// delegated to an mpp.Backend, which models the hardware codec engine: it
// owns codec contexts and buffer groups and moves frames and packets through
// them. What this package provides is the contract under which a backend is
// driven: configuration validation, strict acquire/release ordering of
// backend resources, mutual exclusion per session, cumulative statistics,
// and a fixed status taxonomy shared with the C ABI in the capi package.
//
// # Getting Started
//
// Create an encoder session, feed it NV12 frames, and close it when done:
//
//	cfg := &mjpeg.EncoderConfig{Width: 640, Height: 480, FPS: 30}
//	enc, err := mjpeg.NewEncoder(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer enc.Close()
//
//	raw := make([]byte, mjpeg.RawFrameSize(640, 480))
//	out := make([]byte, mjpeg.RawFrameSize(640, 480))
//	n, err := enc.Encode(raw, out)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// out[:n] holds one JPEG image of the MJPEG stream.
//
// Decoding is symmetric through a Decoder session. Each session owns one
// mutex; calls on the same session from different goroutines serialize,
// while independent sessions share no state and proceed in parallel.
//
// By default sessions use the software JPEG backend (mpp.SoftJPEG). A
// different backend, such as a hardware engine or the byte-copy test double
// (mpp.Stub), can be injected with NewEncoderWithBackend and
// NewDecoderWithBackend.
package mjpeg
