package mjpeg

import "errors"

// Sentinel errors for codec session operations.
// These errors enable reliable classification with errors.Is() and carry a
// one-to-one mapping onto the Status codes of the C ABI.

// Argument and configuration errors.
var (
	// ErrInvalidParam indicates a malformed or absent argument,
	// out-of-range configuration, or under-sized buffer.
	ErrInvalidParam = errors.New("invalid parameter")

	// ErrNotReady indicates an operation on a session that is not Ready.
	ErrNotReady = errors.New("session not ready")
)

// Session creation errors.
var (
	// ErrMemory indicates an allocation failure during session creation.
	ErrMemory = errors.New("memory allocation failed")

	// ErrInit indicates backend acquisition or configuration failed.
	ErrInit = errors.New("backend initialization failed")
)

// Per-call transform errors. The session stays Ready after either.
var (
	// ErrEncode indicates the backend reported an encode failure.
	ErrEncode = errors.New("encoding failed")

	// ErrDecode indicates the backend could not parse or reconstruct a frame.
	ErrDecode = errors.New("decoding failed")

	// ErrTimeout indicates a backend-enforced deadline expired.
	ErrTimeout = errors.New("operation timeout")
)

// StatusOf maps an error to its ABI status code. A nil error maps to
// StatusOK; errors outside the sentinel taxonomy map to StatusUnknown.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, ErrInvalidParam):
		return StatusInvalidParam
	case errors.Is(err, ErrMemory):
		return StatusMemory
	case errors.Is(err, ErrInit):
		return StatusInit
	case errors.Is(err, ErrEncode):
		return StatusEncodeFailed
	case errors.Is(err, ErrDecode):
		return StatusDecodeFailed
	case errors.Is(err, ErrTimeout):
		return StatusTimeout
	case errors.Is(err, ErrNotReady):
		return StatusNotReady
	default:
		return StatusUnknown
	}
}
