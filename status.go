package mjpeg

// Version is the library version string exposed through the C ABI.
const Version = "1.0.0"

// Status is the fixed-value result code shared with the C ABI.
// The integer values are part of the public surface and never change.
type Status int32

const (
	// StatusOK indicates success.
	StatusOK Status = 0
	// StatusInvalidParam indicates a malformed or absent argument,
	// out-of-range configuration, or under-sized buffer.
	StatusInvalidParam Status = -1
	// StatusMemory indicates an allocation failure during session creation.
	StatusMemory Status = -2
	// StatusInit indicates backend acquisition or configuration failure.
	StatusInit Status = -3
	// StatusEncodeFailed indicates a backend transform failure while encoding.
	StatusEncodeFailed Status = -4
	// StatusDecodeFailed indicates a backend transform failure while decoding.
	StatusDecodeFailed Status = -5
	// StatusTimeout is reserved for backend-enforced deadlines.
	StatusTimeout Status = -6
	// StatusNotReady indicates an operation on a session not in the Ready state.
	StatusNotReady Status = -7
	// StatusUnknown is the catch-all for backend errors with no mapped category.
	StatusUnknown Status = -99
)

// Describe returns human-readable text for a status code. It is total over
// the enumeration; values outside it map to the unknown-error text.
func Describe(s Status) string {
	switch s {
	case StatusOK:
		return "Success"
	case StatusInvalidParam:
		return "Invalid parameter"
	case StatusMemory:
		return "Memory allocation failed"
	case StatusInit:
		return "Initialization failed"
	case StatusEncodeFailed:
		return "Encoding failed"
	case StatusDecodeFailed:
		return "Decoding failed"
	case StatusTimeout:
		return "Operation timeout"
	case StatusNotReady:
		return "Data not ready"
	default:
		return "Unknown error"
	}
}

// String implements fmt.Stringer.
func (s Status) String() string {
	return Describe(s)
}
