package mjpeg

import "time"

// sessionState tracks the lifecycle of an encoder or decoder session.
// The only legal transitions are uninitialized → ready → destroyed.
type sessionState int32

const (
	stateUninitialized sessionState = iota
	stateReady
	stateDestroyed
)

// resourceStack records acquired backend resources in acquisition order so
// that rollback on a failed create and release on destroy both walk the
// same list newest-first.
type resourceStack struct {
	releases []func()
}

// push records the release action for the most recently acquired resource.
func (s *resourceStack) push(release func()) {
	s.releases = append(s.releases, release)
}

// unwind releases every recorded resource in reverse acquisition order.
// Each release action must tolerate being the only one that runs; after
// unwind the stack is empty.
func (s *resourceStack) unwind() {
	for i := len(s.releases) - 1; i >= 0; i-- {
		s.releases[i]()
	}
	s.releases = nil
}

// Buffers per group. One staging buffer is in flight per call, but the
// backend may hold additional references while a transform is pending.
const (
	frameBufferCount  = 4
	packetBufferCount = 4
)

// mediaTimestamp returns the current time in 90 kHz units, the conventional
// video media clock.
func mediaTimestamp() uint64 {
	return uint64(time.Now().UnixNano()/1000) * 90 / 1000000
}
