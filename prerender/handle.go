package prerender

import (
	"github.com/google/uuid"
	"github.com/matt-g-everett/ledahead/frame"
)

// Handle identifies one playback session in a Registry.
type Handle uuid.UUID

// NewHandle issues a fresh random handle.
func NewHandle() Handle {
	return Handle(uuid.New())
}

func (h Handle) String() string {
	return uuid.UUID(h).String()
}

// Direction of playback.
type Direction int64

const (
	Forward Direction = 1
	Reverse Direction = -1
)

func (d Direction) valid() bool {
	return d == Forward || d == Reverse
}

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Reverse:
		return "reverse"
	default:
		return "invalid"
	}
}

// A Blueprint evaluates an immutable scene at a frame number. Evaluate
// must not mutate the blueprint and must return a frame no one else holds.
type Blueprint interface {
	Evaluate(n int64) (*frame.Frame, error)
}

// FrameReady tells a consumer that a frame was put in the cache. The frame
// may already be gone again by the time the message is handled.
type FrameReady struct {
	Handle Handle
	Frame  int64
}

// ParseHandle parses the string form of a Handle.
func ParseHandle(s string) (Handle, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return Handle{}, err
	}
	return Handle(u), nil
}

func (h Handle) MarshalText() ([]byte, error) {
	return uuid.UUID(h).MarshalText()
}

func (h *Handle) UnmarshalText(data []byte) error {
	return (*uuid.UUID)(h).UnmarshalText(data)
}
