package stream

import "github.com/matt-g-everett/ledahead/prerender"

// Control message types.
const (
	ControlSeek    = "seek"
	ControlForward = "forward"
	ControlReverse = "reverse"
	ControlNext    = "next"
)

// ControlMessage asks the controller to change playback.
type ControlMessage struct {
	Type  string `json:"type"`
	Frame int64  `json:"frame,omitempty"`
}

// StatusMessage reports the animation being played.
type StatusMessage struct {
	Type      string           `json:"type"`
	Animation string           `json:"animation"`
	Handle    prerender.Handle `json:"handle"`
	Frame     int64            `json:"frame"`
	Direction string           `json:"direction"`
}
