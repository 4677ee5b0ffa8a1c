package prerender

import (
	"errors"
	"time"
)

const (
	DefaultCapacity      = 2
	DefaultNotifyBuffer  = 64
	DefaultRetryInterval = 500 * time.Millisecond
)

var (
	ErrInvalidCapacity  = errors.New("prerender: capacity must be positive")
	ErrInvalidWindow    = errors.New("prerender: window start is after end")
	ErrNilBlueprint     = errors.New("prerender: nil blueprint")
	ErrInvalidDirection = errors.New("prerender: direction must be Forward or Reverse")
)

// Options configure a Registry and its Scheduler.
type Options struct {
	// Capacity is the number of frames cached per entry.
	Capacity int
	// NotifyBuffer bounds the FrameReady channel. Zero disables notifications.
	NotifyBuffer int
	// RetryInterval wakes an idle scheduler even without a signal.
	// Zero disables the periodic retry.
	RetryInterval time.Duration
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Capacity:      DefaultCapacity,
		NotifyBuffer:  DefaultNotifyBuffer,
		RetryInterval: DefaultRetryInterval,
	}
}

func (o Options) validate() error {
	if o.Capacity <= 0 {
		return ErrInvalidCapacity
	}
	if o.NotifyBuffer < 0 {
		return errors.New("prerender: notify buffer must not be negative")
	}
	if o.RetryInterval < 0 {
		return errors.New("prerender: retry interval must not be negative")
	}
	return nil
}
