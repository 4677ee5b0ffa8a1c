package stream

import (
	"context"
	"log"
	"time"

	"github.com/matt-g-everett/ledahead/prerender"
)

// Streamer that streams RGB data frames to an ledrx device.
type Streamer struct {
	publisher  Publisher
	topic      string
	controller *Controller
	interval   time.Duration
	events     <-chan prerender.FrameReady

	pending bool
	sent    int
	skipped int
}

// NewStreamer creates an instance of a Streamer that sends a frame every interval.
func NewStreamer(publisher Publisher, topic string, controller *Controller, interval time.Duration) *Streamer {
	s := new(Streamer)
	s.publisher = publisher
	s.topic = topic
	s.controller = controller
	s.interval = interval
	return s
}

// WatchFrames lets the streamer catch up on a missed tick as soon as a
// frame is rendered instead of waiting for the next tick.
func (s *Streamer) WatchFrames(events <-chan prerender.FrameReady) {
	s.events = events
}

// SendFrame sends a frame as binary to an ledrx device. A frame that is not
// ready yet is skipped.
func (s *Streamer) SendFrame() error {
	f, ok := s.controller.CalculateFrame()
	if !ok {
		s.skipped++
		s.pending = true
		return nil
	}
	s.pending = false

	b, err := f.MarshalBinary()
	if err != nil {
		return err
	}
	if err := s.publisher.Publish(s.topic, b); err != nil {
		return err
	}
	s.sent++
	return nil
}

// Run causes the Streamer to send Frames continuously until ctx ends.
func (s *Streamer) Run(ctx context.Context) error {
	publishTimer := time.NewTicker(s.interval)
	defer publishTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("Streamer stopping: %d sent, %d skipped", s.sent, s.skipped)
			return ctx.Err()
		case <-publishTimer.C:
			if err := s.SendFrame(); err != nil {
				log.Printf("Sending frame: %v", err)
			}
		case ev := <-s.events:
			if !s.pending || !s.watching(ev.Handle) {
				continue
			}
			if err := s.SendFrame(); err != nil {
				log.Printf("Sending frame: %v", err)
			}
		}
	}
}

func (s *Streamer) watching(h prerender.Handle) bool {
	for _, o := range s.controller.Handles() {
		if o == h {
			return true
		}
	}
	return false
}

// Counts returns the frames sent and ticks skipped so far.
func (s *Streamer) Counts() (sent, skipped int) {
	return s.sent, s.skipped
}
