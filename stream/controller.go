package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/matt-g-everett/ledahead/frame"
	"github.com/matt-g-everett/ledahead/prerender"
	"github.com/matt-g-everett/ledahead/scene"
)

// Controller that manages animations. It plays one scene at a time and
// crossfades into the next one when cycling.
type Controller struct {
	mu sync.Mutex

	registry   *prerender.Registry
	blueprints []*scene.Blueprint
	current    int
	player     *Player
	nextPlayer *Player
	loop       bool
	cycleTime  time.Duration

	transitionFrames int
	transitionStep   int

	status      Publisher
	statusTopic string
}

// NewController creates a Controller playing blueprints in order, starting
// with the first.
func NewController(r *prerender.Registry, blueprints []*scene.Blueprint, frameRate float64,
	transitionTime, cycleTime time.Duration, loop bool) (*Controller, error) {

	if len(blueprints) == 0 {
		return nil, errors.New("stream: no animations")
	}

	c := new(Controller)
	c.registry = r
	c.blueprints = blueprints
	c.loop = loop
	c.cycleTime = cycleTime
	c.transitionFrames = int(math.Round(frameRate * transitionTime.Seconds()))

	p, err := NewPlayer(r, blueprints[0], loop)
	if err != nil {
		return nil, err
	}
	c.player = p
	return c, nil
}

// SetStatusPublisher makes the controller announce animation changes on topic.
func (c *Controller) SetStatusPublisher(p Publisher, topic string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = p
	c.statusTopic = topic
}

// CalculateFrame returns the next frame to display, or false when nothing
// is ready this tick.
func (c *Controller) CalculateFrame() (*frame.Frame, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.nextPlayer == nil {
		return c.player.Next()
	}

	f1, ok1 := c.player.Next()
	f2, ok2 := c.nextPlayer.Next()
	var f *frame.Frame
	switch {
	case ok1 && ok2:
		f = f1.Interpolate(f2, float64(c.transitionStep)/float64(c.transitionFrames))
	case ok2:
		f = f2
	case ok1:
		f = f1
	default:
		return nil, false
	}

	c.transitionStep++
	if c.transitionStep >= c.transitionFrames {
		c.swap()
	}

	return f, true
}

// Cycle starts the transition to the next animation.
func (c *Controller) Cycle() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.nextPlayer != nil {
		return nil
	}

	next := (c.current + 1) % len(c.blueprints)
	p, err := NewPlayer(c.registry, c.blueprints[next], c.loop)
	if err != nil {
		return fmt.Errorf("stream: starting %s: %w", c.blueprints[next].Name(), err)
	}
	c.current = next
	c.nextPlayer = p
	c.transitionStep = 0
	if c.transitionFrames <= 0 {
		c.swap()
	}
	return nil
}

// swap must be called with c.mu held.
func (c *Controller) swap() {
	c.player.Close()
	c.player = c.nextPlayer
	c.nextPlayer = nil
	c.transitionStep = 0
	log.Printf("Playing %s", c.player.Name())
	c.publishStatus()
}

// HandleControl applies a control message to the playing animation.
func (c *Controller) HandleControl(msg ControlMessage) error {
	switch msg.Type {
	case ControlNext:
		return c.Cycle()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch msg.Type {
	case ControlSeek:
		c.player.Seek(msg.Frame)
	case ControlForward:
		c.player.SetDirection(prerender.Forward)
	case ControlReverse:
		c.player.SetDirection(prerender.Reverse)
	default:
		return fmt.Errorf("stream: unknown control message %q", msg.Type)
	}
	c.publishStatus()
	return nil
}

func (c *Controller) handleControlPayload(payload []byte) {
	var msg ControlMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		log.Printf("Bad control message %q: %v", payload, err)
		return
	}
	if err := c.HandleControl(msg); err != nil {
		log.Println(err)
	}
}

// Subscribe listens for control messages on topic.
func (c *Controller) Subscribe(s Subscriber, topic string) error {
	return s.Subscribe(topic, c.handleControlPayload)
}

// Status describes the animation on display.
func (c *Controller) Status() StatusMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

func (c *Controller) statusLocked() StatusMessage {
	return StatusMessage{
		Type:      "status",
		Animation: c.player.Name(),
		Handle:    c.player.Handle(),
		Frame:     c.player.Position(),
		Direction: c.player.Direction().String(),
	}
}

func (c *Controller) publishStatus() {
	if c.status == nil {
		return
	}
	b, err := json.Marshal(c.statusLocked())
	if err != nil {
		log.Println(err)
		return
	}
	if err := c.status.Publish(c.statusTopic, b); err != nil {
		log.Printf("Publishing status: %v", err)
	}
}

// Handles returns the handles currently registered by the controller.
func (c *Controller) Handles() []prerender.Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	hs := []prerender.Handle{c.player.Handle()}
	if c.nextPlayer != nil {
		hs = append(hs, c.nextPlayer.Handle())
	}
	return hs
}

// Close deregisters every player.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.player.Close()
	if c.nextPlayer != nil {
		c.nextPlayer.Close()
		c.nextPlayer = nil
	}
}

// Run causes the Controller to cycle through animations until ctx ends.
func (c *Controller) Run(ctx context.Context) error {
	if c.cycleTime <= 0 || len(c.blueprints) < 2 {
		<-ctx.Done()
		return ctx.Err()
	}

	cycleTimer := time.NewTicker(c.cycleTime)
	defer cycleTimer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-cycleTimer.C:
			if err := c.Cycle(); err != nil {
				log.Println(err)
			}
		}
	}
}
