package stream

import (
	"github.com/matt-g-everett/ledahead/frame"
	"github.com/matt-g-everett/ledahead/prerender"
	"github.com/matt-g-everett/ledahead/scene"
)

// Player plays one scene through a prerender Registry.
type Player struct {
	registry  *prerender.Registry
	handle    prerender.Handle
	name      string
	start     int64
	end       int64
	cursor    int64
	direction prerender.Direction
	loop      bool
	done      bool
	misses    int
}

// NewPlayer registers bp with r and positions playback at its first frame.
func NewPlayer(r *prerender.Registry, bp *scene.Blueprint, loop bool) (*Player, error) {
	p := new(Player)
	p.registry = r
	p.handle = prerender.NewHandle()
	p.name = bp.Name()
	p.start, p.end = bp.Window()
	p.cursor = p.start
	p.direction = prerender.Forward
	p.loop = loop

	if err := r.Register(p.handle, bp, p.start, p.end, p.cursor, p.direction); err != nil {
		return nil, err
	}
	return p, nil
}

// Next returns the frame at the play position and moves on. It reports
// false when that frame has not been rendered yet; the position is kept so
// the next call tries the same frame again.
func (p *Player) Next() (*frame.Frame, bool) {
	if p.done {
		return nil, false
	}

	f, ok := p.registry.GetFrame(p.handle, p.cursor)
	if !ok {
		p.misses++
		return nil, false
	}
	p.registry.FrameRendered(p.handle, p.cursor)
	p.advance()
	return f, true
}

func (p *Player) advance() {
	atEdge := p.cursor >= p.end
	wrapTo := p.start
	if p.direction == prerender.Reverse {
		atEdge = p.cursor <= p.start
		wrapTo = p.end
	}

	switch {
	case !atEdge:
		p.cursor += int64(p.direction)
	case p.loop:
		p.cursor = wrapTo
	default:
		p.done = true
	}
}

// Seek moves playback to frame n, clamped to the scene.
func (p *Player) Seek(n int64) bool {
	if n < p.start {
		n = p.start
	}
	if n > p.end {
		n = p.end
	}
	p.cursor = n
	p.done = false
	return p.registry.GotoFrame(p.handle, n, p.direction)
}

// SetDirection changes the playback direction from the current position.
func (p *Player) SetDirection(dir prerender.Direction) bool {
	p.direction = dir
	p.done = false
	return p.registry.GotoFrame(p.handle, p.cursor, dir)
}

// Close stops prerendering for the player.
func (p *Player) Close() {
	p.registry.Deregister(p.handle)
}

func (p *Player) Handle() prerender.Handle       { return p.handle }
func (p *Player) Name() string                   { return p.name }
func (p *Player) Position() int64                { return p.cursor }
func (p *Player) Direction() prerender.Direction { return p.direction }
func (p *Player) Done() bool                     { return p.done }
func (p *Player) Misses() int                    { return p.misses }
