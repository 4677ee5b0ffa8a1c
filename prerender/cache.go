package prerender

import (
	"sort"

	"github.com/matt-g-everett/ledahead/frame"
)

// frameCache maps frame numbers to rendered frames for one entry.
// It is not safe for concurrent use; the Registry lock guards it.
type frameCache struct {
	frames map[int64]*frame.Frame
}

func newFrameCache() *frameCache {
	return &frameCache{frames: make(map[int64]*frame.Frame)}
}

func (c *frameCache) len() int {
	return len(c.frames)
}

func (c *frameCache) contains(n int64) bool {
	_, ok := c.frames[n]
	return ok
}

func (c *frameCache) get(n int64) (*frame.Frame, bool) {
	f, ok := c.frames[n]
	return f, ok
}

func (c *frameCache) put(n int64, f *frame.Frame) {
	c.frames[n] = f
}

// take removes and returns the frame for n.
func (c *frameCache) take(n int64) (*frame.Frame, bool) {
	f, ok := c.frames[n]
	if ok {
		delete(c.frames, n)
	}
	return f, ok
}

func (c *frameCache) clear() {
	for n := range c.frames {
		delete(c.frames, n)
	}
}

// numbers returns the cached frame numbers in ascending order.
func (c *frameCache) numbers() []int64 {
	out := make([]int64, 0, len(c.frames))
	for n := range c.frames {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// prune drops frames that playback from cursor in dir can no longer reach
// before the cache refills. Frames behind the cursor always go. Of the frames
// ahead, the farthest is evicted while it lies beyond the capacity horizon,
// or while the cache is full without holding the cursor frame itself.
func (c *frameCache) prune(cursor int64, dir Direction, capacity int) {
	for n := range c.frames {
		if _, ok := ahead(n, cursor, dir); !ok {
			delete(c.frames, n)
		}
	}

	for len(c.frames) > 0 {
		far, dist := c.farthest(cursor, dir)
		if dist < uint64(capacity) && (len(c.frames) < capacity || c.contains(cursor)) {
			return
		}
		delete(c.frames, far)
	}
}

// farthest returns the cached frame consumed last when playing from cursor
// in dir. Every cached frame must be ahead of cursor.
func (c *frameCache) farthest(cursor int64, dir Direction) (int64, uint64) {
	var far int64
	var dist uint64
	first := true
	for n := range c.frames {
		if d, _ := ahead(n, cursor, dir); first || d > dist {
			far, dist, first = n, d, false
		}
	}
	return far, dist
}

// ahead reports whether n lies at or beyond cursor in dir, and how far.
func ahead(n, cursor int64, dir Direction) (uint64, bool) {
	if dir == Reverse {
		return uint64(cursor) - uint64(n), n <= cursor
	}
	return uint64(n) - uint64(cursor), n >= cursor
}
