// Package prerender renders animation frames ahead of playback into a small
// per-animation cache. A Registry holds one entry per playing animation and
// a Scheduler goroutine keeps every entry's cache topped up, while the paint
// loop takes finished frames out with GetFrame and FrameRendered.
package prerender

import (
	"math"
	"sync"
	"time"

	"github.com/matt-g-everett/ledahead/frame"
)

type entry struct {
	handle    Handle
	blueprint Blueprint
	start     int64
	end       int64
	cursor    int64
	direction Direction
	cache     *frameCache

	lastConsumed int64
	consumed     bool

	// generation changes whenever the cursor is moved from outside, so a
	// render started before the move is not inserted after it.
	generation uint64
}

// length is the number of frames in the window, saturating at MaxInt64.
func (e *entry) length() int64 {
	span := uint64(e.end) - uint64(e.start)
	if span >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(span) + 1
}

func (e *entry) inWindow(n int64) bool {
	return n >= e.start && n <= e.end
}

// limit is the number of frames the cache can usefully hold. A window
// shorter than the capacity cannot fill it.
func (e *entry) limit(capacity int) int {
	if l := e.length(); l < int64(capacity) {
		return int(l)
	}
	return capacity
}

// step moves n one frame in the playback direction, wrapping at the window edges.
func (e *entry) step(n int64) int64 {
	if e.direction == Reverse {
		if n <= e.start {
			return e.end
		}
		return n - 1
	}
	if n >= e.end {
		return e.start
	}
	return n + 1
}

// distance is the number of forward steps from a to b inside the window.
func (e *entry) distance(a, b int64) uint64 {
	if b >= a {
		return uint64(b) - uint64(a)
	}
	// Wraps past end; the total is span+1 minus the gap, modulo 2^64.
	return uint64(e.end) - uint64(e.start) + 1 - (uint64(a) - uint64(b))
}

// lag is how many steps it takes to get from n to the cursor, modulo the
// window. A frame at the cursor counts as a full lap behind: the cursor only
// rests on a cached frame after a seek, and then that frame is played first.
func (e *entry) lag(n int64) int64 {
	var d uint64
	if e.direction == Reverse {
		d = e.distance(e.cursor, n)
	} else {
		d = e.distance(n, e.cursor)
	}
	if d == 0 || d > math.MaxInt64 {
		return e.length()
	}
	return int64(d)
}

// trim shrinks the cache to capacity, keeping the frames that will be
// consumed first and rewinding the cursor to the earliest frame dropped.
func (e *entry) trim(capacity int) {
	if e.cache.len() <= capacity {
		return
	}

	nums := e.cache.numbers()
	for len(nums) > capacity {
		newest, best := 0, int64(-1)
		for i, n := range nums {
			if lag := e.lag(n); best < 0 || lag < best {
				newest, best = i, lag
			}
		}
		n := nums[newest]
		e.cache.take(n)
		e.cursor = n
		nums = append(nums[:newest], nums[newest+1:]...)
	}
	e.generation++
}

// EntryStats is a point-in-time view of one registered animation.
type EntryStats struct {
	Handle    Handle    `json:"handle"`
	Start     int64     `json:"start"`
	End       int64     `json:"end"`
	Cursor    int64     `json:"cursor"`
	Direction Direction `json:"direction"`
	Cached    []int64   `json:"cached"`
}

// Registry tracks the playing animations and their frame caches.
// All methods are safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	entries  map[Handle]*entry
	order    []Handle
	capacity int

	wake          chan struct{}
	events        chan FrameReady
	retryInterval time.Duration
}

// NewRegistry creates a Registry. It fails if opts.Capacity is not positive.
func NewRegistry(opts Options) (*Registry, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	r := new(Registry)
	r.entries = make(map[Handle]*entry)
	r.capacity = opts.Capacity
	r.wake = make(chan struct{}, 1)
	if opts.NotifyBuffer > 0 {
		r.events = make(chan FrameReady, opts.NotifyBuffer)
	}
	r.retryInterval = opts.RetryInterval
	return r, nil
}

// Register starts prerendering bp for h over the inclusive window
// [start, end], beginning at cursor. An existing entry for h is replaced and
// its cached frames released.
func (r *Registry) Register(h Handle, bp Blueprint, start, end, cursor int64, dir Direction) error {
	if bp == nil {
		return ErrNilBlueprint
	}
	if start > end {
		return ErrInvalidWindow
	}
	if !dir.valid() {
		return ErrInvalidDirection
	}

	e := &entry{
		handle:    h,
		blueprint: bp,
		start:     start,
		end:       end,
		cursor:    cursor,
		direction: dir,
		cache:     newFrameCache(),
	}

	r.mu.Lock()
	if old, ok := r.entries[h]; ok {
		old.cache.clear()
	} else {
		r.order = append(r.order, h)
	}
	r.entries[h] = e
	r.mu.Unlock()

	r.signal()
	return nil
}

// Deregister removes h and releases its cached frames. Unknown handles are ignored.
func (r *Registry) Deregister(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[h]
	if !ok {
		return
	}
	e.cache.clear()
	delete(r.entries, h)
	for i, o := range r.order {
		if o == h {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// GotoFrame moves playback of h to frame, travelling in dir, and drops
// cached frames that are no longer useful. It reports false if h is unknown
// or dir is not a valid direction.
func (r *Registry) GotoFrame(h Handle, frame int64, dir Direction) bool {
	if !dir.valid() {
		return false
	}

	r.mu.Lock()
	e, ok := r.entries[h]
	if !ok {
		r.mu.Unlock()
		return false
	}
	e.cursor = frame
	e.direction = dir
	e.cache.prune(frame, dir, r.capacity)
	e.consumed = false
	e.generation++
	r.mu.Unlock()

	r.signal()
	return true
}

// GetFrame returns the cached frame n for h without removing it. The frame
// is shared with the cache and must not be modified.
func (r *Registry) GetFrame(h Handle, n int64) (*frame.Frame, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[h]
	if !ok {
		return nil, false
	}
	return e.cache.get(n)
}

// FrameRendered releases frame n of h once the consumer is done with it.
// It reports false if h is unknown.
func (r *Registry) FrameRendered(h Handle, n int64) bool {
	r.mu.Lock()
	e, ok := r.entries[h]
	if !ok {
		r.mu.Unlock()
		return false
	}
	e.cache.take(n)
	e.lastConsumed = n
	e.consumed = true
	r.mu.Unlock()

	r.signal()
	return true
}

// Events delivers FrameReady notifications. It is nil when notifications
// are disabled. Notifications are dropped while the channel is full.
func (r *Registry) Events() <-chan FrameReady {
	return r.events
}

// Capacity returns the number of frames cached per entry.
func (r *Registry) Capacity() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.capacity
}

// SetCapacity changes the per-entry cache size. A value that is not
// positive is rejected and the current capacity kept.
func (r *Registry) SetCapacity(n int) error {
	if n <= 0 {
		return ErrInvalidCapacity
	}

	r.mu.Lock()
	r.capacity = n
	for _, e := range r.entries {
		e.trim(n)
	}
	r.mu.Unlock()

	r.signal()
	return nil
}

// Len returns the number of registered entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Stats returns a snapshot of every entry in registration order.
func (r *Registry) Stats() []EntryStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]EntryStats, 0, len(r.order))
	for _, h := range r.order {
		e := r.entries[h]
		out = append(out, EntryStats{
			Handle:    h,
			Start:     e.start,
			End:       e.end,
			Cursor:    e.cursor,
			Direction: e.direction,
			Cached:    e.cache.numbers(),
		})
	}
	return out
}

// handles returns the registered handles rotated to begin at offset.
func (r *Registry) handles(offset int) []Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.order)
	out := make([]Handle, n)
	for i := 0; i < n; i++ {
		out[i] = r.order[(offset+i)%n]
	}
	return out
}

// signal wakes the scheduler. Signals coalesce while one is pending.
func (r *Registry) signal() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// notify must be called with r.mu held.
func (r *Registry) notify(h Handle, n int64) {
	if r.events == nil {
		return
	}
	select {
	case r.events <- FrameReady{Handle: h, Frame: n}:
	default:
	}
}
