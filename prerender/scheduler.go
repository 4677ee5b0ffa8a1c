package prerender

import (
	"context"
	"log"
	"sync"
	"time"
)

// Scheduler is the background worker that fills every entry's cache of a
// Registry. It sleeps while all caches are full and wakes when the registry
// signals new work or the retry interval passes.
type Scheduler struct {
	registry *Registry
	next     int

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler creates a Scheduler for r. It does nothing until Start or Run.
func NewScheduler(r *Registry) *Scheduler {
	s := new(Scheduler)
	s.registry = r
	return s
}

// Start runs the scheduler on its own goroutine until Stop is called or ctx
// ends. Starting a running scheduler does nothing.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done != nil {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	done := make(chan struct{})
	s.done = done
	go func() {
		defer close(done)
		s.Run(ctx)
	}()
}

// Stop ends a scheduler started with Start and waits for its goroutine to
// exit. A render already in progress completes but is not cached.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Run produces frames until ctx ends. It returns ctx.Err().
func (s *Scheduler) Run(ctx context.Context) error {
	var retry <-chan time.Time
	if s.registry.retryInterval > 0 {
		t := time.NewTicker(s.registry.retryInterval)
		defer t.Stop()
		retry = t.C
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.pass(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.registry.wake:
		case <-retry:
		}
	}
}

// pass tops up every entry once, starting one entry later than last time.
func (s *Scheduler) pass(ctx context.Context) {
	handles := s.registry.handles(s.next)
	s.next++
	for _, h := range handles {
		if ctx.Err() != nil {
			return
		}
		s.fill(ctx, h)
	}
}

// fill renders frames for h from its cursor until the cache is full, the
// whole window has been visited, or the entry goes away.
func (s *Scheduler) fill(ctx context.Context, h Handle) {
	r := s.registry
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[h]
	if !ok {
		return
	}

	budget := e.length()
	for budget > 0 && e.cache.len() < e.limit(r.capacity) && e.inWindow(e.cursor) {
		budget--

		if !e.cache.contains(e.cursor) && e.consumed && e.cursor == e.lastConsumed {
			e.cursor = e.step(e.cursor)
		}
		if e.cache.contains(e.cursor) {
			e.cursor = e.step(e.cursor)
			continue
		}

		n, gen, bp := e.cursor, e.generation, e.blueprint
		r.mu.Unlock()
		f, err := bp.Evaluate(n)
		r.mu.Lock()

		if ctx.Err() != nil {
			return
		}
		if cur, ok := r.entries[h]; !ok || cur != e {
			return
		}
		if e.generation != gen {
			budget = e.length()
			continue
		}

		if err != nil {
			log.Printf("prerender: %s: frame %d: %v", h, n, err)
		} else if f != nil {
			f.Number = n
			e.cache.put(n, f)
			r.notify(h, n)
		}
		e.cursor = e.step(e.cursor)
	}
}
