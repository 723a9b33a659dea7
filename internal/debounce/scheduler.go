// Package debounce provides a keyed scheduler that coalesces repeated calls.
package debounce

import (
	"sync"
	"time"

	"github.com/feral-file/title-scrutiny/internal/adapter"
)

// Scheduler runs at most one pending task per key. Scheduling a key again cancels
// and replaces its pending task, so only the last call within the delay runs.
type Scheduler[K comparable] struct {
	clock adapter.Clock

	mu      sync.Mutex
	tasks   map[K]*task
	gen     uint64
	stopped bool
}

type task struct {
	gen   uint64
	timer adapter.Timer
	fn    func()
}

// NewScheduler creates a scheduler driven by clock
func NewScheduler[K comparable](clock adapter.Clock) *Scheduler[K] {
	return &Scheduler[K]{
		clock: clock,
		tasks: make(map[K]*task),
	}
}

// Schedule runs fn once delay has elapsed without another Schedule for the same key.
// The key stops being pending before fn runs.
func (s *Scheduler[K]) Schedule(key K, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}

	if existing, ok := s.tasks[key]; ok {
		existing.timer.Stop()
	}

	s.gen++
	gen := s.gen
	t := &task{gen: gen, fn: fn}
	s.tasks[key] = t
	t.timer = s.clock.AfterFunc(delay, func() {
		if !s.take(key, gen) {
			return
		}
		fn()
	})
}

// take removes the task of key if it is still the given generation
func (s *Scheduler[K]) take(key K, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.tasks[key]
	if !ok || current.gen != gen {
		return false
	}
	delete(s.tasks, key)
	return true
}

// Cancel drops the pending task of key. It reports whether a task was pending.
func (s *Scheduler[K]) Cancel(key K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[key]
	if !ok {
		return false
	}
	t.timer.Stop()
	delete(s.tasks, key)
	return true
}

// IsPending reports whether key has a pending task
func (s *Scheduler[K]) IsPending(key K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.tasks[key]
	return ok
}

// Pending reports whether any pending key satisfies match
func (s *Scheduler[K]) Pending(match func(K) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.tasks {
		if match(key) {
			return true
		}
	}
	return false
}

// Len returns the number of pending tasks
func (s *Scheduler[K]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Flush runs every pending task now, on the calling goroutine
func (s *Scheduler[K]) Flush() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.tasks))
	for key, t := range s.tasks {
		// a timer that already fired runs the task itself
		if t.timer.Stop() {
			fns = append(fns, t.fn)
			delete(s.tasks, key)
		}
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Stop cancels every pending task. Later calls to Schedule are ignored.
func (s *Scheduler[K]) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	for key, t := range s.tasks {
		t.timer.Stop()
		delete(s.tasks, key)
	}
}
