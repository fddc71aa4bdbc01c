package scraper

import (
	"sync"
	"time"
)

// idleTracker decides when a page's network has settled: at most max
// requests in flight, continuously, for window. It only starts judging once
// armed, so requests issued before navigation commits still count.
type idleTracker struct {
	max    int
	window time.Duration

	mu       sync.Mutex
	inflight map[string]struct{}
	armed    bool
	timer    *time.Timer
	gen      uint64
	fired    bool
	done     chan struct{}
}

func newIdleTracker(max int, window time.Duration) *idleTracker {
	return &idleTracker{
		max:      max,
		window:   window,
		inflight: make(map[string]struct{}),
		done:     make(chan struct{}),
	}
}

func (t *idleTracker) started(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inflight[id] = struct{}{}
	t.evaluate()
}

func (t *idleTracker) finished(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.inflight, id)
	t.evaluate()
}

// arm starts judging quiescence.
func (t *idleTracker) arm() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.armed = true
	t.evaluate()
}

// Done is closed once the network has been quiet for a full window.
func (t *idleTracker) Done() <-chan struct{} {
	return t.done
}

// stop releases the pending timer, if any.
func (t *idleTracker) stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reset()
}

// evaluate must be called with mu held.
func (t *idleTracker) evaluate() {
	if !t.armed || t.fired {
		return
	}
	if len(t.inflight) > t.max {
		t.reset()
		return
	}
	if t.timer != nil {
		return // quiet window already running
	}
	t.gen++
	gen := t.gen
	t.timer = time.AfterFunc(t.window, func() { t.fire(gen) })
}

// reset must be called with mu held.
func (t *idleTracker) reset() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.gen++
}

func (t *idleTracker) fire(gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fired || gen != t.gen {
		return
	}
	t.fired = true
	t.timer = nil
	close(t.done)
}
