package backburner

import (
	"sync"
	"time"
)

// Platform is the host-provided bundle of timer primitives the
// orchestrator schedules against. Embedders that already run their own
// event loop (a GUI toolkit, a game loop, a custom reactor) supply their
// own implementation via WithPlatform; otherwise New installs
// defaultPlatform, which maps directly onto the Go runtime's timers.
type Platform interface {
	// SetTimeout arms fn to run after d elapses and returns an id that
	// can later be passed to ClearTimeout.
	SetTimeout(fn func(), d time.Duration) int64

	// ClearTimeout cancels a pending SetTimeout callback. Cancelling an
	// already-fired or unknown id is a no-op.
	ClearTimeout(id int64)

	// Next schedules fn to run on the host's next turn (e.g. the next
	// macrotask/tick) and returns an id usable with ClearNext.
	Next(fn func()) int64

	// ClearNext cancels a pending Next callback.
	ClearNext(id int64)
}

// defaultPlatform implements Platform directly on top of time.Timer.
// Next is implemented as SetTimeout(fn, 0), matching the contract that
// next-tick defaults to setTimeout(fn, 0) when the host has no distinct
// microtask queue.
type defaultPlatform struct {
	mu     sync.Mutex
	timers map[int64]*time.Timer
	nextID int64
}

func newDefaultPlatform() *defaultPlatform {
	return &defaultPlatform{
		timers: make(map[int64]*time.Timer),
	}
}

func (p *defaultPlatform) SetTimeout(fn func(), d time.Duration) int64 {
	p.mu.Lock()
	p.nextID++
	id := p.nextID
	p.mu.Unlock()

	t := time.AfterFunc(d, func() {
		p.mu.Lock()
		delete(p.timers, id)
		p.mu.Unlock()
		fn()
	})

	p.mu.Lock()
	p.timers[id] = t
	p.mu.Unlock()

	return id
}

func (p *defaultPlatform) ClearTimeout(id int64) {
	p.mu.Lock()
	t, ok := p.timers[id]
	if ok {
		delete(p.timers, id)
	}
	p.mu.Unlock()
	if ok {
		t.Stop()
	}
}

func (p *defaultPlatform) Next(fn func()) int64 {
	return p.SetTimeout(fn, 0)
}

func (p *defaultPlatform) ClearNext(id int64) {
	p.ClearTimeout(id)
}
