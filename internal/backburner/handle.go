package backburner

// handleKind tags which of the three shapes a Handle wraps, per the
// "strongly-typed reimplementation" design note in spec.md §9: rather
// than sniff an opaque value's runtime type in Cancel, Cancel switches
// on this tag.
type handleKind uint8

const (
	handleNone handleKind = iota
	handleQueued
	handleLater
	handleRate
)

// Handle is the opaque cancellation token returned by every scheduling
// entry point (Schedule, ScheduleOnce, Later, Debounce, Throttle). Its
// zero value is a valid, uncancellable Handle (Cancel on it returns
// false), matching "falsy handle -> return false" from spec.md §4.7.
type Handle struct {
	kind handleKind

	queue *Queue
	item  *workItem

	later *laterEntry

	rate   *rateRegistry
	target any
	method any
	rateID int64
}

// queuedHandle builds a Handle for a Schedule/ScheduleOnce return value.
func queuedHandle(q *Queue, item *workItem) Handle {
	return Handle{kind: handleQueued, queue: q, item: item}
}

func laterHandle(e *laterEntry) Handle {
	return Handle{kind: handleLater, later: e}
}

func rateHandle(reg *rateRegistry, target, method any, id int64) Handle {
	return Handle{kind: handleRate, rate: reg, target: target, method: method, rateID: id}
}

// IsZero reports whether h is the empty Handle (nothing to cancel).
func (h Handle) IsZero() bool { return h.kind == handleNone }

// cancelled reports whether a later() Handle's underlying entry was
// cancelled. Used by the cron re-arm chain to stop instead of re-arming.
func (h Handle) cancelled() bool {
	return h.kind == handleLater && h.later != nil && h.later.cancelled
}
