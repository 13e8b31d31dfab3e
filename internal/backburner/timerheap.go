package backburner

import (
	"sort"
	"time"
)

// laterEntry is one pending delayed execution: a fire time and the
// wrapper closure to run when it elapses. It doubles as the later
// Handle's identity (see handle.go) since the wrapper function itself
// cannot serve that role in Go the way it can in JS (func values aren't
// comparable).
type laterEntry struct {
	executeAt time.Time
	fn        func()
	cancelled bool
}

// timerHeap is a sorted-by-executeAt sequence of laterEntry, the Go
// analogue of the flat [t0, fn0, t1, fn1, ...] array described in
// spec.md §3. Insertion uses the binary-search-insertion-point helper
// spec.md treats as an external collaborator; since there is no separate
// package to depend on for it, it's inlined here as sort.Search. cancel
// finds an entry by a linear identity scan.
type timerHeap struct {
	entries []*laterEntry
}

// insert places e at its sorted position and returns that index.
func (h *timerHeap) insert(e *laterEntry) int {
	i := sort.Search(len(h.entries), func(i int) bool {
		return h.entries[i].executeAt.After(e.executeAt)
	})
	h.entries = append(h.entries, nil)
	copy(h.entries[i+1:], h.entries[i:])
	h.entries[i] = e
	return i
}

// cancel removes e by identity. Returns the index it occupied (or -1)
// and whether it was found.
func (h *timerHeap) cancel(e *laterEntry) (int, bool) {
	for i, it := range h.entries {
		if it == e {
			h.entries = append(h.entries[:i], h.entries[i+1:]...)
			return i, true
		}
	}
	return -1, false
}

// empty reports whether the heap holds no pending entries.
func (h *timerHeap) empty() bool { return len(h.entries) == 0 }

// peekMin returns the earliest entry without removing it.
func (h *timerHeap) peekMin() (*laterEntry, bool) {
	if len(h.entries) == 0 {
		return nil, false
	}
	return h.entries[0], true
}

// popExpired removes and returns the prefix of entries whose executeAt
// is at or before now, stopping at the first entry that isn't due yet —
// matching _runExpiredTimers' "stop at the first non-expired entry".
func (h *timerHeap) popExpired(now time.Time) []*laterEntry {
	n := 0
	for n < len(h.entries) && !h.entries[n].executeAt.After(now) {
		n++
	}
	if n == 0 {
		return nil
	}
	expired := h.entries[:n]
	h.entries = h.entries[n:]
	return expired
}
