package backburner

// rateEntry is one triple in a debounce or throttle registry: the
// (target, method) pair plus the host timer id currently armed for it.
type rateEntry struct {
	target  any
	method  any // methodIdentity(method) value: string or func pointer
	timerID int64

	// hasPending/pendingArgs carry a throttle's coalesced trailing call;
	// unused by debounce entries.
	hasPending  bool
	pendingArgs []any
}

// rateRegistry is a flat sequence of rateEntry triples, mirroring the
// "[target, method, timerId, ...]" layout from spec.md §3. Lookup by
// (target, method) and by timer id are both linear scans, as specified.
type rateRegistry struct {
	entries []*rateEntry
}

func (r *rateRegistry) find(target, method any) *rateEntry {
	key := methodIdentity(method)
	for _, e := range r.entries {
		if e.target == target && e.method == key {
			return e
		}
	}
	return nil
}

func (r *rateRegistry) add(target, method any, timerID int64) *rateEntry {
	e := &rateEntry{target: target, method: methodIdentity(method), timerID: timerID}
	r.entries = append(r.entries, e)
	return e
}

// removeEntry removes e by identity.
func (r *rateRegistry) removeEntry(e *rateEntry) bool {
	for i, it := range r.entries {
		if it == e {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return true
		}
	}
	return false
}

// removeByTimerID removes and returns the entry whose timerID matches,
// scanning the timer-id slot as spec.md's "cancel a timer id may also be
// cancelled directly by scanning the third slot of each triple" allows.
func (r *rateRegistry) removeByTimerID(id int64) *rateEntry {
	for i, e := range r.entries {
		if e.timerID == id {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return e
		}
	}
	return nil
}

func (r *rateRegistry) empty() bool { return len(r.entries) == 0 }
