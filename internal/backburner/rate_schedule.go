package backburner

import (
	"fmt"
	"time"
)

// rateCallArgs rebuilds the "[target,] method [, args...]" call shape
// splitRateArgs tore apart, so the invocation can be routed back through
// Join/Run (which parse that same shape themselves).
func rateCallArgs(target, method any, rest []any) []any {
	if target == nil {
		return append([]any{method}, rest...)
	}
	return append([]any{target, method}, rest...)
}

// Debounce schedules [target,] method [, args...,] wait [, immediate] so
// that repeated calls for the same (target, method) within wait of each
// other collapse into a single execution: by default the trailing call
// (spec.md §4.6 "reset the timer on every call"), or the leading one if
// immediate is true and no call is already pending.
func (b *Backburner) Debounce(args ...any) (Handle, error) {
	target, method, rest, wait, immediate, err := splitRateArgs(args, false)
	if err != nil {
		return Handle{}, err
	}

	if existing := b.debounce.find(target, method); existing != nil {
		// Restart the wait. In immediate mode no leading call fires here,
		// since one already fired for this (target, method).
		b.cfg.platform.ClearTimeout(existing.timerID)
		b.debounce.removeEntry(existing)
	} else if immediate {
		if err := b.Join(rateCallArgs(target, method, rest)...); err != nil {
			panic(err)
		}
	}

	var id int64
	id = b.cfg.platform.SetTimeout(func() {
		b.debounce.removeByTimerID(id)
		if !immediate {
			if err := b.Run(rateCallArgs(target, method, rest)...); err != nil {
				panic(err)
			}
		}
	}, wait)
	b.debounce.add(target, method, id)
	return rateHandle(&b.debounce, target, method, id), nil
}

// Throttle schedules [target,] method [, args...,] wait [, immediate] so
// that at most one execution for the same (target, method) happens per
// wait window. With immediate true (the default) the leading call fires
// immediately and calls arriving inside the window are dropped, with no
// trailing execution. With immediate false nothing fires immediately, and
// the first call plus any calls arriving inside the window are coalesced
// into a single trailing execution with the most recent args.
func (b *Backburner) Throttle(args ...any) (Handle, error) {
	target, method, rest, wait, immediate, err := splitRateArgs(args, true)
	if err != nil {
		return Handle{}, err
	}

	if existing := b.throttle.find(target, method); existing != nil {
		// Already inside a throttle window: nothing to do but keep the
		// existing timer armed. When immediate is true there is no
		// trailing edge at all (spec.md §4.6), so only a non-immediate
		// window records a pending trailing call; its args, if any,
		// always reflect the most recent suppressed call (last write
		// wins).
		if !immediate {
			existing.pendingArgs = rest
			existing.hasPending = true
		}
		return rateHandle(&b.throttle, target, method, existing.timerID), nil
	}

	if immediate {
		if err := b.Join(rateCallArgs(target, method, rest)...); err != nil {
			panic(err)
		}
	}

	entry := &rateEntry{}
	fireTrailing := func() {
		b.throttle.removeEntry(entry)
		if !immediate && entry.hasPending {
			if err := b.Run(rateCallArgs(target, method, entry.pendingArgs)...); err != nil {
				panic(err)
			}
		}
	}
	id := b.cfg.platform.SetTimeout(fireTrailing, wait)
	entry.target = target
	entry.method = methodIdentity(method)
	entry.timerID = id
	if !immediate {
		entry.hasPending = true
		entry.pendingArgs = rest
	}
	b.throttle.entries = append(b.throttle.entries, entry)
	return rateHandle(&b.throttle, target, method, id), nil
}

func (b *Backburner) cancelRate(h Handle) bool {
	if h.rate == nil {
		return false
	}
	e := h.rate.find(h.target, h.method)
	if e == nil || e.timerID != h.rateID {
		return false
	}
	b.cfg.platform.ClearTimeout(e.timerID)
	return h.rate.removeEntry(e)
}

// splitRateArgs resolves the "[target,] method [, args...,] wait [,
// immediate]" shape shared by Debounce and Throttle. defaultImmediate is
// used when the caller omits the trailing immediate flag: true for
// Throttle, false for Debounce, per spec.md §4.6.
func splitRateArgs(args []any, defaultImmediate bool) (target, method any, rest []any, wait time.Duration, immediate bool, err error) {
	if len(args) < 2 {
		err = fmt.Errorf("backburner: debounce/throttle requires a method and a wait")
		return
	}

	immediate = defaultImmediate
	tail := args
	if b, ok := tail[len(tail)-1].(bool); ok {
		immediate = b
		tail = tail[:len(tail)-1]
	}
	if len(tail) < 2 {
		err = fmt.Errorf("backburner: debounce/throttle requires a method and a wait")
		return
	}

	wait, err = coerceWait(tail[len(tail)-1])
	if err != nil {
		return
	}
	head := tail[:len(tail)-1]
	target, method, rest, err = splitTargetMethod(head)
	return
}
