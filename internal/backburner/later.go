package backburner

import (
	"context"
	"fmt"
	"reflect"
	"time"
)

// Later schedules [target,] method [, args...,] wait for execution after
// wait elapses, per spec.md §4.5. wait may be any integer type or a
// time.Duration; bare integers are interpreted as milliseconds, matching
// the host's setTimeout convention this API is modeled on. Called with no
// arguments at all, Later is a no-op, per §4.5's 0-arg rule.
func (b *Backburner) Later(args ...any) (Handle, error) {
	target, method, rest, wait, err := splitLaterArgs(args)
	if err != nil {
		return Handle{}, err
	}
	if method == nil {
		return Handle{}, nil
	}

	entry := &laterEntry{executeAt: time.Now().Add(wait)}
	entry.fn = func() {
		if err := invoke(target, method, rest); err != nil {
			if !b.divertError(err) {
				panic(err)
			}
		}
	}

	idx := b.timers.insert(entry)
	if idx == 0 {
		b.rearmExpiryTimer()
	}
	return laterHandle(entry), nil
}

// runExpiredTimers drains every timer due at or before now into the
// default queue, wrapped in its own begin/end pair, then re-arms the
// host timer for whatever remains. It is the callback the host's
// single armed expiry timer always calls.
func (b *Backburner) runExpiredTimers(now time.Time) {
	expired := b.timers.popExpired(now)
	if len(expired) > 0 {
		ctx := context.Background()
		b.begin()
		for _, e := range expired {
			if e.cancelled {
				continue
			}
			b.instr.recordTimerFired(ctx)
			if _, err := b.scheduleFunc(b.cfg.defaultQueue, e.fn); err != nil {
				b.cfg.logger.Warn("backburner: failed to fold expired timer into default queue", "error", err)
			}
		}
		if err := b.End(); err != nil {
			panic(err)
		}
	}
	b.rearmExpiryTimer()
}

func (b *Backburner) rearmExpiryTimer() {
	if b.expiryTimerArmed {
		b.cfg.platform.ClearTimeout(b.expiryTimerID)
		b.expiryTimerArmed = false
	}
	next, ok := b.timers.peekMin()
	if !ok {
		return
	}
	wait := time.Until(next.executeAt)
	if wait < 0 {
		wait = 0
	}
	b.expiryTimerID = b.cfg.platform.SetTimeout(func() {
		b.expiryTimerArmed = false
		b.runExpiredTimers(time.Now())
	}, wait)
	b.expiryTimerArmed = true
}

func (b *Backburner) cancelLater(e *laterEntry) bool {
	if e == nil {
		return false
	}
	e.cancelled = true
	idx, ok := b.timers.cancel(e)
	if !ok {
		return false
	}
	if idx == 0 {
		b.rearmExpiryTimer()
	}
	b.instr.recordTimerCancelled(context.Background())
	return true
}

// splitLaterArgs resolves the polymorphic "[target,] method [, args...]
// [, wait]" shape described in spec.md §4.5, applying its rules in order:
//
//   - 0 args: no-op (method comes back nil; Later short-circuits on it).
//   - 1 arg: the arg is the method; wait=0.
//   - 2 args: if the second is a function, (target, method); else if the
//     second is a string naming a method on the first, (target,
//     methodName); else if the second is a coercable number, (method,
//     wait); else the first alone is the method.
//   - >=3 args: the last argument is popped as wait, then the 2-arg rule
//     (minus the number case, since wait is already resolved) is applied
//     to what remains to pick out target/method, with anything left over
//     becoming args.
func splitLaterArgs(args []any) (target, method any, rest []any, wait time.Duration, err error) {
	switch len(args) {
	case 0:
		return nil, nil, nil, 0, nil
	case 1:
		return nil, args[0], nil, 0, nil
	case 2:
		if isFunc(args[1]) {
			return args[0], args[1], nil, 0, nil
		}
		if name, ok := args[1].(string); ok && hasMethod(args[0], name) {
			return args[0], name, nil, 0, nil
		}
		if w, werr := coerceWait(args[1]); werr == nil {
			return nil, args[0], nil, w, nil
		}
		return nil, args[0], nil, 0, nil
	default:
		wait, err = coerceWait(args[len(args)-1])
		if err != nil {
			return nil, nil, nil, 0, err
		}
		head := args[:len(args)-1]
		target, method, rest = resolveLaterTargetMethod(head)
		return target, method, rest, wait, nil
	}
}

// resolveLaterTargetMethod applies the target/method half of the §4.5
// 2-arg rule to head (len(head) >= 1): a trailing number can no longer
// apply here, since splitLaterArgs already popped the real wait before
// calling this.
func resolveLaterTargetMethod(head []any) (target, method any, rest []any) {
	if len(head) == 1 {
		return nil, head[0], nil
	}
	if isFunc(head[1]) {
		return head[0], head[1], head[2:]
	}
	if name, ok := head[1].(string); ok && hasMethod(head[0], name) {
		return head[0], name, head[2:]
	}
	return nil, head[0], head[1:]
}

// isFunc reports whether v is a Go func value (as opposed to a string
// method name, which is invocable but not a function itself).
func isFunc(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.IsValid() && rv.Kind() == reflect.Func
}

// hasMethod reports whether target has an exported method named name,
// used to disambiguate the §4.5 "(target, methodName)" shape from a
// plain "(method, wait)" pair whose second element happens to be a
// string.
func hasMethod(target any, name string) bool {
	if target == nil {
		return false
	}
	return reflect.ValueOf(target).MethodByName(name).IsValid()
}

func coerceWait(v any) (time.Duration, error) {
	switch n := v.(type) {
	case time.Duration:
		return n, nil
	case int:
		return time.Duration(n) * time.Millisecond, nil
	case int64:
		return time.Duration(n) * time.Millisecond, nil
	case float64:
		return time.Duration(n * float64(time.Millisecond)), nil
	default:
		rv := reflect.ValueOf(v)
		if rv.IsValid() && rv.CanInt() {
			return time.Duration(rv.Int()) * time.Millisecond, nil
		}
		return 0, fmt.Errorf("backburner: wait must be a duration or a number of milliseconds, got %T", v)
	}
}
