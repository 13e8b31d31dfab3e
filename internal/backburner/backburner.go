// Package backburner implements a cooperative run-loop scheduler for
// event-driven, single-threaded hosts. It coordinates deferred work
// across a fixed, ordered set of named queues, guarantees that work
// scheduled from within running work is flushed in the same logical
// tick before control returns to the host, and multiplexes immediate
// run, schedule-into-queue, scheduled-once, delayed execution, debounce,
// and throttle on top of one instance lifecycle.
//
// The scheduling core (this file, queue.go, deferred_queues.go,
// timerheap.go, rate.go) assumes the host delivers callbacks serially on
// one logical thread of execution, exactly as described in SPEC_FULL.md
// §5: there is no internal locking. Callers must not call into a single
// Backburner from more than one goroutine concurrently.
package backburner

import (
	"context"
	"fmt"
	"iter"
	"reflect"
	"time"
)

// Backburner is the top-level orchestrator: it owns the instance stack,
// the autorun, the timer heap, the debounce/throttle registries, the
// event-callback table, and exposes the public scheduling API described
// in spec.md §6.
type Backburner struct {
	queueNames []string
	cfg        config
	instr      *instruments

	current *DeferredActionQueues
	stack   []*DeferredActionQueues

	autorunArmed bool
	autorunToken int64

	timers           timerHeap
	expiryTimerArmed bool
	expiryTimerID    int64

	debounce rateRegistry
	throttle rateRegistry

	events eventTable

	// DEBUG, when true, captures a stack trace and a correlation ID at
	// every scheduling call site. Mutable at runtime, per spec.md §4.4.
	DEBUG bool
}

// New constructs a Backburner over the given ordered queue names. At
// least one queue name is required.
func New(queueNames []string, opts ...Option) *Backburner {
	if len(queueNames) == 0 {
		panic("backburner: New requires at least one queue name")
	}
	names := append([]string(nil), queueNames...)
	cfg := defaultConfig(names)
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Backburner{
		queueNames: names,
		cfg:        cfg,
		instr:      newInstruments(cfg.meter),
		DEBUG:      cfg.debug,
	}
}

// CurrentInstance returns the instance currently accepting scheduled
// work, or nil if no instance is open.
func (b *Backburner) CurrentInstance() *DeferredActionQueues { return b.current }

// HasTimers reports whether any later() timer, debounce/throttle entry,
// or autorun is currently armed.
func (b *Backburner) HasTimers() bool {
	return !b.timers.empty() || !b.debounce.empty() || !b.throttle.empty() || b.autorunArmed
}

// On subscribes fn to name ("begin" or "end"); duplicates are permitted.
func (b *Backburner) On(name EventName, fn EventCallback) error {
	if err := b.events.on(name, fn); err != nil {
		b.cfg.logger.Warn("backburner: on() failed", "event", name, "error", err)
		return err
	}
	return nil
}

// Off unsubscribes fn from name. Unsubscribing an unknown event or a
// callback that isn't registered is a misuse error.
func (b *Backburner) Off(name EventName, fn EventCallback) error {
	if err := b.events.off(name, fn); err != nil {
		b.cfg.logger.Warn("backburner: off() failed", "event", name, "error", err)
		return err
	}
	return nil
}

// EnsureInstance opens an instance (arming the autorun) if none is
// already current. It is exported for callers that want to pre-warm an
// instance without scheduling anything yet.
func (b *Backburner) EnsureInstance() {
	b.ensureInstance()
}

func (b *Backburner) ensureInstance() {
	if b.current != nil {
		return
	}
	b.begin()
	b.armAutorun()
}

func (b *Backburner) armAutorun() {
	b.autorunToken = b.cfg.platform.Next(b.autorunEnd)
	b.autorunArmed = true
}

func (b *Backburner) autorunEnd() {
	b.autorunArmed = false
	if err := b.End(); err != nil {
		// No caller is listening on this host-turn callback; per
		// spec.md §7 an unhandled work error propagates to the host,
		// which for an async Go callback means letting it crash the
		// goroutine rather than swallowing it silently.
		panic(err)
	}
}

func (b *Backburner) peekStack() *DeferredActionQueues {
	if len(b.stack) == 0 {
		return nil
	}
	return b.stack[len(b.stack)-1]
}

// Begin establishes a current instance. If an autorun is pending it is
// cancelled and the existing current instance is reused (the implicit
// "join" case, which does not re-fire the begin event); otherwise a
// fresh DeferredActionQueues is pushed and the begin event fires.
func (b *Backburner) Begin() {
	b.begin()
}

func (b *Backburner) begin() {
	if b.autorunArmed {
		b.cfg.platform.ClearNext(b.autorunToken)
		b.autorunArmed = false
		previous := b.peekStack()
		b.cfg.logger.Debug("backburner: begin joined pending autorun")
		if b.cfg.onBegin != nil {
			b.cfg.onBegin(b.current, previous)
		}
		return
	}

	previous := b.current
	if previous != nil {
		b.stack = append(b.stack, previous)
	}
	corrID := b.cfg.idGen()
	b.current = newDeferredActionQueues(b.queueNames, corrID)
	b.current.spanCtx, b.current.span = b.startInstanceSpan(context.Background(), corrID)
	b.cfg.logger.Debug("backburner: begin", "depth", len(b.stack)+1)
	b.events.fire(EventBegin, b.current, previous)
	if b.cfg.onBegin != nil {
		b.cfg.onBegin(b.current, previous)
	}
}

// End pumps and tears down the current instance. If the flush pauses,
// End arms the autorun-end callback for the host's next turn and leaves
// the instance current; the caller sees no error in that case. Calling
// End with no current instance is a misuse error.
func (b *Backburner) End() error {
	if b.current == nil {
		b.cfg.logger.Warn("backburner: end called without begin")
		return ErrEndWithoutBegin
	}

	state, err := b.flushCurrent()
	if err != nil {
		return err
	}

	if state == queueStatePause {
		b.armAutorun()
		b.cfg.logger.Debug("backburner: flush paused, armed autorun resume")
		return nil
	}

	justEnded := b.current
	b.current = nil
	next := b.peekStack()
	if next != nil {
		b.stack = b.stack[:len(b.stack)-1]
		b.current = next
	}

	if justEnded.span != nil {
		justEnded.span.End()
	}

	b.cfg.logger.Debug("backburner: end", "depth", len(b.stack))
	b.events.fire(EventEnd, justEnded, next)
	if b.cfg.onEnd != nil {
		b.cfg.onEnd(justEnded, next)
	}
	return nil
}

func (b *Backburner) flushCurrent() (queueState, error) {
	ctx := context.Background()
	started := time.Now()
	state, err := b.current.flush(b.runItem)
	if err == nil {
		ms := float64(time.Since(started)) / float64(time.Millisecond)
		if state == queueStateDone {
			b.instr.recordFlush(ctx, ms)
		} else {
			b.instr.flushDuration.Record(ctx, ms)
		}
	}
	return state, err
}

// runItem executes one work item, diverting a thrown error to onError
// when configured. A panic raised by the work item itself (the Go
// analogue of a JS exception) is recovered by safeInvoke and treated the
// same way.
func (b *Backburner) runItem(item *workItem) error {
	ctx := context.Background()
	if b.current != nil && b.current.spanCtx != nil {
		ctx = b.current.spanCtx
	}
	_, span := b.startWorkSpan(ctx, "backburner.queue.item", item.corrID)
	defer span.End()

	err := b.safeInvoke(item.target, item.method, item.args)
	if err == nil {
		return nil
	}
	if b.divertError(err) {
		return nil
	}
	return err
}

// safeInvoke converts a panic raised by invoke (the work item "throwing")
// into an error, matching spec.md's "work errors" category.
func (b *Backburner) safeInvoke(target, method any, args []any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("backburner: work item panicked: %v", r)
		}
	}()
	return invoke(target, method, args)
}

// resolveOnError implements the dynamic resolution described in
// spec.md §7: a direct handler takes precedence over the
// (onErrorTarget, onErrorMethod) pair, whose method is looked up by name
// on the target on every call. The target and method name themselves are
// fixed at construction and cannot be changed afterwards.
func (b *Backburner) resolveOnError() func(error) {
	if b.cfg.onError != nil {
		return b.cfg.onError
	}
	if b.cfg.onErrorTarget != nil && b.cfg.onErrorMethod != nil {
		target, method := b.cfg.onErrorTarget, b.cfg.onErrorMethod
		return func(err error) {
			_ = invoke(target, method, []any{err})
		}
	}
	return nil
}

func (b *Backburner) divertError(err error) bool {
	handler := b.resolveOnError()
	if handler == nil {
		return false
	}
	b.cfg.logger.Debug("backburner: diverting work error to onError", "error", err)
	handler(err)
	return true
}

// Run resolves [target,] method [, args...], calls Begin(), invokes the
// method, and calls End() on every exit path. Errors raised by the
// method are diverted to onError when configured (in which case Run
// returns nil) or returned to the caller otherwise.
func (b *Backburner) Run(args ...any) error {
	target, method, rest, err := splitTargetMethod(args)
	if err != nil {
		return err
	}

	b.begin()
	_, span := b.startWorkSpan(b.current.spanCtx, "backburner.run", b.current.corrID)
	invokeErr := b.safeInvoke(target, method, rest)
	span.End()
	if invokeErr != nil && b.divertError(invokeErr) {
		invokeErr = nil
	}
	if endErr := b.End(); endErr != nil {
		return endErr
	}
	return invokeErr
}

// Join behaves like Run if no instance is current; otherwise it invokes
// the method inline, without opening a new instance.
func (b *Backburner) Join(args ...any) error {
	target, method, rest, err := splitTargetMethod(args)
	if err != nil {
		return err
	}
	if b.current == nil {
		return b.Run(args...)
	}

	_, span := b.startWorkSpan(b.current.spanCtx, "backburner.join", b.current.corrID)
	invokeErr := b.safeInvoke(target, method, rest)
	span.End()
	if invokeErr != nil && !b.divertError(invokeErr) {
		return invokeErr
	}
	return nil
}

// Schedule ensures an instance (opening an autorun one if needed) and
// enqueues [target,] method [, args...] into the named queue in FIFO
// order. The returned Handle is cancellable via Cancel.
func (b *Backburner) Schedule(queueName string, args ...any) (Handle, error) {
	target, method, rest, err := splitTargetMethod(args)
	if err != nil {
		return Handle{}, err
	}
	return b.scheduleItem(queueName, target, method, rest, false)
}

// ScheduleOnce is Schedule with once semantics: a pending item already
// present for the (target, method) pair has its args replaced in place
// instead of a new item being appended.
func (b *Backburner) ScheduleOnce(queueName string, args ...any) (Handle, error) {
	target, method, rest, err := splitTargetMethod(args)
	if err != nil {
		return Handle{}, err
	}
	return b.scheduleItem(queueName, target, method, rest, true)
}

// Defer is a deprecated alias of Schedule, kept for API parity with the
// historical naming this orchestrator's lineage carries.
func (b *Backburner) Defer(queueName string, args ...any) (Handle, error) {
	return b.Schedule(queueName, args...)
}

// DeferOnce is a deprecated alias of ScheduleOnce.
func (b *Backburner) DeferOnce(queueName string, args ...any) (Handle, error) {
	return b.ScheduleOnce(queueName, args...)
}

func (b *Backburner) scheduleItem(queueName string, target, method any, args []any, once bool) (Handle, error) {
	b.ensureInstance()
	q, err := b.current.queueByName(queueName)
	if err != nil {
		return Handle{}, err
	}

	item := &workItem{target: target, method: method, args: args}
	b.annotateDebug(item)

	var result *workItem
	before := q.Len()
	if once {
		result = q.pushOnce(onceKey{target: target, method: methodIdentity(method)}, item)
	} else {
		result = q.push(item)
	}
	if q.Len() > before {
		b.instr.adjustQueueDepth(context.Background(), queueName, 1)
	}

	b.cfg.logger.Debug("backburner: scheduled", "queue", queueName, "once", once)
	return queuedHandle(q, result), nil
}

// ScheduleIterable enqueues an iterator-drain sentinel into the named
// queue: each time it runs it pulls exactly one function out of seq,
// calls it, and reschedules itself onto the same queue; the run that
// finds seq exhausted stops the iterator and does not reschedule.
// Because a queue's drain also runs items scheduled into it while it is
// draining, the whole sequence is consumed within the same flush; there
// is no per-flush limit on how many functions run.
func (b *Backburner) ScheduleIterable(queueName string, seq iter.Seq[func()]) (Handle, error) {
	next, stop := iter.Pull(seq)

	var drain func()
	drain = func() {
		fn, ok := next()
		if !ok {
			stop()
			return
		}
		fn()
		if _, err := b.scheduleFunc(queueName, drain); err != nil {
			b.cfg.logger.Warn("backburner: failed to reschedule iterable drain", "queue", queueName, "error", err)
			stop()
		}
	}

	return b.scheduleFunc(queueName, drain)
}

// scheduleFunc is the internal low-level push used by ScheduleIterable
// and the cron re-arm wrapper: a plain func() with no target/args
// polymorphism to resolve.
func (b *Backburner) scheduleFunc(queueName string, fn func()) (Handle, error) {
	b.ensureInstance()
	q, err := b.current.queueByName(queueName)
	if err != nil {
		return Handle{}, err
	}
	item := &workItem{method: fn}
	b.annotateDebug(item)
	q.push(item)
	b.instr.adjustQueueDepth(context.Background(), queueName, 1)
	return queuedHandle(q, item), nil
}

func (b *Backburner) annotateDebug(item *workItem) {
	if !b.DEBUG {
		return
	}
	item.corrID = b.cfg.idGen()
	item.stack = captureStack(2)
}

// Cancel cancels a Handle returned by Schedule/ScheduleOnce/Later/
// Debounce/Throttle. Cancelling a falsy, already-fired, or unknown
// handle returns false.
func (b *Backburner) Cancel(h Handle) bool {
	switch h.kind {
	case handleQueued:
		ok := h.queue.cancel(h.item)
		if ok {
			b.instr.adjustQueueDepth(context.Background(), h.queue.Name(), -1)
		}
		return ok
	case handleLater:
		return b.cancelLater(h.later)
	case handleRate:
		return b.cancelRate(h)
	default:
		return false
	}
}

// CancelTimers clears every later() timer, every debounce/throttle
// entry, and the autorun, per spec.md §4.7. Queued work items are
// deliberately left untouched — this is an explicitly preserved,
// spec-documented quirk, not an oversight (see Open Question (a) in
// DESIGN.md).
func (b *Backburner) CancelTimers() {
	for _, e := range b.debounce.entries {
		b.cfg.platform.ClearTimeout(e.timerID)
	}
	b.debounce.entries = nil

	for _, e := range b.throttle.entries {
		b.cfg.platform.ClearTimeout(e.timerID)
	}
	b.throttle.entries = nil

	if b.expiryTimerArmed {
		b.cfg.platform.ClearTimeout(b.expiryTimerID)
		b.expiryTimerArmed = false
	}
	b.timers.entries = nil

	if b.autorunArmed {
		b.cfg.platform.ClearNext(b.autorunToken)
		b.autorunArmed = false
	}
}

// splitTargetMethod resolves the spec.md "[target,] method [, args...]"
// polymorphic argument list shared by Run, Join, Schedule, and
// ScheduleOnce: if the first argument is itself invocable (a func or a
// method-name string), there is no target.
func splitTargetMethod(args []any) (target any, method any, rest []any, err error) {
	if len(args) == 0 {
		return nil, nil, nil, fmt.Errorf("backburner: a method is required")
	}
	if isInvocable(args[0]) {
		return nil, args[0], args[1:], nil
	}
	if len(args) < 2 {
		return nil, nil, nil, fmt.Errorf("backburner: no method given for target %v", args[0])
	}
	if !isInvocable(args[1]) {
		return nil, nil, nil, fmt.Errorf("backburner: second argument must be a method or method name, got %T", args[1])
	}
	return args[0], args[1], args[2:], nil
}

func isInvocable(v any) bool {
	if _, ok := v.(string); ok {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.IsValid() && rv.Kind() == reflect.Func
}
