package backburner

import (
	"fmt"
	"time"

	"github.com/adhocore/gronx"
)

// ScheduleCron arms a self-renewing Later entry that fires at every tick
// of the cron expression expr (evaluated in the named IANA timezone, or
// local time if tz is empty), until the returned Handle is cancelled.
// It supplements Later rather than replacing it: under the hood this is
// just a Later entry whose wrapper recomputes the next tick and re-arms
// itself via Later again after every fire. Cancelling the returned Handle
// after the first fire stops the chain at its next tick (that tick runs
// nothing and re-arms nothing); Cancel reports false in that case, since
// the entry the Handle names has already fired.
func (b *Backburner) ScheduleCron(queueName, expr, tz string, target any, method any, args ...any) (Handle, error) {
	loc := time.Local
	if tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return Handle{}, fmt.Errorf("backburner: %w: invalid timezone %q: %v", ErrInvalidCronExpr, tz, err)
		}
		loc = l
	}

	gx := gronx.New()
	if !gx.IsValid(expr) {
		return Handle{}, fmt.Errorf("backburner: %w: %q", ErrInvalidCronExpr, expr)
	}

	state := &cronState{b: b, queueName: queueName, expr: expr, loc: loc, target: target, method: method, args: args}
	wait, err := state.nextWait()
	if err != nil {
		return Handle{}, err
	}

	h, err := b.Later(state.tick, wait)
	if err != nil {
		return Handle{}, err
	}
	state.handle = h
	return h, nil
}

// cronState carries the bookkeeping a self-renewing cron tick needs
// between fires: the expression, the queue it re-arms into, and the
// handle used to detect cancellation.
type cronState struct {
	b         *Backburner
	queueName string
	expr      string
	loc       *time.Location
	target    any
	method    any
	args      []any
	handle    Handle
}

func (s *cronState) nextWait() (time.Duration, error) {
	next, err := gronx.NextTickAfter(s.expr, time.Now().In(s.loc), false)
	if err != nil {
		return 0, fmt.Errorf("backburner: %w: %v", ErrInvalidCronExpr, err)
	}
	return time.Until(next), nil
}

// tick is the Later wrapper method: it runs the user's method, then
// recomputes the next occurrence and re-arms itself via Later, so a
// cron schedule is just a chain of Later entries sharing the timer
// heap rather than a second scheduling mechanism. s.handle stays the
// Handle ScheduleCron returned; once it is cancelled (cancelLater sets its
// entry's cancelled flag, read through Handle.cancelled) the chain stops
// instead of running and re-arming.
func (s *cronState) tick() {
	if s.handle.cancelled() {
		return
	}

	target, method, args := s.target, s.method, s.args
	if _, err := s.b.scheduleFunc(s.queueName, func() {
		if err := invoke(target, method, args); err != nil {
			if !s.b.divertError(err) {
				panic(err)
			}
		}
	}); err != nil {
		s.b.cfg.logger.Warn("backburner: cron tick could not enqueue onto its queue", "queue", s.queueName, "error", err)
	}

	wait, err := s.nextWait()
	if err != nil {
		s.b.cfg.logger.Warn("backburner: cron re-arm failed, chain stopped", "expr", s.expr, "error", err)
		return
	}
	if _, err := s.b.Later(s.tick, wait); err != nil {
		s.b.cfg.logger.Warn("backburner: cron re-arm failed, chain stopped", "expr", s.expr, "error", err)
	}
}
