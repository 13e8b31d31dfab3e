package backburner

import "errors"

// Sentinel errors returned by the orchestrator's misuse-detection paths.
// All are checked with errors.Is by callers that want to distinguish them.
var (
	// ErrEndWithoutBegin is returned by End when no instance is current.
	ErrEndWithoutBegin = errors.New("backburner: end called without begin")

	// ErrUnknownEvent is returned by On/Off for any event name other than
	// "begin" or "end".
	ErrUnknownEvent = errors.New("backburner: unknown event name")

	// ErrNilCallback is returned by On when the callback is nil, and by Off
	// when no callback is supplied.
	ErrNilCallback = errors.New("backburner: callback must not be nil")

	// ErrUnknownCallback is returned by Off when the callback is not
	// currently registered for the given event.
	ErrUnknownCallback = errors.New("backburner: callback is not registered for event")

	// ErrInvalidCronExpr is returned by ScheduleCron when the expression
	// fails gronx validation.
	ErrInvalidCronExpr = errors.New("backburner: invalid cron expression")
)
