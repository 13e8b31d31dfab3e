package backburner

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// DeferredActionQueues is a fixed, ordered sequence of Queues named by
// the configured queueNames. It is the data structure behind one run-loop
// instance: it owns scheduling into its queues and the multi-pass flush
// algorithm described in spec.md §4.2.
type DeferredActionQueues struct {
	queues []*Queue
	index  map[string]int

	corrID uuid.UUID

	// spanCtx/span bracket the "backburner.instance" span for this
	// instance's whole begin/end lifetime (see SPEC_FULL.md §4.10). A
	// paused-and-resumed flush keeps the same instance, and therefore the
	// same span, open across several End calls; span is closed only once
	// the instance truly ends.
	spanCtx context.Context
	span    trace.Span
}

func newDeferredActionQueues(queueNames []string, corrID uuid.UUID) *DeferredActionQueues {
	d := &DeferredActionQueues{
		queues: make([]*Queue, len(queueNames)),
		index:  make(map[string]int, len(queueNames)),
		corrID: corrID,
	}
	for i, name := range queueNames {
		d.queues[i] = newQueue(name)
		d.index[name] = i
	}
	return d
}

func (d *DeferredActionQueues) queueByName(name string) (*Queue, error) {
	i, ok := d.index[name]
	if !ok {
		return nil, fmt.Errorf("backburner: unknown queue %q", name)
	}
	return d.queues[i], nil
}

// QueueDepths reports the number of pending items in every queue, keyed
// by name. Intended for observability (metrics, audit sinks), not for
// anything on the scheduling hot path.
func (d *DeferredActionQueues) QueueDepths() map[string]int {
	depths := make(map[string]int, len(d.queues))
	for _, q := range d.queues {
		depths[q.Name()] = q.Len()
	}
	return depths
}

// hasWork reports whether any queue holds pending items.
func (d *DeferredActionQueues) hasWork() bool {
	for _, q := range d.queues {
		if !q.Empty() {
			return true
		}
	}
	return false
}

// flush pumps queues left-to-right. run is invoked once per work item; an
// error from run aborts the pump immediately, leaving remaining items (in
// the queue currently draining, and all not-yet-reached queues) in place.
// flush returns queueStatePause if a drained queue requested a pause,
// and queueStateDone once every queue is empty.
func (d *DeferredActionQueues) flush(run func(*workItem) error) (queueState, error) {
	i := 0
	for i < len(d.queues) {
		state, err := d.queues[i].drain(run)
		if err != nil {
			return queueStateDone, err
		}
		if state == queueStatePause {
			return queueStatePause, nil
		}

		reset := -1
		for j := 0; j < i; j++ {
			if !d.queues[j].Empty() {
				reset = j
				break
			}
		}
		if reset >= 0 {
			i = reset
			continue
		}
		i++
	}
	return queueStateDone, nil
}
