package backburner

import "testing"

func TestQueuePushFIFOOrder(t *testing.T) {
	q := newQueue("actions")
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		q.push(&workItem{method: func() { order = append(order, i) }})
	}

	if _, err := q.drain(func(it *workItem) error {
		it.method.(func())()
		return nil
	}); err != nil {
		t.Fatalf("drain: %v", err)
	}

	want := []int{0, 1, 2}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got %v, want %v", order, want)
		}
	}
}

func TestQueuePushOnceDedups(t *testing.T) {
	q := newQueue("actions")
	key := onceKey{target: "t", method: "m"}

	first := q.pushOnce(key, &workItem{target: "t", args: []any{"a"}})
	second := q.pushOnce(key, &workItem{target: "t", args: []any{"b"}})

	if first != second {
		t.Fatal("expected the same item to be returned for a duplicate once-key")
	}
	if q.Len() != 1 {
		t.Fatalf("expected 1 queued item, got %d", q.Len())
	}
	if first.args[0] != "b" {
		t.Fatalf("expected args to be replaced in place, got %v", first.args)
	}
}

func TestQueuePushOnceDistinctKeysAppend(t *testing.T) {
	q := newQueue("actions")
	q.pushOnce(onceKey{target: "t", method: "a"}, &workItem{})
	q.pushOnce(onceKey{target: "t", method: "b"}, &workItem{})

	if q.Len() != 2 {
		t.Fatalf("expected 2 queued items for distinct keys, got %d", q.Len())
	}
}

func TestQueueCancelRemovesItemPreservingOrder(t *testing.T) {
	q := newQueue("actions")
	a := q.push(&workItem{args: []any{"a"}})
	b := q.push(&workItem{args: []any{"b"}})
	c := q.push(&workItem{args: []any{"c"}})

	if !q.cancel(b) {
		t.Fatal("expected cancel to succeed")
	}
	if q.Len() != 2 {
		t.Fatalf("expected 2 remaining items, got %d", q.Len())
	}
	if q.items[0] != a || q.items[1] != c {
		t.Fatal("expected remaining order a, c")
	}
}

func TestQueueCancelUnknownItemReturnsFalse(t *testing.T) {
	q := newQueue("actions")
	q.push(&workItem{})
	if q.cancel(&workItem{}) {
		t.Fatal("expected cancel of an item never pushed to return false")
	}
}

func TestQueueCancelOnceItemClearsIndex(t *testing.T) {
	q := newQueue("actions")
	key := onceKey{target: "t", method: "m"}
	item := q.pushOnce(key, &workItem{target: "t"})

	if !q.cancel(item) {
		t.Fatal("expected cancel to succeed")
	}
	second := q.pushOnce(key, &workItem{target: "t", args: []any{"new"}})
	if second == item {
		t.Fatal("expected a fresh item after the original once-entry was cancelled")
	}
}

func TestQueueDrainStopsOnError(t *testing.T) {
	q := newQueue("actions")
	var ran []int
	q.push(&workItem{})
	q.push(&workItem{})
	q.push(&workItem{})

	i := 0
	_, err := q.drain(func(it *workItem) error {
		ran = append(ran, i)
		i++
		if i == 2 {
			return errBoom
		}
		return nil
	})
	if err != errBoom {
		t.Fatalf("expected errBoom, got %v", err)
	}
	if len(ran) != 2 {
		t.Fatalf("expected drain to stop after the erroring item, ran %v", ran)
	}
	if q.Len() != 1 {
		t.Fatalf("expected 1 item left in queue, got %d", q.Len())
	}
}

func TestQueueDrainItemsScheduledDuringDrainAreSeen(t *testing.T) {
	q := newQueue("actions")
	var order []string
	q.push(&workItem{args: []any{"first"}})

	_, err := q.drain(func(it *workItem) error {
		order = append(order, it.args[0].(string))
		if it.args[0].(string) == "first" {
			q.push(&workItem{args: []any{"nested"}})
		}
		return nil
	})
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "nested" {
		t.Fatalf("expected [first nested], got %v", order)
	}
}

func TestQueueRequestPauseYieldsAfterCurrentItem(t *testing.T) {
	q := newQueue("actions")
	q.push(&workItem{args: []any{"a"}})
	q.push(&workItem{args: []any{"b"}})

	var ran []string
	state, err := q.drain(func(it *workItem) error {
		ran = append(ran, it.args[0].(string))
		q.requestPause()
		return nil
	})
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if state != queueStatePause {
		t.Fatalf("expected pause state, got %v", state)
	}
	if len(ran) != 1 || ran[0] != "a" {
		t.Fatalf("expected only the first item to run, ran %v", ran)
	}
	if q.Len() != 1 {
		t.Fatalf("expected the second item left in place, got %d remaining", q.Len())
	}
}

var errBoom = &testError{"boom"}

type testError struct{ s string }

func (e *testError) Error() string { return e.s }
