// Package respqueue implements the response queue (spec.md §4.8): the
// ordered list of pending read responses tagged with the cycle the data
// bus completes driving. Grounded on the original DRAMSys response-FIFO
// kept inside Controller.cpp (there a plain std::deque driven by the same
// insert/next_ready/trigger_time contract spec.md names).
package respqueue

import "dramctl/internal/types"

// entry pairs a transaction with the tick its data becomes ready.
type entry struct {
	txn       *types.Transaction
	readyTime types.Tick
}

// Queue is one channel's response queue.
type Queue struct {
	reorder bool
	items   []entry
}

// New returns an empty response queue under the given policy.
func New(policy types.RespQueuePolicy) *Queue {
	return &Queue{reorder: policy == types.RespReorder}
}

// Insert appends trans with its data-ready time (spec.md §4.8). Invariant
// in Fifo mode: readyTime never decreases across successive Insert calls
// — callers violate this at their own risk, since Fifo mode trusts
// arrival order is already ready-time order.
func (q *Queue) Insert(trans *types.Transaction, readyTime types.Tick) {
	q.items = append(q.items, entry{trans, readyTime})
	if q.reorder {
		// Reorder mode permits a later-arriving, earlier-ready
		// transaction to precede one already queued, so long as
		// per-thread order is preserved elsewhere (the arbiter's
		// per-thread FIFO, spec.md §6) — here that just means keeping
		// the queue sorted by ready time.
		q.sortByReadyTime()
	}
}

func (q *Queue) sortByReadyTime() {
	for i := len(q.items) - 1; i > 0 && q.items[i].readyTime < q.items[i-1].readyTime; i-- {
		q.items[i], q.items[i-1] = q.items[i-1], q.items[i]
	}
}

// NextReady returns the front transaction if its ready time has arrived,
// else ok=false (spec.md §4.8).
func (q *Queue) NextReady(now types.Tick) (*types.Transaction, bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	if q.items[0].readyTime > now {
		return nil, false
	}
	return q.items[0].txn, true
}

// Pop removes the front entry; callers call this once NextReady's
// transaction has been handed to the response phase.
func (q *Queue) Pop() {
	if len(q.items) == 0 {
		return
	}
	q.items = q.items[1:]
}

// TriggerTime returns the earliest ready_time in the queue, to arm the
// controller's wake-up (spec.md §4.8); returns 1<<62-1, the same
// "no time" sentinel the controller uses as maxTime, when empty.
func (q *Queue) TriggerTime() types.Tick {
	if len(q.items) == 0 {
		return 1<<62 - 1
	}
	best := q.items[0].readyTime
	for _, e := range q.items[1:] {
		if e.readyTime < best {
			best = e.readyTime
		}
	}
	return best
}

// Len reports how many responses are pending.
func (q *Queue) Len() int { return len(q.items) }
