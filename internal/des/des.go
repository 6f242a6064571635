// Package des is the small discrete-event kernel the controller core runs
// on. spec.md §1 lists "the simulation kernel itself" as an external
// collaborator, but Design Note 9 asks for either an embedded core or an
// accepted collaborator; this is the embedded core, grounded directly on
// the teacher's services/hal/internal/core/poller.go: a container/heap
// priority queue of due times, with re-arming to an earlier time replacing
// the previously pending entry (there, per pollKey; here, per Handle).
package des

import (
	"container/heap"
	"math"
)

// Tick is one controller time quantum (one tCK beat). Virtual time is a
// plain integer count rather than a wall clock: the controller never cares
// what a tCK is in nanoseconds, only how many of them have elapsed.
type Tick int64

// Never is returned by components that propose no future wake-up (the
// sc_max_time() sentinel of the original model).
const Never Tick = math.MaxInt64

// Handle identifies an armed event so it can be cancelled or re-armed.
type Handle uint64

type event struct {
	at    Tick
	seq   uint64 // insertion order: total-orders same-tick events (spec.md §5)
	id    Handle
	fn    func(Tick)
	index int
}

type eventHeap []*event

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].at != h[j].at {
		return h[i].at < h[j].at
	}
	return h[i].seq < h[j].seq
}
func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index, h[j].index = i, j
}
func (h *eventHeap) Push(x any) {
	e := x.(*event)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	e.index = -1
	*h = old[:n-1]
	return e
}

// Clock is a single-threaded virtual-time scheduler: at any instant only
// one callback executes (spec.md §5 — "no data races by construction").
type Clock struct {
	now     Tick
	nextID  Handle
	nextSeq uint64
	items   map[Handle]*event
	h       eventHeap
}

// NewClock returns a Clock starting at tick 0.
func NewClock() *Clock {
	return &Clock{items: make(map[Handle]*event)}
}

// Now returns the current virtual time.
func (c *Clock) Now() Tick { return c.now }

// Arm schedules fn to run at tick `at` (which may be in the past, in which
// case it runs on the next Step/Run call) and returns a Handle that can be
// passed to Cancel or re-armed by calling Arm again with the same Handle's
// owner semantics — callers that want "re-arm to earlier time replaces the
// pending event" should keep the returned Handle and call ReArm.
func (c *Clock) Arm(at Tick, fn func(Tick)) Handle {
	c.nextID++
	id := c.nextID
	e := &event{at: at, seq: c.nextSeq, id: id, fn: fn}
	c.nextSeq++
	c.items[id] = e
	heap.Push(&c.h, e)
	return id
}

// ReArm cancels the event under h (if still pending) and arms a new one at
// `at`, returning its (possibly new) Handle. Mirrors the teacher's
// heap.Fix-based re-arm: the old slot is removed, a fresh due time is set.
func (c *Clock) ReArm(h Handle, at Tick, fn func(Tick)) Handle {
	c.Cancel(h)
	return c.Arm(at, fn)
}

// Cancel removes a pending event. A no-op if it already fired or was never
// armed (matches "armed wake-ups may be re-armed... they are not
// cancelled" — cancellation here is a bookkeeping convenience for the
// caller, not a kernel guarantee about commands already in flight).
func (c *Clock) Cancel(h Handle) {
	e, ok := c.items[h]
	if !ok || e.index < 0 {
		return
	}
	heap.Remove(&c.h, e.index)
	delete(c.items, h)
}

// Pending reports whether anything is still armed.
func (c *Clock) Pending() bool { return len(c.h) > 0 }

// NextTick returns the due time of the earliest armed event, or Never if
// nothing is armed.
func (c *Clock) NextTick() Tick {
	if len(c.h) == 0 {
		return Never
	}
	return c.h[0].at
}

// Step pops and runs every event due at the single earliest tick (same-tick
// events run in insertion order, per spec.md §5's total-ordering
// requirement), advances Now to that tick, and reports whether anything
// ran.
func (c *Clock) Step() bool {
	if len(c.h) == 0 {
		return false
	}
	at := c.h[0].at
	c.now = at
	for len(c.h) > 0 && c.h[0].at == at {
		e := heap.Pop(&c.h).(*event)
		delete(c.items, e.id)
		e.fn(at)
	}
	return true
}

// Run steps the clock until no events remain or `budget` ticks have
// elapsed since the call (whichever comes first) — the host-imposed wall
// cap spec.md §5 delegates outside the simulated model.
func (c *Clock) Run(budget Tick) {
	deadline := c.now + budget
	for c.Pending() {
		if budget >= 0 && c.NextTick() > deadline {
			return
		}
		c.Step()
	}
}

// RunUntilIdle steps the clock to completion. Used by tests that drive a
// bounded scenario to its natural end.
func (c *Clock) RunUntilIdle() {
	for c.Step() {
	}
}
