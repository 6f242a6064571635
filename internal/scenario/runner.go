package scenario

import (
	"dramctl/internal/arbiter"
	"dramctl/internal/des"
	"dramctl/internal/types"
)

// Event is one committed command, timestamped at issue (spec.md §8: "the
// sequence of emitted command phases").
type Event struct {
	Tick    types.Tick
	Channel types.Channel
	Cmd     types.Command
	Bank    types.Bank
	Row     types.Row
}

// Recorder accumulates the command trace emitted by every channel
// controller, in commit order, for a scenario test to assert against.
type Recorder struct {
	clock  *des.Clock
	Events []Event
}

// NewRecorder returns a Recorder ticking off the given clock.
func NewRecorder(clock *des.Clock) *Recorder {
	return &Recorder{clock: clock}
}

// Sink returns the controller.Hooks.SendDownstream closure for channel ch.
// Wire it into every per-channel controller.Config before running a
// scenario.
func (r *Recorder) Sink(ch types.Channel) func(cmd types.Command, txn *types.Transaction) {
	return func(cmd types.Command, txn *types.Transaction) {
		ev := Event{Tick: r.clock.Now(), Channel: ch, Cmd: cmd}
		if txn != nil {
			ev.Bank = txn.Controller.Bank
			ev.Row = txn.Controller.Row
		}
		r.Events = append(r.Events, ev)
	}
}

// Run replays every step of sc against arb, using pool to mint a fresh
// Transaction per request step, and returns once the clock goes idle after
// the final step.
func Run(sc *Scenario, clock *des.Clock, arb *arbiter.Arbiter, pool *types.Pool) {
	var threadSeq []uint64
	seqFor := func(thread types.Thread) uint64 {
		for len(threadSeq) <= int(thread) {
			threadSeq = append(threadSeq, 0)
		}
		n := threadSeq[thread]
		threadSeq[thread]++
		return n
	}

	for _, step := range sc.Steps {
		switch step.Kind {
		case StepRequest:
			txn := pool.Get()
			txn.IsWrite = step.IsWrite
			txn.Addr = step.Addr
			if step.IsWrite {
				txn.Data = make([]byte, 1)
			}
			arb.SubmitRequest(txn, step.Thread, seqFor(step.Thread))

		case StepWait:
			clock.Run(step.Ticks)
		}
	}
	clock.RunUntilIdle()
}
