// Package scheduler implements the request-level scheduler (spec.md §4.4):
// it decides which pending transaction a bank machine sees next, and
// tracks buffer occupancy for upstream backpressure. Grounded on the
// original SchedulerFifo/SchedulerFrFcfs/SchedulerFrFcfsGrp family
// (original_source/.../controller/scheduler, where present) and on
// RequestBuffer.{h,cpp} for the per-bank/per-direction/shared buffer
// accounting split; collapsed here into one Scheduler switched on
// types.SchedulerPolicy and types.SchedulerBuffer, per the "enum of
// variants, not a class hierarchy" design note (spec.md §9).
package scheduler

import "dramctl/internal/types"

// queue is one bank's arrival-ordered pending-request list.
type queue struct {
	items []*types.Transaction
}

func (q *queue) push(t *types.Transaction) { q.items = append(q.items, t) }

func (q *queue) remove(t *types.Transaction) {
	for i, v := range q.items {
		if v == t {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return
		}
	}
}

// Scheduler holds one channel's per-bank request buffers.
type Scheduler struct {
	policy       types.SchedulerPolicy
	bufferKind   types.SchedulerBuffer
	bufferSize   uint
	highWatermark, lowWatermark uint

	banks []queue // indexed by types.Bank

	// lastDirection tracks the most recently issued CAS direction per
	// bank, used by FrFcfsGrp's contiguous-same-direction preference
	// (spec.md §4.4) and by GrpFrFcfsWm's watermark decision.
	lastDirection []direction

	totalReads, totalWrites int
}

type direction uint8

const (
	dirNone direction = iota
	dirRead
	dirWrite
)

// New returns a Scheduler with numBanks empty per-bank queues.
func New(policy types.SchedulerPolicy, bufferKind types.SchedulerBuffer, bufferSize, highWM, lowWM uint, numBanks int) *Scheduler {
	return &Scheduler{
		policy: policy, bufferKind: bufferKind, bufferSize: bufferSize,
		highWatermark: highWM, lowWatermark: lowWM,
		banks:         make([]queue, numBanks),
		lastDirection: make([]direction, numBanks),
	}
}

// StoreRequest enqueues t onto its target bank's buffer.
func (s *Scheduler) StoreRequest(t *types.Transaction) {
	s.banks[t.Controller.Bank].push(t)
	if t.IsWrite {
		s.totalWrites++
	} else {
		s.totalReads++
	}
}

// RemoveRequest drops t once its CAS has been issued (it moves to the
// response queue, it no longer occupies the scheduler buffer).
func (s *Scheduler) RemoveRequest(t *types.Transaction) {
	s.banks[t.Controller.Bank].remove(t)
	if t.IsWrite {
		s.totalWrites--
	} else {
		s.totalReads--
	}
}

// NotifyIssued records the direction of a just-issued CAS for bank, so
// FrFcfsGrp/GrpFrFcfs* can reason about contiguous-direction runs on the
// next Start() pass.
func (s *Scheduler) NotifyIssued(bank types.Bank, isWrite bool) {
	if isWrite {
		s.lastDirection[bank] = dirWrite
	} else {
		s.lastDirection[bank] = dirRead
	}
}

// HasBufferSpace drives upstream backpressure (spec.md §4.4); the exact
// formula depends on bufferKind.
func (s *Scheduler) HasBufferSpace(bank types.Bank) bool {
	switch s.bufferKind {
	case types.Bankwise:
		return len(s.banks[bank].items) < int(s.bufferSize)
	case types.ReadWrite:
		return s.totalReads < int(s.bufferSize) && s.totalWrites < int(s.bufferSize)
	case types.Shared:
		return s.totalReads+s.totalWrites < int(s.bufferSize)
	default:
		return len(s.banks[bank].items) < int(s.bufferSize)
	}
}

// HasFurtherRequest reports whether bank has any pending request left
// (spec.md §4.4).
func (s *Scheduler) HasFurtherRequest(bank types.Bank) bool {
	return len(s.banks[bank].items) > 0
}

// HasFurtherRowHit reports whether bank has a pending request addressed
// to row (spec.md §4.4).
func (s *Scheduler) HasFurtherRowHit(bank types.Bank, row types.Row) bool {
	for _, t := range s.banks[bank].items {
		if t.Controller.Row == row {
			return true
		}
	}
	return false
}

// GetNextRequest chooses the next pending request for bank under the
// configured policy, given its precharged/activated state and open row
// (spec.md §4.4).
func (s *Scheduler) GetNextRequest(bank types.Bank, openRow types.Row, activated bool) *types.Transaction {
	q := &s.banks[bank]
	if len(q.items) == 0 {
		return nil
	}

	switch s.policy {
	case types.Fifo:
		return q.items[0]

	case types.FrFcfs:
		if activated {
			if hit := firstRowHit(q, openRow); hit != nil {
				return hit
			}
		}
		return q.items[0]

	case types.FrFcfsGrp:
		if activated {
			if hit := s.firstRowHitPreferringDirection(bank, q, openRow); hit != nil {
				return hit
			}
		}
		return q.items[0]

	case types.GrpFrFcfs:
		return s.groupedByDirection(bank, q, openRow, activated, false)

	case types.GrpFrFcfsWm:
		return s.groupedByDirection(bank, q, openRow, activated, true)

	default:
		return q.items[0]
	}
}

func firstRowHit(q *queue, row types.Row) *types.Transaction {
	for _, t := range q.items {
		if t.Controller.Row == row {
			return t
		}
	}
	return nil
}

// firstRowHitPreferringDirection implements FrFcfsGrp: among row hits,
// prefer one matching the bank's last-issued direction to keep the bus
// turning in the same direction. Hazard avoidance: a matching hit is not
// taken past an earlier skipped row hit to the same column; the first row
// hit in arrival order is returned instead (spec.md §4.4's "do not reorder
// over an address conflict"). When no row hit matches the last direction — the Open
// Question spec.md §10 leaves unresolved — this falls through to the
// first row hit in arrival order (see SPEC_FULL.md §12's decision).
func (s *Scheduler) firstRowHitPreferringDirection(bank types.Bank, q *queue, row types.Row) *types.Transaction {
	want := s.lastDirection[bank]
	var firstHit *types.Transaction
	var skipped []*types.Transaction
	for _, t := range q.items {
		if t.Controller.Row != row {
			continue
		}
		if firstHit == nil {
			firstHit = t
		}
		if want == dirNone {
			continue
		}
		if (want == dirRead && !t.IsWrite) || (want == dirWrite && t.IsWrite) {
			for _, e := range skipped {
				if e.Controller.Column == t.Controller.Column {
					return firstHit
				}
			}
			return t
		}
		skipped = append(skipped, t)
	}
	return firstHit
}

// groupedByDirection implements GrpFrFcfs/GrpFrFcfsWm (spec.md §4.4). A
// row hit to the open row is taken first, whatever its direction;
// otherwise the oldest request in the preferred direction, else the
// oldest request. The preferred direction is the one last issued on this
// bank; the Wm variant switches it to writes once the channel-wide write
// count reaches HighWatermark and to reads once it falls to LowWatermark,
// keeping the bank's last direction in between. There is no channel-wide
// direction state: grouping follows each bank's own history.
func (s *Scheduler) groupedByDirection(bank types.Bank, q *queue, openRow types.Row, activated bool, watermark bool) *types.Transaction {
	preferWrite := s.lastDirection[bank] == dirWrite
	if watermark {
		if s.totalWrites >= int(s.highWatermark) {
			preferWrite = true
		} else if s.totalWrites <= int(s.lowWatermark) {
			preferWrite = false
		}
	}

	if activated {
		if hit := firstRowHit(q, openRow); hit != nil {
			return hit
		}
	}

	for _, t := range q.items {
		if t.IsWrite == preferWrite {
			return t
		}
	}
	return q.items[0]
}
