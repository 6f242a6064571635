// Package checker maintains the earliest time at which each candidate
// command is permitted under the active standard's timing table
// (spec.md §4.2). Grounded on the original DRAMSys CheckerDDR/CheckerWideIO2
// family (original_source/.../controller/checker), which keeps one
// "last issued time" per scope and re-derives time_to_satisfy as the
// pointwise maximum of every applicable constraint; this port keeps that
// shape but collapses the per-standard checker subclasses into one
// generic Checker parameterised over memspec.Timing, since every
// standard shares the same constraint *names* and differs only in the
// numeric values already captured by memspec.
package checker

import (
	"container/heap"

	"dramctl/internal/mathx"
	"dramctl/internal/memspec"
	"dramctl/internal/types"
)

const maxTime = types.Tick(1<<62 - 1)

type bankKey struct {
	rank  types.Rank
	group types.BankGroup
	bank  types.Bank
}

type groupKey struct {
	rank  types.Rank
	group types.BankGroup
}

// Checker is owned exclusively by one channel's controller (spec.md §3).
type Checker struct {
	spec *memspec.MemSpec

	lastBank  map[bankKey]map[types.Command]types.Tick
	lastGroup map[groupKey]map[types.Command]types.Tick
	lastRank  map[types.Rank]map[types.Command]types.Tick

	faw map[types.Rank]*fawWindow
}

// New returns a Checker with empty timing tables — every command is legal
// at time 0 until something is inserted.
func New(spec *memspec.MemSpec) *Checker {
	return &Checker{
		spec:      spec,
		lastBank:  make(map[bankKey]map[types.Command]types.Tick),
		lastGroup: make(map[groupKey]map[types.Command]types.Tick),
		lastRank:  make(map[types.Rank]map[types.Command]types.Tick),
		faw:       make(map[types.Rank]*fawWindow),
	}
}

func bk(rank types.Rank, group types.BankGroup, bank types.Bank) bankKey {
	return bankKey{rank, group, bank}
}
func gk(rank types.Rank, group types.BankGroup) groupKey {
	return groupKey{rank, group}
}

func (c *Checker) bankTable(k bankKey) map[types.Command]types.Tick {
	t, ok := c.lastBank[k]
	if !ok {
		t = make(map[types.Command]types.Tick)
		c.lastBank[k] = t
	}
	return t
}
func (c *Checker) groupTable(k groupKey) map[types.Command]types.Tick {
	t, ok := c.lastGroup[k]
	if !ok {
		t = make(map[types.Command]types.Tick)
		c.lastGroup[k] = t
	}
	return t
}
func (c *Checker) rankTable(r types.Rank) map[types.Command]types.Tick {
	t, ok := c.lastRank[r]
	if !ok {
		t = make(map[types.Command]types.Tick)
		c.lastRank[r] = t
	}
	return t
}

func last(table map[types.Command]types.Tick, cmds ...types.Command) types.Tick {
	var best types.Tick = -1
	for _, cmd := range cmds {
		if t, ok := table[cmd]; ok && t > best {
			best = t
		}
	}
	return best
}

// TimeToSatisfy returns the earliest tick cmd may legally issue against the
// given bank coordinate, the pointwise maximum of every applicable
// constraint (spec.md §4.2). The result is always a finite tick; FAW
// saturation also yields a finite future tick, per the rolling-window
// semantics below.
func (c *Checker) TimeToSatisfy(cmd types.Command, rank types.Rank, group types.BankGroup, bank types.Bank) types.Tick {
	bt := c.bankTable(bk(rank, group, bank))
	gt := c.groupTable(gk(rank, group))
	rt := c.rankTable(rank)
	t := c.spec.Timing

	var earliest types.Tick

	bump := func(base types.Tick, delay types.Tick) {
		if base < 0 {
			return
		}
		earliest = mathx.Max(earliest, base+delay)
	}

	switch {
	case cmd == types.ACT:
		bump(last(bt, types.ACT), t.TRC)
		bump(last(bt, types.PREPB, types.PREAB, types.PRESB), t.TRP)
		bump(last(gt, types.ACT), t.TRRDL)
		if w := c.faw[rank]; w != nil {
			if when, ok := w.earliestNextACT(); ok {
				earliest = mathx.Max(earliest, when)
			}
		}
		bump(last(rt, types.REFAB, types.REFSB, types.REFP2B), t.TRFC)
		bump(last(bt, types.REFPB), t.TRFCPB)

	case cmd.IsRead():
		bump(last(bt, types.ACT), t.TRCD)
		// Same-bank WR->RD turnaround (spec.md §3's tRDWR/WRRD): the
		// prior write must finish its internal restore before a read to
		// the same bank issues, the same tWR bound the PREPB branch
		// below already applies to a write-then-disturb of this bank.
		bump(last(bt, types.WR, types.WRA, types.MWR, types.MWRA), t.TWR)
		bump(last(gt, types.RD, types.RDA), t.TCCDS)
		bump(last(gt, types.WR, types.WRA, types.MWR, types.MWRA), t.TWTRS)
		bump(last(rt, types.WR, types.WRA, types.MWR, types.MWRA), t.TRTW)

	case cmd.IsWrite():
		bump(last(bt, types.ACT), t.TRCD)
		// Same-bank RD->WR turnaround (spec.md §3's tRDWR/WRRD): the
		// prior read must finish its restore before a write to the same
		// bank, the same tRTP bound the PREPB branch below already
		// applies to a read-then-disturb of this bank.
		bump(last(bt, types.RD, types.RDA), t.TRTP)
		bump(last(gt, types.WR, types.WRA, types.MWR, types.MWRA), t.TCCDS)
		bump(last(gt, types.RD, types.RDA), t.TRTRS)

	case cmd == types.PREPB || cmd == types.PRESB || cmd == types.PREAB:
		bump(last(bt, types.ACT), t.TRAS)
		bump(last(bt, types.RD), t.TRTP)
		bump(last(bt, types.WR, types.MWR), t.TWR)

	case cmd.IsRefresh():
		bump(last(bt, types.ACT), t.TRAS)
		bump(last(bt, types.PREPB, types.PREAB, types.PRESB), t.TRP)

	case cmd.IsPowerDown() || cmd.IsSelfRefresh():
		// entry/exit guards are enforced by the power-down manager's own
		// state machine, not the checker's timing tables.
	}

	return earliest
}

// Insert records cmd as issued against the given coordinate. Must only be
// called for a command the command multiplexer actually dispatched this
// cycle (spec.md §4.2).
func (c *Checker) Insert(at types.Tick, cmd types.Command, rank types.Rank, group types.BankGroup, bank types.Bank) {
	c.bankTable(bk(rank, group, bank))[cmd] = at
	c.groupTable(gk(rank, group))[cmd] = at
	c.rankTable(rank)[cmd] = at

	if cmd == types.ACT {
		c.fawFor(rank).record(at)
	}
}

func (c *Checker) fawFor(rank types.Rank) *fawWindow {
	w, ok := c.faw[rank]
	if !ok {
		w = newFAWWindow(c.spec.Timing.TFAW)
		c.faw[rank] = w
	}
	return w
}

// fawWindow enforces tFAW: at most four ACT commands to the same rank in
// any rolling window of tFAW ticks. Implemented as a small min-heap of
// expiry times (spec.md §9's container/heap instruction), mirroring how
// internal/des orders due times.
type fawWindow struct {
	window types.Tick
	expiry expiryHeap
}

func newFAWWindow(window types.Tick) *fawWindow {
	return &fawWindow{window: window}
}

func (w *fawWindow) record(at types.Tick) {
	heap.Push(&w.expiry, at+w.window)
}

// earliestNextACT reports the earliest tick a 5th ACT may issue once four
// are already outstanding in the window; ok is false when fewer than four
// are outstanding (no FAW constraint active).
func (w *fawWindow) earliestNextACT() (types.Tick, bool) {
	// Every entry still in the heap counts against the window; expired
	// entries are removed only by Prune, which the controller calls at
	// the start of each step, so no clock callback is needed.
	if len(w.expiry) < 4 {
		return 0, false
	}
	return w.expiry[0], true
}

// Prune discards expired ACT markers once the current tick has passed
// them, however many entries the window holds; callers invoke this once
// per controller step.
func (w *fawWindow) Prune(now types.Tick) {
	for len(w.expiry) > 0 && w.expiry[0] <= now {
		heap.Pop(&w.expiry)
	}
}

// Prune is exported on Checker so the controller's per-tick housekeeping
// can age out every rank's FAW window in one call.
func (c *Checker) Prune(now types.Tick) {
	for _, w := range c.faw {
		w.Prune(now)
	}
}

type expiryHeap []types.Tick

func (h expiryHeap) Len() int            { return len(h) }
func (h expiryHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h expiryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *expiryHeap) Push(x any)         { *h = append(*h, x.(types.Tick)) }
func (h *expiryHeap) Pop() any {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}
