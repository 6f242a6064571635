// Package cmdmux implements the command multiplexer: picks one command
// from all ready candidates each controller tick (spec.md §4.5). Grounded
// on original_source's Command-selection loop inside Controller.cpp
// (there the two policies are a priority-ordered scan and a strict FIFO
// scan over the same candidate set this package receives pre-built).
package cmdmux

import "dramctl/internal/types"

// Source names where a candidate originated, used for the Oldest policy's
// tiebreak priority (spec.md §4.5: "refresh > bank > power-down").
type Source uint8

const (
	SourceRefresh Source = iota
	SourceBank
	SourcePowerDown
)

// Candidate is one ready command proposal (spec.md §4.5's
// "(cmd, payload, earliest_time)" triple, extended with enough
// provenance for both policies to pick among them).
type Candidate struct {
	Command      types.Command
	Rank         types.Rank
	BankGroup    types.BankGroup
	Bank         types.Bank
	EarliestTime types.Tick
	Source       Source
	TxnID        uint64 // originating transaction's ID; neither policy reads it
	TxnSeq       uint64 // arrival sequence number, for Strict's FIFO order
}

// Mux selects one committed command per tick from the candidate set.
type Mux struct {
	policy types.CmdMuxPolicy
}

// New returns a Mux under the given policy.
func New(policy types.CmdMuxPolicy) *Mux {
	return &Mux{policy: policy}
}

// Pick returns the committed candidate for this tick, or ok=false meaning
// NOP: do nothing this tick (spec.md §4.5). candidates is the full set
// proposed by bank machines and refresh/power-down managers, including
// ones not yet ready at now — Strict needs to see the whole set to know
// whether the globally oldest transaction is the one blocking issue.
func (m *Mux) Pick(now types.Tick, candidates []Candidate) (Candidate, bool) {
	switch m.policy {
	case types.Strict:
		return m.pickStrict(now, candidates)
	default:
		return m.pickOldest(now, candidates)
	}
}

// pickOldest chooses the smallest EarliestTime among ready candidates,
// tiebreaking by source priority (refresh > bank > power-down) and then
// by transaction arrival sequence (spec.md §4.5, §5's "totally ordered by
// the command multiplexer's tiebreak policy").
func (m *Mux) pickOldest(now types.Tick, candidates []Candidate) (Candidate, bool) {
	var best Candidate
	found := false
	for _, c := range candidates {
		if c.Command == types.NOP || c.EarliestTime > now {
			continue
		}
		if !found || better(c, best) {
			best, found = c, true
		}
	}
	return best, found
}

func better(a, b Candidate) bool {
	if a.EarliestTime != b.EarliestTime {
		return a.EarliestTime < b.EarliestTime
	}
	if a.Source != b.Source {
		return a.Source < b.Source
	}
	return a.TxnSeq < b.TxnSeq
}

// pickStrict issues candidates in the FIFO order of their originating
// transactions: the oldest outstanding bank-sourced candidate must be
// ready this tick, or the mux returns NOP even though a later
// transaction's command is ready (spec.md §4.5). Refresh and power-down
// candidates have no originating transaction and are arbitrated by the
// same priority order pickOldest uses, since they always take precedence
// over request traffic regardless of mux policy.
func (m *Mux) pickStrict(now types.Tick, candidates []Candidate) (Candidate, bool) {
	var oldestBank *Candidate
	var bestOther Candidate
	foundOther := false

	for i := range candidates {
		c := candidates[i]
		if c.Command == types.NOP {
			continue
		}
		if c.Source != SourceBank {
			if c.EarliestTime <= now && (!foundOther || better(c, bestOther)) {
				bestOther, foundOther = c, true
			}
			continue
		}
		if oldestBank == nil || c.TxnSeq < oldestBank.TxnSeq {
			oldestBank = &candidates[i]
		}
	}

	if foundOther {
		return bestOther, true
	}
	if oldestBank != nil && oldestBank.EarliestTime <= now {
		return *oldestBank, true
	}
	return Candidate{}, false
}
