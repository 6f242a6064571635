package cmdmux

import (
	"testing"

	"dramctl/internal/types"
)

func TestOldestPicksSmallestEarliestTime(t *testing.T) {
	m := New(types.Oldest)
	cands := []Candidate{
		{Command: types.RD, Source: SourceBank, EarliestTime: 10, TxnSeq: 2},
		{Command: types.WR, Source: SourceBank, EarliestTime: 5, TxnSeq: 1},
	}
	got, ok := m.Pick(20, cands)
	if !ok || got.Command != types.WR {
		t.Fatalf("Pick() = %v, %v; want WR, true", got.Command, ok)
	}
}

func TestOldestPrefersRefreshOnTie(t *testing.T) {
	m := New(types.Oldest)
	cands := []Candidate{
		{Command: types.RD, Source: SourceBank, EarliestTime: 5},
		{Command: types.REFAB, Source: SourceRefresh, EarliestTime: 5},
	}
	got, ok := m.Pick(10, cands)
	if !ok || got.Command != types.REFAB {
		t.Fatalf("Pick() = %v, want REFAB to win the tie (refresh > bank priority)", got.Command)
	}
}

func TestPickReturnsNOPWhenNothingReady(t *testing.T) {
	m := New(types.Oldest)
	cands := []Candidate{{Command: types.RD, Source: SourceBank, EarliestTime: 50}}
	_, ok := m.Pick(10, cands)
	if ok {
		t.Fatal("expected NOP when no candidate's earliest_time has arrived")
	}
}

func TestStrictBlocksOnOldestTransactionNotReady(t *testing.T) {
	m := New(types.Strict)
	cands := []Candidate{
		{Command: types.WR, Source: SourceBank, EarliestTime: 50, TxnSeq: 1}, // oldest txn, not ready
		{Command: types.RD, Source: SourceBank, EarliestTime: 5, TxnSeq: 2},  // later txn, ready
	}
	_, ok := m.Pick(10, cands)
	if ok {
		t.Fatal("Strict must return NOP when the oldest outstanding transaction's command is not ready")
	}
}

func TestStrictIssuesOldestWhenReady(t *testing.T) {
	m := New(types.Strict)
	cands := []Candidate{
		{Command: types.WR, Source: SourceBank, EarliestTime: 5, TxnSeq: 1},
		{Command: types.RD, Source: SourceBank, EarliestTime: 5, TxnSeq: 2},
	}
	got, ok := m.Pick(10, cands)
	if !ok || got.TxnSeq != 1 {
		t.Fatalf("Pick() = seq %d, want the oldest transaction's seq 1", got.TxnSeq)
	}
}

func TestStrictRefreshAlwaysPreempts(t *testing.T) {
	m := New(types.Strict)
	cands := []Candidate{
		{Command: types.WR, Source: SourceBank, EarliestTime: 5, TxnSeq: 1},
		{Command: types.REFAB, Source: SourceRefresh, EarliestTime: 5},
	}
	got, ok := m.Pick(10, cands)
	if !ok || got.Command != types.REFAB {
		t.Fatalf("Pick() = %v, want REFAB to preempt request traffic under Strict too", got.Command)
	}
}
