package bankmachine

import (
	"testing"

	"dramctl/internal/checker"
	"dramctl/internal/memspec"
	"dramctl/internal/types"
)

type stubScheduler struct {
	next          *types.Transaction
	furtherReq    bool
	furtherRowHit bool
}

func (s *stubScheduler) GetNextRequest(types.Bank, types.Row, bool) *types.Transaction {
	return s.next
}
func (s *stubScheduler) HasFurtherRequest(types.Bank) bool  { return s.furtherReq }
func (s *stubScheduler) HasFurtherRowHit(types.Bank, types.Row) bool { return s.furtherRowHit }

func txn(row types.Row, isWrite bool) *types.Transaction {
	t := &types.Transaction{IsWrite: isWrite}
	t.Controller.Row = row
	return t
}

func TestPrechargedProposesACT(t *testing.T) {
	sched := &stubScheduler{next: txn(5, false)}
	chk := checker.New(memspec.NewDDR3())
	m := New(0, 0, 0, types.Open, sched, chk)

	m.Start(0)
	if m.NextCommand() != types.ACT {
		t.Fatalf("NextCommand() = %v, want ACT", m.NextCommand())
	}
}

func TestOpenPolicyAlwaysPlainCAS(t *testing.T) {
	sched := &stubScheduler{next: txn(5, false)}
	chk := checker.New(memspec.NewDDR3())
	m := New(0, 0, 0, types.Open, sched, chk)

	m.Start(0)
	m.Update(types.ACT)
	m.Start(100)
	if m.NextCommand() != types.RD && m.NextCommand() != types.WR {
		t.Fatalf("NextCommand() = %v, want RD/WR under Open policy", m.NextCommand())
	}
}

func TestClosedPolicyAlwaysAutoPrecharge(t *testing.T) {
	sched := &stubScheduler{next: txn(5, true)}
	chk := checker.New(memspec.NewDDR3())
	m := New(0, 0, 0, types.Closed, sched, chk)

	m.Start(0)
	m.Update(types.ACT)
	m.Start(100)
	if m.NextCommand() != types.WRA {
		t.Fatalf("NextCommand() = %v, want WRA under Closed policy", m.NextCommand())
	}
}

func TestOpenAdaptivePrefersAutoPrechargeWhenNoFurtherRowHit(t *testing.T) {
	sched := &stubScheduler{next: txn(5, false), furtherReq: true, furtherRowHit: false}
	chk := checker.New(memspec.NewDDR3())
	m := New(0, 0, 0, types.OpenAdaptive, sched, chk)

	m.Start(0)
	m.Update(types.ACT)
	m.Start(100)
	if m.NextCommand() != types.RDA {
		t.Fatalf("NextCommand() = %v, want RDA (another pending request, no further hit to this row)", m.NextCommand())
	}
}

func TestClosedAdaptivePrefersPlainCASWhenFurtherRowHit(t *testing.T) {
	sched := &stubScheduler{next: txn(5, false), furtherRowHit: true}
	chk := checker.New(memspec.NewDDR3())
	m := New(0, 0, 0, types.ClosedAdaptive, sched, chk)

	m.Start(0)
	m.Update(types.ACT)
	m.Start(100)
	if m.NextCommand() != types.RD {
		t.Fatalf("NextCommand() = %v, want RD (further row hit expected)", m.NextCommand())
	}
}

func TestRowMissProposesPrecharge(t *testing.T) {
	sched := &stubScheduler{next: txn(5, false)}
	chk := checker.New(memspec.NewDDR3())
	m := New(0, 0, 0, types.Open, sched, chk)
	m.Start(0)
	m.Update(types.ACT)
	m.Update(types.RD) // serve the row-5 request so the bank takes a new one

	sched.next = txn(6, false) // different row: miss
	m.Start(100)
	if m.NextCommand() != types.PREPB {
		t.Fatalf("NextCommand() = %v, want PREPB on row miss", m.NextCommand())
	}
}

func TestBlockForcesNOP(t *testing.T) {
	sched := &stubScheduler{next: txn(5, false)}
	chk := checker.New(memspec.NewDDR3())
	m := New(0, 0, 0, types.Open, sched, chk)
	m.Block()
	if m.NextCommand() != types.NOP {
		t.Fatalf("NextCommand() = %v, want NOP after Block", m.NextCommand())
	}
	m.Start(0)
	if !m.Blocked() {
		t.Fatal("Start must not clear a refresh manager's block")
	}
}

func TestUpdateACTSetsOpenRowAndActivated(t *testing.T) {
	sched := &stubScheduler{next: txn(7, false)}
	chk := checker.New(memspec.NewDDR3())
	m := New(0, 0, 0, types.Open, sched, chk)
	m.Start(0)
	m.Update(types.ACT)
	if !m.IsActivated() || m.OpenRow() != 7 {
		t.Fatalf("after ACT: activated=%v openRow=%d, want true/7", m.IsActivated(), m.OpenRow())
	}
}
