package checker

import (
	"testing"

	"dramctl/internal/memspec"
	"dramctl/internal/types"
)

func TestActToActRespectsTRC(t *testing.T) {
	spec := memspec.NewDDR3()
	c := New(spec)

	c.Insert(0, types.ACT, 0, 0, 0)
	got := c.TimeToSatisfy(types.ACT, 0, 0, 0)
	if got != spec.Timing.TRC {
		t.Fatalf("time_to_satisfy(ACT) after ACT@0 = %d, want %d (tRC)", got, spec.Timing.TRC)
	}
}

func TestRdaToActRespectsTRP(t *testing.T) {
	spec := memspec.NewDDR3()
	c := New(spec)

	c.Insert(0, types.ACT, 0, 0, 0)
	c.Insert(spec.Timing.TRCD, types.RDA, 0, 0, 0)
	// RDA's own precharge lands tRTP after the RDA issue in execution
	// time, but the checker only tracks issue times of PRE-class
	// commands directly, so drive an explicit PRE to test tRP.
	c.Insert(spec.Timing.TRCD+spec.Timing.TRTP, types.PREPB, 0, 0, 0)

	got := c.TimeToSatisfy(types.ACT, 0, 0, 0)
	// tRP after the PRE bounds the ACT at tRCD+tRTP+tRP; tRC from the ACT
	// at 0 also applies, and the result is the later of the two (tRC on
	// DDR3).
	want := spec.Timing.TRCD + spec.Timing.TRTP + spec.Timing.TRP
	if spec.Timing.TRC > want {
		want = spec.Timing.TRC
	}
	if got != want {
		t.Fatalf("time_to_satisfy(ACT) = %d, want %d", got, want)
	}
}

func TestFAWBlocksFifthActivate(t *testing.T) {
	spec := memspec.NewDDR3()
	c := New(spec)

	c.Insert(0, types.ACT, 0, 0, 0)
	c.Insert(1, types.ACT, 0, 0, 1)
	c.Insert(2, types.ACT, 0, 0, 2)
	c.Insert(3, types.ACT, 0, 0, 3)

	got := c.TimeToSatisfy(types.ACT, 0, 0, 4)
	if got < spec.Timing.TFAW {
		t.Fatalf("5th ACT permitted at %d, want >= tFAW (%d)", got, spec.Timing.TFAW)
	}
}

func TestFAWPruneRetiresOldestActivate(t *testing.T) {
	spec := memspec.NewDDR3()
	c := New(spec)

	c.Insert(0, types.ACT, 0, 0, 0)
	c.Insert(1, types.ACT, 0, 0, 1)
	c.Insert(2, types.ACT, 0, 0, 2)
	c.Insert(3, types.ACT, 0, 0, 3)

	c.Prune(spec.Timing.TFAW + 1)
	got := c.TimeToSatisfy(types.ACT, 0, 0, 4)
	// Pruning at tFAW+1 retires the two markers that have expired (from
	// the ACTs at 0 and 1), so only two remain outstanding and FAW no
	// longer constrains this candidate.
	if got >= spec.Timing.TFAW {
		t.Fatalf("time_to_satisfy(ACT) after prune = %d, want FAW to no longer dominate", got)
	}
}

func TestNoConstraintIsSatisfiedAtZero(t *testing.T) {
	spec := memspec.NewDDR3()
	c := New(spec)
	if got := c.TimeToSatisfy(types.ACT, 0, 0, 0); got != 0 {
		t.Fatalf("time_to_satisfy(ACT) on a fresh checker = %d, want 0", got)
	}
}

// TestSameBankWriteThenReadRespectsTWR covers spec.md §3's bank-scoped
// tRDWR turnaround: a read to the same bank as a prior write must wait
// at least tWR past the write, even when no other bank in the group has
// written more recently (so the group-scope tWTR_S bump alone would
// under-constrain it).
func TestSameBankWriteThenReadRespectsTWR(t *testing.T) {
	spec := memspec.NewDDR4()
	c := New(spec)

	c.Insert(0, types.WR, 0, 0, 0)
	got := c.TimeToSatisfy(types.RD, 0, 0, 0)
	if got < spec.Timing.TWR {
		t.Fatalf("time_to_satisfy(RD) after WR@0 to the same bank = %d, want >= %d (tWR)", got, spec.Timing.TWR)
	}
}

// TestSameBankReadThenWriteRespectsTRTP is the write-direction mirror of
// TestSameBankWriteThenReadRespectsTWR, covering tWRRD.
func TestSameBankReadThenWriteRespectsTRTP(t *testing.T) {
	spec := memspec.NewDDR4()
	c := New(spec)

	c.Insert(0, types.RD, 0, 0, 0)
	got := c.TimeToSatisfy(types.WR, 0, 0, 0)
	if got < spec.Timing.TRTP {
		t.Fatalf("time_to_satisfy(WR) after RD@0 to the same bank = %d, want >= %d (tRTP)", got, spec.Timing.TRTP)
	}
}
