package types

import "testing"

func TestCommandClassification(t *testing.T) {
	cases := []struct {
		cmd               Command
		bank, group, rank bool
		ras, cas          bool
	}{
		{RD, true, false, false, false, true},
		{WRA, true, false, false, false, true},
		{ACT, true, false, false, true, false},
		{PREPB, true, false, false, true, false},
		{PRESB, false, true, false, true, false},
		{REFP2B, false, true, false, true, false},
		{PREAB, false, false, true, true, false},
		{REFAB, false, false, true, true, false},
		{SREFEN, false, false, true, false, false},
		{NOP, false, false, false, false, false},
	}
	for _, c := range cases {
		if got := c.cmd.IsBank(); got != c.bank {
			t.Errorf("%s.IsBank() = %v, want %v", c.cmd, got, c.bank)
		}
		if got := c.cmd.IsGroup(); got != c.group {
			t.Errorf("%s.IsGroup() = %v, want %v", c.cmd, got, c.group)
		}
		if got := c.cmd.IsRank(); got != c.rank {
			t.Errorf("%s.IsRank() = %v, want %v", c.cmd, got, c.rank)
		}
		if got := c.cmd.IsRAS(); got != c.ras {
			t.Errorf("%s.IsRAS() = %v, want %v", c.cmd, got, c.ras)
		}
		if got := c.cmd.IsCAS(); got != c.cas {
			t.Errorf("%s.IsCAS() = %v, want %v", c.cmd, got, c.cas)
		}
	}
}

func TestAutoPrechargeAndDirection(t *testing.T) {
	if !RDA.IsAutoPrecharge() || !RDA.IsRead() {
		t.Fatal("RDA must be auto-precharge and read-direction")
	}
	if !WRA.IsAutoPrecharge() || !WRA.IsWrite() {
		t.Fatal("WRA must be auto-precharge and write-direction")
	}
	if !MWR.IsMasked() || !MWR.IsWrite() {
		t.Fatal("MWR must be masked and write-direction")
	}
	if RD.IsAutoPrecharge() {
		t.Fatal("RD must not be auto-precharge")
	}
}

func TestPhaseNaming(t *testing.T) {
	if RD.Phase() != "BEGIN_RD" {
		t.Fatalf("RD.Phase() = %q", RD.Phase())
	}
	if PDXA.Phase() != "END_PDNA" {
		t.Fatalf("PDXA.Phase() = %q", PDXA.Phase())
	}
	if NOP.Phase() != "" {
		t.Fatalf("NOP.Phase() = %q, want empty", NOP.Phase())
	}
}

func TestRowSentinel(t *testing.T) {
	if NoRow.Valid() {
		t.Fatal("NoRow must never be valid")
	}
	var r Row = 5
	if !r.Valid() {
		t.Fatal("row 5 must be valid")
	}
	if r := Row(0); !r.Valid() {
		t.Fatal("row 0 is a real row and must be valid")
	}
}
