// Package memspec holds the parametric timing and geometry table for each
// supported DRAM standard (spec.md §4.1). Each standard is a concrete
// value built by a constructor function, grounded on the original
// DRAMSys MemSpec*.{h,cpp} family (original_source/.../configuration/memspec):
// this port collapses that inheritance hierarchy (one C++ class per
// standard, virtual getExecutionTime/getIntervalOnDataStrobe) into one
// struct plus per-standard timing tables, the "value constructor, not a
// class hierarchy" design note from spec.md §9.
package memspec

import (
	"dramctl/internal/errcode"
	"dramctl/internal/types"
)

// Standard names the supported device families.
type Standard uint8

const (
	DDR3 Standard = iota
	DDR4
	DDR5
	LPDDR4
	LPDDR5
	GDDR5
	GDDR5X
	GDDR6
	HBM2
	HBM3
	WideIO1
	WideIO2
	STTMRAM
)

func (s Standard) String() string {
	switch s {
	case DDR3:
		return "DDR3"
	case DDR4:
		return "DDR4"
	case DDR5:
		return "DDR5"
	case LPDDR4:
		return "LPDDR4"
	case LPDDR5:
		return "LPDDR5"
	case GDDR5:
		return "GDDR5"
	case GDDR5X:
		return "GDDR5X"
	case GDDR6:
		return "GDDR6"
	case HBM2:
		return "HBM2"
	case HBM3:
		return "HBM3"
	case WideIO1:
		return "WideIO1"
	case WideIO2:
		return "WideIO2"
	case STTMRAM:
		return "STTMRAM"
	default:
		return "Standard(?)"
	}
}

// Geometry is the device topology (spec.md §4.1).
type Geometry struct {
	Channels               int
	PseudoChannelsPerChan  int
	RanksPerChannel        int
	BanksPerRank           int
	GroupsPerRank          int
	BanksPerGroup          int
	RowsPerBank            int
	ColumnsPerRow          int
	BurstLength            int
	DataRate               int
	BitWidth               int
}

// Timing holds every cycle-converted duration the checker and bank
// machines consult, in tCK units (spec.md §4.2's constraint table names).
type Timing struct {
	TRC   types.Tick
	TRCD  types.Tick
	TRP   types.Tick
	TRAS  types.Tick
	TFAW  types.Tick
	TRRDS types.Tick
	TRRDL types.Tick
	TCCDS types.Tick
	TCCDL types.Tick
	TWTRS types.Tick
	TWTRL types.Tick
	TRTP  types.Tick
	TRTW  types.Tick
	TWR   types.Tick
	TRTRS types.Tick // rank-switch bus turnaround
	TCL   types.Tick // CAS latency
	TCWL  types.Tick // CAS write latency

	TRFC   types.Tick // refresh-all-bank recovery
	TRFCPB types.Tick // refresh-per-bank recovery
	TREFI  types.Tick // average refresh interval (all-bank)

	TPDMin types.Tick // minimum power-down residency
	TXP    types.Tick // power-down exit to next command
	TXSR   types.Tick // self-refresh exit recovery
	TCKESR types.Tick // minimum self-refresh residency
}

// Placeholder aliases for types.Tick only used as a local shorthand above.
type tick = types.Tick

// RefreshIntervals carries only the variants a standard actually
// supports; unsupported fields are zero and must never be consulted
// (spec.md §4.1: "unsupported ones fail hard").
type RefreshIntervals struct {
	AB, PB, P2B, SB tick
	HasAB, HasPB, HasP2B, HasSB bool
}

// MemSpec is the immutable, shared-by-read-only-borrow value every
// subsystem of one channel consults (spec.md §3's ownership note).
type MemSpec struct {
	Standard Standard
	Geometry Geometry
	Timing   Timing
	Refresh  RefreshIntervals

	// SupportsMaskedWrite is true when the standard defines an MWR/MWRA
	// variant at all (spec.md §4.1 requires_masked_write).
	SupportsMaskedWrite bool

	// ActDependsOnCAS is true when ACT's execution time differs by the
	// eventual CAS direction (spec.md §4.1: "Some standards make ACT
	// duration depend on whether the eventual CAS is RD or WR").
	ActDependsOnCAS bool

	cmdLength map[types.Command]int
}

// CommandLengthInCycles returns cmd's bus occupancy; defaults to 1 per
// spec.md §4.1.
func (m *MemSpec) CommandLengthInCycles(cmd types.Command) int {
	if n, ok := m.cmdLength[cmd]; ok {
		return n
	}
	return 1
}

// ExecutionTime is the duration from command issue to functional
// completion (spec.md §4.1), e.g. RDA = tRTP + tRP.
func (m *MemSpec) ExecutionTime(cmd types.Command, isWrite bool) tick {
	t := m.Timing
	switch cmd {
	case types.ACT:
		return t.TRCD
	case types.RD:
		return t.TCL
	case types.WR:
		return t.TCWL
	case types.RDA:
		return t.TRTP + t.TRP
	case types.WRA, types.MWRA:
		return t.TWR + t.TRP
	case types.MWR:
		return t.TCWL
	case types.PREPB, types.PREAB, types.PRESB:
		return t.TRP
	case types.REFPB:
		return t.TRFCPB
	case types.REFAB, types.REFSB, types.REFP2B:
		return t.TRFC
	case types.PDEA, types.PDEP:
		return t.TPDMin
	case types.PDXA, types.PDXP:
		return t.TXP
	case types.SREFEN:
		return t.TCKESR
	case types.SREFEX:
		return t.TXSR
	default:
		return 0
	}
}

// IntervalOnDataStrobe returns the [start, end) window this CAS occupies
// the data bus, measured from command issue (spec.md §4.1).
func (m *MemSpec) IntervalOnDataStrobe(cmd types.Command) (start, end tick) {
	burst := tick(m.Geometry.BurstLength / m.Geometry.DataRate)
	if burst < 1 {
		burst = 1
	}
	switch {
	case cmd.IsRead():
		return m.Timing.TCL, m.Timing.TCL + burst
	case cmd.IsWrite():
		return m.Timing.TCWL, m.Timing.TCWL + burst
	default:
		return 0, 0
	}
}

// RefreshInterval returns the configured interval for a refresh
// scope, or an error if the standard does not support that scope
// (spec.md §4.1: unsupported refresh variants fail hard).
func (m *MemSpec) RefreshInterval(cmd types.Command) (tick, error) {
	switch cmd {
	case types.REFAB:
		if !m.Refresh.HasAB {
			return 0, errcode.New("MemSpec.RefreshInterval", errcode.UnsupportedRefresh, m.Standard.String()+" has no REFAB")
		}
		return m.Refresh.AB, nil
	case types.REFPB:
		if !m.Refresh.HasPB {
			return 0, errcode.New("MemSpec.RefreshInterval", errcode.UnsupportedRefresh, m.Standard.String()+" has no REFPB")
		}
		return m.Refresh.PB, nil
	case types.REFP2B:
		if !m.Refresh.HasP2B {
			return 0, errcode.New("MemSpec.RefreshInterval", errcode.UnsupportedRefresh, m.Standard.String()+" has no REFP2B")
		}
		return m.Refresh.P2B, nil
	case types.REFSB:
		if !m.Refresh.HasSB {
			return 0, errcode.New("MemSpec.RefreshInterval", errcode.UnsupportedRefresh, m.Standard.String()+" has no REFSB")
		}
		return m.Refresh.SB, nil
	default:
		return 0, errcode.New("MemSpec.RefreshInterval", errcode.UnsupportedRefresh, "not a refresh command")
	}
}

// RequiresMaskedWrite reports whether a transaction needing a masked
// write must use MWR/MWRA, erroring if the standard has no such variant
// (spec.md §4.1).
func (m *MemSpec) RequiresMaskedWrite(needsMask bool) (bool, error) {
	if !needsMask {
		return false, nil
	}
	if !m.SupportsMaskedWrite {
		return false, errcode.New("MemSpec.RequiresMaskedWrite", errcode.UnsupportedMaskedWr, m.Standard.String()+" has no masked-write variant")
	}
	return true, nil
}

// NumBanksPerChannel is banks-per-rank * ranks-per-channel, the width of
// the per-channel bank-machine array (spec.md §9's "arena, not pointer
// graph" design note).
func (m *MemSpec) NumBanksPerChannel() int {
	return m.Geometry.BanksPerRank * m.Geometry.RanksPerChannel
}

// CapacityBytes is the addressable span one channel's decoder must cover:
// every rank's rows times columns times the column width, across the
// channel's ranks (spec.md §6's address-decoder budget check consumes
// this directly).
func (m *MemSpec) CapacityBytes() uint64 {
	g := m.Geometry
	columnBytes := uint64(g.BitWidth) / 8
	if columnBytes == 0 {
		columnBytes = 1
	}
	return uint64(g.RanksPerChannel) * uint64(g.BanksPerRank) *
		uint64(g.RowsPerBank) * uint64(g.ColumnsPerRow) * columnBytes
}

// TickPeriodNS returns the wall-clock duration of one tCK quantum at the
// given clock frequency, for translating a simulated tick count back into
// real time when reporting results (e.g. "ran N ticks of a 1600MHz clock in
// M nanoseconds of simulated time"). Adapted from the teacher's
// x/timex.PeriodFromHz (frequency-to-period conversion), which coerces a
// zero frequency to 1Hz rather than dividing by zero.
func TickPeriodNS(clockHz uint64) uint64 {
	if clockHz == 0 {
		clockHz = 1
	}
	return 1_000_000_000 / clockHz
}
