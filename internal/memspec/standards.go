package memspec

import "dramctl/internal/types"

// geometry builders below use representative JEDEC-class topologies and
// timings in tCK units. The values are fixed: configuration selects a
// standard but does not override its timings (see config.MemSpecConfig).
// These constructors provide the "typical" bin the original DRAMSys
// ships as its example configs for each standard.

// NewDDR3 returns a typical DDR3-1600 channel (grounded on
// original_source MemSpecDDR3.{h,cpp}).
func NewDDR3() *MemSpec {
	return &MemSpec{
		Standard: DDR3,
		Geometry: Geometry{
			Channels: 1, RanksPerChannel: 1, BanksPerRank: 8,
			GroupsPerRank: 1, BanksPerGroup: 8,
			RowsPerBank: 1 << 16, ColumnsPerRow: 1 << 10,
			BurstLength: 8, DataRate: 2, BitWidth: 64,
		},
		Timing: Timing{
			TRC: 50, TRCD: 11, TRP: 11, TRAS: 39, TFAW: 32,
			TRRDS: 5, TRRDL: 5, TCCDS: 4, TCCDL: 4,
			TWTRS: 6, TWTRL: 6, TRTP: 6, TRTW: 11, TWR: 12,
			TRTRS: 2, TCL: 11, TCWL: 8,
			TRFC: 160, TRFCPB: 0, TREFI: 6240,
			TPDMin: 4, TXP: 6, TXSR: 170, TCKESR: 5,
		},
		Refresh:             RefreshIntervals{AB: 6240, HasAB: true},
		SupportsMaskedWrite: false,
		ActDependsOnCAS:     false,
		cmdLength:           map[types.Command]int{},
	}
}

// NewDDR4 returns a typical DDR4-2400 channel with bank groups.
func NewDDR4() *MemSpec {
	return &MemSpec{
		Standard: DDR4,
		Geometry: Geometry{
			Channels: 1, RanksPerChannel: 1, BanksPerRank: 16,
			GroupsPerRank: 4, BanksPerGroup: 4,
			RowsPerBank: 1 << 17, ColumnsPerRow: 1 << 10,
			BurstLength: 8, DataRate: 2, BitWidth: 64,
		},
		Timing: Timing{
			TRC: 55, TRCD: 17, TRP: 17, TRAS: 39, TFAW: 26,
			TRRDS: 4, TRRDL: 6, TCCDS: 4, TCCDL: 6,
			TWTRS: 3, TWTRL: 9, TRTP: 9, TRTW: 17, TWR: 18,
			TRTRS: 2, TCL: 17, TCWL: 14,
			TRFC: 350, TRFCPB: 90, TREFI: 7800,
			TPDMin: 6, TXP: 8, TXSR: 360, TCKESR: 6,
		},
		Refresh: RefreshIntervals{
			AB: 7800, HasAB: true,
			PB: 1950, HasPB: true,
		},
		SupportsMaskedWrite: false,
		ActDependsOnCAS:     false,
		cmdLength:           map[types.Command]int{},
	}
}

// NewDDR5 returns a typical DDR5-4800 channel with per-two-bank refresh
// and bank groups.
func NewDDR5() *MemSpec {
	return &MemSpec{
		Standard: DDR5,
		Geometry: Geometry{
			Channels: 1, RanksPerChannel: 1, BanksPerRank: 32,
			GroupsPerRank: 8, BanksPerGroup: 4,
			RowsPerBank: 1 << 17, ColumnsPerRow: 1 << 11,
			BurstLength: 16, DataRate: 2, BitWidth: 32,
		},
		Timing: Timing{
			TRC: 71, TRCD: 34, TRP: 34, TRAS: 52, TFAW: 52,
			TRRDS: 8, TRRDL: 12, TCCDS: 8, TCCDL: 12,
			TWTRS: 6, TWTRL: 18, TRTP: 12, TRTW: 34, TWR: 48,
			TRTRS: 4, TCL: 34, TCWL: 32,
			TRFC: 410, TRFCPB: 240, TREFI: 7800,
			TPDMin: 8, TXP: 10, TXSR: 430, TCKESR: 8,
		},
		Refresh: RefreshIntervals{
			AB: 7800, HasAB: true,
			PB: 3900, HasPB: true,
			P2B: 3900, HasP2B: true,
		},
		SupportsMaskedWrite: true,
		ActDependsOnCAS:     false,
		cmdLength:           map[types.Command]int{},
	}
}

// NewLPDDR4 returns a typical LPDDR4-3200 channel. ACT occupies four
// cycles on the command bus here, the concrete example spec.md §4.1
// names for command_length_in_cycles.
func NewLPDDR4() *MemSpec {
	return &MemSpec{
		Standard: LPDDR4,
		Geometry: Geometry{
			Channels: 2, RanksPerChannel: 1, BanksPerRank: 8,
			GroupsPerRank: 4, BanksPerGroup: 2,
			RowsPerBank: 1 << 16, ColumnsPerRow: 1 << 10,
			BurstLength: 16, DataRate: 2, BitWidth: 16,
		},
		Timing: Timing{
			TRC: 60, TRCD: 24, TRP: 24, TRAS: 42, TFAW: 40,
			TRRDS: 6, TRRDL: 8, TCCDS: 4, TCCDL: 4,
			TWTRS: 5, TWTRL: 10, TRTP: 8, TRTW: 24, TWR: 14,
			TRTRS: 3, TCL: 24, TCWL: 10,
			TRFC: 280, TRFCPB: 140, TREFI: 3904,
			TPDMin: 6, TXP: 8, TXSR: 300, TCKESR: 6,
		},
		Refresh: RefreshIntervals{
			AB: 3904, HasAB: true,
			PB: 976, HasPB: true,
		},
		SupportsMaskedWrite: true,
		ActDependsOnCAS:     false,
		cmdLength:           map[types.Command]int{types.ACT: 4},
	}
}

// NewLPDDR5 returns a typical LPDDR5-6400 channel.
func NewLPDDR5() *MemSpec {
	m := NewLPDDR4()
	m.Standard = LPDDR5
	m.Geometry.BanksPerRank = 16
	m.Geometry.GroupsPerRank = 8
	m.Geometry.BanksPerGroup = 2
	m.Geometry.BurstLength = 32
	m.Timing.TRC = 64
	m.Timing.TRCD = 28
	m.Timing.TRP = 28
	m.Timing.TCL = 28
	m.Timing.TCWL = 14
	m.Refresh.SB = 488
	m.Refresh.HasSB = true
	m.cmdLength = map[types.Command]int{types.ACT: 4}
	return m
}

// NewGDDR5 returns a typical GDDR5 graphics-memory channel.
func NewGDDR5() *MemSpec {
	return &MemSpec{
		Standard: GDDR5,
		Geometry: Geometry{
			Channels: 1, RanksPerChannel: 1, BanksPerRank: 16,
			GroupsPerRank: 4, BanksPerGroup: 4,
			RowsPerBank: 1 << 14, ColumnsPerRow: 1 << 9,
			BurstLength: 8, DataRate: 4, BitWidth: 32,
		},
		Timing: Timing{
			TRC: 45, TRCD: 14, TRP: 14, TRAS: 28, TFAW: 23,
			TRRDS: 5, TRRDL: 6, TCCDS: 2, TCCDL: 3,
			TWTRS: 4, TWTRL: 5, TRTP: 5, TRTW: 14, TWR: 11,
			TRTRS: 2, TCL: 14, TCWL: 9,
			TRFC: 100, TRFCPB: 0, TREFI: 3900,
			TPDMin: 4, TXP: 5, TXSR: 110, TCKESR: 4,
		},
		Refresh:             RefreshIntervals{AB: 3900, HasAB: true},
		SupportsMaskedWrite: false,
		cmdLength:           map[types.Command]int{},
	}
}

// NewGDDR5X returns a typical GDDR5X channel, doubling the burst of
// GDDR5 for its prefetch-16 mode.
func NewGDDR5X() *MemSpec {
	m := NewGDDR5()
	m.Standard = GDDR5X
	m.Geometry.BurstLength = 16
	m.Geometry.DataRate = 8
	m.Timing.TCL = 20
	m.Timing.TCWL = 14
	return m
}

// NewGDDR6 returns a typical GDDR6 channel with dual independent
// sub-channels modeled as pseudo-channels.
func NewGDDR6() *MemSpec {
	return &MemSpec{
		Standard: GDDR6,
		Geometry: Geometry{
			Channels: 1, PseudoChannelsPerChan: 2, RanksPerChannel: 1,
			BanksPerRank: 16, GroupsPerRank: 4, BanksPerGroup: 4,
			RowsPerBank: 1 << 14, ColumnsPerRow: 1 << 9,
			BurstLength: 16, DataRate: 2, BitWidth: 16,
		},
		Timing: Timing{
			TRC: 50, TRCD: 18, TRP: 18, TRAS: 32, TFAW: 28,
			TRRDS: 5, TRRDL: 7, TCCDS: 2, TCCDL: 4,
			TWTRS: 4, TWTRL: 8, TRTP: 6, TRTW: 18, TWR: 14,
			TRTRS: 2, TCL: 18, TCWL: 10,
			TRFC: 110, TRFCPB: 0, TREFI: 3900,
			TPDMin: 4, TXP: 6, TXSR: 120, TCKESR: 4,
		},
		Refresh:             RefreshIntervals{AB: 3900, HasAB: true},
		SupportsMaskedWrite: false,
		cmdLength:           map[types.Command]int{},
	}
}

// NewHBM2 returns a typical HBM2 channel, where ACT occupies two cycles
// on the command bus (spec.md §4.1's second named concrete example) and
// REFSB is the per-bank-group refresh variant exercised by the Open
// Question decision in SPEC_FULL.md §12.
func NewHBM2() *MemSpec {
	return &MemSpec{
		Standard: HBM2,
		Geometry: Geometry{
			Channels: 8, RanksPerChannel: 1, BanksPerRank: 16,
			GroupsPerRank: 4, BanksPerGroup: 4,
			RowsPerBank: 1 << 14, ColumnsPerRow: 1 << 6,
			BurstLength: 4, DataRate: 2, BitWidth: 128,
		},
		Timing: Timing{
			TRC: 40, TRCD: 14, TRP: 14, TRAS: 28, TFAW: 30,
			TRRDS: 4, TRRDL: 6, TCCDS: 2, TCCDL: 4,
			TWTRS: 3, TWTRL: 5, TRTP: 5, TRTW: 14, TWR: 11,
			TRTRS: 2, TCL: 14, TCWL: 7,
			TRFC: 160, TRFCPB: 64, TREFI: 1950,
			TPDMin: 4, TXP: 6, TXSR: 170, TCKESR: 4,
		},
		Refresh: RefreshIntervals{
			AB: 1950, HasAB: true,
			PB: 488, HasPB: true,
			SB: 488, HasSB: true,
		},
		SupportsMaskedWrite: false,
		cmdLength:           map[types.Command]int{types.ACT: 2},
	}
}

// NewHBM3 returns a typical HBM3 channel: HBM2's values with burst length
// 8, tCL 20 and tCWL 10.
func NewHBM3() *MemSpec {
	m := NewHBM2()
	m.Standard = HBM3
	m.Geometry.BurstLength = 8
	m.Timing.TCL = 20
	m.Timing.TCWL = 10
	return m
}

// NewWideIO1 returns a typical Wide I/O channel.
func NewWideIO1() *MemSpec {
	return &MemSpec{
		Standard: WideIO1,
		Geometry: Geometry{
			Channels: 4, RanksPerChannel: 1, BanksPerRank: 4,
			GroupsPerRank: 1, BanksPerGroup: 4,
			RowsPerBank: 1 << 13, ColumnsPerRow: 1 << 9,
			BurstLength: 4, DataRate: 1, BitWidth: 128,
		},
		Timing: Timing{
			TRC: 33, TRCD: 9, TRP: 9, TRAS: 24, TFAW: 27,
			TRRDS: 3, TRRDL: 3, TCCDS: 2, TCCDL: 2,
			TWTRS: 3, TWTRL: 3, TRTP: 4, TRTW: 9, TWR: 8,
			TRTRS: 2, TCL: 9, TCWL: 5,
			TRFC: 90, TRFCPB: 0, TREFI: 3900,
			TPDMin: 3, TXP: 4, TXSR: 95, TCKESR: 3,
		},
		Refresh:             RefreshIntervals{AB: 3900, HasAB: true},
		SupportsMaskedWrite: false,
		cmdLength:           map[types.Command]int{},
	}
}

// NewWideIO2 returns a typical Wide I/O 2 channel, doubling the data
// rate and bank count of WideIO1.
func NewWideIO2() *MemSpec {
	m := NewWideIO1()
	m.Standard = WideIO2
	m.Geometry.BanksPerRank = 8
	m.Geometry.DataRate = 2
	m.Geometry.BurstLength = 8
	return m
}

// NewSTTMRAM returns a typical STT-MRAM channel. STT-MRAM has no
// refresh obligation at all — writes are non-volatile — so every
// refresh-interval flag stays false and the configuration layer is
// expected to pair this MemSpec only with RefreshPolicy=NoRefresh.
func NewSTTMRAM() *MemSpec {
	return &MemSpec{
		Standard: STTMRAM,
		Geometry: Geometry{
			Channels: 1, RanksPerChannel: 1, BanksPerRank: 8,
			GroupsPerRank: 1, BanksPerGroup: 8,
			RowsPerBank: 1 << 13, ColumnsPerRow: 1 << 9,
			BurstLength: 8, DataRate: 2, BitWidth: 64,
		},
		Timing: Timing{
			TRC: 20, TRCD: 7, TRP: 7, TRAS: 13, TFAW: 16,
			TRRDS: 3, TRRDL: 3, TCCDS: 2, TCCDL: 2,
			TWTRS: 2, TWTRL: 2, TRTP: 3, TRTW: 7, TWR: 10,
			TRTRS: 1, TCL: 7, TCWL: 5,
		},
		Refresh:             RefreshIntervals{},
		SupportsMaskedWrite: false,
		cmdLength:           map[types.Command]int{},
	}
}
