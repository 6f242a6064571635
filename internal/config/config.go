// Package config loads the JSON configuration surface spec.md §6 names:
// Controller policy knobs, Sim run parameters, the per-standard MemSpec
// selector, and the address mapping. Grounded on the teacher's config
// style (services/hal/config.HALConfig: flat JSON-tagged structs,
// validated once at construction, never re-read at runtime) — pointed at
// this domain's four blocks instead of HAL device descriptors, and using
// encoding/json rather than the teacher's tinyjson, since tinyjson trades
// full object-graph support for a flash-resident, TinyGo-only decoder and
// nothing here runs on a microcontroller (SPEC_FULL.md §3.4).
package config

import (
	"encoding/json"
	"io"
	"strings"

	"dramctl/internal/addr"
	"dramctl/internal/errcode"
	"dramctl/internal/memspec"
	"dramctl/internal/types"
)

// Document is the full on-disk configuration: one memspec selector, one
// address mapping, and one controller policy block shared by every
// channel, plus the run-level Sim block (spec.md §6).
type Document struct {
	MemSpec    MemSpecConfig    `json:"mem_spec"`
	AddressMap AddressMapConfig `json:"address_map"`
	Controller ControllerConfig `json:"controller"`
	Sim        SimConfig        `json:"sim"`
}

// MemSpecConfig selects one of the value-constructed standards in
// internal/memspec; the per-standard timing table itself is not
// reconfigurable from JSON here (spec.md §9: "each standard's MemSpec is a
// concrete value"), only which one to use.
type MemSpecConfig struct {
	Standard string `json:"standard"`
}

// ControllerConfig is spec.md §6's Controller configuration block.
type ControllerConfig struct {
	PagePolicy            string `json:"page_policy"`
	Scheduler             string `json:"scheduler"`
	SchedulerBuffer       string `json:"scheduler_buffer"`
	CmdMux                string `json:"cmd_mux"`
	RespQueue             string `json:"resp_queue"`
	RefreshPolicy         string `json:"refresh_policy"`
	RefreshMaxPostponed   uint   `json:"refresh_max_postponed"`
	RefreshMaxPulledIn    uint   `json:"refresh_max_pulled_in"`
	PowerDownPolicy       string `json:"power_down_policy"`
	PowerDownTimeout      uint   `json:"power_down_timeout"`
	SelfRefreshTimeout    uint   `json:"self_refresh_timeout"`
	RequestBufferSize     uint   `json:"request_buffer_size"`
	RefreshManagement     bool   `json:"refresh_management"`
	RAACDR                uint64 `json:"raa_cdr"`
	RAAIMT                uint64 `json:"raa_imt"`
	RAAMMT                uint64 `json:"raa_mmt"`
	HighWatermark         uint   `json:"high_watermark"`
	LowWatermark          uint   `json:"low_watermark"`
	MaxActiveTransactions uint   `json:"max_active_transactions"`
	Arbiter               string `json:"arbiter"`
}

// SimConfig is spec.md §6's Sim configuration block. Most fields describe
// the recorder/power-analysis surface this core does not implement
// (spec.md §1, §7's SPEC_FULL.md §7 sink-only stance); they round-trip
// through JSON so a config file written for the full simulator still
// loads here.
type SimConfig struct {
	WindowSize        uint   `json:"window_size"`
	Debug             bool   `json:"debug"`
	PowerAnalysis     bool   `json:"power_analysis"`
	EnableWindowing   bool   `json:"enable_windowing"`
	CheckTLM2Protocol bool   `json:"check_tlm2_protocol"`
	StoreMode         string `json:"store_mode"`
	AddressOffset     uint64 `json:"address_offset"`
	SimulationName    string `json:"simulation_name"`
	ClockHz           uint64 `json:"clock_hz"`
}

// XorPairConfig is one XOR-pair entry of an address mapping.
type XorPairConfig struct {
	A int `json:"a"`
	B int `json:"b"`
}

// AddressMapConfig is spec.md §6/§4.10's "seven bit-index vectors and an
// XOR-pair list".
type AddressMapConfig struct {
	ChannelBits   []int           `json:"channel_bits"`
	RankBits      []int           `json:"rank_bits"`
	BankGroupBits []int           `json:"bank_group_bits"`
	BankBits      []int           `json:"bank_bits"`
	RowBits       []int           `json:"row_bits"`
	ColumnBits    []int           `json:"column_bits"`
	ByteBits      []int           `json:"byte_bits"`
	XorPairs      []XorPairConfig `json:"xor_pairs"`
	AddressOffset uint64          `json:"address_offset"`
}

// Load parses a Document from r. Malformed JSON is a construction-time
// fatal error, per spec.md §7.
func Load(r io.Reader) (*Document, error) {
	var doc Document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, errcode.Wrap("config.Load", errcode.BadConfig, err)
	}
	return &doc, nil
}

// BuildMemSpec resolves the configured standard name to its constructor
// (spec.md §4.1). Unknown standard names are fatal at construction.
func (d *Document) BuildMemSpec() (*memspec.MemSpec, error) {
	switch strings.ToUpper(d.MemSpec.Standard) {
	case "DDR3":
		return memspec.NewDDR3(), nil
	case "DDR4":
		return memspec.NewDDR4(), nil
	case "DDR5":
		return memspec.NewDDR5(), nil
	case "LPDDR4":
		return memspec.NewLPDDR4(), nil
	case "LPDDR5":
		return memspec.NewLPDDR5(), nil
	case "GDDR5":
		return memspec.NewGDDR5(), nil
	case "GDDR5X":
		return memspec.NewGDDR5X(), nil
	case "GDDR6":
		return memspec.NewGDDR6(), nil
	case "HBM2":
		return memspec.NewHBM2(), nil
	case "HBM3":
		return memspec.NewHBM3(), nil
	case "WIDEIO1":
		return memspec.NewWideIO1(), nil
	case "WIDEIO2":
		return memspec.NewWideIO2(), nil
	case "STTMRAM", "STT-MRAM":
		return memspec.NewSTTMRAM(), nil
	default:
		return nil, errcode.New("config.BuildMemSpec", errcode.UnknownStandard, d.MemSpec.Standard)
	}
}

// BuildDecoder turns the configured bit vectors into a Decoder, validating
// the bit budget against spec's advertised capacity (spec.md §8's
// "address-decoder budget" invariant).
func (d *Document) BuildDecoder(spec *memspec.MemSpec) (*addr.Decoder, error) {
	m := addr.Mapping{
		ChannelBits:   d.AddressMap.ChannelBits,
		RankBits:      d.AddressMap.RankBits,
		BankGroupBits: d.AddressMap.BankGroupBits,
		BankBits:      d.AddressMap.BankBits,
		RowBits:       d.AddressMap.RowBits,
		ColumnBits:    d.AddressMap.ColumnBits,
		ByteBits:      d.AddressMap.ByteBits,
		AddressOffset: d.AddressMap.AddressOffset,
	}
	for _, p := range d.AddressMap.XorPairs {
		m.XorPairs = append(m.XorPairs, addr.XorPair{A: p.A, B: p.B})
	}
	return addr.New(m, spec.CapacityBytes())
}

// BuildPolicy translates the JSON string enums of ControllerConfig into
// types.Config. Unrecognized enum values are fatal at construction
// (spec.md §7).
func (d *Document) BuildPolicy() (types.Config, error) {
	c := d.Controller
	cfg := types.Config{
		RefreshMaxPostponed:   c.RefreshMaxPostponed,
		RefreshMaxPulledIn:    c.RefreshMaxPulledIn,
		PowerDownTimeout:      c.PowerDownTimeout,
		SelfRefreshTimeout:    c.SelfRefreshTimeout,
		RequestBufferSize:     c.RequestBufferSize,
		RefreshManagement:     c.RefreshManagement,
		RAACDR:                c.RAACDR,
		RAAIMT:                c.RAAIMT,
		RAAMMT:                c.RAAMMT,
		HighWatermark:         c.HighWatermark,
		LowWatermark:          c.LowWatermark,
		MaxActiveTransactions: c.MaxActiveTransactions,
	}

	var err error
	if cfg.PagePolicy, err = parsePagePolicy(c.PagePolicy); err != nil {
		return cfg, err
	}
	if cfg.Scheduler, err = parseScheduler(c.Scheduler); err != nil {
		return cfg, err
	}
	if cfg.SchedulerBuffer, err = parseSchedulerBuffer(c.SchedulerBuffer); err != nil {
		return cfg, err
	}
	if cfg.CmdMux, err = parseCmdMux(c.CmdMux); err != nil {
		return cfg, err
	}
	if cfg.RespQueue, err = parseRespQueue(c.RespQueue); err != nil {
		return cfg, err
	}
	if cfg.RefreshPolicy, err = parseRefreshPolicy(c.RefreshPolicy); err != nil {
		return cfg, err
	}
	if cfg.PowerDownPolicy, err = parsePowerDownPolicy(c.PowerDownPolicy); err != nil {
		return cfg, err
	}
	if cfg.Arbiter, err = parseArbiter(c.Arbiter); err != nil {
		return cfg, err
	}
	if cfg.RequestBufferSize == 0 {
		return cfg, errcode.New("config.BuildPolicy", errcode.BadConfig, "request_buffer_size must be >= 1")
	}
	return cfg, nil
}

func parsePagePolicy(s string) (types.PagePolicy, error) {
	switch strings.ToLower(s) {
	case "open", "":
		return types.Open, nil
	case "openadaptive":
		return types.OpenAdaptive, nil
	case "closed":
		return types.Closed, nil
	case "closedadaptive":
		return types.ClosedAdaptive, nil
	default:
		return 0, errcode.New("config.parsePagePolicy", errcode.UnknownPagePolicy, s)
	}
}

func parseScheduler(s string) (types.SchedulerPolicy, error) {
	switch strings.ToLower(s) {
	case "fifo", "":
		return types.Fifo, nil
	case "frfcfs":
		return types.FrFcfs, nil
	case "frfcfsgrp":
		return types.FrFcfsGrp, nil
	case "grpfrfcfs":
		return types.GrpFrFcfs, nil
	case "grpfrfcfswm":
		return types.GrpFrFcfsWm, nil
	default:
		return 0, errcode.New("config.parseScheduler", errcode.UnknownScheduler, s)
	}
}

func parseSchedulerBuffer(s string) (types.SchedulerBuffer, error) {
	switch strings.ToLower(s) {
	case "bankwise", "":
		return types.Bankwise, nil
	case "readwrite":
		return types.ReadWrite, nil
	case "shared":
		return types.Shared, nil
	default:
		return 0, errcode.New("config.parseSchedulerBuffer", errcode.UnknownSchedulerBuf, s)
	}
}

func parseCmdMux(s string) (types.CmdMuxPolicy, error) {
	switch strings.ToLower(s) {
	case "oldest", "":
		return types.Oldest, nil
	case "strict":
		return types.Strict, nil
	default:
		return 0, errcode.New("config.parseCmdMux", errcode.UnknownCmdMux, s)
	}
}

func parseRespQueue(s string) (types.RespQueuePolicy, error) {
	switch strings.ToLower(s) {
	case "fifo", "":
		return types.RespFifo, nil
	case "reorder":
		return types.RespReorder, nil
	default:
		return 0, errcode.New("config.parseRespQueue", errcode.UnknownRespQueue, s)
	}
}

func parseRefreshPolicy(s string) (types.RefreshPolicy, error) {
	switch strings.ToLower(s) {
	case "norefresh", "":
		return types.NoRefresh, nil
	case "allbank":
		return types.AllBank, nil
	case "perbank":
		return types.PerBank, nil
	case "per2bank":
		return types.Per2Bank, nil
	case "samebank":
		return types.SameBank, nil
	default:
		return 0, errcode.New("config.parseRefreshPolicy", errcode.UnknownRefreshPolicy, s)
	}
}

func parsePowerDownPolicy(s string) (types.PowerDownPolicy, error) {
	switch strings.ToLower(s) {
	case "nopowerdown", "":
		return types.NoPowerDown, nil
	case "staggered":
		return types.Staggered, nil
	default:
		return 0, errcode.New("config.parsePowerDownPolicy", errcode.UnknownPowerDown, s)
	}
}

func parseArbiter(s string) (types.ArbiterPolicy, error) {
	switch strings.ToLower(s) {
	case "simple", "":
		return types.ArbSimple, nil
	case "fifo":
		return types.ArbFifo, nil
	case "reorder":
		return types.ArbReorder, nil
	default:
		return 0, errcode.New("config.parseArbiter", errcode.BadConfig, s)
	}
}
