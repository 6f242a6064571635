// Package bankmachine implements the per-bank finite state machine that
// turns pending requests into command candidates (spec.md §4.3). Directly
// grounded on original_source's BankMachine.{h,cpp} and its four
// concrete subclasses (BankMachineOpen/Closed/OpenAdaptive/ClosedAdaptive):
// that C++ hierarchy collapses here into one struct plus a PagePolicy
// field switched on in Start, per spec.md §9's "polymorphism over
// variants, not classes" design note.
package bankmachine

import (
	"dramctl/internal/checker"
	"dramctl/internal/mathx"
	"dramctl/internal/types"
)

// Scheduler is the narrow interface a BankMachine consults, mirroring the
// original SchedulerIF (spec.md §4.4).
type Scheduler interface {
	GetNextRequest(bank types.Bank, openRow types.Row, activated bool) *types.Transaction
	HasFurtherRequest(bank types.Bank) bool
	HasFurtherRowHit(bank types.Bank, row types.Row) bool
}

// State is the bank's coarse FSM state (spec.md §3).
type State uint8

const (
	Precharged State = iota
	Activated
)

// Machine is one bank's state machine. Invariant: if State == Activated
// then OpenRow is a real row (spec.md §3).
type Machine struct {
	Bank      types.Bank
	Rank      types.Rank
	BankGroup types.BankGroup

	Policy types.PagePolicy

	state          State
	openRow        types.Row
	currentPayload *types.Transaction
	nextCommand    types.Command
	timeToSchedule types.Tick

	sleeping bool
	blocked  bool
	keepTrans bool

	refreshManagementCounter uint64
	refreshManagement        bool
	raaCDR, raaIMT           uint64

	scheduler Scheduler
	checker   *checker.Checker
}

// New returns a bank machine parked in Precharged with no open row.
func New(bank types.Bank, rank types.Rank, group types.BankGroup, policy types.PagePolicy, sched Scheduler, chk *checker.Checker) *Machine {
	return &Machine{
		Bank: bank, Rank: rank, BankGroup: group,
		Policy:      policy,
		state:       Precharged,
		openRow:     types.NoRow,
		nextCommand: types.NOP,
		scheduler:   sched,
		checker:     chk,
	}
}

// ConfigureRefreshManagement enables RAA-counter bookkeeping and sets the
// per-standard credit thresholds (spec.md §4.3's rm_counter, grounded on
// BankMachine::updateState's refreshManagementCounter arithmetic).
func (m *Machine) ConfigureRefreshManagement(enabled bool, raaCDR, raaIMT uint64) {
	m.refreshManagement = enabled
	m.raaCDR = raaCDR
	m.raaIMT = raaIMT
}

// State, OpenRow, IsIdle, IsActivated, IsPrecharged, NextCommand, Payload,
// Sleeping, Blocked mirror the original's small read-only accessor set.
func (m *Machine) State() State                    { return m.state }
func (m *Machine) OpenRow() types.Row               { return m.openRow }
func (m *Machine) IsIdle() bool                     { return m.currentPayload == nil }
func (m *Machine) IsActivated() bool                { return m.state == Activated }
func (m *Machine) IsPrecharged() bool               { return m.state == Precharged }
func (m *Machine) NextCommand() types.Command       { return m.nextCommand }
func (m *Machine) Payload() *types.Transaction       { return m.currentPayload }
func (m *Machine) Sleeping() bool                   { return m.sleeping }
func (m *Machine) Blocked() bool                    { return m.blocked }
func (m *Machine) RefreshManagementCounter() uint64 { return m.refreshManagementCounter }

// TimeToSchedule is the earliest tick nextCommand may legally issue, at
// least now (spec.md §4.3).
func (m *Machine) TimeToSchedule(now types.Tick) types.Tick {
	if m.timeToSchedule < now {
		return now
	}
	return m.timeToSchedule
}

// Block forces NextCommand to NOP with infinite deferral, used by the
// refresh manager to claim exclusive access to this bank (spec.md §4.3).
func (m *Machine) Block() {
	m.blocked = true
	m.timeToSchedule = maxSchedTime
	m.nextCommand = types.NOP
}

const maxSchedTime = types.Tick(1<<62 - 1)

// Unblock clears a refresh manager's exclusive claim.
func (m *Machine) Unblock() {
	m.blocked = false
}

// Start runs one evaluation pass: consult the scheduler, pick a command
// candidate under Policy, and ask the checker when it may issue. Returns
// the proposed time (spec.md §4.3's "common skeleton"; policy differences
// are isolated to the nested switch below, grounded 1:1 on the four
// original BankMachine*::start() overrides).
func (m *Machine) Start(now types.Tick) types.Tick {
	m.timeToSchedule = maxSchedTime
	m.nextCommand = types.NOP

	if m.sleeping || m.blocked {
		return m.timeToSchedule
	}

	newPayload := m.scheduler.GetNextRequest(m.Bank, m.openRow, m.state == Activated)
	if newPayload == nil {
		return m.timeToSchedule
	}

	if m.keepTrans {
		if newPayload.Controller.Row == m.openRow {
			m.currentPayload = newPayload
		}
	} else {
		m.currentPayload = newPayload
	}

	switch {
	case m.state == Precharged:
		m.nextCommand = types.ACT

	case m.state == Activated && m.currentPayload.Controller.Row == m.openRow:
		m.nextCommand = m.casOnRowHit()

	case m.state == Activated:
		// row miss: policy-independent, always precharge first.
		m.nextCommand = types.PREPB
	}

	m.timeToSchedule = m.checker.TimeToSatisfy(m.nextCommand, m.Rank, m.BankGroup, m.Bank)
	return m.timeToSchedule
}

// casOnRowHit picks the CAS variant for a row hit, the one place the four
// page policies actually differ (spec.md §4.3 "Policy differences on CAS
// choice").
func (m *Machine) casOnRowHit() types.Command {
	isRead := !m.currentPayload.IsWrite
	switch m.Policy {
	case types.Open:
		if isRead {
			return types.RD
		}
		return types.WR

	case types.OpenAdaptive:
		hasFurther := m.scheduler.HasFurtherRequest(m.Bank)
		hasFurtherHit := m.scheduler.HasFurtherRowHit(m.Bank, m.openRow)
		if hasFurther && !hasFurtherHit {
			if isRead {
				return types.RDA
			}
			return types.WRA
		}
		if isRead {
			return types.RD
		}
		return types.WR

	case types.Closed:
		if isRead {
			return types.RDA
		}
		return types.WRA

	case types.ClosedAdaptive:
		if m.scheduler.HasFurtherRowHit(m.Bank, m.openRow) {
			if isRead {
				return types.RD
			}
			return types.WR
		}
		if isRead {
			return types.RDA
		}
		return types.WRA

	default:
		if isRead {
			return types.RD
		}
		return types.WR
	}
}

// Update applies the side effects of the command multiplexer committing
// cmd for this bank (spec.md §4.3's update(cmd) transition table,
// grounded on BankMachine::updateState).
func (m *Machine) Update(cmd types.Command) {
	switch {
	case cmd == types.ACT:
		m.state = Activated
		m.openRow = m.currentPayload.Controller.Row
		m.keepTrans = true
		m.refreshManagementCounter++

	case cmd == types.PREPB || cmd == types.PRESB || cmd == types.PREAB:
		m.state = Precharged
		m.keepTrans = false

	case cmd == types.RD || cmd == types.WR || cmd == types.MWR:
		m.currentPayload = nil
		m.keepTrans = false

	case cmd == types.RDA || cmd == types.WRA || cmd == types.MWRA:
		m.state = Precharged
		m.currentPayload = nil
		m.keepTrans = false

	case cmd == types.PDEA || cmd == types.PDEP || cmd == types.SREFEN:
		m.sleeping = true

	case cmd.IsRefresh():
		m.sleeping = false
		m.blocked = false
		if m.refreshManagement {
			m.decrementRAA(m.raaCDR)
		}

	case cmd.IsRFM():
		m.sleeping = false
		m.blocked = false
		if m.refreshManagement {
			m.decrementRAA(m.raaIMT)
		}

	case cmd == types.PDXA || cmd == types.PDXP:
		m.sleeping = false
	}
}

func (m *Machine) decrementRAA(credit uint64) {
	m.refreshManagementCounter -= mathx.Min(credit, m.refreshManagementCounter)
}
