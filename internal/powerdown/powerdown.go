// Package powerdown implements the per-rank power-down manager
// (spec.md §4.7). NoPowerDown is the trivial variant that never proposes
// a command; Staggered follows the timeout-then-propose skeleton spec.md
// describes, grounded on the same evaluate/updateState shape as
// internal/refresh's rankwise manager (both originate from DRAMSys's
// sibling PowerDownManager*.cpp files in the same controller/ directory).
// The self-refresh threshold has no PowerDownManager*.cpp counterpart in
// the retrieval pack (original_source carries RefreshManager* but no
// PowerDownManager* files); its numeric semantics are decided directly
// from spec.md §2/§4.7's prose and recorded in DESIGN.md.
package powerdown

import "dramctl/internal/types"

const maxTime = types.Tick(1<<62 - 1)

// pdState is the rank's coarse power state, covering all five states
// spec.md §2 item 3 names ({Active, PrechargedIdle, ActivePowerDown,
// PrechargedPowerDown, SelfRefresh}): pdActive folds Active and
// PrechargedIdle together since they differ only in whether idleSince is
// armed, and pdDown folds ActivePowerDown/PrechargedPowerDown together
// since PDEA vs PDEP is already decided per-proposal by anyBankActive.
type pdState uint8

const (
	pdActive pdState = iota
	pdPendingEntry
	pdDown
	pdSelfRefresh
)

// Manager is one rank's power-down manager.
type Manager struct {
	policy    types.PowerDownPolicy
	timeout   types.Tick // idle ticks before PDEA/PDEP
	srTimeout types.Tick // idle ticks in pdDown before SREFEN; 0 disables self-refresh

	state          pdState
	idleSince      types.Tick
	downSince      types.Tick // tick PDEA/PDEP committed, start of the self-refresh countdown
	anyBankActive  func() bool
	nextCommand    types.Command
	timeToSchedule types.Tick
	interrupted    bool
	exitCmd        types.Command // exit set by TriggerExit, proposed until it commits
}

// New returns a power-down manager. anyBankActive must report whether
// any bank machine on this rank currently holds an open row (used to
// choose PDEA/PDXA vs PDEP/PDXP). srTimeout is the additional idle time,
// counted from PDEP entry, after which the manager proposes SREFEN
// instead of staying in precharged power-down; 0 disables self-refresh
// entirely (spec.md §4.7).
func New(policy types.PowerDownPolicy, timeout, srTimeout types.Tick, anyBankActive func() bool) *Manager {
	return &Manager{
		policy: policy, timeout: timeout, srTimeout: srTimeout,
		anyBankActive: anyBankActive,
		nextCommand:   types.NOP,
	}
}

func (m *Manager) NextCommand() types.Command { return m.nextCommand }

// TriggerEntry is called when the rank's pending-request count drops to
// zero (spec.md §4.7).
func (m *Manager) TriggerEntry(now types.Tick) {
	if m.policy == types.NoPowerDown || m.state != pdActive {
		return
	}
	m.state = pdPendingEntry
	m.idleSince = now
}

// TriggerExit is called when the rank's pending-request count rises from
// zero (spec.md §4.7). Exiting self-refresh proposes SREFEX rather than
// PDXA/PDXP, per spec.md §2 item 3.
func (m *Manager) TriggerExit() {
	switch m.state {
	case pdSelfRefresh:
		m.exitCmd = types.SREFEX
	case pdDown:
		if m.anyBankActive() {
			m.exitCmd = types.PDXA
		} else {
			m.exitCmd = types.PDXP
		}
	}
	if m.exitCmd != types.NOP {
		m.nextCommand = m.exitCmd
	}
	m.state = pdActive
}

// TriggerInterruption is called by the refresh manager when a refresh is
// due while the rank is powered down (spec.md §4.6, §4.7). Self-refresh
// is never interrupted this way: the refresh manager parks its own
// trigger at SREFEN and only wakes on the controller accepting a new
// request, which drives exit through TriggerExit instead.
func (m *Manager) TriggerInterruption() {
	if m.state == pdDown {
		m.interrupted = true
	}
}

// Start evaluates one pass: after an entry trigger, wait `timeout` ticks
// of continued inactivity before proposing PDEA/PDEP; once down and still
// precharged-idle past `srTimeout` more ticks, propose SREFEN; once down,
// an interruption or exit trigger proposes the matching exit command
// (spec.md §4.7).
func (m *Manager) Start(now types.Tick) types.Tick {
	m.timeToSchedule = maxTime
	m.nextCommand = types.NOP

	if m.policy == types.NoPowerDown {
		return m.timeToSchedule
	}

	if m.exitCmd != types.NOP {
		m.nextCommand = m.exitCmd
		m.timeToSchedule = now
		return now
	}

	if m.interrupted {
		m.interrupted = false
		if m.anyBankActive() {
			m.nextCommand = types.PDXA
		} else {
			m.nextCommand = types.PDXP
		}
		m.state = pdActive
		m.timeToSchedule = now
		return now
	}

	if m.state == pdPendingEntry && now >= m.idleSince+m.timeout {
		if m.anyBankActive() {
			m.nextCommand = types.PDEA
		} else {
			m.nextCommand = types.PDEP
		}
		m.timeToSchedule = now
		return now
	}

	// Long idle in precharged power-down upgrades to self-refresh
	// (spec.md §4.7: "SelfRefresh entry (SREFEN) is used for long idle
	// periods"). Only reachable precharged, since self-refresh requires
	// every bank on the rank already closed.
	if m.srTimeout > 0 && m.state == pdDown && !m.anyBankActive() &&
		now >= m.downSince+m.srTimeout {
		m.nextCommand = types.SREFEN
		m.timeToSchedule = now
		return now
	}

	return m.timeToSchedule
}

// Update applies the side effect of a committed power-down command
// (spec.md §4.7). now is the tick the command committed, used to start
// the self-refresh countdown from the moment precharged power-down is
// actually entered rather than from when it was merely proposed.
func (m *Manager) Update(cmd types.Command, now types.Tick) {
	switch cmd {
	case types.PDEA, types.PDEP:
		m.state = pdDown
		m.downSince = now
	case types.PDXA, types.PDXP:
		m.state = pdActive
		m.exitCmd = types.NOP
	case types.SREFEN:
		m.state = pdSelfRefresh
	case types.SREFEX:
		m.state = pdActive
		m.exitCmd = types.NOP
	}
}
