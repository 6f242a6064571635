// Package refresh implements the per-rank refresh manager family
// (spec.md §4.6). AllBank/Rankwise is grounded directly on
// original_source's RefreshManagerRankwise.{h,cpp} (flexibility-counter
// Regular/PulledIn state machine, forced-refresh block(), self-refresh
// resync on REFAB after SREFEX); PerBank/Per2Bank/SameBank follow the same
// skeleton with per-policy bank selection, per spec.md §9's "polymorphism
// over variants, not classes" note.
package refresh

import (
	"dramctl/internal/bankmachine"
	"dramctl/internal/checker"
	"dramctl/internal/mathx"
	"dramctl/internal/types"
)

// rmState mirrors RefreshManagerRankwise's RmState enum.
type rmState uint8

const (
	stateRegular rmState = iota
	statePulledIn
)

// PowerDown is the narrow slice of the power-down manager a refresh
// manager must be able to interrupt (spec.md §4.6, §4.7 interplay).
type PowerDown interface {
	TriggerInterruption()
}

// Manager is one rank's refresh manager.
type Manager struct {
	policy types.RefreshPolicy
	rank   types.Rank
	banks  []*bankmachine.Machine // every bank machine on this rank
	chk    *checker.Checker
	pdm    PowerDown

	interval        types.Tick
	timeForNext     types.Tick
	flexCounter     int64
	maxPostponed    int64
	maxPulledIn     int64 // stored negative, per original's `maxPulledin = -config.refreshMaxPulledin`
	state           rmState
	sleeping        bool
	activatedBanks  int

	nextCommand    types.Command
	timeToSchedule types.Tick

	// PerBank/Per2Bank/SameBank remainder-set bookkeeping.
	remainder map[types.Bank]bool

	// Per2Bank pairing offset. New does not set it and no selection reads
	// it: Per2Bank picks one bank at a time, as PerBank does.
	per2BankOffset types.Bank

	// SameBank refresh-management thresholds (spec.md §4.6: RAAMMT/RAAIMT).
	raammt, raaimt uint64
}

const maxTime = types.Tick(1<<62 - 1)

// BitReverseStagger returns the tick of rank's first refresh proposal so
// that, across numRanks ranks sharing the same interval, the first trigger
// is spread out by bit-reversing the rank index rather than all ranks
// coming due on the same tick (spec.md §4.6: "The first trigger per rank
// is staggered by bit-reversal of the rank index"; verified against
// spec.md §8 scenario 4: two ranks, rank 0 fires at `interval`, rank 1 at
// `interval/2`).
func BitReverseStagger(rank types.Rank, numRanks int, interval types.Tick) types.Tick {
	if numRanks <= 1 {
		return interval
	}
	k := 0
	for (1 << k) < numRanks {
		k++
	}
	r := int(rank)
	reversed := 0
	for i := 0; i < k; i++ {
		if r&(1<<i) != 0 {
			reversed |= 1 << (k - 1 - i)
		}
	}
	denom := int64(1) << uint(k)
	return interval - types.Tick(int64(reversed)*int64(interval)/denom)
}

// New returns a refresh manager for one rank. banks must list every bank
// machine on that rank, in Bank order. firstTrigger is the tick of this
// rank's first refresh proposal; pass BitReverseStagger's result so
// multiple ranks don't all come due at once (spec.md §4.6), or interval
// itself for an unstaggered single-rank system.
func New(policy types.RefreshPolicy, rank types.Rank, banks []*bankmachine.Machine, chk *checker.Checker, pdm PowerDown, interval, firstTrigger types.Tick, maxPostponed, maxPulledIn uint) *Manager {
	m := &Manager{
		policy: policy, rank: rank, banks: banks, chk: chk, pdm: pdm,
		interval:     interval,
		timeForNext:  firstTrigger,
		maxPostponed: int64(maxPostponed),
		maxPulledIn:  -int64(maxPulledIn),
		nextCommand:  types.NOP,
	}
	if policy == types.PerBank || policy == types.Per2Bank || policy == types.SameBank {
		m.remainder = make(map[types.Bank]bool, len(banks))
		for _, b := range banks {
			m.remainder[b.Bank] = true
		}
	}
	return m
}

// ConfigureRefreshManagement stores the RAAMMT/RAAIMT thresholds. No
// refresh decision in this package reads them: SameBank refresh is neither
// forced nor brought forward by the banks' RAA counters.
func (m *Manager) ConfigureRefreshManagement(raammt, raaimt uint64) {
	m.raammt, m.raaimt = raammt, raaimt
}

// NextCommand/TimeToSchedule mirror the bank machine's getNextCommand
// pair for the command multiplexer to consult.
func (m *Manager) NextCommand() types.Command   { return m.nextCommand }
func (m *Manager) Rank() types.Rank             { return m.rank }

// anyActive reports whether any bank on the rank is not idle (original's
// controllerBusy loop).
func (m *Manager) anyActive() bool {
	for _, b := range m.banks {
		if !b.IsIdle() {
			return true
		}
	}
	return false
}

// Start runs one evaluation pass, proposing REFAB/PREAB (AllBank), or the
// policy-specific equivalent, and returns the earliest legal time
// (spec.md §4.6).
func (m *Manager) Start(now types.Tick) types.Tick {
	m.timeToSchedule = maxTime
	m.nextCommand = types.NOP

	if m.policy == types.NoRefresh {
		return m.timeToSchedule
	}

	if now < m.timeForNext {
		return m.timeForNext
	}

	m.pdm.TriggerInterruption()
	if m.sleeping {
		return m.timeToSchedule
	}

	if now >= m.timeForNext+m.interval {
		m.timeForNext += m.interval
		m.state = stateRegular
	}

	switch m.policy {
	case types.PerBank, types.Per2Bank, types.SameBank:
		return m.startBankScoped(now)
	default:
		return m.startRankwise(now)
	}
}

// startRankwise is the direct AllBank/Rankwise port of
// RefreshManagerRankwise::start().
func (m *Manager) startRankwise(now types.Tick) types.Tick {
	if m.state == stateRegular {
		if m.flexCounter == m.maxPostponed {
			for _, b := range m.banks {
				b.Block()
			}
		} else if m.anyActive() {
			m.flexCounter = mathx.Clamp(m.flexCounter+1, m.maxPulledIn, m.maxPostponed)
			m.timeForNext += m.interval
			return m.timeForNext
		}

		if m.activatedBanks > 0 {
			m.nextCommand = types.PREAB
		} else {
			m.nextCommand = types.REFAB
		}
		m.timeToSchedule = m.chk.TimeToSatisfy(m.nextCommand, m.rank, 0, 0)
		return m.timeToSchedule
	}

	// statePulledIn
	if m.anyActive() {
		m.state = stateRegular
		m.timeForNext += m.interval
		return m.timeForNext
	}
	m.nextCommand = types.REFAB
	m.timeToSchedule = m.chk.TimeToSatisfy(m.nextCommand, m.rank, 0, 0)
	return m.timeToSchedule
}

// startBankScoped covers PerBank/Per2Bank/SameBank: pick one bank from the
// remainder set and propose its refresh, or a precharge of it while it is
// not precharged (spec.md §4.6). Every policy selects a single bank here:
// Per2Bank does not pair banks and SameBank does not group them.
func (m *Manager) startBankScoped(now types.Tick) types.Tick {
	forced := m.flexCounter == m.maxPostponed
	if !forced && m.anyActive() && len(m.remainder) == len(m.banks) {
		// Nothing refreshed yet this round and the rank is busy: same
		// postpone accounting as the rankwise path.
		m.flexCounter++
		m.timeForNext += m.interval
		return m.timeForNext
	}

	target := m.pickRemainderTarget(forced)
	if target == nil {
		// remainder exhausted: the round is fully served, refill and
		// wait for the next period (spec.md §4.6: "when the remainder
		// empties the set is refilled").
		m.refillRemainder()
		m.timeForNext += m.interval
		return m.timeForNext
	}

	if !target.IsPrecharged() {
		m.nextCommand = m.prechargeCommand()
	} else {
		m.nextCommand = m.refreshCommand()
	}
	m.timeToSchedule = m.chk.TimeToSatisfy(m.nextCommand, m.rank, target.BankGroup, target.Bank)
	return m.timeToSchedule
}

func (m *Manager) prechargeCommand() types.Command {
	switch m.policy {
	case types.Per2Bank:
		return types.PREPB
	case types.SameBank:
		return types.PRESB
	default:
		return types.PREPB
	}
}

func (m *Manager) refreshCommand() types.Command {
	switch m.policy {
	case types.Per2Bank:
		return types.REFP2B
	case types.SameBank:
		return types.REFSB
	default:
		return types.REFPB
	}
}

// pickRemainderTarget returns the next bank to refresh from the
// remainder set: the first idle one normally, or (forced) any remaining
// one regardless of idleness (spec.md §4.6: "Forced refresh picks any
// remaining bank").
func (m *Manager) pickRemainderTarget(forced bool) *bankmachine.Machine {
	var fallback *bankmachine.Machine
	for _, b := range m.banks {
		if !m.remainder[b.Bank] {
			continue
		}
		if fallback == nil {
			fallback = b
		}
		if b.IsIdle() {
			return b
		}
	}
	if forced {
		return fallback
	}
	return nil
}

func (m *Manager) refillRemainder() {
	for _, b := range m.banks {
		m.remainder[b.Bank] = true
	}
}

// Update applies the side effects of a committed refresh-scoped command
// to this manager's bookkeeping (spec.md §4.6, grounded on
// RefreshManagerRankwise::updateState). now is the tick the command
// committed; it only matters for the SREFEX resync inside
// onRefreshIssued, which original_source computes from sc_time_stamp()
// (the current time), not from the stale pre-sleep trigger value.
func (m *Manager) Update(cmd types.Command, bank types.Bank, now types.Tick) {
	switch {
	case cmd == types.ACT:
		m.activatedBanks++

	case cmd == types.PREPB || cmd == types.RDA || cmd == types.WRA:
		if m.activatedBanks > 0 {
			m.activatedBanks--
		}

	case cmd == types.PREAB:
		m.activatedBanks = 0

	case cmd.IsRefresh():
		m.onRefreshIssued(bank, now)

	case cmd == types.PDEA || cmd == types.PDEP:
		m.sleeping = true

	case cmd == types.SREFEN:
		m.sleeping = true
		m.timeForNext = maxTime

	case cmd == types.PDXA || cmd == types.PDXP:
		m.sleeping = false
	}
}

func (m *Manager) onRefreshIssued(bank types.Bank, now types.Tick) {
	if m.remainder != nil {
		delete(m.remainder, bank)
	}

	if m.sleeping {
		// Refresh command after SREFEX: resync to now + interval, not
		// the stale maxTime SREFEN parked timeForNext at (original's
		// "Refresh command after SREFEX" comment, RefreshManagerRankwise.cpp
		// updateState's REFA case: timeForNextTrigger = sc_time_stamp() +
		// memSpec->getRefreshIntervalAB()).
		m.state = stateRegular
		m.timeForNext = now + m.interval
		m.sleeping = false
		return
	}

	if m.state == statePulledIn {
		m.flexCounter = mathx.Clamp(m.flexCounter-1, m.maxPulledIn, m.maxPostponed)
	} else {
		m.state = statePulledIn
	}
	if m.flexCounter == m.maxPulledIn {
		m.state = stateRegular
		m.timeForNext += m.interval
	}
}
