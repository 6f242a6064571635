// Package controller implements the outer event-driven method that binds
// bank machines, checker, schedulers, refresh/power-down managers and the
// response queue, consumes upstream transactions, and emits downstream
// commands (spec.md §4.9). Directly grounded on original_source's
// Controller.{h,cpp}: Step mirrors controllerMethod()'s seven numbered
// stages, generalized from TLM sockets + SystemC events to the
// des.Clock wake-up model internal/des provides and plain Go callback
// hooks for the four-phase handshake (spec.md §6).
package controller

import (
	"github.com/rs/zerolog"

	"dramctl/internal/bankmachine"
	"dramctl/internal/checker"
	"dramctl/internal/cmdmux"
	"dramctl/internal/des"
	"dramctl/internal/errcode"
	"dramctl/internal/memspec"
	"dramctl/internal/powerdown"
	"dramctl/internal/refresh"
	"dramctl/internal/respqueue"
	"dramctl/internal/scheduler"
	"dramctl/internal/types"
)

const maxTime = types.Tick(1<<62 - 1)

// Hooks are the four-phase handshake callbacks to the arbiter (upstream)
// and the DRAM model (downstream), spec.md §6.
type Hooks struct {
	// SendDownstream emits a command phase to the DRAM model
	// (BEGIN_RD, BEGIN_ACT, ... per types.Command.Phase).
	SendDownstream func(cmd types.Command, txn *types.Transaction)
	// SendEndReq notifies the arbiter this transaction was accepted.
	SendEndReq func(txn *types.Transaction)
	// SendBeginResp notifies the arbiter a response is ready.
	SendBeginResp func(txn *types.Transaction)
}

// Controller owns one channel's bank machines, checker, refresh/power-down
// managers, scheduler, command mux and response queue exclusively
// (spec.md §3's ownership note).
type Controller struct {
	clock *des.Clock
	spec  *memspec.MemSpec
	chk   *checker.Checker
	sched *scheduler.Scheduler
	mux   *cmdmux.Mux
	resp  *respqueue.Queue
	log   zerolog.Logger
	hooks Hooks

	banks       []*bankmachine.Machine
	banksOnRank [][]*bankmachine.Machine
	refreshMgrs []*refresh.Manager
	pdMgrs      []*powerdown.Manager

	ranksNumberOfPayloads []int

	payloadToAcquire *types.Transaction
	timeToAcquire    types.Tick
	payloadToRelease *types.Transaction
	timeToRelease    types.Tick

	wake des.Handle
}

// Config bundles everything needed to build one channel controller.
type Config struct {
	Clock   *des.Clock
	Spec    *memspec.MemSpec
	Policy  types.Config
	Hooks   Hooks
	Log     zerolog.Logger
}

// New wires one channel's subsystem, mirroring Controller's constructor:
// one bank machine per bank, one refresh/power-down manager per rank
// (spec.md §4.9).
func New(cfg Config) *Controller {
	numBanks := cfg.Spec.NumBanksPerChannel()
	numRanks := cfg.Spec.Geometry.RanksPerChannel
	banksPerRank := cfg.Spec.Geometry.BanksPerRank
	banksPerGroup := cfg.Spec.Geometry.BanksPerGroup

	c := &Controller{
		clock:                 cfg.Clock,
		spec:                  cfg.Spec,
		chk:                   checker.New(cfg.Spec),
		sched:                 scheduler.New(cfg.Policy.Scheduler, cfg.Policy.SchedulerBuffer, cfg.Policy.RequestBufferSize, cfg.Policy.HighWatermark, cfg.Policy.LowWatermark, numBanks),
		mux:                   cmdmux.New(cfg.Policy.CmdMux),
		resp:                  respqueue.New(cfg.Policy.RespQueue),
		log:                   cfg.Log,
		hooks:                 cfg.Hooks,
		ranksNumberOfPayloads: make([]int, numRanks),
		timeToAcquire:         maxTime,
		timeToRelease:         maxTime,
	}

	for bankID := 0; bankID < numBanks; bankID++ {
		rank := types.Rank(bankID / banksPerRank)
		bankInRank := bankID % banksPerRank
		group := types.BankGroup(bankInRank / banksPerGroup)
		bm := bankmachine.New(types.Bank(bankID), rank, group, cfg.Policy.PagePolicy, c.sched, c.chk)
		if cfg.Policy.RefreshManagement {
			bm.ConfigureRefreshManagement(true, cfg.Policy.RAACDR, cfg.Policy.RAAIMT)
		}
		c.banks = append(c.banks, bm)
	}

	c.banksOnRank = make([][]*bankmachine.Machine, numRanks)
	for r := 0; r < numRanks; r++ {
		c.banksOnRank[r] = c.banks[r*banksPerRank : (r+1)*banksPerRank]
	}

	for r := 0; r < numRanks; r++ {
		rank := types.Rank(r)
		banksOnThisRank := c.banksOnRank[r]

		pdm := powerdown.New(cfg.Policy.PowerDownPolicy, types.Tick(cfg.Policy.PowerDownTimeout), types.Tick(cfg.Policy.SelfRefreshTimeout), func() bool {
			for _, b := range banksOnThisRank {
				if b.IsActivated() {
					return true
				}
			}
			return false
		})
		c.pdMgrs = append(c.pdMgrs, pdm)

		var interval types.Tick
		refCmd := types.NOP
		switch cfg.Policy.RefreshPolicy {
		case types.AllBank:
			refCmd = types.REFAB
		case types.PerBank:
			refCmd = types.REFPB
		case types.Per2Bank:
			refCmd = types.REFP2B
		case types.SameBank:
			refCmd = types.REFSB
		}
		if refCmd != types.NOP {
			iv, err := cfg.Spec.RefreshInterval(refCmd)
			if err != nil {
				errcode.Fatal(cfg.Log, "controller", err)
			}
			interval = types.Tick(iv)
		}
		firstTrigger := refresh.BitReverseStagger(rank, numRanks, interval)
		rm := refresh.New(cfg.Policy.RefreshPolicy, rank, banksOnThisRank, c.chk, pdm, interval, firstTrigger, cfg.Policy.RefreshMaxPostponed, cfg.Policy.RefreshMaxPulledIn)
		if cfg.Policy.RefreshManagement {
			rm.ConfigureRefreshManagement(cfg.Policy.RAAMMT, cfg.Policy.RAAIMT)
		}
		c.refreshMgrs = append(c.refreshMgrs, rm)
	}

	return c
}

// OnBeginReq is called by the arbiter when it forwards a transaction to
// this channel (spec.md §6's BEGIN_REQ handshake).
func (c *Controller) OnBeginReq(txn *types.Transaction, at types.Tick) {
	c.payloadToAcquire = txn
	c.timeToAcquire = at
	c.arm(at)
}

// OnEndResp is called when the arbiter acknowledges a delivered response
// (spec.md §6's END_RESP handshake).
func (c *Controller) OnEndResp(at types.Tick) {
	c.timeToRelease = at
	c.arm(at)
}

func (c *Controller) arm(at types.Tick) {
	c.wake = c.clock.ReArm(c.wake, at, func(types.Tick) { c.Step() })
}

// Step runs one pass of the controller's event method: the seven stages
// of the original controllerMethod(), in order.
func (c *Controller) Step() {
	now := c.clock.Now()
	c.chk.Prune(now)

	// (1) Release payload if arbiter has acked the response.
	if c.payloadToRelease != nil && c.timeToRelease <= now {
		c.finishEndResp()
	}

	// (2) Send next result to arbiter.
	if c.payloadToRelease == nil {
		c.startBeginResp(now)
	}

	// (3) Insert new request from arbiter into scheduler, restart its bank.
	if c.payloadToAcquire != nil && c.timeToAcquire <= now {
		bankID := c.payloadToAcquire.Controller.Bank
		c.finishBeginReq(now)
		c.banks[bankID].Start(now)
	}

	// (4) Start refresh and power-down managers.
	for _, rm := range c.refreshMgrs {
		rm.Start(now)
	}
	for _, pdm := range c.pdMgrs {
		pdm.Start(now)
	}

	// (5) Choose one command and send it to the DRAM model.
	readyCmdBlocked := c.selectAndIssue(now)

	// (6) Accept request from arbiter if the scheduler has room.
	if c.payloadToAcquire != nil && c.timeToAcquire == maxTime {
		c.startEndReq()
	}

	// (7) Restart bank machines, refresh managers and power-down managers
	// to propose the next wake-up.
	next := maxTime
	for _, b := range c.banks {
		t := b.Start(now)
		if !(t == now && readyCmdBlocked) {
			next = minTick(next, t)
		}
	}
	for _, rm := range c.refreshMgrs {
		next = minTick(next, rm.Start(now))
	}
	for _, pdm := range c.pdMgrs {
		next = minTick(next, pdm.Start(now))
	}

	if next != maxTime {
		c.arm(next)
	}
}

func minTick(a, b types.Tick) types.Tick {
	if b < a {
		return b
	}
	return a
}

func (c *Controller) selectAndIssue(now types.Tick) bool {
	var candidates []cmdmux.Candidate

	for r, pdm := range c.pdMgrs {
		if pd := pdm.NextCommand(); pd != types.NOP {
			candidates = append(candidates, cmdmux.Candidate{
				Command: pd, Rank: types.Rank(r), Source: cmdmux.SourcePowerDown, EarliestTime: now,
			})
			continue
		}
		if rf := c.refreshMgrs[r].NextCommand(); rf != types.NOP {
			candidates = append(candidates, cmdmux.Candidate{
				Command: rf, Rank: types.Rank(r), Source: cmdmux.SourceRefresh, EarliestTime: now,
			})
		}
		for _, b := range c.banksOnRank[r] {
			if cmd := b.NextCommand(); cmd != types.NOP {
				candidates = append(candidates, cmdmux.Candidate{
					Command: cmd, Rank: b.Rank, BankGroup: b.BankGroup, Bank: b.Bank,
					EarliestTime: b.TimeToSchedule(now), Source: cmdmux.SourceBank,
					TxnSeq: txnSeqOf(b.Payload()),
				})
			}
		}
	}

	if len(candidates) == 0 {
		return false
	}

	picked, ok := c.mux.Pick(now, candidates)
	if !ok {
		return true
	}

	c.commit(now, picked)
	return false
}

func txnSeqOf(t *types.Transaction) uint64 {
	if t == nil {
		return 0
	}
	return t.ID
}

func (c *Controller) commit(now types.Tick, cand cmdmux.Candidate) {
	cmd := cand.Command

	// Payload() must be read before Update(): the bank machine clears
	// currentPayload as a side effect of committing a CAS command.
	var payload *types.Transaction
	if cmd.IsCAS() {
		payload = c.banks[cand.Bank].Payload()
	}

	switch {
	case cmd.IsRank():
		for _, b := range c.banksOnRank[cand.Rank] {
			b.Update(cmd)
		}
	case cmd.IsGroup():
		for _, b := range c.banksOnRank[cand.Rank] {
			if b.BankGroup == cand.BankGroup {
				b.Update(cmd)
			}
		}
	default:
		c.banks[cand.Bank].Update(cmd)
	}

	c.refreshMgrs[cand.Rank].Update(cmd, cand.Bank, now)
	c.pdMgrs[cand.Rank].Update(cmd, now)
	c.chk.Insert(now, cmd, cand.Rank, cand.BankGroup, cand.Bank)

	if cmd.IsCAS() && payload != nil {
		c.sched.RemoveRequest(payload)
		c.sched.NotifyIssued(cand.Bank, payload.IsWrite)
		_, end := c.spec.IntervalOnDataStrobe(cmd)
		c.resp.Insert(payload, now+end)

		trigger := c.resp.TriggerTime()
		if trigger != maxTime {
			c.arm(trigger)
		}

		c.ranksNumberOfPayloads[cand.Rank]--
	}

	if c.ranksNumberOfPayloads[cand.Rank] == 0 {
		c.pdMgrs[cand.Rank].TriggerEntry(now)
	}

	if c.hooks.SendDownstream != nil {
		c.hooks.SendDownstream(cmd, payload)
	}
}

func (c *Controller) finishBeginReq(now types.Tick) {
	txn := c.payloadToAcquire
	rank := txn.Controller.Rank
	if c.ranksNumberOfPayloads[rank] == 0 {
		c.pdMgrs[rank].TriggerExit()
	}
	c.ranksNumberOfPayloads[rank]++

	c.sched.StoreRequest(txn)
	txn.Acquire()
	c.timeToAcquire = maxTime
}

func (c *Controller) startEndReq() {
	if c.sched.HasBufferSpace(c.payloadToAcquire.Controller.Bank) {
		txn := c.payloadToAcquire
		c.payloadToAcquire = nil
		if c.hooks.SendEndReq != nil {
			c.hooks.SendEndReq(txn)
		}
	}
}

func (c *Controller) startBeginResp(now types.Tick) {
	txn, ok := c.resp.NextReady(now)
	if !ok {
		trigger := c.resp.TriggerTime()
		if trigger != maxTime {
			c.arm(trigger)
		}
		return
	}
	c.payloadToRelease = txn
	if c.hooks.SendBeginResp != nil {
		c.hooks.SendBeginResp(txn)
	}
}

func (c *Controller) finishEndResp() {
	txn := c.payloadToRelease
	c.resp.Pop()
	if txn.Release() {
		// Pool return is the caller's responsibility (spec.md §3's
		// arbiter/controller joint ownership — the arbiter owns the pool).
	}
	c.payloadToRelease = nil
	c.timeToRelease = maxTime
}
