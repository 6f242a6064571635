// Package arbiter implements the system-wide front-end (spec.md §4.10):
// it decodes addresses, tags transactions, and fans BEGIN_REQ/END_REQ/
// BEGIN_RESP/END_RESP across per-channel controllers while preserving
// per-thread response order. Directly grounded on original_source's
// Arbiter.{h,cpp} (its peqCallback's four phase branches, collapsed here
// from a SystemC payload event queue dispatch into plain method calls
// driven by the same des.Clock every controller runs on).
package arbiter

import (
	"dramctl/internal/addr"
	"dramctl/internal/controller"
	"dramctl/internal/des"
	"dramctl/internal/types"
)

// Hooks are the upstream-facing callbacks: forwarding phases back to the
// initiator that issued the transaction (spec.md §6).
type Hooks struct {
	// SendEndReq notifies the initiating thread its request was accepted.
	SendEndReq func(thread types.Thread, txn *types.Transaction)
	// SendBeginResp notifies the initiating thread a response is ready.
	SendBeginResp func(thread types.Thread, txn *types.Transaction)
}

// Arbiter is the single front-end instance spec.md §1 describes ("one
// instance per system").
type Arbiter struct {
	clock   *des.Clock
	decoder *addr.Decoder
	hooks   Hooks

	channels []*controller.Controller

	channelFree     []bool
	pendingRequests [][]*types.Transaction // per-channel FIFO, spec.md §4.10
	nextPayloadID   []uint64               // per-channel ChannelPayloadID counter

	pendingResponses map[types.Thread][]*types.Transaction // per-thread FIFO
}

// New wires one arbiter across the given channel controllers, in channel
// order. Each controller's Hooks.SendEndReq/SendBeginResp must route to
// this arbiter's OnEndReq/OnBeginResp (see ChannelHooks).
func New(clock *des.Clock, decoder *addr.Decoder, channels []*controller.Controller, hooks Hooks) *Arbiter {
	n := len(channels)
	a := &Arbiter{
		clock:            clock,
		decoder:          decoder,
		hooks:            hooks,
		channels:         channels,
		channelFree:      make([]bool, n),
		pendingRequests:  make([][]*types.Transaction, n),
		nextPayloadID:    make([]uint64, n),
		pendingResponses: make(map[types.Thread][]*types.Transaction),
	}
	for i := range a.channelFree {
		a.channelFree[i] = true
	}
	return a
}

// ChannelHooks returns the controller.Hooks this arbiter expects channel
// ch's controller to invoke, wiring SendEndReq/SendBeginResp back into
// this arbiter (SendDownstream is left for the caller to wire to the DRAM
// model, since the arbiter has no opinion on it).
func (a *Arbiter) ChannelHooks(ch types.Channel) controller.Hooks {
	return controller.Hooks{
		SendEndReq:    func(txn *types.Transaction) { a.OnEndReq(ch, txn) },
		SendBeginResp: func(txn *types.Transaction) { a.OnBeginResp(ch, txn) },
	}
}

// SetHooks replaces the upstream-facing hooks. Exists because the natural
// construction order is circular — a hook often needs to call back into
// the arbiter it's being wired to (SendBeginResp acking immediately via
// OnEndRespFromInitiator, say) — so callers build the Arbiter first with a
// zero Hooks and fill it in once they hold the returned pointer.
func (a *Arbiter) SetHooks(h Hooks) { a.hooks = h }

// SetChannel installs (or replaces) the controller behind channel ch,
// for the same circular-construction reason as SetHooks: a channel's
// controller.Hooks are produced by ChannelHooks, which needs the Arbiter
// to exist first.
func (a *Arbiter) SetChannel(ch types.Channel, c *controller.Controller) {
	a.channels[ch] = c
}

// SubmitRequest is the BEGIN_REQ entry point from an initiator (spec.md
// §4.10): decode the address, tag the transaction, and either forward it
// immediately or enqueue it behind the channel's in-flight request.
func (a *Arbiter) SubmitRequest(txn *types.Transaction, thread types.Thread, threadPayloadID uint64) {
	now := a.clock.Now()

	ch, rank, group, bank, row, col := a.decoder.Decode(txn.Addr)

	txn.Arbiter = types.ArbiterTag{
		Thread:          thread,
		Channel:         ch,
		ThreadPayloadID: threadPayloadID,
		TimeOfGen:       int64(now),
	}
	txn.Controller = types.ControllerTag{
		ChannelPayloadID: a.nextPayloadID[ch],
		Rank:             rank,
		BankGroup:        group,
		Bank:             bank,
		Row:              row,
		Column:           col,
	}
	a.nextPayloadID[ch]++

	if a.channelFree[ch] {
		a.channelFree[ch] = false
		a.channels[ch].OnBeginReq(txn, now)
		return
	}
	a.pendingRequests[ch] = append(a.pendingRequests[ch], txn)
}

// OnEndReq is the END_REQ callback from channel ch's controller (spec.md
// §4.10): free the channel, forward END_REQ upstream, and dispatch the
// next queued request if any.
func (a *Arbiter) OnEndReq(ch types.Channel, txn *types.Transaction) {
	now := a.clock.Now()
	a.channelFree[ch] = true

	if a.hooks.SendEndReq != nil {
		a.hooks.SendEndReq(txn.Arbiter.Thread, txn)
	}

	q := a.pendingRequests[ch]
	if len(q) == 0 {
		return
	}
	next := q[0]
	a.pendingRequests[ch] = q[1:]
	a.channelFree[ch] = false
	a.channels[ch].OnBeginReq(next, now)
}

// OnBeginResp is the BEGIN_RESP callback from channel ch's controller
// (spec.md §4.10): forward upstream immediately only if no response to
// this thread is already in flight, but always enqueue so per-thread
// order is preserved once the in-flight one is acked.
func (a *Arbiter) OnBeginResp(ch types.Channel, txn *types.Transaction) {
	thread := txn.Arbiter.Thread
	q := a.pendingResponses[thread]

	a.pendingResponses[thread] = append(q, txn)
	if len(q) == 0 && a.hooks.SendBeginResp != nil {
		a.hooks.SendBeginResp(thread, txn)
	}
}

// OnEndRespFromInitiator is the END_RESP entry point from an initiator
// acknowledging a delivered response (spec.md §4.10): forward END_RESP
// downstream to the owning channel, pop the thread's FIFO, and forward
// the next queued response to that thread if any remain.
func (a *Arbiter) OnEndRespFromInitiator(thread types.Thread) {
	q := a.pendingResponses[thread]
	if len(q) == 0 {
		return
	}
	txn := q[0]
	now := a.clock.Now()

	a.channels[txn.Arbiter.Channel].OnEndResp(now)

	q = q[1:]
	a.pendingResponses[thread] = q
	if len(q) > 0 && a.hooks.SendBeginResp != nil {
		a.hooks.SendBeginResp(thread, q[0])
	}
}
