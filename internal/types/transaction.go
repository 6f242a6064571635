package types

import "sync/atomic"

// ArbiterTag is assigned to a transaction at system entry, before address
// decoding (spec.md §3).
type ArbiterTag struct {
	Thread          Thread
	Channel         Channel
	ThreadPayloadID uint64
	TimeOfGen       int64 // tick of arrival at the arbiter
}

// ControllerTag is assigned by the address decoder once the transaction is
// forwarded to its owning channel controller (spec.md §3).
type ControllerTag struct {
	ChannelPayloadID uint64
	Rank             Rank
	BankGroup        BankGroup
	Bank             Bank
	Row              Row
	Column           Column
	BurstLength      uint32
}

// Transaction is the external read/write request, extended with the two
// tags above. It is shared (refcounted) between the arbiter and its
// controller for the duration of the request (spec.md §3, §7): created by
// an initiator, acquired by the arbiter, forwarded to one controller, held
// by the scheduler buffer, drained into the response queue on CAS issue,
// released after the response is acked.
type Transaction struct {
	ID      uint64
	IsWrite bool
	Addr    uint64 // linear physical address, pre-decode
	Data    []byte // nil for reads until the response is filled in
	WriteBE []byte // byte-enable mask; nil means "all bytes enabled"

	Arbiter    ArbiterTag
	Controller ControllerTag

	refcount int32
}

// Acquire raises the transaction's refcount. Pool.Get hands a transaction
// out already holding one reference; the controller calls Acquire when it
// installs the request into its scheduler buffer.
func (t *Transaction) Acquire() {
	atomic.AddInt32(&t.refcount, 1)
}

// Release drops the refcount and reports whether it reached zero (meaning
// the transaction may now be returned to its pool).
func (t *Transaction) Release() bool {
	return atomic.AddInt32(&t.refcount, -1) == 0
}

// RefCount returns the current refcount, chiefly for tests and assertions.
func (t *Transaction) RefCount() int32 {
	return atomic.LoadInt32(&t.refcount)
}

// NeedsMask reports whether any byte in WriteBE is deasserted, i.e. this
// write cannot use a plain WR/WRA and instead requires the standard's
// masked-write variant if one exists (spec.md §4.1 requires_masked_write).
func (t *Transaction) NeedsMask() bool {
	for _, b := range t.WriteBE {
		if b != 0xFF {
			return true
		}
	}
	return false
}

// Pool hands out Transaction values with a monotonically increasing ID and
// lets released ones be reused, mirroring the "arena, not pointer graph"
// design note (spec.md §9): the scheduler holds indices/pointers into this
// pool rather than independently-owned heap objects.
type Pool struct {
	nextID uint64
	free   []*Transaction
}

// NewPool returns an empty transaction pool.
func NewPool() *Pool {
	return &Pool{}
}

// Get returns a zeroed transaction with a fresh ID and refcount 1, reusing
// a released slot when one is available.
func (p *Pool) Get() *Transaction {
	p.nextID++
	var t *Transaction
	if n := len(p.free); n > 0 {
		t = p.free[n-1]
		p.free = p.free[:n-1]
		*t = Transaction{}
	} else {
		t = &Transaction{}
	}
	t.ID = p.nextID
	t.refcount = 1
	return t
}

// Put returns t to the pool. Callers must only do this after Release
// reports the refcount has reached zero.
func (p *Pool) Put(t *Transaction) {
	p.free = append(p.free, t)
}
