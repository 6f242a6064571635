package scenario

import (
	"testing"

	"dramctl/internal/addr"
	"dramctl/internal/arbiter"
	"dramctl/internal/controller"
	"dramctl/internal/des"
	"dramctl/internal/memspec"
	"dramctl/internal/types"
)

// ddr3Mapping is a DDR3-shaped single-rank, single bank-group mapping: 3
// bank bits, 16 row bits, 10 column bits, 3 byte bits — 32 bits total,
// matching NewDDR3's 8-bank, 64Ki-row, 1Ki-column geometry.
func ddr3Mapping(t *testing.T) *addr.Decoder {
	t.Helper()
	m := addr.Mapping{
		ByteBits:   []int{0, 1, 2},
		BankBits:   []int{3, 4, 5},
		ColumnBits: []int{6, 7, 8, 9, 10, 11, 12, 13, 14, 15},
		RowBits:    []int{16, 17, 18, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 31},
	}
	d, err := addr.New(m, 1<<32)
	if err != nil {
		t.Fatalf("addr.New: %v", err)
	}
	return d
}

// buildDDR3 wires one channel behind an arbiter, recording every committed
// command via a Recorder, for the given page policy and buffer size.
func buildDDR3(t *testing.T, policy types.PagePolicy, bufSize uint) (*arbiter.Arbiter, *des.Clock, *Recorder) {
	t.Helper()
	clock := des.NewClock()
	spec := memspec.NewDDR3()
	decoder := ddr3Mapping(t)
	rec := NewRecorder(clock)

	ctrls := make([]*controller.Controller, 1)
	a := arbiter.New(clock, decoder, ctrls, arbiter.Hooks{})
	a.SetHooks(arbiter.Hooks{
		SendBeginResp: func(thread types.Thread, txn *types.Transaction) {
			a.OnEndRespFromInitiator(thread)
		},
	})

	hooks := a.ChannelHooks(0)
	hooks.SendDownstream = rec.Sink(0)
	ctrls[0] = controller.New(controller.Config{
		Clock: clock,
		Spec:  spec,
		Policy: types.Config{
			PagePolicy:        policy,
			Scheduler:         types.Fifo,
			SchedulerBuffer:   types.Bankwise,
			CmdMux:            types.Oldest,
			RespQueue:         types.RespFifo,
			RefreshPolicy:     types.NoRefresh,
			PowerDownPolicy:   types.NoPowerDown,
			RequestBufferSize: bufSize,
		},
		Hooks: hooks,
	})
	a.SetChannel(0, ctrls[0])

	return a, clock, rec
}

// TestClosedPolicySingleReadIsActThenRda is spec.md §8 scenario 1.
func TestClosedPolicySingleReadIsActThenRda(t *testing.T) {
	a, clock, rec := buildDDR3(t, types.Closed, 4)

	pool := types.NewPool()
	sc := &Scenario{Steps: []Step{{Kind: StepRequest, Addr: 0}}}
	Run(sc, clock, a, pool)

	if len(rec.Events) < 2 {
		t.Fatalf("expected at least 2 events, got %v", rec.Events)
	}
	if rec.Events[0].Cmd != types.ACT {
		t.Fatalf("first command = %v, want ACT", rec.Events[0].Cmd)
	}
	if rec.Events[1].Cmd != types.RDA {
		t.Fatalf("second command = %v, want RDA under Closed policy", rec.Events[1].Cmd)
	}
}

// TestOpenPolicyTwoReadsSameRowIsActRdRd is spec.md §8 scenario 2's Open
// variant: two back-to-back reads to the same row produce ACT, RD, RD.
func TestOpenPolicyTwoReadsSameRowIsActRdRd(t *testing.T) {
	a, clock, rec := buildDDR3(t, types.Open, 4)

	pool := types.NewPool()
	sc := &Scenario{Steps: []Step{
		{Kind: StepRequest, Addr: 0},
		{Kind: StepRequest, Addr: 0},
	}}
	Run(sc, clock, a, pool)

	var cmds []types.Command
	for _, ev := range rec.Events {
		cmds = append(cmds, ev.Cmd)
	}
	if len(cmds) < 3 || cmds[0] != types.ACT || cmds[1] != types.RD || cmds[2] != types.RD {
		t.Fatalf("command trace = %v, want [ACT RD RD ...]", cmds)
	}
	if rec.Events[2].Tick-rec.Events[1].Tick != memspec.NewDDR3().Timing.TCCDS {
		t.Fatalf("second RD issued %d ticks after the first, want tCCD=%d",
			rec.Events[2].Tick-rec.Events[1].Tick, memspec.NewDDR3().Timing.TCCDS)
	}
}

// TestBackpressureWithholdsThirdRequest is spec.md §8 scenario 6:
// RequestBufferSize=2, three requests to one bank submitted in the same
// cycle. The arbiter forwards one request at a time; all three get
// END_REQ in submission order, and the third only once a CAS has freed a
// buffer slot.
func TestBackpressureWithholdsThirdRequest(t *testing.T) {
	a, clock, rec := buildDDR3(t, types.Open, 2)

	var acked []uint64
	var ackTick []types.Tick
	a.SetHooks(arbiter.Hooks{
		SendEndReq: func(thread types.Thread, txn *types.Transaction) {
			acked = append(acked, txn.ID)
			ackTick = append(ackTick, clock.Now())
		},
		SendBeginResp: func(thread types.Thread, txn *types.Transaction) {
			a.OnEndRespFromInitiator(thread)
		},
	})

	pool := types.NewPool()
	t1, t2, t3 := pool.Get(), pool.Get(), pool.Get()
	t1.Addr, t2.Addr, t3.Addr = 0, 1<<6, 2<<6 // same bank/row, distinct columns

	a.SubmitRequest(t1, 0, 0)
	a.SubmitRequest(t2, 0, 1)
	a.SubmitRequest(t3, 0, 2)

	if len(acked) != 0 {
		t.Fatalf("nothing should be acked before the clock runs, got %v", acked)
	}

	clock.RunUntilIdle()

	if len(acked) < 3 {
		t.Fatalf("expected all three requests to eventually drain, got %v", acked)
	}
	if acked[0] != t1.ID || acked[1] != t2.ID {
		t.Fatalf("first two acks out of order: %v", acked)
	}
	if acked[2] != t3.ID {
		t.Fatalf("third request acked out of order: %v", acked)
	}

	var firstCAS types.Tick
	sawCAS := false
	for _, ev := range rec.Events {
		if ev.Cmd.IsCAS() {
			firstCAS, sawCAS = ev.Tick, true
			break
		}
	}
	if !sawCAS || ackTick[2] < firstCAS {
		t.Fatalf("third request acked at tick %d, before any CAS (trace %v)", ackTick[2], rec.Events)
	}
}

func TestParseHandlesUnderscoresAndThreadTag(t *testing.T) {
	sc, err := Parse("# comment\nR 0x0000_0000\nW 0x40 thread=2\nWAIT 120\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(sc.Steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(sc.Steps))
	}
	if sc.Steps[0].Addr != 0 || sc.Steps[0].IsWrite {
		t.Fatalf("step 0 = %+v, want a read at address 0", sc.Steps[0])
	}
	if sc.Steps[1].Addr != 0x40 || !sc.Steps[1].IsWrite || sc.Steps[1].Thread != 2 {
		t.Fatalf("step 1 = %+v, want a write at 0x40 tagged thread 2", sc.Steps[1])
	}
	if sc.Steps[2].Kind != StepWait || sc.Steps[2].Ticks != 120 {
		t.Fatalf("step 2 = %+v, want WAIT 120", sc.Steps[2])
	}
}
