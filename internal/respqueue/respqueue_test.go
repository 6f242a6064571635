package respqueue

import (
	"testing"

	"dramctl/internal/types"
)

func TestFifoPreservesInsertOrder(t *testing.T) {
	q := New(types.RespFifo)
	a := &types.Transaction{ID: 1}
	b := &types.Transaction{ID: 2}
	q.Insert(a, 10)
	q.Insert(b, 20)

	got, ok := q.NextReady(10)
	if !ok || got != a {
		t.Fatalf("NextReady(10) = %v, %v; want a, true", got, ok)
	}
}

func TestNextReadyFalseBeforeReadyTime(t *testing.T) {
	q := New(types.RespFifo)
	q.Insert(&types.Transaction{ID: 1}, 50)
	if _, ok := q.NextReady(10); ok {
		t.Fatal("expected NextReady to report not-ready before readyTime")
	}
}

func TestReorderSortsByReadyTime(t *testing.T) {
	q := New(types.RespReorder)
	a := &types.Transaction{ID: 1}
	b := &types.Transaction{ID: 2}
	q.Insert(a, 50)
	q.Insert(b, 10) // arrives later but ready sooner

	got, ok := q.NextReady(10)
	if !ok || got != b {
		t.Fatal("Reorder mode must let the earlier-ready transaction go first")
	}
}

func TestTriggerTimeIsEarliestReady(t *testing.T) {
	q := New(types.RespFifo)
	q.Insert(&types.Transaction{ID: 1}, 30)
	q.Insert(&types.Transaction{ID: 2}, 10)
	if got := q.TriggerTime(); got != 10 {
		t.Fatalf("TriggerTime() = %d, want 10", got)
	}
}

func TestPopRemovesFront(t *testing.T) {
	q := New(types.RespFifo)
	q.Insert(&types.Transaction{ID: 1}, 0)
	q.Pop()
	if q.Len() != 0 {
		t.Fatalf("Len() = %d after Pop, want 0", q.Len())
	}
}
