package combat_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/cory-johannsen/arena/internal/game/combat"
)

func TestCooldownTimer_Fires(t *testing.T) {
	var called atomic.Int32
	var got atomic.Int32
	ct := combat.NewCooldownTimer(combat.Right, 20*time.Millisecond, func(s combat.Side) {
		got.Store(int32(s))
		called.Add(1)
	})
	if ct.Side() != combat.Right {
		t.Fatalf("expected side right, got %s", ct.Side())
	}
	time.Sleep(60 * time.Millisecond)
	if called.Load() != 1 {
		t.Fatalf("expected callback called once, got %d", called.Load())
	}
	if combat.Side(got.Load()) != combat.Right {
		t.Fatalf("expected callback for right side, got %d", got.Load())
	}
}

func TestCooldownTimer_Stop_PreventsCallback(t *testing.T) {
	var called atomic.Int32
	ct := combat.NewCooldownTimer(combat.Left, 50*time.Millisecond, func(combat.Side) {
		called.Add(1)
	})
	ct.Stop()
	time.Sleep(80 * time.Millisecond)
	if called.Load() != 0 {
		t.Fatalf("expected callback not called, got %d", called.Load())
	}
}

func TestCooldownTimer_StopIdempotent(t *testing.T) {
	ct := combat.NewCooldownTimer(combat.Left, 50*time.Millisecond, func(combat.Side) {})
	ct.Stop()
	ct.Stop()
	ct.Stop()
}

func TestCooldownTimer_StopAfterFire(t *testing.T) {
	var called atomic.Int32
	ct := combat.NewCooldownTimer(combat.Left, 5*time.Millisecond, func(combat.Side) {
		called.Add(1)
	})
	time.Sleep(30 * time.Millisecond)
	ct.Stop()
	if called.Load() != 1 {
		t.Fatalf("expected callback called once, got %d", called.Load())
	}
}
