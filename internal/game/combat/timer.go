package combat

import (
	"sync"
	"time"
)

// CooldownTimer calls a callback once a critical-hit cooldown has elapsed.
// It carries no combat state: expiry is decided by Combatant.CooldownUntil,
// the callback only tells displays to refresh.
// It is safe for concurrent use.
type CooldownTimer struct {
	mu      sync.Mutex
	timer   *time.Timer
	side    Side
	stopped bool
}

// NewCooldownTimer creates and starts a timer that calls onExpire(side) after d.
// onExpire is called in a separate goroutine.
//
// Precondition: d > 0; onExpire must not be nil.
// Postcondition: onExpire will be called once unless Stop is called first.
func NewCooldownTimer(side Side, d time.Duration, onExpire func(Side)) *CooldownTimer {
	ct := &CooldownTimer{side: side}
	ct.timer = time.AfterFunc(d, func() {
		ct.mu.Lock()
		stopped := ct.stopped
		ct.stopped = true
		ct.mu.Unlock()
		if !stopped {
			onExpire(side)
		}
	})
	return ct
}

// Side returns the side whose cooldown this timer tracks.
func (ct *CooldownTimer) Side() Side { return ct.side }

// Stop prevents the callback from firing. Safe to call multiple times.
//
// Postcondition: onExpire will not be called after Stop returns.
func (ct *CooldownTimer) Stop() {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	ct.stopped = true
	ct.timer.Stop()
}
