// Package combat implements the combat resolution engine: the damage model and
// the two-sided state machine that applies attacks, blocks and critical hits.
package combat

import (
	"fmt"
	"strings"
	"time"

	"github.com/cory-johannsen/arena/internal/game/fighter"
)

// Side identifies one of the two independently controlled combatants.
type Side int

const (
	Left Side = iota
	Right
)

// Sides lists both sides in display order.
var Sides = [2]Side{Left, Right}

// Opponent returns the other side.
//
// Postcondition: s.Opponent().Opponent() == s.
func (s Side) Opponent() Side {
	if s == Left {
		return Right
	}
	return Left
}

// String returns "left" or "right".
func (s Side) String() string {
	switch s {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "unknown"
	}
}

// ParseSide converts "left"/"right" (also "1"/"2", "p1"/"p2") into a Side.
//
// Postcondition: Returns the matching Side or an error.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left", "l", "1", "p1":
		return Left, nil
	case "right", "r", "2", "p2":
		return Right, nil
	default:
		return Left, fmt.Errorf("unknown side %q", s)
	}
}

// Combatant is the per-match mutable state of one side.
//
// Invariant: 0 <= Health <= Fighter.Health.
type Combatant struct {
	Fighter fighter.Fighter
	Health  float64
	// Blocking is true only while the side's block key is held.
	Blocking bool
	// CooldownUntil is the instant the critical-hit cooldown expires.
	// The zero value means no cooldown.
	CooldownUntil time.Time
}

// NewCombatant creates a Combatant at full health with blocking and cooldown off.
//
// Postcondition: Health == f.Health; Blocking == false; CooldownUntil is zero.
func NewCombatant(f fighter.Fighter) *Combatant {
	return &Combatant{Fighter: f, Health: f.Health}
}

// MaxHealth returns the fighter's maximum health.
func (c *Combatant) MaxHealth() float64 { return c.Fighter.Health }

// ApplyDamage reduces Health by amount, flooring at zero.
// Negative amounts are ignored.
//
// Postcondition: 0 <= Health <= MaxHealth().
func (c *Combatant) ApplyDamage(amount float64) {
	if amount <= 0 {
		return
	}
	c.Health -= amount
	if c.Health < 0 {
		c.Health = 0
	}
}

// IsDefeated reports whether health has reached zero.
func (c *Combatant) IsDefeated() bool { return c.Health <= 0 }

// OnCooldown reports whether the critical-hit cooldown is active at now.
func (c *Combatant) OnCooldown(now time.Time) bool { return now.Before(c.CooldownUntil) }

// CooldownRemaining returns the time left on the cooldown at now, or zero.
//
// Postcondition: Returns >= 0.
func (c *Combatant) CooldownRemaining(now time.Time) time.Duration {
	if !c.OnCooldown(now) {
		return 0
	}
	return c.CooldownUntil.Sub(now)
}

// HealthFraction returns Health / MaxHealth in [0, 1].
func (c *Combatant) HealthFraction() float64 {
	if c.Fighter.Health <= 0 {
		return 0
	}
	return c.Health / c.Fighter.Health
}
