package combat

import (
	"math"

	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/fighter"
)

// HitPower returns attack scaled by a uniform multiplier in [1, 2).
//
// Precondition: attack >= 0; src must be non-nil.
// Postcondition: attack <= result < 2*attack (result == 0 when attack == 0).
func HitPower(attack float64, src dice.Source) float64 {
	return attack * (1 + src.Float64())
}

// BlockPower returns defense scaled by an independent uniform multiplier in [1, 2).
//
// Precondition: defense >= 0; src must be non-nil.
// Postcondition: defense <= result < 2*defense (result == 0 when defense == 0).
func BlockPower(defense float64, src dice.Source) float64 {
	return defense * (1 + src.Float64())
}

// NormalDamage resolves a normal attack: hit power minus block power, floored at zero.
// The hit multiplier is drawn before the block multiplier.
//
// Precondition: src must be non-nil.
// Postcondition: 0 <= result < 2*attacker.Attack.
func NormalDamage(attacker, defender fighter.Fighter, src dice.Source) float64 {
	hit := HitPower(attacker.Attack, src)
	block := BlockPower(defender.Defense, src)
	return math.Max(0, hit-block)
}

// CriticalDamage returns the deterministic critical-hit damage, 2 * attack.
// Defense plays no part.
//
// Postcondition: result == 2*attack.
func CriticalDamage(attack float64) float64 {
	return 2 * attack
}
