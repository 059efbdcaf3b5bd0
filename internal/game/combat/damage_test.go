package combat_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/arena/internal/game/combat"
	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/fighter"
)

func TestHitPower_ScalesAttack(t *testing.T) {
	assert.InDelta(t, 20.0, combat.HitPower(20, dice.MustSequence(0)), 1e-9)
	assert.InDelta(t, 30.0, combat.HitPower(20, dice.MustSequence(0.5)), 1e-9)
}

func TestBlockPower_ScalesDefense(t *testing.T) {
	assert.InDelta(t, 15.0, combat.BlockPower(15, dice.MustSequence(0)), 1e-9)
	assert.InDelta(t, 22.5, combat.BlockPower(15, dice.MustSequence(0.5)), 1e-9)
}

func TestNormalDamage_DrawsHitBeforeBlock(t *testing.T) {
	ryu := fighter.Fighter{ID: "1", Name: "Ryu", Health: 100, Attack: 20, Defense: 15}
	ken := fighter.Fighter{ID: "2", Name: "Ken", Health: 95, Attack: 21, Defense: 12}
	// hit = 20 * 1.9 = 38, block = 12 * 1.0 = 12
	got := combat.NormalDamage(ryu, ken, dice.MustSequence(0.9, 0))
	assert.InDelta(t, 26.0, got, 1e-9)
}

func TestNormalDamage_ZeroWhenBlockExceedsHit(t *testing.T) {
	weak := fighter.Fighter{ID: "w", Name: "Weak", Health: 10, Attack: 5, Defense: 1}
	wall := fighter.Fighter{ID: "x", Name: "Wall", Health: 10, Attack: 1, Defense: 50}
	assert.Equal(t, 0.0, combat.NormalDamage(weak, wall, dice.MustSequence(0.99, 0)))
}

func TestCriticalDamage_IsDoubleAttack(t *testing.T) {
	assert.Equal(t, 40.0, combat.CriticalDamage(20))
	assert.Equal(t, 0.0, combat.CriticalDamage(0))
}

func TestPropertyNormalDamage_WithinBounds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		attack := rapid.Float64Range(0, 1000).Draw(rt, "attack")
		defense := rapid.Float64Range(0, 1000).Draw(rt, "defense")
		r1 := rapid.Float64Range(0, 0.999999).Draw(rt, "r1")
		r2 := rapid.Float64Range(0, 0.999999).Draw(rt, "r2")
		src, err := dice.NewSequence(r1, r2)
		require.NoError(rt, err)

		a := fighter.Fighter{ID: "a", Name: "A", Health: 1, Attack: attack}
		d := fighter.Fighter{ID: "d", Name: "D", Health: 1, Defense: defense}
		got := combat.NormalDamage(a, d, src)

		want := math.Max(0, attack*(1+r1)-defense*(1+r2))
		assert.InDelta(rt, want, got, 1e-9)
		assert.GreaterOrEqual(rt, got, 0.0)
		assert.LessOrEqual(rt, got, 2*attack)
		if defense*(1+r2) >= attack*(1+r1) {
			assert.Equal(rt, 0.0, got)
		}
	})
}

func TestPropertyCriticalDamage_IgnoresDefense(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		attack := rapid.Float64Range(0, 1e6).Draw(rt, "attack")
		assert.Equal(rt, 2*attack, combat.CriticalDamage(attack))
	})
}
