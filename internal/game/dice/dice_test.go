package dice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/arena/internal/game/dice"
)

// TestCryptoSource_Float64_InRange verifies the postcondition:
// every value returned by Float64 is in [0, 1).
func TestCryptoSource_Float64_InRange(t *testing.T) {
	src := dice.NewCryptoSource()
	for i := 0; i < 1000; i++ {
		v := src.Float64()
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}
}

func TestSeededSource_Reproducible(t *testing.T) {
	a := dice.NewSeededSource(42)
	b := dice.NewSeededSource(42)
	for i := 0; i < 50; i++ {
		require.Equal(t, a.Float64(), b.Float64(), "draw %d diverged", i)
	}
}

func TestSequence_Wraps(t *testing.T) {
	s := dice.MustSequence(0.1, 0.5)
	assert.Equal(t, 0.1, s.Float64())
	assert.Equal(t, 0.5, s.Float64())
	assert.Equal(t, 0.1, s.Float64())
}

func TestNewSequence_RejectsOutOfRange(t *testing.T) {
	_, err := dice.NewSequence()
	assert.Error(t, err)
	_, err = dice.NewSequence(0.2, 1.0)
	assert.Error(t, err)
	_, err = dice.NewSequence(-0.1)
	assert.Error(t, err)
	assert.Panics(t, func() { dice.MustSequence(2) })
}

func TestLoggedSource_PassesThrough(t *testing.T) {
	src := dice.NewLoggedSource(dice.MustSequence(0.25, 0.75), zaptest.NewLogger(t))
	assert.Equal(t, 0.25, src.Float64())
	assert.Equal(t, 0.75, src.Float64())
}

// TestSeededSource_Property verifies every seed yields draws in [0, 1).
func TestSeededSource_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Uint64().Draw(rt, "seed")
		src := dice.NewSeededSource(seed)
		for i := 0; i < 20; i++ {
			v := src.Float64()
			if v < 0 || v >= 1 {
				rt.Fatalf("seed %d produced %v", seed, v)
			}
		}
	})
}
