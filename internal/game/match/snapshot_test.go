package match_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cory-johannsen/arena/internal/game/combat"
	"github.com/cory-johannsen/arena/internal/game/match"
)

func TestBandFor(t *testing.T) {
	assert.Equal(t, match.BandGreen, match.BandFor(1))
	assert.Equal(t, match.BandGreen, match.BandFor(0.61))
	assert.Equal(t, match.BandYellow, match.BandFor(0.6))
	assert.Equal(t, match.BandYellow, match.BandFor(0.31))
	assert.Equal(t, match.BandRed, match.BandFor(0.3))
	assert.Equal(t, match.BandRed, match.BandFor(0))
}

func TestSnapshot_Helpers(t *testing.T) {
	s := match.Snapshot{
		Status: combat.StatusInProgress.String(),
		Left:   &match.SideSnapshot{Side: "left", Health: 55, MaxHealth: 95},
	}
	assert.True(t, s.InProgress())
	assert.Equal(t, "55.0 / 95.0", s.Side(combat.Left).HealthText())
	assert.Nil(t, s.Side(combat.Right))
	assert.Empty(t, s.Announcement())

	s.Draw = true
	assert.Contains(t, s.Announcement(), "DRAW")
}

func TestEventType_String(t *testing.T) {
	assert.Equal(t, "match_ended", match.EventMatchEnded.String())
	assert.Equal(t, "unknown", match.EventType(99).String())
}
