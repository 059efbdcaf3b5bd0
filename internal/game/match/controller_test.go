package match_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/arena/internal/game/combat"
	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/fighter"
	"github.com/cory-johannsen/arena/internal/game/input"
	"github.com/cory-johannsen/arena/internal/game/match"
)

var (
	ryu = fighter.Fighter{ID: "1", Name: "Ryu", Health: 100, Attack: 20, Defense: 15, Source: "ryu.png"}
	ken = fighter.Fighter{ID: "2", Name: "Ken", Health: 95, Attack: 21, Defense: 12, Source: "ken.png"}
)

type manualClock struct{ now time.Time }

func (c *manualClock) Now() time.Time          { return c.now }
func (c *manualClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type recorder struct{ events []match.Event }

func (r *recorder) OnMatchEvent(e match.Event) { r.events = append(r.events, e) }

func (r *recorder) types() []match.EventType {
	out := make([]match.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func (r *recorder) count(t match.EventType) int {
	n := 0
	for _, e := range r.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

type failingProvider struct{}

func (failingProvider) ListFighters(context.Context) ([]fighter.Fighter, error) {
	return nil, fighter.ErrRosterFetchFailed
}

func (failingProvider) GetFighter(context.Context, string) (fighter.Fighter, error) {
	return fighter.Fighter{}, fighter.ErrRosterFetchFailed
}

func newController(t *testing.T, strict bool, src dice.Source) (*match.Controller, *recorder, *manualClock) {
	t.Helper()
	roster, err := fighter.NewMemoryRoster([]fighter.Fighter{ryu, ken})
	require.NoError(t, err)
	clock := &manualClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := match.NewController(roster, match.Options{
		Engine: combat.Options{Clock: clock, Source: src},
		Strict: strict,
	}, zaptest.NewLogger(t))
	rec := &recorder{}
	c.AddListener(rec)
	return c, rec, clock
}

func TestController_Start_RequiresDistinctFighters(t *testing.T) {
	c, rec, _ := newController(t, false, dice.MustSequence(0))
	err := c.Start(ryu, ryu)
	assert.ErrorIs(t, err, match.ErrDuplicateFighter)
	assert.Equal(t, combat.StatusNotStarted, c.Status())
	assert.Empty(t, rec.events)
}

func TestController_StartByID(t *testing.T) {
	c, rec, _ := newController(t, false, dice.MustSequence(0))
	require.NoError(t, c.StartByID(context.Background(), "1", "2"))
	assert.Equal(t, combat.StatusInProgress, c.Status())
	require.Len(t, rec.events, 1)
	e := rec.events[0]
	assert.Equal(t, match.EventMatchStarted, e.Type)
	assert.Equal(t, "Ryu", e.Attacker.Name)
	assert.Equal(t, "Ken", e.Defender.Name)
	assert.NotEmpty(t, e.MatchID)
}

func TestController_StartByID_NotFound(t *testing.T) {
	c, _, _ := newController(t, false, dice.MustSequence(0))
	err := c.StartByID(context.Background(), "1", "99")
	assert.ErrorIs(t, err, fighter.ErrNotFound)
	assert.Equal(t, combat.StatusNotStarted, c.Status())

	err = c.StartByID(context.Background(), "2", "2")
	assert.ErrorIs(t, err, match.ErrDuplicateFighter)
}

func TestController_StartByID_FetchFailed(t *testing.T) {
	c := match.NewController(failingProvider{}, match.Options{}, zaptest.NewLogger(t))
	err := c.StartByID(context.Background(), "1", "2")
	assert.True(t, errors.Is(err, fighter.ErrRosterFetchFailed))
}

func TestController_NotStarted_IsSilentNoOp(t *testing.T) {
	c, rec, _ := newController(t, false, dice.MustSequence(0))
	assert.NoError(t, c.Attack(combat.Left))
	assert.NoError(t, c.CriticalHit(combat.Right))
	assert.NoError(t, c.SetBlocking(combat.Left, true))
	assert.Empty(t, rec.events)
}

func TestController_Strict_SurfacesInvalidOperation(t *testing.T) {
	c, _, _ := newController(t, true, dice.MustSequence(0))
	assert.ErrorIs(t, c.Attack(combat.Left), combat.ErrInvalidMatchOperation)
	assert.ErrorIs(t, c.CriticalHit(combat.Left), combat.ErrInvalidMatchOperation)
	assert.ErrorIs(t, c.SetBlocking(combat.Left, true), combat.ErrInvalidMatchOperation)
}

func TestController_UnknownSide_AlwaysSurfaces(t *testing.T) {
	c, _, _ := newController(t, false, dice.MustSequence(0))
	require.NoError(t, c.Start(ryu, ken))
	assert.ErrorIs(t, c.Attack(combat.Side(3)), combat.ErrUnknownSide)
}

func TestController_EmitsHitAndBlockEvents(t *testing.T) {
	c, rec, _ := newController(t, false, dice.MustSequence(0.5, 0))
	require.NoError(t, c.Start(ryu, ken))
	require.NoError(t, c.Attack(combat.Left))
	require.NoError(t, c.SetBlocking(combat.Right, true))
	require.NoError(t, c.SetBlocking(combat.Right, true))
	require.NoError(t, c.Attack(combat.Left))
	require.NoError(t, c.SetBlocking(combat.Right, false))

	assert.Equal(t, []match.EventType{
		match.EventMatchStarted,
		match.EventHit,
		match.EventBlockChanged,
		match.EventBlocked,
		match.EventBlockChanged,
	}, rec.types())
	hit := rec.events[1]
	assert.InDelta(t, 18.0, hit.Damage, 1e-9)
	assert.InDelta(t, 77.0, hit.DefenderHealth, 1e-9)
	assert.Equal(t, combat.Left, hit.Side)
}

func TestController_RyuCriticalsWin_SingleEndEvent(t *testing.T) {
	c, rec, clock := newController(t, false, dice.MustSequence(0))
	require.NoError(t, c.Start(ryu, ken))
	for c.Status() == combat.StatusInProgress {
		require.NoError(t, c.CriticalHit(combat.Left))
		clock.Advance(combat.DefaultCriticalCooldown)
	}
	assert.Equal(t, 3, rec.count(match.EventCritical))
	assert.Equal(t, 1, rec.count(match.EventMatchEnded))

	// Further actions change nothing and fire no second end event.
	require.NoError(t, c.Attack(combat.Right))
	require.NoError(t, c.CriticalHit(combat.Left))
	assert.Equal(t, 1, rec.count(match.EventMatchEnded))

	end := rec.events[len(rec.events)-1]
	require.Equal(t, match.EventMatchEnded, end.Type)
	require.NotNil(t, end.Winner)
	assert.Equal(t, "Ryu", end.Winner.Name)
	assert.Equal(t, 100.0, end.Outcome.Remaining)

	snap := c.Snapshot()
	require.NotNil(t, snap.Winner)
	assert.Equal(t, "left", snap.Winner.Side)
	assert.Equal(t, "WINNER! Ryu Remaining Health: 100.0", snap.Announcement())
	assert.Equal(t, 0.0, snap.Right.Health)
	assert.Equal(t, match.BandRed, snap.Right.Band)
}

func TestController_CooldownRefusalEmitsNothing(t *testing.T) {
	c, rec, _ := newController(t, false, dice.MustSequence(0))
	require.NoError(t, c.Start(ryu, ken))
	require.NoError(t, c.CriticalHit(combat.Left))
	require.NoError(t, c.CriticalHit(combat.Left))
	assert.Equal(t, 1, rec.count(match.EventCritical))
	assert.True(t, c.OnCooldown(combat.Left))
	assert.Equal(t, combat.DefaultCriticalCooldown, c.Cooldown())
}

func TestController_Reset(t *testing.T) {
	c, rec, _ := newController(t, false, dice.MustSequence(0))
	require.NoError(t, c.Start(ryu, ken))
	c.Reset()
	assert.Equal(t, combat.StatusNotStarted, c.Status())
	assert.Equal(t, match.EventMatchReset, rec.events[len(rec.events)-1].Type)
	snap := c.Snapshot()
	assert.Nil(t, snap.Left)
	assert.Nil(t, snap.Winner)
	assert.Equal(t, "not_started", snap.Status)
}

func TestController_DrivenByMapper(t *testing.T) {
	c, rec, clock := newController(t, false, dice.MustSequence(0))
	m, err := input.NewMapper(c, input.DefaultControls())
	require.NoError(t, err)
	require.NoError(t, c.Start(ryu, ken))

	require.NoError(t, m.KeyDown("KeyL"))
	require.NoError(t, m.KeyDown("KeyA"))
	assert.Equal(t, 95.0, c.Snapshot().Right.Health)
	assert.True(t, c.Snapshot().Right.Blocking)

	require.NoError(t, m.Combo(combat.Left))
	assert.Equal(t, 55.0, c.Snapshot().Right.Health)
	assert.True(t, c.Snapshot().Left.Cooldown)
	assert.Equal(t, int64(10000), c.Snapshot().Left.CooldownMS)

	require.NoError(t, m.Combo(combat.Left))
	assert.Equal(t, 55.0, c.Snapshot().Right.Health)

	clock.Advance(10 * time.Second)
	require.NoError(t, m.Combo(combat.Left))
	assert.Equal(t, 15.0, c.Snapshot().Right.Health)
	assert.Equal(t, 2, rec.count(match.EventCritical))
}

func TestController_MutualBlockExchange(t *testing.T) {
	c, _, _ := newController(t, false, dice.MustSequence(0.9, 0.1))
	require.NoError(t, c.Start(ryu, ken))
	require.NoError(t, c.SetBlocking(combat.Left, true))
	require.NoError(t, c.SetBlocking(combat.Right, true))
	for i := 0; i < 20; i++ {
		require.NoError(t, c.Attack(combat.Left))
		require.NoError(t, c.Attack(combat.Right))
	}
	snap := c.Snapshot()
	assert.Equal(t, 100.0, snap.Left.Health)
	assert.Equal(t, 95.0, snap.Right.Health)
}
