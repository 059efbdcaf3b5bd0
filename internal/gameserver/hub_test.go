package gameserver_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/arena/internal/game/combat"
	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/fighter"
	"github.com/cory-johannsen/arena/internal/game/input"
	"github.com/cory-johannsen/arena/internal/game/lobby"
	"github.com/cory-johannsen/arena/internal/game/match"
	"github.com/cory-johannsen/arena/internal/gameserver"
	"github.com/cory-johannsen/arena/internal/scripting"
)

var roster = []fighter.Fighter{
	{ID: "1", Name: "Ryu", Health: 100, Attack: 20, Defense: 15},
	{ID: "2", Name: "Ken", Health: 95, Attack: 21, Defense: 12},
	{ID: "3", Name: "Chun-Li", Health: 90, Attack: 18, Defense: 20},
}

type fakeAnnouncer struct {
	mu    sync.Mutex
	hooks []string
}

func (f *fakeAnnouncer) Announce(hook string, args ...any) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hooks = append(f.hooks, hook)
	if hook == gameserver.HookCritical {
		a := args[0].(scripting.FighterInfo)
		d := args[1].(scripting.FighterInfo)
		return fmt.Sprintf("%s crits %s (%.0f left)", a.Name, d.Name, d.Health)
	}
	return ""
}

func (f *fakeAnnouncer) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.hooks...)
}

func newHub(t *testing.T, cooldown time.Duration, ann gameserver.Announcer) *gameserver.Hub {
	t.Helper()
	r, err := fighter.NewMemoryRoster(roster)
	require.NoError(t, err)
	h, err := gameserver.NewHub(r, gameserver.HubOptions{
		Match: match.Options{Engine: combat.Options{
			Cooldown: cooldown,
			Source:   dice.MustSequence(0),
		}},
		Controls:  input.DefaultControls(),
		Announcer: ann,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	h.Start()
	t.Cleanup(h.Stop)
	return h
}

func selectPair(t *testing.T, h *gameserver.Hub) {
	t.Helper()
	ctx := context.Background()
	side, err := h.Select(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, combat.Left, side)
	side, err = h.Select(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, combat.Right, side)
}

func TestNewHub_InvalidControls(t *testing.T) {
	r, err := fighter.NewMemoryRoster(roster)
	require.NoError(t, err)
	c := input.DefaultControls()
	c.Right.Block = c.Left.Block
	_, err = gameserver.NewHub(r, gameserver.HubOptions{Controls: c}, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestHub_FightRequiresTwoFighters(t *testing.T) {
	h := newHub(t, time.Second, nil)
	ctx := context.Background()
	assert.ErrorIs(t, h.Fight(ctx), lobby.ErrNotReady)
	_, err := h.Select(ctx, "1")
	require.NoError(t, err)
	assert.ErrorIs(t, h.Fight(ctx), lobby.ErrNotReady)
}

func TestHub_SelectErrors(t *testing.T) {
	h := newHub(t, time.Second, nil)
	ctx := context.Background()
	_, err := h.Select(ctx, "42")
	assert.ErrorIs(t, err, fighter.ErrNotFound)
	_, err = h.Select(ctx, "1")
	require.NoError(t, err)
	_, err = h.Select(ctx, "1")
	assert.ErrorIs(t, err, lobby.ErrAlreadySelected)
}

func TestHub_FullMatchViaKeys(t *testing.T) {
	ann := &fakeAnnouncer{}
	h := newHub(t, 10*time.Millisecond, ann)
	ctx := context.Background()
	selectPair(t, h)
	require.NoError(t, h.Fight(ctx))

	v, err := h.View(ctx)
	require.NoError(t, err)
	assert.True(t, v.Match.InProgress())
	assert.False(t, v.CanFight())
	assert.Equal(t, "A attack, D block, Q+W+E critical", v.Controls.Left)

	_, err = h.Select(ctx, "3")
	assert.ErrorIs(t, err, gameserver.ErrMatchInProgress)

	for i := 0; i < 3; i++ {
		require.NoError(t, h.Combo(ctx, combat.Left))
		time.Sleep(20 * time.Millisecond)
	}
	v, err = h.View(ctx)
	require.NoError(t, err)
	require.NotNil(t, v.Match.Winner)
	assert.Equal(t, "Ryu", v.Match.Winner.Fighter.Name)
	assert.Equal(t, 100.0, v.Match.Winner.Remaining)
	assert.True(t, v.CanFight())
	require.NotEmpty(t, v.Commentary)
	assert.Equal(t, "Ryu crits Ken (0 left)", v.Commentary[len(v.Commentary)-1])

	hooks := ann.seen()
	assert.Equal(t, gameserver.HookMatchStart, hooks[0])
	assert.Equal(t, gameserver.HookMatchEnd, hooks[len(hooks)-1])

	// Keys after the end are silent no-ops.
	require.NoError(t, h.KeyDown(ctx, "KeyJ"))
	require.NoError(t, h.KeyUp(ctx, "KeyJ"))
}

func TestHub_FightIsNoOpWhileInProgress(t *testing.T) {
	h := newHub(t, time.Second, nil)
	ctx := context.Background()
	selectPair(t, h)
	require.NoError(t, h.Fight(ctx))
	require.NoError(t, h.Tap(ctx, "KeyA"))
	before, err := h.View(ctx)
	require.NoError(t, err)
	require.NoError(t, h.Fight(ctx))
	after, err := h.View(ctx)
	require.NoError(t, err)
	assert.Equal(t, before.Match.MatchID, after.Match.MatchID)
	assert.Equal(t, before.Match.Right.Health, after.Match.Right.Health)
}

func TestHub_ResetClearsEverything(t *testing.T) {
	h := newHub(t, time.Second, nil)
	ctx := context.Background()
	selectPair(t, h)
	require.NoError(t, h.Fight(ctx))
	require.NoError(t, h.Reset(ctx))
	v, err := h.View(ctx)
	require.NoError(t, err)
	assert.Empty(t, v.Selected)
	assert.Nil(t, v.Match.Left)
	assert.Equal(t, "not_started", v.Match.Status)
}

func TestHub_SubscribersReceiveViews(t *testing.T) {
	h := newHub(t, 30*time.Millisecond, nil)
	ctx := context.Background()
	ch := make(chan gameserver.View, 16)
	h.Subscribe(ch)
	selectPair(t, h)
	require.NoError(t, h.Fight(ctx))
	require.NoError(t, h.Combo(ctx, combat.Right))

	var last gameserver.View
	deadline := time.After(time.Second)
	for got := 0; got < 4; got++ {
		select {
		case last = <-ch:
		case <-deadline:
			t.Fatalf("received only %d views", got)
		}
	}
	assert.True(t, last.Match.Right.Cooldown)

	// The cooldown timer republishes once the window lapses.
	select {
	case v := <-ch:
		assert.False(t, v.Match.Right.Cooldown)
	case <-time.After(time.Second):
		t.Fatal("no refresh after cooldown")
	}

	h.Unsubscribe(ch)
	require.NoError(t, h.Tap(ctx, "KeyA"))
	select {
	case <-ch:
		t.Fatal("view delivered after unsubscribe")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_RefreshRosterDropsMissing(t *testing.T) {
	r, err := fighter.NewMemoryRoster(roster)
	require.NoError(t, err)
	h, err := gameserver.NewHub(r, gameserver.HubOptions{Controls: input.DefaultControls()}, zaptest.NewLogger(t))
	require.NoError(t, err)
	h.Start()
	defer h.Stop()
	ctx := context.Background()
	selectPair(t, h)

	require.NoError(t, r.Replace(roster[:1]))
	require.NoError(t, h.RefreshRoster(ctx))
	v, err := h.View(ctx)
	require.NoError(t, err)
	require.Len(t, v.Selected, 1)
	assert.Equal(t, "Ryu", v.Selected[0].Name)
}

func TestHub_CallsAfterStop(t *testing.T) {
	h := newHub(t, time.Second, nil)
	h.Stop()
	h.Stop()
	_, err := h.View(context.Background())
	assert.ErrorIs(t, err, gameserver.ErrHubStopped)
}

func TestHub_ContextCancelled(t *testing.T) {
	h := newHub(t, time.Second, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := h.Select(ctx, "1")
	assert.Error(t, err)
}
