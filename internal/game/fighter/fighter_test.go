package fighter_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/arena/internal/game/fighter"
)

func ryu() fighter.Fighter {
	return fighter.Fighter{ID: "1", Name: "Ryu", Health: 100, Attack: 20, Defense: 15, Source: "ryu.png"}
}

func ken() fighter.Fighter {
	return fighter.Fighter{ID: "2", Name: "Ken", Health: 95, Attack: 21, Defense: 12, Source: "ken.png"}
}

func TestFighter_Validate(t *testing.T) {
	require.NoError(t, ryu().Validate())

	cases := map[string]func(f *fighter.Fighter){
		"empty id":         func(f *fighter.Fighter) { f.ID = "" },
		"empty name":       func(f *fighter.Fighter) { f.Name = "" },
		"zero health":      func(f *fighter.Fighter) { f.Health = 0 },
		"negative attack":  func(f *fighter.Fighter) { f.Attack = -1 },
		"negative defense": func(f *fighter.Fighter) { f.Defense = -0.5 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			f := ryu()
			mutate(&f)
			assert.Error(t, f.Validate())
		})
	}
}

func TestMemoryRoster_ListAndGet(t *testing.T) {
	r, err := fighter.NewMemoryRoster([]fighter.Fighter{ryu(), ken()})
	require.NoError(t, err)

	list, err := r.ListFighters(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Ryu", list[0].Name)
	assert.Equal(t, "Ken", list[1].Name)

	list[0].Name = "mutated"
	again, _ := r.ListFighters(context.Background())
	assert.Equal(t, "Ryu", again[0].Name, "ListFighters must return a copy")

	f, err := r.GetFighter(context.Background(), "2")
	require.NoError(t, err)
	assert.Equal(t, ken(), f)
}

func TestMemoryRoster_GetFighter_NotFound(t *testing.T) {
	r, err := fighter.NewMemoryRoster([]fighter.Fighter{ryu()})
	require.NoError(t, err)

	_, err = r.GetFighter(context.Background(), "999")
	require.Error(t, err)
	assert.True(t, errors.Is(err, fighter.ErrNotFound))
}

func TestMemoryRoster_CancelledContext(t *testing.T) {
	r, err := fighter.NewMemoryRoster([]fighter.Fighter{ryu()})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = r.ListFighters(ctx)
	assert.ErrorIs(t, err, fighter.ErrRosterFetchFailed)
	_, err = r.GetFighter(ctx, "1")
	assert.ErrorIs(t, err, fighter.ErrRosterFetchFailed)
}

func TestMemoryRoster_RejectsDuplicates(t *testing.T) {
	dup := ken()
	dup.ID = "1"
	_, err := fighter.NewMemoryRoster([]fighter.Fighter{ryu(), dup})
	assert.Error(t, err)
}

func TestMemoryRoster_ReplaceKeepsOldOnError(t *testing.T) {
	r, err := fighter.NewMemoryRoster([]fighter.Fighter{ryu()})
	require.NoError(t, err)

	bad := ken()
	bad.Health = -1
	require.Error(t, r.Replace([]fighter.Fighter{bad}))
	assert.Equal(t, 1, r.Len())
	_, err = r.GetFighter(context.Background(), "1")
	assert.NoError(t, err)
}

// TestMemoryRoster_Property_GetMatchesList verifies every listed fighter is
// retrievable by its ID.
func TestMemoryRoster_Property_GetMatchesList(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 12).Draw(rt, "n")
		fighters := make([]fighter.Fighter, n)
		for i := range fighters {
			fighters[i] = fighter.Fighter{
				ID:      rapid.StringMatching(`[a-z]{3}`).Draw(rt, "id") + string(rune('A'+i)),
				Name:    "F",
				Health:  rapid.Float64Range(1, 500).Draw(rt, "health"),
				Attack:  rapid.Float64Range(0, 50).Draw(rt, "attack"),
				Defense: rapid.Float64Range(0, 50).Draw(rt, "defense"),
			}
		}
		r, err := fighter.NewMemoryRoster(fighters)
		if err != nil {
			rt.Fatalf("unexpected error: %v", err)
		}
		list, _ := r.ListFighters(context.Background())
		for _, f := range list {
			got, err := r.GetFighter(context.Background(), f.ID)
			if err != nil || got != f {
				rt.Fatalf("GetFighter(%q) = %v, %v", f.ID, got, err)
			}
		}
	})
}
