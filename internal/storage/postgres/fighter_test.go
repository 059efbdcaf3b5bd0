package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/arena/internal/game/fighter"
	"github.com/cory-johannsen/arena/internal/storage/postgres"
	"github.com/cory-johannsen/arena/internal/testutil"
)

func ryu() fighter.Fighter {
	return fighter.Fighter{ID: "ryu", Name: "Ryu", Health: 100, Attack: 20, Defense: 15, Source: "/images/ryu.png"}
}

func ken() fighter.Fighter {
	return fighter.Fighter{ID: "ken", Name: "Ken", Health: 95, Attack: 21, Defense: 12, Source: "/images/ken.png"}
}

func TestFighterRepository_UpsertAndList(t *testing.T) {
	repo := postgres.NewFighterRepository(testutil.NewPool(t))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, ken(), 2))
	require.NoError(t, repo.Upsert(ctx, ryu(), 1))

	got, err := repo.ListFighters(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, ryu(), got[0])
	assert.Equal(t, ken(), got[1])
}

func TestFighterRepository_UpsertReplaces(t *testing.T) {
	repo := postgres.NewFighterRepository(testutil.NewPool(t))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, ryu(), 1))
	stronger := ryu()
	stronger.Attack = 30
	require.NoError(t, repo.Upsert(ctx, stronger, 1))

	got, err := repo.GetFighter(ctx, "ryu")
	require.NoError(t, err)
	assert.Equal(t, 30.0, got.Attack)

	all, err := repo.ListFighters(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestFighterRepository_UpsertRejectsInvalid(t *testing.T) {
	repo := postgres.NewFighterRepository(testutil.NewPool(t))
	bad := ryu()
	bad.Health = 0
	assert.Error(t, repo.Upsert(context.Background(), bad, 0))
}

func TestFighterRepository_GetFighterNotFound(t *testing.T) {
	repo := postgres.NewFighterRepository(testutil.NewPool(t))
	_, err := repo.GetFighter(context.Background(), "akuma")
	assert.ErrorIs(t, err, fighter.ErrNotFound)
}

func TestFighterRepository_Delete(t *testing.T) {
	repo := postgres.NewFighterRepository(testutil.NewPool(t))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, ryu(), 0))
	require.NoError(t, repo.Delete(ctx, "ryu"))
	assert.ErrorIs(t, repo.Delete(ctx, "ryu"), fighter.ErrNotFound)
}

func TestFighterRepository_FetchFailure(t *testing.T) {
	pc := testutil.NewPostgresContainer(t)
	repo := postgres.NewFighterRepository(pc.RawPool)

	// No migrations applied: the fighters table does not exist.
	_, err := repo.ListFighters(context.Background())
	assert.ErrorIs(t, err, fighter.ErrRosterFetchFailed)
	_, err = repo.GetFighter(context.Background(), "ryu")
	assert.ErrorIs(t, err, fighter.ErrRosterFetchFailed)
}

// Property: any valid fighter round-trips through Upsert and GetFighter.
func TestFighterRepository_Property_RoundTrip(t *testing.T) {
	repo := postgres.NewFighterRepository(testutil.NewPool(t))
	ctx := context.Background()

	rapid.Check(t, func(rt *rapid.T) {
		f := fighter.Fighter{
			ID:      rapid.StringMatching(`[a-z]{1,12}`).Draw(rt, "id"),
			Name:    rapid.StringMatching(`[A-Z][a-z]{0,15}`).Draw(rt, "name"),
			Health:  float64(rapid.IntRange(1, 500).Draw(rt, "health")),
			Attack:  float64(rapid.IntRange(0, 100).Draw(rt, "attack")),
			Defense: float64(rapid.IntRange(0, 100).Draw(rt, "defense")),
		}
		if err := repo.Upsert(ctx, f, 0); err != nil {
			rt.Fatalf("upsert: %v", err)
		}
		got, err := repo.GetFighter(ctx, f.ID)
		if err != nil {
			rt.Fatalf("get: %v", err)
		}
		if got != f {
			rt.Fatalf("round trip: got %+v want %+v", got, f)
		}
	})
}

func TestPool_Health(t *testing.T) {
	pc := testutil.NewPostgresContainer(t)
	assert.NoError(t, pc.Pool.Health(context.Background(), 5*time.Second))
}
