package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/arena/internal/game/fighter"
)

// FighterRepository is a fighter.Provider backed by the fighters table.
// It is safe for concurrent use.
type FighterRepository struct {
	db *pgxpool.Pool
}

// NewFighterRepository creates a FighterRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewFighterRepository(db *pgxpool.Pool) *FighterRepository {
	return &FighterRepository{db: db}
}

const fighterColumns = `id, name, health, attack, defense, source`

// ListFighters implements fighter.Provider.
//
// Postcondition: Returns fighters ordered by (sort_order, id), or an error
// wrapping fighter.ErrRosterFetchFailed.
func (r *FighterRepository) ListFighters(ctx context.Context) ([]fighter.Fighter, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+fighterColumns+` FROM fighters ORDER BY sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying fighters: %w", fighter.ErrRosterFetchFailed, err)
	}
	defer rows.Close()

	fighters := make([]fighter.Fighter, 0)
	for rows.Next() {
		var f fighter.Fighter
		if err := rows.Scan(&f.ID, &f.Name, &f.Health, &f.Attack, &f.Defense, &f.Source); err != nil {
			return nil, fmt.Errorf("%w: scanning fighter: %w", fighter.ErrRosterFetchFailed, err)
		}
		fighters = append(fighters, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", fighter.ErrRosterFetchFailed, err)
	}
	return fighters, nil
}

// GetFighter implements fighter.Provider.
//
// Postcondition: Returns the fighter, an error wrapping fighter.ErrNotFound,
// or an error wrapping fighter.ErrRosterFetchFailed.
func (r *FighterRepository) GetFighter(ctx context.Context, id string) (fighter.Fighter, error) {
	var f fighter.Fighter
	err := r.db.QueryRow(ctx,
		`SELECT `+fighterColumns+` FROM fighters WHERE id = $1`, id,
	).Scan(&f.ID, &f.Name, &f.Health, &f.Attack, &f.Defense, &f.Source)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fighter.Fighter{}, fmt.Errorf("fighter %q: %w", id, fighter.ErrNotFound)
		}
		return fighter.Fighter{}, fmt.Errorf("%w: querying fighter %q: %w", fighter.ErrRosterFetchFailed, id, err)
	}
	return f, nil
}

// Upsert inserts f or replaces the stored fighter with the same ID.
//
// Precondition: f must pass Validate.
// Postcondition: The row for f.ID holds f's values and display order.
func (r *FighterRepository) Upsert(ctx context.Context, f fighter.Fighter, order int) error {
	if err := f.Validate(); err != nil {
		return err
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO fighters (id, name, health, attack, defense, source, sort_order)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET
		     name = EXCLUDED.name,
		     health = EXCLUDED.health,
		     attack = EXCLUDED.attack,
		     defense = EXCLUDED.defense,
		     source = EXCLUDED.source,
		     sort_order = EXCLUDED.sort_order,
		     updated_at = NOW()`,
		f.ID, f.Name, f.Health, f.Attack, f.Defense, f.Source, order,
	)
	if err != nil {
		return fmt.Errorf("upserting fighter %q: %w", f.ID, err)
	}
	return nil
}

// Delete removes the fighter with id.
//
// Postcondition: Returns an error wrapping fighter.ErrNotFound if no row matched.
func (r *FighterRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM fighters WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting fighter %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("fighter %q: %w", id, fighter.ErrNotFound)
	}
	return nil
}
