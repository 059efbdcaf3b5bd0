// Package lobby tracks the pre-fight selection of the two fighters.
package lobby

import (
	"errors"
	"fmt"
	"slices"

	"github.com/cory-johannsen/arena/internal/game/combat"
	"github.com/cory-johannsen/arena/internal/game/fighter"
)

var (
	// ErrAlreadySelected is returned when a fighter is picked for both sides.
	ErrAlreadySelected = errors.New("fighter already selected")
	// ErrNotReady is returned when a fight is requested before two fighters are chosen.
	ErrNotReady = errors.New("select two fighters first")
)

// Lobby holds up to two distinct selected fighters: the first is the left
// player, the second the right.
// It is not safe for concurrent use.
type Lobby struct {
	selected []fighter.Fighter
}

// New returns an empty Lobby.
func New() *Lobby {
	return &Lobby{}
}

// Select adds f to the selection. Once both slots are filled a new selection
// replaces the most recently selected fighter.
//
// Postcondition: Returns the side f now occupies, or ErrAlreadySelected if f
// is already chosen.
func (l *Lobby) Select(f fighter.Fighter) (combat.Side, error) {
	if slices.ContainsFunc(l.selected, func(s fighter.Fighter) bool { return s.ID == f.ID }) {
		return combat.Left, fmt.Errorf("%s: %w", f.Name, ErrAlreadySelected)
	}
	if len(l.selected) == 2 {
		l.selected[1] = f
		return combat.Right, nil
	}
	l.selected = append(l.selected, f)
	return combat.Side(len(l.selected) - 1), nil
}

// Selected returns a copy of the current selection in side order.
func (l *Lobby) Selected() []fighter.Fighter {
	return slices.Clone(l.selected)
}

// Ready reports whether both sides have a fighter.
func (l *Lobby) Ready() bool { return len(l.selected) == 2 }

// Pair returns the left and right fighters.
//
// Postcondition: Returns ErrNotReady unless Ready().
func (l *Lobby) Pair() (left, right fighter.Fighter, err error) {
	if !l.Ready() {
		return fighter.Fighter{}, fighter.Fighter{}, ErrNotReady
	}
	return l.selected[0], l.selected[1], nil
}

// Refresh replaces selected fighters with their current roster records, and
// drops selections the roster no longer contains.
//
// Postcondition: Returns the number of selections dropped.
func (l *Lobby) Refresh(roster []fighter.Fighter) int {
	byID := make(map[string]fighter.Fighter, len(roster))
	for _, f := range roster {
		byID[f.ID] = f
	}
	kept := l.selected[:0]
	for _, s := range l.selected {
		if f, ok := byID[s.ID]; ok {
			kept = append(kept, f)
		}
	}
	dropped := len(l.selected) - len(kept)
	l.selected = kept
	return dropped
}

// Clear empties the selection for a new game.
func (l *Lobby) Clear() {
	l.selected = nil
}
