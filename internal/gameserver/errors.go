package gameserver

import (
	"errors"

	"github.com/cory-johannsen/arena/internal/game/combat"
	"github.com/cory-johannsen/arena/internal/game/fighter"
	"github.com/cory-johannsen/arena/internal/game/lobby"
)

// Describe maps an arena error to the message shown to players. Errors
// outside the arena's vocabulary are returned as their own text.
func Describe(err error) string {
	switch {
	case errors.Is(err, fighter.ErrRosterFetchFailed):
		return "Failed to load fighters"
	case errors.Is(err, fighter.ErrNotFound):
		return "No such fighter"
	case errors.Is(err, lobby.ErrAlreadySelected):
		return "That fighter is already selected"
	case errors.Is(err, lobby.ErrNotReady):
		return "Select two fighters first"
	case errors.Is(err, ErrMatchInProgress):
		return "A match is in progress"
	case errors.Is(err, combat.ErrInvalidMatchOperation):
		return "No match in progress"
	case errors.Is(err, ErrHubStopped):
		return "The arena is closed"
	}
	return err.Error()
}
