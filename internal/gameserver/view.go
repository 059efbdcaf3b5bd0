package gameserver

import (
	"github.com/cory-johannsen/arena/internal/game/fighter"
	"github.com/cory-johannsen/arena/internal/game/match"
)

// ControlHints are the per-side key legends shown under each health bar.
type ControlHints struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// View is everything a display needs to draw the arena.
type View struct {
	Match      match.Snapshot    `json:"match"`
	Selected   []fighter.Fighter `json:"selected"`
	Commentary []string          `json:"commentary"`
	Controls   ControlHints      `json:"controls"`
}

// CanFight reports whether the fight button should be enabled.
func (v View) CanFight() bool {
	return len(v.Selected) == 2 && !v.Match.InProgress()
}
