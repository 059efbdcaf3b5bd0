package match

import (
	"fmt"

	"github.com/cory-johannsen/arena/internal/game/combat"
	"github.com/cory-johannsen/arena/internal/game/fighter"
)

// HealthBand is the colour class of a health bar.
type HealthBand string

const (
	BandGreen  HealthBand = "green"
	BandYellow HealthBand = "yellow"
	BandRed    HealthBand = "red"
)

// BandFor classifies a health fraction: above 0.6 green, above 0.3 yellow, else red.
func BandFor(fraction float64) HealthBand {
	switch {
	case fraction > 0.6:
		return BandGreen
	case fraction > 0.3:
		return BandYellow
	default:
		return BandRed
	}
}

// SideSnapshot is the display state of one side.
type SideSnapshot struct {
	Side      string          `json:"side"`
	Fighter   fighter.Fighter `json:"fighter"`
	Health    float64         `json:"health"`
	MaxHealth float64         `json:"max_health"`
	Fraction  float64         `json:"fraction"`
	Band      HealthBand      `json:"band"`
	Blocking  bool            `json:"blocking"`
	Cooldown  bool            `json:"cooldown"`
	// CooldownMS is the cooldown time remaining in milliseconds.
	CooldownMS int64 `json:"cooldown_ms"`
}

// HealthText formats health with one decimal, e.g. "55.0 / 95.0".
func (s SideSnapshot) HealthText() string {
	return fmt.Sprintf("%.1f / %.1f", s.Health, s.MaxHealth)
}

// Winner is the result shown when a match ends.
type Winner struct {
	Side      string          `json:"side"`
	Fighter   fighter.Fighter `json:"fighter"`
	Remaining float64         `json:"remaining"`
}

// Snapshot is the display surface of a match: everything a renderer needs
// and nothing it could mutate.
type Snapshot struct {
	MatchID string `json:"match_id,omitempty"`
	Status  string `json:"status"`
	// Left and Right are nil before the first Start and after Reset.
	Left   *SideSnapshot `json:"left,omitempty"`
	Right  *SideSnapshot `json:"right,omitempty"`
	Winner *Winner       `json:"winner,omitempty"`
	Draw   bool          `json:"draw"`
}

// Side returns the snapshot of side, or nil.
func (s Snapshot) Side(side combat.Side) *SideSnapshot {
	if side == combat.Right {
		return s.Right
	}
	return s.Left
}

// InProgress reports whether the match accepts actions.
func (s Snapshot) InProgress() bool { return s.Status == combat.StatusInProgress.String() }

// Announcement returns the end-of-match text, or "" while undecided.
func (s Snapshot) Announcement() string {
	switch {
	case s.Draw:
		return "DRAW! Both fighters are down"
	case s.Winner != nil:
		return fmt.Sprintf("WINNER! %s Remaining Health: %.1f", s.Winner.Fighter.Name, s.Winner.Remaining)
	default:
		return ""
	}
}

func snapshotOf(eng *combat.Engine) Snapshot {
	snap := Snapshot{MatchID: eng.MatchID(), Status: eng.Status().String()}
	if eng.Combatant(combat.Left) == nil {
		return snap
	}
	side := func(s combat.Side) *SideSnapshot {
		c := eng.Combatant(s)
		frac := c.HealthFraction()
		return &SideSnapshot{
			Side:       s.String(),
			Fighter:    c.Fighter,
			Health:     c.Health,
			MaxHealth:  c.MaxHealth(),
			Fraction:   frac,
			Band:       BandFor(frac),
			Blocking:   c.Blocking,
			Cooldown:   eng.OnCooldown(s),
			CooldownMS: eng.CooldownRemaining(s).Milliseconds(),
		}
	}
	snap.Left, snap.Right = side(combat.Left), side(combat.Right)
	if out, ended := eng.Outcome(); ended {
		if out.Draw {
			snap.Draw = true
		} else {
			snap.Winner = &Winner{
				Side:      out.Winner.String(),
				Fighter:   eng.Combatant(out.Winner).Fighter,
				Remaining: out.Remaining,
			}
		}
	}
	return snap
}
