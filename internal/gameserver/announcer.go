package gameserver

import (
	"github.com/cory-johannsen/arena/internal/game/combat"
	"github.com/cory-johannsen/arena/internal/game/fighter"
	"github.com/cory-johannsen/arena/internal/game/match"
	"github.com/cory-johannsen/arena/internal/scripting"
)

// Announcer turns match events into commentary lines.
// scripting.Manager is the production implementation.
type Announcer interface {
	Announce(hook string, args ...any) string
}

// Hook names called on the announcer.
const (
	HookMatchStart = "on_match_start"
	HookHit        = "on_hit"
	HookBlocked    = "on_block"
	HookCritical   = "on_critical"
	HookMatchEnd   = "on_match_end"
)

// announce maps e onto its hook and returns the announcer's line, or "".
// snap is the state after the event.
func announce(a Announcer, e match.Event, snap match.Snapshot) string {
	info := func(f fighter.Fighter, side combat.Side) scripting.FighterInfo {
		fi := scripting.FighterInfo{
			Name:      f.Name,
			Side:      side.String(),
			Health:    f.Health,
			MaxHealth: f.Health,
			Attack:    f.Attack,
			Defense:   f.Defense,
		}
		if s := snap.Side(side); s != nil {
			fi.Health = s.Health
		}
		return fi
	}
	attacker := func() scripting.FighterInfo { return info(e.Attacker, e.Side) }
	defender := func() scripting.FighterInfo { return info(e.Defender, e.Side.Opponent()) }

	switch e.Type {
	case match.EventMatchStarted:
		return a.Announce(HookMatchStart, attacker(), defender())
	case match.EventHit:
		return a.Announce(HookHit, attacker(), defender(), e.Damage)
	case match.EventBlocked:
		return a.Announce(HookBlocked, attacker(), defender())
	case match.EventCritical:
		return a.Announce(HookCritical, attacker(), defender(), e.Damage)
	case match.EventMatchEnded:
		if e.Winner == nil {
			return a.Announce(HookMatchEnd, nil, 0.0, true)
		}
		return a.Announce(HookMatchEnd, info(*e.Winner, e.Side), e.Outcome.Remaining, false)
	default:
		return ""
	}
}
