package match

import (
	"github.com/cory-johannsen/arena/internal/game/combat"
	"github.com/cory-johannsen/arena/internal/game/fighter"
)

// EventType identifies what happened in a match.
type EventType int

const (
	EventMatchStarted EventType = iota
	// EventHit is a normal attack that reached damage resolution, possibly for zero.
	EventHit
	// EventBlocked is a normal attack negated by blocking.
	EventBlocked
	EventCritical
	EventBlockChanged
	// EventMatchEnded fires exactly once per match.
	EventMatchEnded
	EventMatchReset
)

// String returns the snake-case event name.
func (t EventType) String() string {
	switch t {
	case EventMatchStarted:
		return "match_started"
	case EventHit:
		return "hit"
	case EventBlocked:
		return "blocked"
	case EventCritical:
		return "critical"
	case EventBlockChanged:
		return "block_changed"
	case EventMatchEnded:
		return "match_ended"
	case EventMatchReset:
		return "match_reset"
	default:
		return "unknown"
	}
}

// Event is one observable state change.
// Side is the acting side; Attacker and Defender are set for hit, blocked and
// critical events and for match start (left, right).
type Event struct {
	Type     EventType
	MatchID  string
	Side     combat.Side
	Attacker fighter.Fighter
	Defender fighter.Fighter
	Damage   float64
	// DefenderHealth is the defender's health after the event.
	DefenderHealth float64
	Blocking       bool
	// Outcome and Winner are set on EventMatchEnded. Winner is nil on a draw.
	Outcome combat.Outcome
	Winner  *fighter.Fighter
}

// Listener is notified synchronously of every Event, in order.
type Listener interface {
	OnMatchEvent(Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Event)

// OnMatchEvent calls f(e).
func (f ListenerFunc) OnMatchEvent(e Event) { f(e) }
