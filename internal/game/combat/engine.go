package combat

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/fighter"
)

// DefaultCriticalCooldown is the window after a critical hit during which the
// same side cannot land another.
const DefaultCriticalCooldown = 10 * time.Second

// ErrInvalidMatchOperation is returned when an action targets a match that is
// not in progress.
var ErrInvalidMatchOperation = errors.New("match is not in progress")

// ErrUnknownSide is returned when a Side value is neither Left nor Right.
var ErrUnknownSide = errors.New("unknown side")

// Status is the lifecycle state of a match.
type Status int

const (
	StatusNotStarted Status = iota
	StatusInProgress
	StatusEnded
)

// String returns the snake-case name of the status.
func (s Status) String() string {
	switch s {
	case StatusNotStarted:
		return "not_started"
	case StatusInProgress:
		return "in_progress"
	case StatusEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// KOPolicy decides the outcome when both sides reach zero health together.
type KOPolicy int

const (
	// KODraw records no winner.
	KODraw KOPolicy = iota
	// KORightWins awards the match to the right side.
	KORightWins
)

// ParseKOPolicy converts "draw" or "right" into a KOPolicy.
//
// Postcondition: Returns the matching policy or an error.
func ParseKOPolicy(s string) (KOPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "draw", "":
		return KODraw, nil
	case "right":
		return KORightWins, nil
	default:
		return KODraw, fmt.Errorf("unknown simultaneous KO policy %q", s)
	}
}

// Clock supplies the current time. Tests substitute a manual clock.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// Options configures an Engine. Zero fields fall back to defaults.
type Options struct {
	// Cooldown is the critical-hit cooldown; zero means DefaultCriticalCooldown.
	Cooldown time.Duration
	KOPolicy KOPolicy
	// Clock defaults to SystemClock.
	Clock Clock
	// Source defaults to dice.NewCryptoSource().
	Source dice.Source
}

// Outcome describes how an ended match was decided.
type Outcome struct {
	Winner Side
	// Draw is true when both sides fell together under KODraw; Winner is then meaningless.
	Draw bool
	// Remaining is the winner's health at the moment the match ended.
	Remaining float64
}

// Engine is the two-sided combat state machine.
// It is not safe for concurrent use; callers serialize access.
type Engine struct {
	opts       Options
	matchID    string
	status     Status
	combatants [2]*Combatant
	outcome    Outcome
}

// NewEngine creates an Engine in StatusNotStarted.
//
// Postcondition: Status() == StatusNotStarted; opts zero fields are defaulted.
func NewEngine(opts Options) *Engine {
	if opts.Cooldown <= 0 {
		opts.Cooldown = DefaultCriticalCooldown
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Source == nil {
		opts.Source = dice.NewCryptoSource()
	}
	return &Engine{opts: opts}
}

// Start begins a new match between left and right.
// Both combatants start at full health with blocking and cooldowns cleared.
//
// Precondition: left and right must pass fighter.Validate.
// Postcondition: On success Status() == StatusInProgress and MatchID() is a fresh UUID.
func (e *Engine) Start(left, right fighter.Fighter) error {
	if err := left.Validate(); err != nil {
		return fmt.Errorf("left fighter: %w", err)
	}
	if err := right.Validate(); err != nil {
		return fmt.Errorf("right fighter: %w", err)
	}
	e.combatants = [2]*Combatant{NewCombatant(left), NewCombatant(right)}
	e.matchID = uuid.New().String()
	e.outcome = Outcome{}
	e.status = StatusInProgress
	return nil
}

// Reset returns the engine to StatusNotStarted, discarding both combatants and the outcome.
//
// Postcondition: Status() == StatusNotStarted; Combatant returns nil for both sides.
func (e *Engine) Reset() {
	e.combatants = [2]*Combatant{}
	e.matchID = ""
	e.outcome = Outcome{}
	e.status = StatusNotStarted
}

// Status returns the current lifecycle state.
func (e *Engine) Status() Status { return e.status }

// MatchID returns the identifier assigned by Start, or "" before the first Start.
func (e *Engine) MatchID() string { return e.matchID }

// Cooldown returns the configured critical-hit cooldown.
func (e *Engine) Cooldown() time.Duration { return e.opts.Cooldown }

// Now returns the engine clock's current time.
func (e *Engine) Now() time.Time { return e.opts.Clock.Now() }

// Combatant returns the state for side, or nil when no match has been started.
func (e *Engine) Combatant(side Side) *Combatant {
	if side != Left && side != Right {
		return nil
	}
	return e.combatants[side]
}

// Outcome returns the decided outcome and true once the match has ended.
func (e *Engine) Outcome() (Outcome, bool) {
	if e.status != StatusEnded {
		return Outcome{}, false
	}
	return e.outcome, true
}

// IsBlocking reports whether side currently holds its block.
func (e *Engine) IsBlocking(side Side) bool {
	c := e.Combatant(side)
	return c != nil && c.Blocking
}

// OnCooldown reports whether side's critical hit is currently on cooldown.
func (e *Engine) OnCooldown(side Side) bool {
	c := e.Combatant(side)
	return c != nil && c.OnCooldown(e.opts.Clock.Now())
}

// CooldownRemaining returns the time left on side's cooldown, or zero.
func (e *Engine) CooldownRemaining(side Side) time.Duration {
	c := e.Combatant(side)
	if c == nil {
		return 0
	}
	return c.CooldownRemaining(e.opts.Clock.Now())
}

func (e *Engine) act(side Side) error {
	if side != Left && side != Right {
		return fmt.Errorf("%w: %d", ErrUnknownSide, int(side))
	}
	if e.status != StatusInProgress {
		return fmt.Errorf("%s: %w", e.status, ErrInvalidMatchOperation)
	}
	return nil
}

// Attack resolves a normal attack by side against its opponent.
// The attack is negated when either side is blocking.
//
// Postcondition: On success the opponent's health is reduced by NormalDamage,
// floored at zero; the match ends if it reaches zero.
// Returns ErrInvalidMatchOperation when the match is not in progress.
func (e *Engine) Attack(side Side) (Result, error) {
	res := Result{Type: ActionAttack, Actor: side}
	if err := e.act(side); err != nil {
		return res, err
	}
	attacker := e.combatants[side]
	defender := e.combatants[side.Opponent()]
	if attacker.Blocking || defender.Blocking {
		res.Blocked = true
		return res, nil
	}
	res.Damage = NormalDamage(attacker.Fighter, defender.Fighter, e.opts.Source)
	res.Applied = true
	defender.ApplyDamage(res.Damage)
	res.Ended = e.checkEnd()
	return res, nil
}

// SetBlocking sets side's blocking flag. It takes effect on the next Attack.
//
// Postcondition: IsBlocking(side) == active.
// Returns ErrInvalidMatchOperation when the match is not in progress.
func (e *Engine) SetBlocking(side Side, active bool) error {
	if err := e.act(side); err != nil {
		return err
	}
	e.combatants[side].Blocking = active
	return nil
}

// CriticalHit resolves a critical hit by side. It ignores blocking and the
// opponent's defense and is refused while side is on cooldown.
//
// Postcondition: On success the opponent loses CriticalDamage(attack), floored
// at zero, and side's cooldown runs until now + Cooldown().
// Returns ErrInvalidMatchOperation when the match is not in progress.
func (e *Engine) CriticalHit(side Side) (Result, error) {
	res := Result{Type: ActionCritical, Actor: side}
	if err := e.act(side); err != nil {
		return res, err
	}
	attacker := e.combatants[side]
	now := e.opts.Clock.Now()
	if attacker.OnCooldown(now) {
		res.OnCooldown = true
		return res, nil
	}
	res.Damage = CriticalDamage(attacker.Fighter.Attack)
	res.Applied = true
	attacker.CooldownUntil = now.Add(e.opts.Cooldown)
	e.combatants[side.Opponent()].ApplyDamage(res.Damage)
	res.Ended = e.checkEnd()
	return res, nil
}

// checkEnd moves the engine to StatusEnded when either side is at zero health.
func (e *Engine) checkEnd() bool {
	left, right := e.combatants[Left], e.combatants[Right]
	switch {
	case left.IsDefeated() && right.IsDefeated():
		if e.opts.KOPolicy == KORightWins {
			e.outcome = Outcome{Winner: Right, Remaining: right.Health}
		} else {
			e.outcome = Outcome{Draw: true}
		}
	case left.IsDefeated():
		e.outcome = Outcome{Winner: Right, Remaining: right.Health}
	case right.IsDefeated():
		e.outcome = Outcome{Winner: Left, Remaining: left.Health}
	default:
		return false
	}
	e.status = StatusEnded
	return true
}
