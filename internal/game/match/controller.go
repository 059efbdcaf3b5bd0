// Package match orchestrates the match lifecycle around the combat engine and
// publishes the events and snapshots that displays consume.
package match

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/game/combat"
	"github.com/cory-johannsen/arena/internal/game/fighter"
)

// ErrDuplicateFighter is returned when both sides would use the same fighter.
var ErrDuplicateFighter = errors.New("a match requires two distinct fighters")

// Options configures a Controller.
type Options struct {
	Engine combat.Options
	// Strict surfaces combat.ErrInvalidMatchOperation instead of swallowing it.
	Strict bool
}

// Controller owns the combat engine for one arena and reports every change to
// its listeners. It implements input.Actor.
// It is not safe for concurrent use; callers serialize access.
type Controller struct {
	provider  fighter.Provider
	engine    *combat.Engine
	strict    bool
	logger    *zap.Logger
	listeners []Listener
}

// NewController creates a Controller that resolves fighters through provider.
//
// Precondition: provider and logger must be non-nil.
// Postcondition: Status() == combat.StatusNotStarted.
func NewController(provider fighter.Provider, opts Options, logger *zap.Logger) *Controller {
	return &Controller{
		provider: provider,
		engine:   combat.NewEngine(opts.Engine),
		strict:   opts.Strict,
		logger:   logger,
	}
}

// AddListener registers l for every subsequent event.
func (c *Controller) AddListener(l Listener) {
	c.listeners = append(c.listeners, l)
}

func (c *Controller) emit(e Event) {
	e.MatchID = c.engine.MatchID()
	for _, l := range c.listeners {
		l.OnMatchEvent(e)
	}
}

// Status returns the lifecycle state of the current match.
func (c *Controller) Status() combat.Status { return c.engine.Status() }

// Cooldown returns the configured critical-hit cooldown.
func (c *Controller) Cooldown() time.Duration { return c.engine.Cooldown() }

// Snapshot returns the display state of the current match.
func (c *Controller) Snapshot() Snapshot { return snapshotOf(c.engine) }

// Start begins a match between left and right, replacing any current match.
//
// Precondition: left.ID != right.ID.
// Postcondition: On success Status() == combat.StatusInProgress and
// EventMatchStarted has been emitted.
func (c *Controller) Start(left, right fighter.Fighter) error {
	if left.ID == right.ID {
		return fmt.Errorf("fighter %q on both sides: %w", left.ID, ErrDuplicateFighter)
	}
	if err := c.engine.Start(left, right); err != nil {
		return err
	}
	c.logger.Info("match started",
		zap.String("match_id", c.engine.MatchID()),
		zap.String("left", left.Name),
		zap.String("right", right.Name),
	)
	c.emit(Event{Type: EventMatchStarted, Side: combat.Left, Attacker: left, Defender: right})
	return nil
}

// StartByID resolves both fighters through the provider and starts a match.
//
// Postcondition: Lookup failures are returned unchanged (fighter.ErrNotFound,
// fighter.ErrRosterFetchFailed) and the current match is untouched.
func (c *Controller) StartByID(ctx context.Context, leftID, rightID string) error {
	if leftID == rightID {
		return fmt.Errorf("fighter %q on both sides: %w", leftID, ErrDuplicateFighter)
	}
	left, err := c.provider.GetFighter(ctx, leftID)
	if err != nil {
		return err
	}
	right, err := c.provider.GetFighter(ctx, rightID)
	if err != nil {
		return err
	}
	return c.Start(left, right)
}

// Reset discards the current match and its winner.
//
// Postcondition: Status() == combat.StatusNotStarted; EventMatchReset emitted.
func (c *Controller) Reset() {
	id := c.engine.MatchID()
	c.engine.Reset()
	c.logger.Debug("match reset", zap.String("match_id", id))
	c.emit(Event{Type: EventMatchReset})
}

// invalid applies the no-op policy to an engine error.
func (c *Controller) invalid(side combat.Side, action string, err error) error {
	if errors.Is(err, combat.ErrInvalidMatchOperation) && !c.strict {
		c.logger.Debug("ignored action", zap.String("side", side.String()), zap.String("action", action), zap.Error(err))
		return nil
	}
	return err
}

// Attack performs a normal attack for side.
//
// Postcondition: Emits EventBlocked or EventHit, then EventMatchEnded if the
// attack ended the match. Returns nil for a not-in-progress match unless strict.
func (c *Controller) Attack(side combat.Side) error {
	res, err := c.engine.Attack(side)
	if err != nil {
		return c.invalid(side, "attack", err)
	}
	c.report(res)
	return nil
}

// CriticalHit performs a critical hit for side.
//
// Postcondition: Emits EventCritical, then EventMatchEnded if the hit ended
// the match. A refused hit on cooldown emits nothing.
func (c *Controller) CriticalHit(side combat.Side) error {
	res, err := c.engine.CriticalHit(side)
	if err != nil {
		return c.invalid(side, "critical", err)
	}
	if res.OnCooldown {
		c.logger.Debug("critical on cooldown",
			zap.String("side", side.String()),
			zap.Duration("remaining", c.engine.CooldownRemaining(side)),
		)
		return nil
	}
	c.report(res)
	return nil
}

// SetBlocking sets side's block flag.
//
// Postcondition: Emits EventBlockChanged when the flag changed.
func (c *Controller) SetBlocking(side combat.Side, active bool) error {
	was := c.engine.IsBlocking(side)
	if err := c.engine.SetBlocking(side, active); err != nil {
		return c.invalid(side, "block", err)
	}
	if was != active {
		c.emit(Event{Type: EventBlockChanged, Side: side, Blocking: active})
	}
	return nil
}

// IsBlocking reports whether side is blocking.
func (c *Controller) IsBlocking(side combat.Side) bool { return c.engine.IsBlocking(side) }

// OnCooldown reports whether side's critical hit is on cooldown.
func (c *Controller) OnCooldown(side combat.Side) bool { return c.engine.OnCooldown(side) }

func (c *Controller) report(res combat.Result) {
	attacker := c.engine.Combatant(res.Actor)
	defender := c.engine.Combatant(res.Actor.Opponent())
	e := Event{
		Side:           res.Actor,
		Attacker:       attacker.Fighter,
		Defender:       defender.Fighter,
		Damage:         res.Damage,
		DefenderHealth: defender.Health,
	}
	switch {
	case res.Blocked:
		e.Type = EventBlocked
	case res.Type == combat.ActionCritical:
		e.Type = EventCritical
	default:
		e.Type = EventHit
	}
	c.emit(e)
	if res.Ended {
		c.ended()
	}
}

func (c *Controller) ended() {
	out, _ := c.engine.Outcome()
	e := Event{Type: EventMatchEnded, Outcome: out}
	fields := []zap.Field{zap.String("match_id", c.engine.MatchID())}
	if out.Draw {
		fields = append(fields, zap.Bool("draw", true))
	} else {
		w := c.engine.Combatant(out.Winner).Fighter
		e.Side = out.Winner
		e.Winner = &w
		fields = append(fields, zap.String("winner", w.Name), zap.Float64("remaining", out.Remaining))
	}
	c.logger.Info("match ended", fields...)
	c.emit(e)
}
