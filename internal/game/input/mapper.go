package input

import (
	"errors"
	"fmt"
	"slices"

	"github.com/cory-johannsen/arena/internal/game/combat"
)

// Actor receives the combat actions produced by the Mapper.
// match.Controller is the production implementation.
type Actor interface {
	Attack(side combat.Side) error
	SetBlocking(side combat.Side, active bool) error
	CriticalHit(side combat.Side) error
	IsBlocking(side combat.Side) bool
	OnCooldown(side combat.Side) bool
}

type role int

const (
	roleAttack role = iota
	roleBlock
	roleCombo
)

type binding struct {
	side combat.Side
	role role
}

// Mapper translates key events into Actor calls. Each key belongs to at most
// one side, so one side's keys never act for the other.
// It is not safe for concurrent use; the hosting event loop serializes calls.
type Mapper struct {
	actor    Actor
	controls Controls
	keys     map[string]binding
	// held is the ordered set of combo keys currently down, per side.
	held [2][]string
}

// NewMapper builds a Mapper over controls.
//
// Precondition: actor must be non-nil.
// Postcondition: Returns an error if controls.Validate fails.
func NewMapper(actor Actor, controls Controls) (*Mapper, error) {
	if actor == nil {
		return nil, errors.New("input: actor must not be nil")
	}
	controls = controls.Normalized()
	if err := controls.Validate(); err != nil {
		return nil, err
	}
	m := &Mapper{actor: actor, controls: controls, keys: make(map[string]binding)}
	for _, side := range combat.Sides {
		b := controls.For(side)
		m.keys[b.Attack] = binding{side, roleAttack}
		m.keys[b.Block] = binding{side, roleBlock}
		for _, k := range b.Critical {
			m.keys[k] = binding{side, roleCombo}
		}
	}
	return m, nil
}

// Controls returns the normalized bindings in use.
func (m *Mapper) Controls() Controls { return m.controls }

// Owner reports which side a key belongs to.
func (m *Mapper) Owner(code string) (combat.Side, bool) {
	b, ok := m.keys[NormalizeKey(code)]
	return b.side, ok
}

// Held returns a copy of side's currently held combo keys in press order.
func (m *Mapper) Held(side combat.Side) []string {
	if side != combat.Left && side != combat.Right {
		return nil
	}
	return slices.Clone(m.held[side])
}

// KeyDown handles a key press. Unbound keys are ignored. Repeated key-down
// events for a held key each trigger an attack attempt.
//
// Postcondition: Returns the joined errors of any Actor calls made.
func (m *Mapper) KeyDown(code string) error {
	code = NormalizeKey(code)
	b, ok := m.keys[code]
	if !ok {
		return nil
	}
	switch {
	case b.role == roleAttack && !m.actor.IsBlocking(b.side):
		return m.actor.Attack(b.side)
	case b.role == roleBlock:
		return m.actor.SetBlocking(b.side, true)
	case b.role == roleCombo:
		return m.pressCombo(b.side, code)
	}
	return nil
}

func (m *Mapper) pressCombo(side combat.Side, code string) error {
	if !slices.Contains(m.held[side], code) {
		m.held[side] = append(m.held[side], code)
	}
	if len(m.held[side]) < ComboSize || m.actor.OnCooldown(side) {
		return nil
	}
	m.held[side] = m.held[side][:0]
	if err := m.actor.CriticalHit(side); err != nil {
		return fmt.Errorf("%s critical: %w", side, err)
	}
	return nil
}

// KeyUp handles a key release. Unbound keys are ignored.
//
// Postcondition: Releasing a block key clears blocking; releasing a combo key
// removes it from the held set.
func (m *Mapper) KeyUp(code string) error {
	code = NormalizeKey(code)
	b, ok := m.keys[code]
	if !ok {
		return nil
	}
	switch b.role {
	case roleBlock:
		return m.actor.SetBlocking(b.side, false)
	case roleCombo:
		m.held[b.side] = slices.DeleteFunc(m.held[b.side], func(k string) bool { return k == code })
	}
	return nil
}

// Tap presses and releases a key.
//
// Postcondition: Returns the joined errors of both halves.
func (m *Mapper) Tap(code string) error {
	return errors.Join(m.KeyDown(code), m.KeyUp(code))
}

// Combo presses side's three combo keys in order and then releases them.
func (m *Mapper) Combo(side combat.Side) error {
	b := m.controls.For(side)
	var errs []error
	for _, k := range b.Critical {
		errs = append(errs, m.KeyDown(k))
	}
	for _, k := range b.Critical {
		errs = append(errs, m.KeyUp(k))
	}
	return errors.Join(errs...)
}

// Reset forgets every held combo key.
func (m *Mapper) Reset() {
	m.held = [2][]string{}
}
