// Package dice provides the randomness abstraction used by the combat engine's
// damage model.
package dice

import "fmt"

// Source is the randomness provider for damage draws.
//
// Implementations shared between goroutines must be safe for concurrent use.
type Source interface {
	// Float64 returns a uniformly distributed float in [0, 1).
	Float64() float64
}

// Sequence is a deterministic Source that replays a fixed list of values,
// wrapping around when exhausted. It is intended for tests and replays and is
// not safe for concurrent use.
//
// Invariant: every stored value is in [0, 1).
type Sequence struct {
	values []float64
	next   int
}

// NewSequence returns a Sequence over values.
//
// Precondition: len(values) >= 1 and every value is in [0, 1).
// Postcondition: Returns a Sequence or an error describing the first invalid value.
func NewSequence(values ...float64) (*Sequence, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("dice: sequence must contain at least one value")
	}
	for i, v := range values {
		if v < 0 || v >= 1 {
			return nil, fmt.Errorf("dice: sequence value %d (%v) outside [0, 1)", i, v)
		}
	}
	cp := make([]float64, len(values))
	copy(cp, values)
	return &Sequence{values: cp}, nil
}

// MustSequence is NewSequence that panics on invalid input. Useful in tests.
func MustSequence(values ...float64) *Sequence {
	s, err := NewSequence(values...)
	if err != nil {
		panic(err.Error())
	}
	return s
}

// Float64 returns the next value of the sequence.
//
// Postcondition: Returns a value in [0, 1).
func (s *Sequence) Float64() float64 {
	v := s.values[s.next]
	s.next = (s.next + 1) % len(s.values)
	return v
}
