// Package fighter defines the immutable fighter template and the roster
// providers that supply fighters for selection.
package fighter

import (
	"errors"
	"fmt"
)

// Fighter is an immutable template of combat stats and display data.
//
// Invariant: a loaded Fighter has non-empty ID and Name, Health > 0, and
// non-negative Attack and Defense.
type Fighter struct {
	ID      string  `yaml:"id" json:"id"`
	Name    string  `yaml:"name" json:"name"`
	Health  float64 `yaml:"health" json:"health"`
	Attack  float64 `yaml:"attack" json:"attack"`
	Defense float64 `yaml:"defense" json:"defense"`
	// Source is the image reference: a URL or a local file path.
	Source string `yaml:"source" json:"source"`
}

// Validate checks the fighter invariants.
//
// Postcondition: Returns nil iff all invariants hold; otherwise an error naming the first violation.
func (f Fighter) Validate() error {
	if f.ID == "" {
		return errors.New("fighter: id must not be empty")
	}
	if f.Name == "" {
		return fmt.Errorf("fighter %q: name must not be empty", f.ID)
	}
	if f.Health <= 0 {
		return fmt.Errorf("fighter %q: health must be > 0, got %v", f.ID, f.Health)
	}
	if f.Attack < 0 {
		return fmt.Errorf("fighter %q: attack must be >= 0, got %v", f.ID, f.Attack)
	}
	if f.Defense < 0 {
		return fmt.Errorf("fighter %q: defense must be >= 0, got %v", f.ID, f.Defense)
	}
	return nil
}
