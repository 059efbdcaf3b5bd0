// Package input maps raw key-down and key-up events onto combat actions for
// the two sides sharing one keyboard.
package input

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/cory-johannsen/arena/internal/game/combat"
)

// ComboSize is the number of keys in a critical-hit combination.
const ComboSize = 3

// Binding is the static key mapping for one side. Keys use KeyboardEvent.code
// names such as "KeyA".
type Binding struct {
	Attack   string            `mapstructure:"attack" json:"attack"`
	Block    string            `mapstructure:"block" json:"block"`
	Critical [ComboSize]string `mapstructure:"critical" json:"critical"`
}

// Keys returns every key of the binding: attack, block, then the combo.
func (b Binding) Keys() []string {
	keys := []string{b.Attack, b.Block}
	return append(keys, b.Critical[:]...)
}

// Hint renders the binding as a short control legend, e.g. "A attack, D block, Q+W+E critical".
func (b Binding) Hint() string {
	combo := make([]string, 0, ComboSize)
	for _, k := range b.Critical {
		combo = append(combo, DisplayKey(k))
	}
	return fmt.Sprintf("%s attack, %s block, %s critical",
		DisplayKey(b.Attack), DisplayKey(b.Block), strings.Join(combo, "+"))
}

// Controls holds the bindings for both sides.
type Controls struct {
	Left  Binding `mapstructure:"left" json:"left"`
	Right Binding `mapstructure:"right" json:"right"`
}

// DefaultControls returns the stock layout: the left player on A/D with
// Q+W+E, the right player on J/L with U+I+O.
func DefaultControls() Controls {
	return Controls{
		Left: Binding{
			Attack:   "KeyA",
			Block:    "KeyD",
			Critical: [ComboSize]string{"KeyQ", "KeyW", "KeyE"},
		},
		Right: Binding{
			Attack:   "KeyJ",
			Block:    "KeyL",
			Critical: [ComboSize]string{"KeyU", "KeyI", "KeyO"},
		},
	}
}

// For returns the binding of side.
func (c Controls) For(side combat.Side) Binding {
	if side == combat.Right {
		return c.Right
	}
	return c.Left
}

// Normalized returns a copy with every key passed through NormalizeKey.
func (c Controls) Normalized() Controls {
	norm := func(b Binding) Binding {
		out := Binding{Attack: NormalizeKey(b.Attack), Block: NormalizeKey(b.Block)}
		for i, k := range b.Critical {
			out.Critical[i] = NormalizeKey(k)
		}
		return out
	}
	return Controls{Left: norm(c.Left), Right: norm(c.Right)}
}

// Validate checks that every key is set and that no key is bound twice,
// within a side or across sides.
//
// Postcondition: Returns nil iff all keys are non-empty and pairwise distinct.
func (c Controls) Validate() error {
	var errs []string
	seen := make(map[string]string)
	for _, side := range combat.Sides {
		b := c.Normalized().For(side)
		roles := []string{"attack", "block", "critical[0]", "critical[1]", "critical[2]"}
		for i, k := range b.Keys() {
			role := side.String() + "." + roles[i]
			if k == "" {
				errs = append(errs, role+" must not be empty")
				continue
			}
			if prev, dup := seen[k]; dup {
				errs = append(errs, fmt.Sprintf("%s key %q already bound to %s", role, k, prev))
				continue
			}
			seen[k] = role
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("controls: %s", strings.Join(errs, "; "))
	}
	return nil
}

// NormalizeKey converts loose key names into KeyboardEvent.code form:
// "a" and "keya" become "KeyA", "5" becomes "Digit5". Other names are
// returned trimmed and otherwise unchanged.
func NormalizeKey(key string) string {
	key = strings.TrimSpace(key)
	runes := []rune(key)
	switch {
	case len(runes) == 1 && unicode.IsLetter(runes[0]):
		return "Key" + string(unicode.ToUpper(runes[0]))
	case len(runes) == 1 && unicode.IsDigit(runes[0]):
		return "Digit" + key
	case len(runes) == 4 && strings.EqualFold(key[:3], "key") && unicode.IsLetter(runes[3]):
		return "Key" + string(unicode.ToUpper(runes[3]))
	}
	return key
}

// DisplayKey is the inverse of NormalizeKey for display: "KeyA" becomes "A".
func DisplayKey(code string) string {
	switch {
	case len(code) == 4 && strings.HasPrefix(code, "Key"):
		return code[3:]
	case len(code) == 6 && strings.HasPrefix(code, "Digit"):
		return code[5:]
	}
	return code
}
