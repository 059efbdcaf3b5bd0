package combat

// ActionType identifies what a side attempted.
// The zero value (ActionUnknown) is intentionally invalid.
type ActionType int

const (
	ActionUnknown  ActionType = iota // zero value; intentionally invalid
	ActionAttack                     // randomized normal attack
	ActionCritical                   // deterministic critical hit, gated by cooldown
)

// String returns the human-readable name of the ActionType.
// Postcondition: returns "attack", "critical", or "unknown".
func (a ActionType) String() string {
	switch a {
	case ActionAttack:
		return "attack"
	case ActionCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Result describes the effect of one attack or critical-hit attempt.
type Result struct {
	Type  ActionType
	Actor Side
	// Applied is true when damage resolution took place (possibly for zero damage).
	Applied bool
	// Damage is the amount subtracted from the target before flooring.
	Damage float64
	// Blocked is true when a normal attack was negated because either side was blocking.
	Blocked bool
	// OnCooldown is true when a critical hit was refused by the cooldown gate.
	OnCooldown bool
	// Ended is true when this action ended the match.
	Ended bool
}
