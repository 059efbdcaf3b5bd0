package fighter

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrNotFound is returned when a roster lookup misses.
var ErrNotFound = errors.New("fighter not found")

// ErrRosterFetchFailed is returned when the roster backend cannot be read.
var ErrRosterFetchFailed = errors.New("failed to fetch fighters")

// Provider supplies selectable fighters. Implementations may be backed by
// memory, files, or a network service and MUST be safe for concurrent use.
type Provider interface {
	// ListFighters returns the roster in display order.
	ListFighters(ctx context.Context) ([]Fighter, error)
	// GetFighter returns the fighter with id, or an error wrapping ErrNotFound.
	GetFighter(ctx context.Context, id string) (Fighter, error)
}

// MemoryRoster is an in-memory Provider whose contents can be swapped atomically.
type MemoryRoster struct {
	mu       sync.RWMutex
	fighters []Fighter
	byID     map[string]int
}

// NewMemoryRoster creates a MemoryRoster holding fighters in the given order.
//
// Precondition: every fighter must pass Validate and IDs must be unique.
// Postcondition: Returns a populated roster or a non-nil error.
func NewMemoryRoster(fighters []Fighter) (*MemoryRoster, error) {
	r := &MemoryRoster{}
	if err := r.Replace(fighters); err != nil {
		return nil, err
	}
	return r, nil
}

// Replace swaps the roster contents. On error the previous contents are kept.
//
// Precondition: every fighter must pass Validate and IDs must be unique.
// Postcondition: Returns nil and the roster reflects fighters, or an error and the roster is unchanged.
func (r *MemoryRoster) Replace(fighters []Fighter) error {
	byID := make(map[string]int, len(fighters))
	cp := make([]Fighter, len(fighters))
	for i, f := range fighters {
		if err := f.Validate(); err != nil {
			return err
		}
		if _, dup := byID[f.ID]; dup {
			return fmt.Errorf("fighter: duplicate id %q", f.ID)
		}
		byID[f.ID] = i
		cp[i] = f
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.fighters = cp
	r.byID = byID
	return nil
}

// ListFighters implements Provider.
//
// Postcondition: Returns a copy of the roster; callers may modify it freely.
func (r *MemoryRoster) ListFighters(ctx context.Context) ([]Fighter, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRosterFetchFailed, err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	cp := make([]Fighter, len(r.fighters))
	copy(cp, r.fighters)
	return cp, nil
}

// GetFighter implements Provider.
//
// Postcondition: Returns the fighter, or an error wrapping ErrNotFound.
func (r *MemoryRoster) GetFighter(ctx context.Context, id string) (Fighter, error) {
	if err := ctx.Err(); err != nil {
		return Fighter{}, fmt.Errorf("%w: %w", ErrRosterFetchFailed, err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.byID[id]
	if !ok {
		return Fighter{}, fmt.Errorf("fighter %q: %w", id, ErrNotFound)
	}
	return r.fighters[i], nil
}

// Len returns the number of fighters in the roster.
func (r *MemoryRoster) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.fighters)
}
