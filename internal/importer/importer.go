package importer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/game/fighter"
)

// Sink stores imported fighters. postgres.FighterRepository satisfies it.
type Sink interface {
	Upsert(ctx context.Context, f fighter.Fighter, order int) error
}

// Importer orchestrates roster import from a Source to a Sink.
type Importer struct {
	source Source
	sink   Sink
	logger *zap.Logger
}

// New constructs an Importer.
//
// Precondition: source, sink and logger must be non-nil.
// Postcondition: returns a non-nil Importer.
func New(source Source, sink Sink, logger *zap.Logger) *Importer {
	return &Importer{source: source, sink: sink, logger: logger}
}

// Run loads entries from path, validates all of them, then upserts each into
// the sink. Nothing is written unless every entry is valid and IDs are unique.
//
// Postcondition: returns the number of fighters written, or an error naming
// the first offending fighter.
func (imp *Importer) Run(ctx context.Context, path string) (int, error) {
	overall := time.Now()

	entries, err := imp.source.Load(path)
	if err != nil {
		return 0, fmt.Errorf("loading source: %w", err)
	}
	if len(entries) == 0 {
		return 0, fmt.Errorf("source %s contains no fighters", path)
	}

	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if err := e.Fighter.Validate(); err != nil {
			return 0, err
		}
		if _, dup := seen[e.Fighter.ID]; dup {
			return 0, fmt.Errorf("fighter %q: duplicate id", e.Fighter.ID)
		}
		seen[e.Fighter.ID] = struct{}{}
	}
	imp.logger.Info("roster loaded", zap.String("path", path), zap.Int("fighters", len(entries)))

	for i, e := range entries {
		if err := imp.sink.Upsert(ctx, e.Fighter, e.Order); err != nil {
			return i, fmt.Errorf("writing fighter %q: %w", e.Fighter.ID, err)
		}
		imp.logger.Debug("fighter written",
			zap.String("id", e.Fighter.ID),
			zap.String("name", e.Fighter.Name),
			zap.Int("order", e.Order),
		)
	}

	imp.logger.Info("roster import complete",
		zap.Int("fighters", len(entries)),
		zap.Duration("elapsed", time.Since(overall)),
	)
	return len(entries), nil
}
