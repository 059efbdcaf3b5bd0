package dice

import "go.uber.org/zap"

// LoggedSource wraps a Source and logs every draw at debug level, giving an
// audit trail of the randomness that decided each exchange.
type LoggedSource struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedSource creates a LoggedSource drawing from src and logging to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedSource(src Source, logger *zap.Logger) *LoggedSource {
	return &LoggedSource{src: src, logger: logger}
}

// Float64 draws from the wrapped source and logs the value.
//
// Postcondition: Returns the wrapped source's value unchanged.
func (l *LoggedSource) Float64() float64 {
	v := l.src.Float64()
	l.logger.Debug("random draw", zap.Float64("value", v))
	return v
}
