package dice

import "go.uber.org/zap"

// LoggedSource wraps a Source and logs every draw at debug level.
type LoggedSource struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedSource creates a LoggedSource that draws from src and logs to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedSource(src Source, logger *zap.Logger) *LoggedSource {
	return &LoggedSource{src: src, logger: logger}
}

// Intn draws from the wrapped source and logs the bound and the result.
func (l *LoggedSource) Intn(n int) int {
	v := l.src.Intn(n)
	l.logger.Debug("random draw", zap.Int("n", n), zap.Int("value", v))
	return v
}

// Between draws a value in [low, high] and logs it with purpose.
//
// Postcondition: result logged; low <= result.Value <= high.
func (l *LoggedSource) Between(purpose string, low, high int) Roll {
	r := Roll{Purpose: purpose, Low: low, High: high, Value: Between(l.src, low, high)}
	l.logger.Debug("roll",
		zap.String("purpose", r.Purpose),
		zap.Int("low", r.Low),
		zap.Int("high", r.High),
		zap.Int("value", r.Value),
	)
	return r
}
