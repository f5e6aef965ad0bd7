// Package logger declares the logging contract shared by every component of
// the simulation. Implementations live in infra/logger.
package logger

// Logger exposes logging methods for common severity levels.
type Logger interface {
	Debugf(format string, args ...any)
	// Debugw logs a message with structured fields.
	Debugw(msg string, fields map[string]any)
	Infof(format string, args ...any)
	// Infow logs a message with structured fields at info level.
	Infow(msg string, fields map[string]any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Or returns l, or fallback when l is nil.
func Or(l, fallback Logger) Logger {
	if l == nil {
		return fallback
	}
	return l
}
