package extensions

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	statehooks "github.com/devesharp/statehooks"
)

// LoggingExtension logs all operations
type LoggingExtension struct {
	statehooks.BaseExtension
	logger zerolog.Logger
	level  zerolog.Level
}

// NewLoggingExtension creates a logging extension writing to logger.
// Operations are logged at debug level, failures at warn level.
func NewLoggingExtension(logger zerolog.Logger) *LoggingExtension {
	return &LoggingExtension{
		BaseExtension: statehooks.NewBaseExtension("logging"),
		logger:        logger,
		level:         zerolog.DebugLevel,
	}
}

// WithLevel sets the level used for operations that succeed
func (e *LoggingExtension) WithLevel(level zerolog.Level) *LoggingExtension {
	e.level = level
	return e
}

// Order runs logging outside every other extension
func (e *LoggingExtension) Order() int {
	return 10
}

func (e *LoggingExtension) Wrap(ctx context.Context, next func() (any, error), op *statehooks.Operation) (any, error) {
	log := e.logger.With().
		Str("op", string(op.Kind)).
		Str("key", op.Key).
		Str("run_id", op.RunID).
		Logger()

	start := time.Now()
	log.WithLevel(e.level).Msg("operation starting")
	result, err := next()

	duration := time.Since(start)
	if err != nil {
		log.Warn().Err(err).Dur("duration", duration).Msg("operation failed")
	} else {
		log.WithLevel(e.level).Dur("duration", duration).Msg("operation completed")
	}

	return result, err
}
