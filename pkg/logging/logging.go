// Package logging builds zerolog loggers from configuration.
package logging

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/devesharp/statehooks/pkg/config"
)

// New returns a logger writing to w in the configured format and level
func New(cfg config.Log, w io.Writer) (zerolog.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), err
	}
	return zerolog.New(writer(cfg, w)).Level(level).With().Timestamp().Logger(), nil
}

// NewSplit writes debug, info and warn entries to out and everything more
// severe to errOut
func NewSplit(cfg config.Log, out, errOut io.Writer) (zerolog.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), err
	}
	w := zerolog.MultiLevelWriter(
		LevelWriter{
			Writer: writer(cfg, out),
			Levels: []zerolog.Level{zerolog.TraceLevel, zerolog.DebugLevel, zerolog.InfoLevel, zerolog.WarnLevel},
		},
		LevelWriter{
			Writer: writer(cfg, errOut),
			Levels: []zerolog.Level{zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel},
		},
	)
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}

// LevelWriter only writes entries of the listed levels
type LevelWriter struct {
	io.Writer
	Levels []zerolog.Level
}

func (w LevelWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	for _, l := range w.Levels {
		if l == level {
			return w.Write(p)
		}
	}
	return len(p), nil
}

func writer(cfg config.Log, w io.Writer) io.Writer {
	if cfg.Format == config.FormatJSON {
		return w
	}
	return zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
}

func parseLevel(s string) (zerolog.Level, error) {
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("parsing log level %q: %w", s, err)
	}
	return level, nil
}
