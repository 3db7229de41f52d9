// Package logging builds the zerolog.Logger shared by every binary.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a console-formatted logger in dev mode and a bare JSON logger
// otherwise, tagged with the given component name.
func New(component string, dev bool) zerolog.Logger {
	var logger zerolog.Logger
	if dev {
		logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.Stamp,
		})
	} else {
		logger = zerolog.New(os.Stdout)
	}

	level := zerolog.InfoLevel
	if lvl, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		level = lvl
	}

	return logger.Level(level).With().
		Timestamp().
		Str("component", component).
		Logger()
}
