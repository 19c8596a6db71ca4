package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger создаёт настроенный zerolog для сервиса webapp.
func NewLogger(appEnv string) zerolog.Logger {
	return newLogger(os.Stdout, appEnv)
}

func newLogger(w io.Writer, appEnv string) zerolog.Logger {
	level := zerolog.InfoLevel
	if appEnv == "dev" {
		level = zerolog.DebugLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339
	return zerolog.New(w).With().Timestamp().Str("service", "webapp").Logger().Level(level)
}
