package infra

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

const (
	envDevelopment = "development"
	// EnvCLI selects the operator-tool logger: warnings and errors on stderr
	// so stdout carries only command output.
	EnvCLI = "cli"
)

// NewLogger builds the process logger for appEnv. Development gets a console
// writer at debug level; everything else logs JSON at info.
func NewLogger(appEnv string) zerolog.Logger {
	return newLogger(appEnv, os.Stdout, os.Stderr)
}

func newLogger(appEnv string, stdout, stderr io.Writer) zerolog.Logger {
	out := stdout
	level := zerolog.InfoLevel
	switch appEnv {
	case envDevelopment:
		level = zerolog.DebugLevel
		out = zerolog.ConsoleWriter{Out: stdout, TimeFormat: time.RFC3339}
	case EnvCLI:
		level = zerolog.WarnLevel
		out = zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", "crowdfund").
		Logger()
}
