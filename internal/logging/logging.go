package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls the global logger.
type Options struct {
	Level string
	// File enables an additional rotated JSON log when set.
	File string
}

// Setup configures the global zerolog logger: human-readable output on
// stderr plus an optional rotated JSON file. The returned closer flushes the
// file sink and is safe to call when no file is configured.
func Setup(opts Options) io.Closer {
	return setup(os.Stderr, opts)
}

func setup(console io.Writer, opts Options) io.Closer {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(ParseLevel(opts.Level))

	var writers []io.Writer
	writers = append(writers, zerolog.ConsoleWriter{Out: console})

	var closer io.Closer = nopCloser{}
	if strings.TrimSpace(opts.File) != "" {
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		}
		writers = append(writers, lj)
		closer = lj
	}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()
	return closer
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
