// Package logging sets up the global zerolog logger with a dual-sink
// shape: a colorized console writer to stderr plus a size/age-rotated file
// writer, combined with zerolog.MultiLevelWriter.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures Init. LogDir defaults to "./logs" and Verbose defaults
// to info-level logging when false.
type Options struct {
	LogDir  string
	Verbose bool
	// Silent suppresses the console writer entirely; used when the CLI is
	// piping CSV rows or other machine-readable output to stdout and the
	// human console writer would otherwise interleave with it.
	Silent bool
}

// Init installs the global zerolog logger per Options. It is safe to call
// once at process startup.
func Init(opts Options) error {
	level := zerolog.InfoLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	logDir := opts.LogDir
	if logDir == "" {
		logDir = "logs"
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("logging: creating log directory %q: %w", logDir, err)
	}

	fileWriter := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "gmbp.log"),
		MaxSize:    16, // megabytes
		MaxBackups: 32,
		MaxAge:     365, // days
		Compress:   true,
	}

	var writers []io.Writer
	if !opts.Silent {
		isTerminal := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339Nano,
			NoColor:    !isTerminal,
		})
	}
	writers = append(writers, fileWriter)

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		With().
		Timestamp().
		Logger()

	log.Debug().Str("log_dir", logDir).Bool("verbose", opts.Verbose).Msg("logging initialized")
	return nil
}
