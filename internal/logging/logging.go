// Package logging builds termtodo's zap logger: a console core on stderr and,
// when a log file is configured, a JSON core rotated by lumberjack.
package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/leeovery/termtodo/internal/config"
)

// Options tune New beyond the config file.
type Options struct {
	// Verbose forces debug level on the console.
	Verbose bool
	// Console receives human-readable output. Defaults to os.Stderr.
	Console io.Writer
}

// New builds a logger from cfg. The returned closer flushes the logger and
// closes the rotated file, if any.
func New(cfg config.LogConfig, opts Options) (*zap.Logger, func() error, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	if opts.Verbose {
		level = zapcore.DebugLevel
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	consoleConfig := encoderConfig
	consoleConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	consoleConfig.TimeKey = ""

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleConfig), zapcore.AddSync(console), level),
	}

	var rotator *lumberjack.Logger
	if cfg.File != "" {
		rotator = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		}
		fileLevel := level
		if fileLevel > zapcore.InfoLevel {
			fileLevel = zapcore.InfoLevel
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(rotator), fileLevel))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddStacktrace(zapcore.ErrorLevel))
	closer := func() error {
		_ = logger.Sync()
		if rotator != nil {
			return rotator.Close()
		}
		return nil
	}
	return logger, closer, nil
}
