// Package logging builds the process logger: human-readable console
// output, plus an optional debug log file when FFGRAB_LOG points at a
// path.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvLogPath names the environment variable holding the debug log file
// path. When set, every message down to debug level is appended there
// regardless of console verbosity.
const EnvLogPath = "FFGRAB_LOG"

// Options controls logger construction.
type Options struct {
	// Verbose lowers the console threshold from info to debug.
	Verbose bool

	// FilePath, when non-empty, receives a JSON debug log. An empty
	// value falls back to the FFGRAB_LOG environment variable.
	FilePath string
}

// New builds the logger. The returned cleanup flushes buffered entries
// and closes the log file; call it on exit.
func New(opts Options) (*zap.Logger, func(), error) {
	consoleLevel := zapcore.InfoLevel
	if opts.Verbose {
		consoleLevel = zapcore.DebugLevel
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	console := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(os.Stderr),
		consoleLevel,
	)

	cores := []zapcore.Core{console}
	cleanup := func() {}

	filePath := opts.FilePath
	if filePath == "" {
		filePath = os.Getenv(EnvLogPath)
	}
	if filePath != "" {
		f, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		fileCfg := zap.NewProductionEncoderConfig()
		fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(fileCfg),
			zapcore.Lock(f),
			zapcore.DebugLevel,
		))
		cleanup = func() { _ = f.Close() }
	}

	logger := zap.New(zapcore.NewTee(cores...))
	flush := func() {
		_ = logger.Sync()
		cleanup()
	}
	return logger, flush, nil
}

// Nop returns a logger that discards everything; handy in tests.
func Nop() *zap.Logger {
	return zap.NewNop()
}
