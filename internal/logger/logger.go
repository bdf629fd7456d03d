// Package logger builds the application's zap logger, optionally teeing
// into a size-rotated log file.
package logger

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps the process-wide zap logger.
type Logger struct {
	// Log is the configured logger. It is a no-op logger until Init succeeds.
	Log *zap.Logger

	filePath string
	console  io.Writer
}

// Option configures a Logger.
type Option func(*Logger)

// WithFile enables JSON output to a lumberjack-rotated file at path.
func WithFile(path string) Option {
	return func(l *Logger) { l.filePath = path }
}

// WithConsole replaces stdout as the console sink.
func WithConsole(w io.Writer) Option {
	return func(l *Logger) { l.console = w }
}

// New returns an uninitialised Logger.
func New(opts ...Option) *Logger {
	l := &Logger{Log: zap.NewNop(), console: os.Stdout}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Init builds the zap logger at the given level ("debug", "info", ...).
func (l *Logger) Init(level string) error {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return fmt.Errorf("parse log level %q: %w", level, err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encCfg)

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(l.console)), lvl),
	}

	if l.filePath != "" {
		rotator := &lumberjack.Logger{
			Filename:   l.filePath,
			MaxSize:    10, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(rotator), lvl))
	}

	l.Log = zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	return nil
}
