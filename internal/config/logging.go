package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents logging verbosity levels.
type LogLevel int

// Log level constants.
const (
	LogLevelOff LogLevel = iota
	LogLevelError
	LogLevelInfo
	LogLevelDebug
)

// ParseLogLevel parses a log level string. Unknown values map to error.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "none":
		return LogLevelOff
	case "info":
		return LogLevelInfo
	case "debug":
		return LogLevelDebug
	default:
		return LogLevelError
	}
}

// String returns the string representation of a log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelOff:
		return "off"
	case LogLevelInfo:
		return "info"
	case LogLevelDebug:
		return "debug"
	case LogLevelError:
		return "error"
	default:
		return "error"
	}
}

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case LogLevelDebug:
		return zapcore.DebugLevel
	case LogLevelInfo:
		return zapcore.InfoLevel
	case LogLevelOff, LogLevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.ErrorLevel
	}
}

// Logger writes JSON log lines to a file through zap. The printf-style
// methods are what most callers use; Zap exposes the structured logger for
// components that attach fields.
type Logger struct {
	mu    sync.Mutex
	level zap.AtomicLevel
	off   bool
	nop   bool
	zl    *zap.Logger
	sugar *zap.SugaredLogger
	file  *os.File
}

// NewLogger creates a logger writing to filePath. Level off or an empty
// path produce a logger that discards everything.
func NewLogger(level LogLevel, filePath string) (*Logger, error) {
	if level == LogLevelOff || filePath == "" {
		return NullLogger(), nil
	}

	filePath = ExpandHome(filePath)
	if err := os.MkdirAll(filepath.Dir(filePath), 0o750); err != nil {
		return nil, err
	}

	// #nosec G304 -- log file path is from validated config
	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}

	l := newLogger(level, zapcore.AddSync(f))
	l.file = f
	return l, nil
}

// NewWriterLogger creates a logger writing JSON lines to w.
func NewWriterLogger(level LogLevel, w io.Writer) *Logger {
	if level == LogLevelOff {
		return NullLogger()
	}
	return newLogger(level, zapcore.AddSync(w))
}

func newLogger(level LogLevel, ws zapcore.WriteSyncer) *Logger {
	atom := zap.NewAtomicLevelAt(level.zapLevel())

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), ws, atom)
	zl := zap.New(core).Named("crossdrop")
	return &Logger{level: atom, zl: zl, sugar: zl.Sugar()}
}

// NullLogger returns a logger that discards all output.
func NullLogger() *Logger {
	zl := zap.NewNop()
	return &Logger{level: zap.NewAtomicLevelAt(zapcore.ErrorLevel), off: true, nop: true, zl: zl, sugar: zl.Sugar()}
}

// Close flushes and closes the log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	_ = l.zl.Sync()
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// SetLevel changes the log level.
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.off = level == LogLevelOff || l.nop
	l.level.SetLevel(level.zapLevel())
}

// Level returns the current log level.
func (l *Logger) Level() LogLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.off {
		return LogLevelOff
	}
	switch l.level.Level() {
	case zapcore.DebugLevel:
		return LogLevelDebug
	case zapcore.InfoLevel:
		return LogLevelInfo
	default:
		return LogLevelError
	}
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...any) {
	if l.enabled() {
		l.sugar.Debugf(format, args...)
	}
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...any) {
	if l.enabled() {
		l.sugar.Infof(format, args...)
	}
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...any) {
	if l.enabled() {
		l.sugar.Errorf(format, args...)
	}
}

// Zap returns the structured logger, scoped to name when given.
func (l *Logger) Zap(name ...string) *zap.Logger {
	zl := l.zl
	for _, n := range name {
		zl = zl.Named(n)
	}
	return zl
}

func (l *Logger) enabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return !l.off
}
