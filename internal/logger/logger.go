package logger

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	mu sync.Mutex

	debugLogger *log.Logger

	DebugEnabled = false

	logFile *os.File

	std = &Logger{}
)

// InitLogging sets up logging based on configuration.
func InitLogging(debugMode bool, logPath string) error {
	mu.Lock()
	defer mu.Unlock()

	DebugEnabled = debugMode

	if DebugEnabled && logPath != "" {
		logDir := filepath.Dir(logPath)
		err := os.MkdirAll(logDir, 0o755)
		if err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}

		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}

		logFile = f
		debugLogger = log.New(f, "", log.Ldate|log.Ltime|log.Lshortfile)
	}

	return nil
}

// SetOutput routes log lines to w, enabling logging. A nil writer silences it.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	if w == nil {
		debugLogger = nil
		DebugEnabled = false
		return
	}

	DebugEnabled = true
	debugLogger = log.New(w, "", log.Ltime)
}

// Close closes the log file if open.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	debugLogger = nil

	std.mu.Lock()
	std.depth = 0
	std.mu.Unlock()
}

// Logger tracks group indentation for one flow of work, such as a single
// download, so concurrent flows do not indent each other's lines. Output
// goes to the package-level destination.
type Logger struct {
	mu    sync.Mutex
	depth int
}

func New() *Logger {
	return &Logger{}
}

type contextKey struct{}

// NewContext returns a copy of ctx carrying l.
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// Scoped returns ctx unchanged when it already carries a Logger, and a copy
// carrying a fresh one otherwise.
func Scoped(ctx context.Context) context.Context {
	if _, ok := ctx.Value(contextKey{}).(*Logger); ok {
		return ctx
	}

	return NewContext(ctx, New())
}

// FromContext returns the Logger carried by ctx, or the shared default.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(contextKey{}).(*Logger); ok {
		return l
	}

	return std
}

// Group logs a heading and indents every following line of l until GroupEnd.
func (l *Logger) Group(format string, v ...interface{}) {
	l.output("[INFO] ", format, v...)
	l.indent()
}

func (l *Logger) indent() {
	l.mu.Lock()
	l.depth++
	l.mu.Unlock()
}

// GroupEnd closes the innermost group opened with Group.
func (l *Logger) GroupEnd() {
	l.mu.Lock()
	if l.depth > 0 {
		l.depth--
	}
	l.mu.Unlock()
}

func (l *Logger) Infof(format string, v ...interface{}) {
	l.output("[INFO] ", format, v...)
}

func (l *Logger) Errorf(format string, v ...interface{}) {
	l.output("[ERROR] ", format, v...)
}

func (l *Logger) Debugf(format string, v ...interface{}) {
	l.output("[DEBUG] ", format, v...)
}

func (l *Logger) Warnf(format string, v ...interface{}) {
	l.output("[WARNING] ", format, v...)
}

func (l *Logger) output(level, format string, v ...interface{}) {
	l.mu.Lock()
	indent := strings.Repeat("  ", l.depth)
	l.mu.Unlock()

	write(level+indent, format, v...)
}

// Group logs a heading and indents every following line until GroupEnd.
func Group(format string, v ...interface{}) {
	std.output("[INFO] ", format, v...)
	std.indent()
}

// GroupEnd closes the innermost group opened with Group.
func GroupEnd() {
	std.GroupEnd()
}

func Infof(format string, v ...interface{}) {
	std.output("[INFO] ", format, v...)
}

// Errorf logs an error message to the file if debug mode is enabled.
func Errorf(format string, v ...interface{}) {
	std.output("[ERROR] ", format, v...)
}

func Debugf(format string, v ...interface{}) {
	std.output("[DEBUG] ", format, v...)
}

func Warnf(format string, v ...interface{}) {
	std.output("[WARNING] ", format, v...)
}

func write(prefix, format string, v ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if !DebugEnabled || debugLogger == nil {
		return
	}

	_ = debugLogger.Output(4, prefix+fmt.Sprintf(format, v...))
}
