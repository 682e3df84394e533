// Package logging provides leveled file logging for the maestro server.
// It writes every entry to a global log file (<dir>/maestro.log) and entries
// scoped to a session also to <dir>/session-<id>.log. Without a directory
// entries go to a fallback writer, normally stderr.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/runoshun/maestro/internal/domain"
)

// Ensure Logger implements domain.Logger interface.
var _ domain.Logger = (*Logger)(nil)

// Logger writes formatted lines to the global and per-session log files.
// Fields are ordered to minimize memory padding.
type Logger struct {
	fallback     io.Writer
	globalFile   *os.File
	sessionFiles map[string]*os.File
	now          func() time.Time
	dir          string
	mu           sync.Mutex
	level        slog.Level
}

// New creates a Logger that writes below dir. If dir is empty, entries are
// written to fallback instead; a nil fallback disables logging.
func New(dir string, level slog.Level, fallback io.Writer) *Logger {
	return &Logger{
		dir:          dir,
		level:        level,
		fallback:     fallback,
		sessionFiles: make(map[string]*os.File),
		now:          time.Now,
	}
}

// ParseLevel parses a log level string into slog.Level.
func ParseLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GlobalLogPath returns the global log file inside dir.
func GlobalLogPath(dir string) string {
	return filepath.Join(dir, "maestro.log")
}

// SessionLogPath returns the log file of one session inside dir.
func SessionLogPath(dir, sessionID string) string {
	safe := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == os.PathSeparator {
			return '_'
		}
		return r
	}, sessionID)
	return filepath.Join(dir, "session-"+safe+".log")
}

func (l *Logger) open(path string) (*os.File, error) {
	if err := os.MkdirAll(l.dir, 0o750); err != nil {
		return nil, fmt.Errorf("create logs directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640) //nolint:gosec // Log file readable by owner and group
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// Close closes all open log files.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var lastErr error
	if l.globalFile != nil {
		if err := l.globalFile.Close(); err != nil {
			lastErr = err
		}
		l.globalFile = nil
	}
	for id, f := range l.sessionFiles {
		if err := f.Close(); err != nil {
			lastErr = err
		}
		delete(l.sessionFiles, id)
	}
	return lastErr
}

// formatLog formats a log entry.
// Format: [2025-12-30 09:32:51] [INFO] [sess_1] [queue] message
func formatLog(t time.Time, level slog.Level, scope, category, msg string) string {
	if scope == "" {
		scope = "global"
	}
	return fmt.Sprintf("[%s] [%s] [%s] [%s] %s\n",
		t.Format("2006-01-02 15:04:05"),
		levelToString(level),
		scope,
		category,
		msg,
	)
}

func levelToString(level slog.Level) string {
	switch level {
	case slog.LevelDebug:
		return "DEBUG"
	case slog.LevelInfo:
		return "INFO"
	case slog.LevelWarn:
		return "WARN"
	case slog.LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// log writes one entry. Global entries go to the global log only; scoped
// entries go to both the global and the session log.
func (l *Logger) log(level slog.Level, scope, category, msg string) {
	if level < l.level {
		return
	}
	entry := formatLog(l.now(), level, scope, category, msg)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.dir == "" {
		if l.fallback != nil {
			_, _ = io.WriteString(l.fallback, entry)
		}
		return
	}

	if l.globalFile == nil {
		f, err := l.open(GlobalLogPath(l.dir))
		if err != nil {
			return
		}
		l.globalFile = f
	}
	_, _ = io.WriteString(l.globalFile, entry)

	if scope == "" {
		return
	}
	f, ok := l.sessionFiles[scope]
	if !ok {
		var err error
		if f, err = l.open(SessionLogPath(l.dir, scope)); err != nil {
			return
		}
		l.sessionFiles[scope] = f
	}
	_, _ = io.WriteString(f, entry)
}

// Info logs an info message.
func (l *Logger) Info(scope, category, msg string) {
	l.log(slog.LevelInfo, scope, category, msg)
}

// Debug logs a debug message.
func (l *Logger) Debug(scope, category, msg string) {
	l.log(slog.LevelDebug, scope, category, msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(scope, category, msg string) {
	l.log(slog.LevelWarn, scope, category, msg)
}

// Error logs an error message.
func (l *Logger) Error(scope, category, msg string) {
	l.log(slog.LevelError, scope, category, msg)
}
