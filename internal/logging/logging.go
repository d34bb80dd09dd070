// Package logging configures the process-wide logger used by enginebench.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// TimestampLayout is the month/day/year hour:minute:second layout prefixed to every line.
const TimestampLayout = "01/02/2006 15:04:05"

// Level is a minimum severity. Messages below the configured level are dropped.
type Level int

const (
	LevelDebug    Level = 10
	LevelInfo     Level = 20
	LevelWarning  Level = 30
	LevelError    Level = 40
	LevelCritical Level = 50
)

// String returns the upper-case level name written into each log line.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARNING"
	case LevelError:
		return "ERROR"
	case LevelCritical:
		return "CRITICAL"
	default:
		return fmt.Sprintf("LEVEL%d", int(l))
	}
}

// ParseLevel maps a level name (case-insensitive) to a Level. "WARN" is accepted for WARNING.
func ParseLevel(name string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return LevelDebug, nil
	case "", "INFO":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarning, nil
	case "ERROR":
		return LevelError, nil
	case "CRITICAL":
		return LevelCritical, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", name)
}

var (
	mu         sync.Mutex
	logFile    *os.File
	configured bool
	threshold  = LevelInfo

	sink io.Writer = os.Stderr
	now            = time.Now
)

// Setup configures the standard logger with the enginebench line format and
// the given minimum level. Only the first call installs the output; later
// calls only move the threshold, so writers are never duplicated.
func Setup(level Level) {
	mu.Lock()
	defer mu.Unlock()

	threshold = level
	if configured {
		return
	}
	log.SetFlags(0)
	log.SetPrefix("")
	log.SetOutput(sink)
	configured = true
}

// Init tees log output to the base sink and an append-only file at logPath.
// An empty logPath keeps the base sink only. The threshold set by Setup is kept.
func Init(logPath string) error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}

	writers := []io.Writer{sink}
	if logPath != "" {
		if dir := filepath.Dir(logPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		logFile = file
		writers = append(writers, logFile)
	}

	log.SetFlags(0)
	log.SetPrefix("")
	log.SetOutput(io.MultiWriter(writers...))
	configured = true
	return nil
}

// Close detaches and closes the log file opened by Init, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if logFile == nil {
		return nil
	}
	log.SetOutput(sink)
	err := logFile.Close()
	logFile = nil
	return err
}

// Enabled reports whether a message at level would be written.
func Enabled(level Level) bool {
	mu.Lock()
	defer mu.Unlock()
	return level >= threshold
}

func logf(level Level, format string, args ...any) {
	if !Enabled(level) {
		return
	}
	log.Print(formatLine(now(), level, fmt.Sprintf(format, args...)))
}

func formatLine(ts time.Time, level Level, msg string) string {
	return fmt.Sprintf("%s %-8s %s", ts.Format(TimestampLayout), level, msg)
}

func Debugf(format string, args ...any)    { logf(LevelDebug, format, args...) }
func Infof(format string, args ...any)     { logf(LevelInfo, format, args...) }
func Warningf(format string, args ...any)  { logf(LevelWarning, format, args...) }
func Errorf(format string, args ...any)    { logf(LevelError, format, args...) }
func Criticalf(format string, args ...any) { logf(LevelCritical, format, args...) }

// LogEvent logs an informational message.
func LogEvent(format string, args ...any) {
	logf(LevelInfo, format, args...)
}

// LogPayload logs a labelled payload at debug level. Non-string payloads are JSON encoded.
func LogPayload(label string, payload any) {
	if !Enabled(LevelDebug) {
		return
	}
	label = strings.TrimSpace(label)
	if label == "" {
		label = "payload"
	}
	logf(LevelDebug, "%s=%s", label, formatPayload(payload))
}

func formatPayload(payload any) string {
	switch v := payload.(type) {
	case nil:
		return "null"
	case string:
		if strings.TrimSpace(v) == "" {
			return `""`
		}
		return v
	case []byte:
		if len(v) == 0 {
			return "[]"
		}
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}

// reset restores the unconfigured state with w as the base sink.
func reset(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
	sink = w
	configured = false
	threshold = LevelInfo
	log.SetOutput(w)
}
