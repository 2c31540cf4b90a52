package logger

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level controls which messages are emitted. Debug is off by default;
// enable it with SetDebug for verbose request/stream tracing.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	mu    sync.Mutex
	out   io.Writer = os.Stderr
	level           = LevelInfo
)

// SetOutput redirects log output. Used by tests to capture log lines.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

// SetDebug toggles debug-level logging.
func SetDebug(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	if enabled {
		level = LevelDebug
	} else {
		level = LevelInfo
	}
}

func levelName(l Level) string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	default:
		return "ERROR"
	}
}

// log writes a single line: timestamp, level, optional [component], message,
// then sorted key=value fields.
func log(l Level, component, msg string, fields map[string]interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if l < level {
		return
	}

	var sb strings.Builder
	sb.WriteString(time.Now().Format("2006-01-02 15:04:05"))
	sb.WriteString(" ")
	sb.WriteString(levelName(l))
	if component != "" {
		sb.WriteString(" [")
		sb.WriteString(component)
		sb.WriteString("]")
	}
	sb.WriteString(" ")
	sb.WriteString(msg)

	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteString(fmt.Sprintf(" %s=%v", k, fields[k]))
		}
	}
	sb.WriteString("\n")

	fmt.Fprint(out, sb.String())
}

func Debug(msg string) { log(LevelDebug, "", msg, nil) }
func Info(msg string)  { log(LevelInfo, "", msg, nil) }
func Warn(msg string)  { log(LevelWarn, "", msg, nil) }
func Error(msg string) { log(LevelError, "", msg, nil) }

// The CF variants tag the line with a component name and structured fields.

func DebugCF(component, msg string, fields map[string]interface{}) {
	log(LevelDebug, component, msg, fields)
}

func InfoCF(component, msg string, fields map[string]interface{}) {
	log(LevelInfo, component, msg, fields)
}

func WarnCF(component, msg string, fields map[string]interface{}) {
	log(LevelWarn, component, msg, fields)
}

func ErrorCF(component, msg string, fields map[string]interface{}) {
	log(LevelError, component, msg, fields)
}
