package logging

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"
)

// Level represents log severity levels.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

type entry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Logger writes structured JSON lines.
type Logger struct {
	mu     sync.Mutex
	output io.Writer
	level  Level
	fields map[string]any
}

func New() *Logger {
	return &Logger{output: os.Stdout, level: LevelInfo}
}

// SetOutput replaces the destination writer.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = w
}

// SetLevel sets the minimum level that will be written.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// WithFields returns a logger that attaches the given fields to every entry.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	merged := make(map[string]any, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Logger{output: l.output, level: l.level, fields: merged}
}

func (l *Logger) Debug(msg string, fields ...map[string]any) { l.write(LevelDebug, msg, fields) }
func (l *Logger) Info(msg string, fields ...map[string]any)  { l.write(LevelInfo, msg, fields) }
func (l *Logger) Warn(msg string, fields ...map[string]any)  { l.write(LevelWarn, msg, fields) }
func (l *Logger) Error(msg string, fields ...map[string]any) { l.write(LevelError, msg, fields) }

func (l *Logger) write(level Level, msg string, extra []map[string]any) {
	if level < l.level {
		return
	}

	e := entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     level.String(),
		Message:   msg,
	}
	if len(l.fields) > 0 || len(extra) > 0 {
		merged := make(map[string]any, len(l.fields))
		for k, v := range l.fields {
			merged[k] = v
		}
		for _, f := range extra {
			for k, v := range f {
				merged[k] = v
			}
		}
		if len(merged) > 0 {
			e.Fields = merged
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := json.Marshal(e)
	if err != nil {
		l.output.Write([]byte(e.Timestamp + " " + e.Level + " " + msg + "\n"))
		return
	}
	l.output.Write(append(data, '\n'))
}

// Default is the package-level logger.
var Default = New()

func Debug(msg string, fields ...map[string]any) { Default.Debug(msg, fields...) }
func Info(msg string, fields ...map[string]any)  { Default.Info(msg, fields...) }
func Warn(msg string, fields ...map[string]any)  { Default.Warn(msg, fields...) }
func Error(msg string, fields ...map[string]any) { Default.Error(msg, fields...) }
