package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"
)

// Logger represents a leveled key/value logger
type Logger interface {
	Debug(msg string, keyvals ...interface{})
	Info(msg string, keyvals ...interface{})
	Warn(msg string, keyvals ...interface{})
	Error(msg string, keyvals ...interface{})
	With(keyvals ...interface{}) Logger
}

type logLevel int

const (
	debugLevel logLevel = iota
	infoLevel
	warnLevel
	errorLevel
)

func (l logLevel) String() string {
	switch l {
	case debugLevel:
		return "DEBUG"
	case warnLevel:
		return "WARN"
	case errorLevel:
		return "ERROR"
	default:
		return "INFO"
	}
}

// Options configures a logger
type Options struct {
	Level  string
	Format string // "text" or "json"
	Out    io.Writer
	ErrOut io.Writer
}

type simpleLogger struct {
	out    *log.Logger
	errOut *log.Logger
	level  logLevel
	json   bool
	fields []interface{}
}

// NewLogger creates a new text logger with the specified level
func NewLogger(level string) Logger {
	return New(Options{Level: level})
}

// New creates a logger from the given options
func New(opts Options) Logger {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	errOut := opts.ErrOut
	if errOut == nil {
		errOut = os.Stderr
	}

	isJSON := strings.EqualFold(opts.Format, "json")
	flags := log.Ldate | log.Ltime

	if isJSON {
		flags = 0
	}

	return &simpleLogger{
		out:    log.New(out, "", flags),
		errOut: log.New(errOut, "", flags),
		level:  parseLevel(opts.Level),
		json:   isJSON,
	}
}

func parseLevel(level string) logLevel {
	switch strings.ToLower(level) {
	case "debug":
		return debugLevel
	case "warn":
		return warnLevel
	case "error":
		return errorLevel
	default:
		return infoLevel
	}
}

func (l *simpleLogger) Debug(msg string, keyvals ...interface{}) {
	l.write(debugLevel, msg, keyvals)
}

func (l *simpleLogger) Info(msg string, keyvals ...interface{}) {
	l.write(infoLevel, msg, keyvals)
}

func (l *simpleLogger) Warn(msg string, keyvals ...interface{}) {
	l.write(warnLevel, msg, keyvals)
}

func (l *simpleLogger) Error(msg string, keyvals ...interface{}) {
	l.write(errorLevel, msg, keyvals)
}

// With returns a logger that prepends keyvals to every entry
func (l *simpleLogger) With(keyvals ...interface{}) Logger {
	fields := make([]interface{}, 0, len(l.fields)+len(keyvals))
	fields = append(fields, l.fields...)
	fields = append(fields, keyvals...)

	return &simpleLogger{
		out:    l.out,
		errOut: l.errOut,
		level:  l.level,
		json:   l.json,
		fields: fields,
	}
}

func (l *simpleLogger) write(level logLevel, msg string, keyvals []interface{}) {
	if level < l.level {
		return
	}

	all := keyvals
	if len(l.fields) > 0 {
		all = append(append([]interface{}{}, l.fields...), keyvals...)
	}

	target := l.out
	if level == errorLevel {
		target = l.errOut
	}

	if l.json {
		target.Println(formatJSON(level, msg, all))
		return
	}

	target.Println(level.String() + ": " + formatMsg(msg, all...))
}

func formatMsg(msg string, keyvals ...interface{}) string {
	if len(keyvals) == 0 {
		return msg
	}

	var b strings.Builder
	b.WriteString(msg)

	for i := 0; i < len(keyvals); i += 2 {
		key := fmt.Sprintf("%v", keyvals[i])
		value := "missing"

		if i+1 < len(keyvals) {
			value = fmt.Sprintf("%v", keyvals[i+1])
		}

		b.WriteString(" " + key + "=" + value)
	}

	return b.String()
}

func formatJSON(level logLevel, msg string, keyvals []interface{}) string {
	entry := map[string]interface{}{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"level":     level.String(),
		"message":   msg,
	}

	for i := 0; i < len(keyvals); i += 2 {
		key := fmt.Sprintf("%v", keyvals[i])

		if i+1 >= len(keyvals) {
			entry[key] = "missing"
			continue
		}

		switch v := keyvals[i+1].(type) {
		case error:
			entry[key] = v.Error()
		case fmt.Stringer:
			entry[key] = v.String()
		default:
			entry[key] = v
		}
	}

	data, err := json.Marshal(entry)

	if err != nil {
		return formatMsg(msg, keyvals...)
	}

	return string(data)
}

// NewNopLogger returns a logger that discards everything
func NewNopLogger() Logger {
	return New(Options{Level: "error", Out: io.Discard, ErrOut: io.Discard})
}
