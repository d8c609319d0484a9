package logging

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap/zapcore"
)

// Level is a logging severity. Levels are ordered: a logger set to a level
// writes entries at that level and above.
type Level int8

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	// FatalLevel marks the most severe entries. It never exits the process.
	FatalLevel
)

var levelNames = []string{"debug", "info", "warn", "error", "fatal"}

// ErrInvalidLevel is wrapped by *InvalidLevelError.
var ErrInvalidLevel = errors.New("invalid log level")

// InvalidLevelError reports an unknown level name.
type InvalidLevelError struct {
	Name string
}

func (e *InvalidLevelError) Error() string {
	return fmt.Sprintf("invalid log level specified: %s; valid options are: %s", e.Name, strings.Join(levelNames, ", "))
}

func (e *InvalidLevelError) Unwrap() error {
	return ErrInvalidLevel
}

// ParseLevel converts a lowercase level name into a Level.
func ParseLevel(name string) (Level, error) {
	for i, n := range levelNames {
		if n == name {
			return Level(i), nil
		}
	}
	return 0, &InvalidLevelError{Name: name}
}

func (l Level) String() string {
	if l < DebugLevel || l > FatalLevel {
		return fmt.Sprintf("Level(%d)", l)
	}
	return levelNames[l]
}

// IsErrorLevel reports whether l is error or more severe.
func IsErrorLevel(l Level) bool {
	return l >= ErrorLevel
}

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case DebugLevel:
		return zapcore.DebugLevel
	case InfoLevel:
		return zapcore.InfoLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		// DPanic only panics in development loggers, which this package
		// never builds.
		return zapcore.DPanicLevel
	}
}

func fromZapLevel(l zapcore.Level) Level {
	switch {
	case l <= zapcore.DebugLevel:
		return DebugLevel
	case l == zapcore.InfoLevel:
		return InfoLevel
	case l == zapcore.WarnLevel:
		return WarnLevel
	case l == zapcore.ErrorLevel:
		return ErrorLevel
	default:
		return FatalLevel
	}
}

// encodeLevel writes the upper-cased level name right-aligned in five
// columns, e.g. " INFO".
func encodeLevel(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(fmt.Sprintf("%5s", strings.ToUpper(fromZapLevel(l).String())))
}
