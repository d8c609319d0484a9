// Package logging provides a leveled line logger built on zap.
//
// Every entry is rendered as
//
//	2006-01-02 15:04:05 LEVEL prefix message {"key":"value"}
//
// and written to any combination of the console, a log file and an
// in-memory buffer. *Logger implements DebugContext and WarnContext, so it
// can be passed to clientip.WithLogger.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/allenjb/clientip/bytesize"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	lineDateLayout = "2006-01-02 15:04:05"
	// DefaultFileDateLayout names log files after the time the logger was
	// created.
	DefaultFileDateLayout = "2006-01-02_150405"
)

type config struct {
	level          Level
	console        io.Writer
	dir            string
	filePart       string
	fileDateLayout string
	memory         bool
	prefix         string
	now            func() time.Time
}

// Option configures a Logger.
type Option func(*config)

// WithLevel sets the minimum level written. The default is InfoLevel.
func WithLevel(level Level) Option {
	return func(c *config) {
		c.level = level
	}
}

// WithConsole writes entries to w instead of stdout. A nil writer disables
// console output.
func WithConsole(w io.Writer) Option {
	return func(c *config) {
		c.console = w
	}
}

// WithDirectory enables the file sink in dir, creating it when missing.
func WithDirectory(dir string) Option {
	return func(c *config) {
		c.dir = dir
	}
}

// WithFilePart appends "_part" to the log file name, or replaces the date
// when the file date layout is empty.
func WithFilePart(part string) Option {
	return func(c *config) {
		c.filePart = part
	}
}

// WithFileDateLayout sets the time layout used in the log file name. An
// empty layout without a file part writes to current.log.
func WithFileDateLayout(layout string) Option {
	return func(c *config) {
		c.fileDateLayout = layout
	}
}

// WithMemory keeps every written line for Dump.
func WithMemory() Option {
	return func(c *config) {
		c.memory = true
	}
}

// WithPrefix sets the initial prefix. See SetPrefix.
func WithPrefix(prefix string) Option {
	return func(c *config) {
		c.prefix = prefix
	}
}

// WithClock replaces time.Now for entry timestamps and the file name.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.now = now
		}
	}
}

// Logger writes leveled lines to its configured sinks. It is safe for
// concurrent use.
type Logger struct {
	base   *zap.Logger
	sugar  *zap.SugaredLogger
	level  zap.AtomicLevel
	prefix atomic.Pointer[string]
	file   *os.File
	path   string
	memory *memorySink
}

// New builds a Logger. Without options it writes info and above to stdout.
func New(opts ...Option) (*Logger, error) {
	cfg := config{
		level:          InfoLevel,
		console:        os.Stdout,
		fileDateLayout: DefaultFileDateLayout,
		now:            time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	l := &Logger{level: zap.NewAtomicLevelAt(cfg.level.zapLevel())}
	l.SetPrefix(cfg.prefix)

	encoder := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.TimeEncoderOfLayout(lineDateLayout),
		EncodeLevel:      encodeLevel,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	})

	var cores []zapcore.Core
	if cfg.console != nil {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(cfg.console)), l.level))
	}

	var createdDir bool
	if cfg.dir != "" {
		var err error
		createdDir, err = ensureDir(cfg.dir)
		if err != nil {
			return nil, err
		}

		l.path = filepath.Join(cfg.dir, fileName(cfg.now(), cfg.fileDateLayout, cfg.filePart))
		l.file, err = os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		cores = append(cores, zapcore.NewCore(encoder.Clone(), zapcore.Lock(l.file), l.level))
	}

	if cfg.memory {
		l.memory = &memorySink{}
		cores = append(cores, zapcore.NewCore(encoder.Clone(), l.memory, l.level))
	}

	l.base = zap.New(zapcore.NewTee(cores...), zap.WithClock(clockFunc(cfg.now)))
	l.sugar = l.base.Sugar()

	if createdDir {
		l.Info("Created log directory: " + cfg.dir)
	}

	return l, nil
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	l := &Logger{level: zap.NewAtomicLevelAt(zapcore.InfoLevel), base: zap.NewNop()}
	l.sugar = l.base.Sugar()
	l.SetPrefix("")
	return l
}

func ensureDir(dir string) (bool, error) {
	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return false, fmt.Errorf("log directory %s is not a directory", dir)
		}
		return false, nil
	}
	if err := os.MkdirAll(dir, 0o775); err != nil {
		return false, fmt.Errorf("failed creating log directory %s: %w", dir, err)
	}
	return true, nil
}

// fileName builds "<date>_<part>.log", "<date>.log", "<part>.log" or
// "current.log".
func fileName(now time.Time, layout, part string) string {
	var name string
	if layout != "" {
		name = now.Format(layout)
		if part != "" {
			name += "_"
		}
	}
	if part != "" {
		name += part
	} else if layout == "" {
		name = "current"
	}
	return name + ".log"
}

type clockFunc func() time.Time

func (f clockFunc) Now() time.Time {
	return f()
}

func (clockFunc) NewTicker(d time.Duration) *time.Ticker {
	return time.NewTicker(d)
}

// SetLevel changes the minimum level written and logs the change.
func (l *Logger) SetLevel(level Level) {
	l.level.SetLevel(level.zapLevel())
	l.Info("Log level set to: " + level.String())
}

// Level returns the minimum level written.
func (l *Logger) Level() Level {
	return fromZapLevel(l.level.Level())
}

// Enabled reports whether entries at level would be written.
func (l *Logger) Enabled(level Level) bool {
	return l.level.Enabled(level.zapLevel())
}

// SetPrefix sets the text written before every message. A space is
// appended when prefix does not already end with one.
func (l *Logger) SetPrefix(prefix string) {
	if prefix != "" && !strings.HasSuffix(prefix, " ") {
		prefix += " "
	}
	l.prefix.Store(&prefix)
}

// Prefix returns the current prefix including its trailing space.
func (l *Logger) Prefix() string {
	return *l.prefix.Load()
}

// File returns the path of the log file, or "" without a file sink.
func (l *Logger) File() string {
	return l.path
}

// Start writes a separator line and the log file location.
func (l *Logger) Start() {
	l.Info(strings.Repeat("-", 80))
	if l.path != "" {
		l.Info("Logging to: " + l.path)
	}
}

// Log writes msg at level. args are alternating keys and values, zap
// fields or slog.Attr values.
func (l *Logger) Log(level Level, msg string, args ...any) {
	if !l.Enabled(level) {
		return
	}

	msg = l.Prefix() + msg
	kv := keysAndValues(args)

	switch level {
	case DebugLevel:
		l.sugar.Debugw(msg, kv...)
	case InfoLevel:
		l.sugar.Infow(msg, kv...)
	case WarnLevel:
		l.sugar.Warnw(msg, kv...)
	case ErrorLevel:
		l.sugar.Errorw(msg, kv...)
	default:
		l.sugar.DPanicw(msg, kv...)
	}
}

func keysAndValues(args []any) []any {
	if len(args) == 0 {
		return nil
	}

	out := make([]any, 0, len(args))
	for _, arg := range args {
		if attr, ok := arg.(slog.Attr); ok {
			out = append(out, zap.Any(attr.Key, attr.Value.Resolve().Any()))
			continue
		}
		out = append(out, arg)
	}
	return out
}

func (l *Logger) Debug(msg string, args ...any) { l.Log(DebugLevel, msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.Log(InfoLevel, msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.Log(WarnLevel, msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.Log(ErrorLevel, msg, args...) }

// Fatal writes msg at FatalLevel. It does not exit.
func (l *Logger) Fatal(msg string, args ...any) { l.Log(FatalLevel, msg, args...) }

// DebugContext writes msg at DebugLevel.
func (l *Logger) DebugContext(_ context.Context, msg string, args ...any) {
	l.Log(DebugLevel, msg, args...)
}

// WarnContext writes msg at WarnLevel.
func (l *Logger) WarnContext(_ context.Context, msg string, args ...any) {
	l.Log(WarnLevel, msg, args...)
}

// LogMemoryUsage writes the current heap and process memory at InfoLevel.
func (l *Logger) LogMemoryUsage() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	l.Info(memoryUsageText(&m))
}

func memoryUsageText(m *runtime.MemStats) string {
	return "Memory Usage: " + bytesize.FormatPrecision(int64(m.HeapAlloc), 1) +
		" / Real: " + bytesize.FormatPrecision(int64(m.Sys), 1) +
		" :: Total Allocated: " + bytesize.FormatPrecision(int64(m.TotalAlloc), 1)
}

// Dump returns the lines kept by the memory sink, without line endings.
// It returns nil when WithMemory was not used.
func (l *Logger) Dump() []string {
	if l.memory == nil {
		return nil
	}
	return l.memory.snapshot()
}

// Sync flushes every sink.
func (l *Logger) Sync() error {
	return l.base.Sync()
}

// Close flushes every sink and closes the log file.
func (l *Logger) Close() error {
	_ = l.base.Sync()
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

type memorySink struct {
	mu    sync.Mutex
	lines []string
}

func (m *memorySink) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lines = append(m.lines, strings.TrimSuffix(string(p), zapcore.DefaultLineEnding))
	return len(p), nil
}

func (m *memorySink) Sync() error {
	return nil
}

func (m *memorySink) snapshot() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]string(nil), m.lines...)
}
