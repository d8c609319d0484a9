// Package gauge reports progress, throughput and estimated completion for
// line-oriented batch jobs.
package gauge

import (
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Option configures a Gauge.
type Option func(*Gauge)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(g *Gauge) {
		if now != nil {
			g.now = now
		}
	}
}

// Gauge tracks the current line of an iteration against an optional total.
// It is safe for concurrent use.
type Gauge struct {
	mu    sync.Mutex
	line  int
	total int
	start time.Time
	now   func() time.Time
}

// New starts a gauge whose first Increment moves to firstLine.
func New(firstLine int, opts ...Option) *Gauge {
	g := &Gauge{
		line: firstLine - 1,
		now:  time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	g.start = g.now()

	return g
}

// Increment advances the current line and returns it.
func (g *Gauge) Increment(by int) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.line += by
	return g.line
}

// SetTotal sets the expected number of lines. Zero or less means unknown.
func (g *Gauge) SetTotal(total int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.total = total
}

// Line returns the current line.
func (g *Gauge) Line() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.line
}

// Total returns the expected number of lines.
func (g *Gauge) Total() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.total
}

type snapshot struct {
	line    int
	total   int
	elapsed int64 // whole seconds
}

func (g *Gauge) snapshot() snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	return snapshot{
		line:    g.line,
		total:   g.total,
		elapsed: int64(g.now().Sub(g.start) / time.Second),
	}
}

// Percentage returns completion with dp decimals, e.g. "42.50%". It is
// "0%" (with dp decimals) while the total is unknown.
func (g *Gauge) Percentage(dp int) string {
	return g.snapshot().percentage(dp)
}

func (s snapshot) percentage(dp int) string {
	if s.total < 1 {
		return formatNumber(0, dp) + "%"
	}
	return formatNumber(float64(s.line)/float64(s.total)*100, dp) + "%"
}

// Speed returns the average throughput in lines per minute, e.g.
// "1,200 rpm".
func (g *Gauge) Speed() string {
	return formatNumber(g.snapshot().linesPerMinute(), 0) + " rpm"
}

func (s snapshot) linesPerMinute() float64 {
	if s.elapsed <= 0 {
		return 0
	}
	return float64(s.line) / float64(s.elapsed) * 60
}

// Elapsed returns the time since New as "Hh MMm", or "Hh MMm SSs" when
// includeSeconds is set.
func (g *Gauge) Elapsed(includeSeconds bool) string {
	return g.snapshot().elapsedText(includeSeconds)
}

func (s snapshot) elapsedText(includeSeconds bool) string {
	hours := s.elapsed / 3600
	mins := (s.elapsed / 60) % 60
	text := fmt.Sprintf("%dh %02dm", hours, mins)
	if includeSeconds {
		text += fmt.Sprintf(" %02ds", s.elapsed%60)
	}
	return text
}

// Remaining estimates the time left as "Hh MMm" from the average speed so
// far. It is "unknown" while the total is unknown.
func (g *Gauge) Remaining() string {
	return g.snapshot().remaining()
}

func (s snapshot) remaining() string {
	if s.total < 1 {
		return "unknown"
	}

	lpm := math.Floor(s.linesPerMinute())

	var minutes float64
	if lpm > 0 {
		minutes = float64(s.total-s.line) / lpm
	}

	hours := int64(math.Floor(minutes / 60))
	mins := int64(minutes) % 60
	return fmt.Sprintf("%dh %02dm", hours, mins)
}

// ProgressText returns "line / ?" or "line / total = percentage".
func (g *Gauge) ProgressText() string {
	s := g.snapshot()
	if s.total < 1 {
		return printer.Sprintf("%d / ?", s.line)
	}
	return printer.Sprintf("%d / %d", s.line, s.total) + " = " + s.percentage(2)
}

// StatusText combines elapsed time, speed and estimated time to
// completion.
func (g *Gauge) StatusText() string {
	s := g.snapshot()
	return "Time: " + s.elapsedText(false) +
		" :: Speed: " + formatNumber(s.linesPerMinute(), 0) + " rpm" +
		" :: ETC: " + s.remaining()
}

func formatNumber(v float64, dp int) string {
	if dp < 0 {
		dp = 0
	}
	scale := math.Pow10(dp)
	v = math.Round(v*scale) / scale

	return printer.Sprintf("%."+strconv.Itoa(dp)+"f", v)
}
