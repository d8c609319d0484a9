// Package bytesize converts between byte counts and human-readable sizes
// using binary (1024) multipliers.
package bytesize

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Binary size units.
const (
	KB int64 = 1 << 10
	MB int64 = 1 << 20
	GB int64 = 1 << 30
)

// ErrInvalidSize is returned by Parse for malformed size strings.
var ErrInvalidSize = errors.New("invalid size")

var printer = message.NewPrinter(language.English)

// Format renders n with the largest unit that keeps the value at or above
// one, rounded to a whole number: "512 bytes", "2 KB", "1,024 GB".
func Format(n int64) string {
	return FormatPrecision(n, 0)
}

// FormatPrecision is Format with the given number of decimals for KB and
// larger units. Byte counts below 1 KB are always whole.
func FormatPrecision(n int64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}

	switch {
	case n < KB:
		return formatNumber(float64(n), 0) + " bytes"
	case n < MB:
		return formatNumber(float64(n)/float64(KB), decimals) + " KB"
	case n < GB:
		return formatNumber(float64(n)/float64(MB), decimals) + " MB"
	default:
		return formatNumber(float64(n)/float64(GB), decimals) + " GB"
	}
}

// formatNumber rounds half away from zero and groups thousands.
func formatNumber(v float64, decimals int) string {
	scale := math.Pow10(decimals)
	v = math.Round(v*scale) / scale

	return printer.Sprintf("%."+strconv.Itoa(decimals)+"f", v)
}

// Parse converts a size such as "512", "1k", "64M" or "2G" to bytes. The
// unit suffix is case-insensitive and surrounding whitespace is ignored.
func Parse(s string) (int64, error) {
	value := strings.TrimSpace(s)
	if value == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidSize)
	}

	multiplier := int64(1)
	switch value[len(value)-1] {
	case 'g', 'G':
		multiplier = GB
	case 'm', 'M':
		multiplier = MB
	case 'k', 'K':
		multiplier = KB
	}
	if multiplier != 1 {
		value = value[:len(value)-1]
	}

	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}
	if n > math.MaxInt64/multiplier || n < math.MinInt64/multiplier {
		return 0, fmt.Errorf("%w: %q overflows", ErrInvalidSize, s)
	}

	return n * multiplier, nil
}

const countChunkSize = 8192

// CountLines counts occurrences of ending from the current position of r to
// EOF, then seeks back to where it started. An empty ending defaults to
// "\n".
func CountLines(r io.ReadSeeker, ending string) (int, error) {
	if ending == "" {
		ending = "\n"
	}
	sep := []byte(ending)

	start, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, fmt.Errorf("get read position: %w", err)
	}

	// carry holds the tail of the previous chunk so endings split across
	// reads are still counted.
	var carry []byte
	buf := make([]byte, countChunkSize)
	lines := 0

	for {
		n, readErr := r.Read(buf)
		if n > 0 {
			chunk := append(carry, buf[:n]...)
			lines += bytes.Count(chunk, sep)

			keep := len(sep) - 1
			if keep > len(chunk) {
				keep = len(chunk)
			}
			tail := chunk[len(chunk)-keep:]
			if bytes.HasSuffix(chunk, sep) {
				tail = nil
			}
			carry = append(carry[:0:0], tail...)
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return 0, fmt.Errorf("count lines: %w", readErr)
		}
	}

	if _, err := r.Seek(start, io.SeekStart); err != nil {
		return 0, fmt.Errorf("restore read position: %w", err)
	}

	return lines, nil
}
