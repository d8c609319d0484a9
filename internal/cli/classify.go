package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/allenjb/clientip/bytesize"
	"github.com/allenjb/clientip/gauge"
	"github.com/allenjb/clientip/logging"
	"github.com/allenjb/clientip/regex"
	"github.com/allenjb/clientip/textutil"
	"github.com/spf13/cobra"
)

const maxLineLength = 1 << 20

type classifyOptions struct {
	filter        string
	maxSize       string
	progressEvery int
}

// classifySummary is printed once the whole file has been read.
type classifySummary struct {
	File     string `json:"file"`
	Size     string `json:"size"`
	Bytes    int64  `json:"bytes"`
	Lines    int    `json:"lines"`
	Blank    int    `json:"blank"`
	Filtered int    `json:"filtered"`
	Valid    int    `json:"valid"`
	Invalid  int    `json:"invalid"`
	IPv4     int    `json:"ipv4"`
	IPv6     int    `json:"ipv6"`
	Reserved int    `json:"reserved"`
	Public   int    `json:"public"`
}

func (s *classifySummary) add(report addressReport) {
	if !report.Valid {
		s.Invalid++
		return
	}

	s.Valid++
	switch report.Version {
	case 4:
		s.IPv4++
	case 6:
		s.IPv6++
	}
	if report.Reserved {
		s.Reserved++
	}
	if report.Public {
		s.Public++
	}
}

// NewClassifyCmd creates the classify subcommand.
func NewClassifyCmd(global *globalOptions) *cobra.Command {
	opts := &classifyOptions{}

	cmd := &cobra.Command{
		Use:   "classify <file>",
		Short: "Classify a file of addresses, one per line",
		Long: `Reads one address per line and prints a JSON summary of how many are
valid, invalid, IPv4, IPv6, reserved and public.

Leading and trailing Unicode whitespace (including zero-width spaces and
byte order marks) is trimmed from every line and blank lines are skipped.
--filter takes a delimited pattern such as '/^10\./' or '#:#i'; lines that
do not match are counted as filtered and not classified.

Progress is logged every --progress-every lines.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(cmd, global, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.filter, "filter", "", "Only classify lines matching this delimited pattern")
	cmd.Flags().StringVar(&opts.maxSize, "max-size", "", "Refuse files larger than this size, e.g. 512k or 2g")
	cmd.Flags().IntVar(&opts.progressEvery, "progress-every", 10000, "Log progress every N lines (0 disables)")

	return cmd
}

func runClassify(cmd *cobra.Command, global *globalOptions, opts *classifyOptions, path string) error {
	logger, err := global.newLogger(cmd)
	if err != nil {
		return err
	}
	defer logger.Close()

	var maxSize int64
	if opts.maxSize != "" {
		if maxSize, err = bytesize.Parse(opts.maxSize); err != nil {
			return fmt.Errorf("--max-size: %w", err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if maxSize > 0 && info.Size() > maxSize {
		return fmt.Errorf("%s is %s, larger than --max-size %s", path, bytesize.Format(info.Size()), bytesize.Format(maxSize))
	}

	total, err := countLines(f, info.Size())
	if err != nil {
		return fmt.Errorf("counting lines in %s: %w", path, err)
	}
	logger.Info(fmt.Sprintf("Classifying %s (%s)", path, bytesize.FormatPrecision(info.Size(), 1)))

	g := gauge.New(1)
	g.SetTotal(total)

	summary, err := classifyLines(f, opts, g, logger)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	summary.File = path
	summary.Size = bytesize.Format(info.Size())
	summary.Bytes = info.Size()

	logger.Info("Done: " + g.ProgressText() + " :: " + g.StatusText())
	if logger.Enabled(logging.DebugLevel) {
		logger.LogMemoryUsage()
	}

	return writeJSON(cmd, summary)
}

// countLines counts newline-terminated lines plus a final unterminated
// one, leaving the read position unchanged.
func countLines(f *os.File, size int64) (int, error) {
	total, err := bytesize.CountLines(f, "\n")
	if err != nil || size == 0 {
		return total, err
	}

	last := make([]byte, 1)
	if _, err := f.ReadAt(last, size-1); err != nil && err != io.EOF {
		return 0, err
	}
	if last[0] != '\n' {
		total++
	}
	return total, nil
}

func classifyLines(r io.Reader, opts *classifyOptions, g *gauge.Gauge, logger *logging.Logger) (classifySummary, error) {
	var summary classifySummary

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)

	for scanner.Scan() {
		line := g.Increment(1)
		summary.Lines++

		if opts.progressEvery > 0 && line%opts.progressEvery == 0 {
			logger.Info(g.ProgressText() + " :: " + g.StatusText())
		}

		text := textutil.Trim(scanner.Text())
		if text == "" {
			summary.Blank++
			continue
		}

		if opts.filter != "" {
			_, ok, err := regex.Match(opts.filter, text)
			if err != nil {
				return summary, err
			}
			if !ok {
				summary.Filtered++
				continue
			}
		}

		report := classifyAddress(text)
		if !report.Valid {
			logger.Debug("invalid address", "line", line, "value", text)
		}
		summary.add(report)
	}

	return summary, scanner.Err()
}
