package output

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
)

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool

	passed int
	failed int
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func (f *ConsoleFormatter) FormatCheck(res CheckResult) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	if res.Ok() {
		f.passed++
		fmt.Fprintf(f.writer, "  %s %s %s", green("✓"), res.Target,
			cyan(fmt.Sprintf("(%d sections, %d options)", res.Sections, res.Options)))
		if f.verbose {
			fmt.Fprintf(f.writer, " %s", cyan(fmt.Sprintf("(%dms)", res.Duration.Milliseconds())))
		}
		fmt.Fprintf(f.writer, "\n")
		return
	}

	f.failed++
	fmt.Fprintf(f.writer, "  %s %s\n", red("✗"), res.Target)
	fmt.Fprintf(f.writer, "    %s\n", red(res.Err.Error()))
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n\n", bold("weft"), version)
}

// Flush writes the summary block for all checks formatted so far.
func (f *ConsoleFormatter) Flush(totalDuration time.Duration) error {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	fmt.Fprintf(f.writer, "\n")
	fmt.Fprintf(f.writer, "Files: ")
	if f.passed > 0 {
		fmt.Fprintf(f.writer, "%s, ", green(fmt.Sprintf("%d passed", f.passed)))
	}
	if f.failed > 0 {
		fmt.Fprintf(f.writer, "%s, ", red(fmt.Sprintf("%d failed", f.failed)))
	}
	fmt.Fprintf(f.writer, "%d total\n", f.passed+f.failed)
	fmt.Fprintf(f.writer, "Time:  %dms\n", totalDuration.Milliseconds())
	return nil
}
