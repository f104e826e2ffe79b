package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/weftconf/weft/packages/core/parser"
	"github.com/weftconf/weft/packages/output"
)

var (
	validateOutputFlag     string
	validateOutputFileFlag string
)

var validateCmd = &cobra.Command{
	Use:   "validate <file|directory>...",
	Short: "Check configuration files for errors",
	Long: `Parse configuration files without using them anywhere, reporting every
file that fails. Includes are followed and ${refs} resolved, so a file
only passes when it would actually load.

Examples:
  weft validate app.conf
  weft validate ./conf/
  weft validate ./conf/ --output junit --output-file report.xml`,
	Args: usage(cobra.MinimumNArgs(1)),
	RunE: validateCommand,
}

func init() {
	validateCmd.Flags().StringVarP(&validateOutputFlag, "output", "o", getEnvString("WEFT_OUTPUT", ""), "Output format: console, json, junit, tap (env: WEFT_OUTPUT)")
	validateCmd.Flags().StringVar(&validateOutputFileFlag, "output-file", "", "Write the report to a file (default: stdout)")
}

// Formatter interface for all output formatters
type Formatter interface {
	FormatCheck(res output.CheckResult)
	FormatError(err error)
	FormatHeader(version string)
}

// Flushable interface for formatters that need to flush output
type Flushable interface {
	Flush(totalDuration time.Duration) error
}

func newFormatter(format string, noColor bool, w io.Writer) Formatter {
	switch strings.ToLower(format) {
	case "json":
		opts := []output.JSONOption{}
		if w != nil {
			opts = append(opts, output.JSONWithWriter(w))
		}
		return output.NewJSONFormatter(opts...)
	case "junit":
		opts := []output.JUnitOption{}
		if w != nil {
			opts = append(opts, output.JUnitWithWriter(w))
		}
		return output.NewJUnitFormatter(opts...)
	case "tap":
		opts := []output.TAPOption{}
		if w != nil {
			opts = append(opts, output.TAPWithWriter(w))
		}
		return output.NewTAPFormatter(opts...)
	default: // "console"
		opts := []output.ConsoleOption{
			output.WithVerbose(verboseFlag > 0),
			output.WithNoColor(noColor),
		}
		if w != nil {
			opts = append(opts, output.WithWriter(w))
		}
		return output.NewConsoleFormatter(opts...)
	}
}

// checkFiles parses each file and feeds the result to the formatter.
func checkFiles(ctx context.Context, p *parser.Parser, files []string, formatter Formatter) (failed int, total time.Duration) {
	for _, file := range files {
		start := time.Now()
		store, err := p.Parse(ctx, file)
		elapsed := time.Since(start)

		res := output.CheckResult{Target: file, Err: err, Duration: elapsed}
		if err == nil {
			res.Sections = len(store.SectionNames())
			for _, section := range store.SectionNames() {
				res.Options += len(store.OptionNames(section))
			}
		} else {
			failed++
		}
		formatter.FormatCheck(res)
		total += elapsed
	}
	return failed, total
}

func validateCommand(cmd *cobra.Command, args []string) error {
	s, err := effectiveSettings(cmd)
	if err != nil {
		return err
	}
	p, err := buildParser(s)
	if err != nil {
		return err
	}

	files, err := collectFiles(args, s.Extensions)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no %s files found", strings.Join(s.Extensions, " or "))
	}

	format := validateOutputFlag
	if format == "" {
		format = s.Format
	}
	switch strings.ToLower(format) {
	case "console", "json", "junit", "tap":
	default:
		return &usageError{fmt.Errorf("--output wants console, json, junit or tap, got %q", format)}
	}

	var outWriter io.Writer
	if validateOutputFileFlag != "" {
		f, err := os.Create(validateOutputFileFlag)
		if err != nil {
			return fmt.Errorf("cannot create output file: %w", err)
		}
		defer f.Close()
		outWriter = f
	}

	formatter := newFormatter(format, s.GetNoColor(), outWriter)
	formatter.FormatHeader(version)

	failed, duration := checkFiles(cmd.Context(), p, files, formatter)

	if flushable, ok := formatter.(Flushable); ok {
		if err := flushable.Flush(duration); err != nil {
			return err
		}
	}

	if failed > 0 {
		os.Exit(ExitFailure)
	}
	return nil
}
