package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/weftconf/weft/packages/bench"
)

var (
	benchIterationsFlag int
	benchWarmupFlag     int
)

var benchCmd = &cobra.Command{
	Use:   "bench <file>",
	Short: "Measure parse latency for a configuration file",
	Long: `Load a configuration file repeatedly and report latency percentiles.
Includes and interpolation run on every load, so the numbers reflect
what applications actually pay at startup.

Examples:
  weft bench app.conf
  weft bench app.conf --iterations 1000`,
	Args: usage(cobra.ExactArgs(1)),
	RunE: benchCommand,
}

func init() {
	benchCmd.Flags().IntVarP(&benchIterationsFlag, "iterations", "n", getEnvInt("WEFT_BENCH_ITERATIONS", 100), "Number of timed loads (env: WEFT_BENCH_ITERATIONS)")
	benchCmd.Flags().IntVar(&benchWarmupFlag, "warmup", 5, "Number of untimed loads before measuring")
	rootCmd.AddCommand(benchCmd)
}

func benchCommand(cmd *cobra.Command, args []string) error {
	target := args[0]

	if benchIterationsFlag < 1 {
		return &usageError{fmt.Errorf("--iterations wants a positive count, got %d", benchIterationsFlag)}
	}
	if benchWarmupFlag < 0 {
		return &usageError{fmt.Errorf("--warmup wants a non-negative count, got %d", benchWarmupFlag)}
	}

	s, err := effectiveSettings(cmd)
	if err != nil {
		return err
	}
	p, err := buildParser(s)
	if err != nil {
		return err
	}

	runner := bench.NewRunner(
		bench.WithParser(p),
		bench.WithIterations(benchIterationsFlag),
		bench.WithWarmup(benchWarmupFlag),
	)

	result, err := runner.Run(cmd.Context(), target)
	if err != nil {
		return err
	}

	if s.GetNoColor() {
		color.NoColor = true
	}
	bold := color.New(color.Bold).SprintFunc()

	out := cmd.OutOrStdout()
	perSecond := float64(result.Iterations) / result.Duration.Seconds()

	fmt.Fprintln(out)
	fmt.Fprintln(out, bold("BENCH SUMMARY"))
	fmt.Fprintln(out, strings.Repeat("─", 40))
	fmt.Fprintf(out, "Target:     %s\n", result.Target)
	fmt.Fprintf(out, "Iterations: %d (%.1f loads/s)\n", result.Iterations, perSecond)
	fmt.Fprintf(out, "Duration:   %s\n", result.Duration.Round(time.Millisecond))
	fmt.Fprintf(out, "Parsed:     %d sections, %d options\n", result.Sections, result.Options)

	fmt.Fprintln(out)
	fmt.Fprintln(out, bold("LATENCY"))
	fmt.Fprintf(out, "  p50: %-8s | p95: %-8s | p99: %-8s | max: %s\n",
		formatLatency(result.P50),
		formatLatency(result.P95),
		formatLatency(result.P99),
		formatLatency(result.Max))
	fmt.Fprintf(out, "  min: %-8s | mean: %-7s | stddev: %s\n",
		formatLatency(result.Min),
		formatLatency(result.Mean),
		formatLatency(result.StdDev))
	fmt.Fprintln(out)

	return nil
}

func formatLatency(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000)
}
