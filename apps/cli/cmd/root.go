package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/weftconf/weft/packages/core/env"
	"github.com/weftconf/weft/packages/core/parser"
	"github.com/weftconf/weft/packages/core/settings"
	"github.com/weftconf/weft/packages/core/source"
	"github.com/weftconf/weft/packages/logging"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "weft",
	Short: "Layered configuration files. No surprises.",
	Long: `weft loads INI-like configuration files extended with cross-file
includes, line continuation and ${variable} interpolation. Values can
reference other sections, process environment variables and command-line
definitions at the point of use.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Setup(verboseFlag, noColorFlag)
	},
}

var (
	verboseFlag        int // 0=off, 1=-v, 2=-vv
	noColorFlag        bool
	defineFlags        []string
	envFileFlag        string
	safeFlag           bool
	maxNestingFlag     int
	includePatternFlag string
	fetchRateFlag      float64
	configFlag         string
)

func Execute(v, bt string) {
	version = v
	buildTime = bt
	cmd, err := rootCmd.ExecuteC()
	if err == nil {
		return
	}
	// The root command has no run function, so an error attributed to it
	// means cobra could not resolve a subcommand.
	if isUsageError(err) || cmd == rootCmd {
		os.Exit(ExitUsageError)
	}
	os.Exit(ExitFailure)
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verboseFlag, "verbose", "v", "Verbose output (-v, -vv for more detail)")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", getEnvBool("WEFT_NO_COLOR", false), "Disable colored output (env: WEFT_NO_COLOR)")
	rootCmd.PersistentFlags().StringArrayVarP(&defineFlags, "define", "D", nil, "Define a property as key=value, referenced as ${system.key} (repeatable)")
	rootCmd.PersistentFlags().StringVar(&envFileFlag, "env-file", getEnvString("WEFT_ENV_FILE", ""), "Path to .env file overlaying the process environment (env: WEFT_ENV_FILE)")
	rootCmd.PersistentFlags().BoolVar(&safeFlag, "safe", getEnvBool("WEFT_SAFE", false), "Substitute empty strings for unresolvable ${refs} instead of failing (env: WEFT_SAFE)")
	rootCmd.PersistentFlags().IntVar(&maxNestingFlag, "max-include-depth", 0, "Maximum include nesting depth, root file included (0 = built-in limit)")
	rootCmd.PersistentFlags().StringVar(&includePatternFlag, "include-pattern", "", "Custom include directive pattern with one capture group")
	rootCmd.PersistentFlags().Float64Var(&fetchRateFlag, "fetch-rate", 0, "Rate limit for remote includes in fetches per second (0 = unlimited)")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", getEnvString("WEFT_CONFIG", ""), "Path to settings file (env: WEFT_CONFIG)")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{err}
	})

	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(sectionsCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
}

func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// effectiveSettings loads the settings file and overlays the global
// flags on top, flags winning where both are set.
func effectiveSettings(cmd *cobra.Command) (*settings.Settings, error) {
	s, err := settings.Load(configFlag)
	if err != nil {
		return nil, err
	}

	over := &settings.Settings{
		MaxNesting:     maxNestingFlag,
		IncludePattern: includePatternFlag,
		FetchRate:      fetchRateFlag,
		EnvFile:        envFileFlag,
	}
	// Boolean flags overlay only when set, so a settings file can turn
	// them on without the flag forcing them back off.
	if cmd.Flags().Changed("no-color") || noColorFlag {
		over.NoColor = &noColorFlag
	}
	if cmd.Flags().Changed("safe") || safeFlag {
		over.Safe = &safeFlag
	}
	s = s.Merge(over)

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// buildParser assembles a parser from the effective settings and the
// -D definitions.
func buildParser(s *settings.Settings, extra ...parser.Option) (*parser.Parser, error) {
	var opts []parser.Option

	if s.GetSafe() {
		opts = append(opts, parser.WithSafeSubstitution())
	}
	if s.MaxNesting > 0 {
		opts = append(opts, parser.WithMaxNesting(s.MaxNesting))
	}
	if s.IncludePattern != "" {
		re, err := regexp.Compile(s.IncludePattern)
		if err != nil {
			return nil, fmt.Errorf("invalid include pattern: %w", err)
		}
		opts = append(opts, parser.WithIncludePattern(re))
	}
	if s.FetchRate > 0 {
		opts = append(opts, parser.WithOpener(source.NewOpener(source.WithRateLimit(s.FetchRate))))
	}

	lookup := env.Environ()
	if s.EnvFile != "" {
		vars, err := env.LoadDotEnv(s.EnvFile)
		if err != nil {
			return nil, fmt.Errorf("loading env file: %w", err)
		}
		lookup = env.Overlay(lookup, vars)
	}
	opts = append(opts, parser.WithEnviron(lookup))

	if len(defineFlags) > 0 || len(s.Properties) > 0 {
		props := env.NewProperties()
		for k, v := range s.Properties {
			props.Set(k, v)
		}
		for _, def := range defineFlags {
			key, value, ok := strings.Cut(def, "=")
			if !ok || key == "" {
				return nil, &usageError{fmt.Errorf("-D wants key=value, got %q", def)}
			}
			props.Set(key, value)
		}
		opts = append(opts, parser.WithProperties(props))
	}

	opts = append(opts, extra...)
	return parser.New(opts...), nil
}

// collectFiles expands the given paths into a list of configuration
// files. Directories are walked recursively, keeping files whose
// extension appears in exts.
func collectFiles(args []string, exts []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if info.IsDir() {
			err := filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if !info.IsDir() && hasExtension(path, exts) {
					files = append(files, path)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
		} else {
			files = append(files, arg)
		}
	}
	return files, nil
}

func hasExtension(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range exts {
		if ext == want {
			return true
		}
	}
	return false
}
