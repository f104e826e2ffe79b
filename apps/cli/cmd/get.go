package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weftconf/weft/packages/core/config"
)

var (
	getAsFlag      string
	getDefaultFlag string
)

var getCmd = &cobra.Command{
	Use:   "get <file> <section> <option>",
	Short: "Resolve a single option from a configuration file",
	Long: `Parse a configuration file and print one resolved option value.

The whole file is parsed first, so includes, continuation and ${ref}
interpolation all apply before the value is read.

Examples:
  weft get app.conf server port
  weft get app.conf server port --as int
  weft get app.conf features beta --as bool --default false
  weft get https://example.com/app.conf server host`,
	Args: usage(cobra.ExactArgs(3)),
	RunE: getCommand,
}

func init() {
	getCmd.Flags().StringVar(&getAsFlag, "as", "string", "Convert the value: string, int, bool")
	getCmd.Flags().StringVar(&getDefaultFlag, "default", "", "Value to print when the option is missing")
}

func getCommand(cmd *cobra.Command, args []string) error {
	target, section, option := args[0], args[1], args[2]

	switch getAsFlag {
	case "string", "int", "bool":
	default:
		return &usageError{fmt.Errorf("--as wants string, int or bool, got %q", getAsFlag)}
	}

	s, err := effectiveSettings(cmd)
	if err != nil {
		return err
	}
	p, err := buildParser(s)
	if err != nil {
		return err
	}

	store, err := p.Parse(cmd.Context(), target)
	if err != nil {
		return err
	}

	// A missing option falls back to --default; a present value still
	// goes through the requested conversion.
	if !store.HasOption(section, option) {
		if cmd.Flags().Changed("default") {
			fmt.Fprintln(cmd.OutOrStdout(), getDefaultFlag)
			return nil
		}
		if !store.HasSection(section) {
			return &config.NoSuchSectionError{Section: section}
		}
		return &config.NoSuchOptionError{Section: section, Option: option}
	}

	switch getAsFlag {
	case "int":
		v, err := store.GetInt(section, option)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), v)
	case "bool":
		v, err := store.GetBool(section, option)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), v)
	default:
		v, _ := store.Get(section, option)
		fmt.Fprintln(cmd.OutOrStdout(), v)
	}
	return nil
}
