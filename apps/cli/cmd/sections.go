package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weftconf/weft/packages/core/config"
)

var sectionsCmd = &cobra.Command{
	Use:   "sections <file> [section]",
	Short: "Display sections and options defined in a file",
	Long: `Parse a configuration file and list its sections and resolved options
in declaration order. Naming a section limits the listing to it.

Examples:
  weft sections app.conf
  weft sections app.conf database`,
	Args: usage(cobra.RangeArgs(1, 2)),
	RunE: sectionsCommand,
}

func sectionsCommand(cmd *cobra.Command, args []string) error {
	target := args[0]

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

	if len(args) == 2 {
		section := args[1]
		if !store.HasSection(section) {
			return &config.NoSuchSectionError{Section: section}
		}
		printSection(cmd, store, section)
		return nil
	}

	for _, section := range store.SectionNames() {
		printSection(cmd, store, section)
	}
	return nil
}

func printSection(cmd *cobra.Command, store *config.Store, section string) {
	fmt.Fprintf(cmd.OutOrStdout(), "[%s]\n", section)
	for _, option := range store.OptionNames(section) {
		v, _ := store.Get(section, option)
		fmt.Fprintf(cmd.OutOrStdout(), "  %s = %s\n", option, v)
	}
}
