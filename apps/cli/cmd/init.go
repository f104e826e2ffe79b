package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/weftconf/weft/packages/core/settings"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new weft project",
	Long: `Initialize a new weft project in the current directory.

This creates:
  - .weft.yaml  - Settings file with defaults written out
  - app.conf    - Example configuration using includes and ${refs}
  - base.conf   - Shared defaults pulled in by app.conf

Examples:
  weft init
  weft init --force`,
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite existing files")
}

func initCommand(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	settingsFile := filepath.Join(cwd, ".weft.yaml")
	exampleFile := filepath.Join(cwd, "app.conf")
	includedFile := filepath.Join(cwd, "base.conf")

	if !forceInit {
		for _, f := range []string{settingsFile, exampleFile, includedFile} {
			if _, err := os.Stat(f); err == nil {
				return fmt.Errorf("file already exists: %s (use --force to overwrite)", f)
			}
		}
	}

	starter := settings.Default()
	starter.Properties = map[string]string{"region": "local"}
	if err := starter.Save(settingsFile); err != nil {
		return fmt.Errorf("failed to create settings file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", settingsFile)

	exampleContent := `# Starter configuration. Try: weft sections app.conf

%include "base.conf"

[server]
host = localhost
port = 8080
base_url = http://${host}:${port}/
banner = ${defaults.app_name} on ${host} \
(region ${system.region})
`

	if err := os.WriteFile(exampleFile, []byte(exampleContent), 0644); err != nil {
		return fmt.Errorf("failed to create example file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", exampleFile)

	includedContent := `# Shared defaults pulled in by app.conf.

[defaults]
app_name = demo
log_level = info
`

	if err := os.WriteFile(includedFile, []byte(includedContent), 0644); err != nil {
		return fmt.Errorf("failed to create included file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", includedFile)

	fmt.Fprintf(cmd.OutOrStdout(), "\nweft project initialized!\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Run 'weft sections app.conf' to see the resolved configuration.\n")

	return nil
}
