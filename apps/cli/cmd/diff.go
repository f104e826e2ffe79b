package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/weftconf/weft/packages/snapshot"
)

var diffSnapshotFlag string

var diffCmd = &cobra.Command{
	Use:   "diff <file>",
	Short: "Compare a file against a recorded snapshot",
	Long: `Parse a configuration file and compare the result against a recorded
snapshot. Without --snapshot, the latest snapshot taken for the same
file is used.

The command fails when any drift is found, so it can gate deployments.

Examples:
  weft diff app.conf
  weft diff app.conf --snapshot 1a2b3c4d`,
	Args: usage(cobra.ExactArgs(1)),
	RunE: diffCommand,
}

func init() {
	diffCmd.Flags().StringVar(&diffSnapshotFlag, "snapshot", "", "Snapshot id to compare against (default: latest for the file)")
	diffCmd.Flags().StringVar(&snapshotDBFlag, "db", "", "Snapshot database path (default from settings)")
	rootCmd.AddCommand(diffCmd)
}

func diffCommand(cmd *cobra.Command, args []string) error {
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

	path := s.SnapshotDB
	if snapshotDBFlag != "" {
		path = snapshotDBFlag
	}
	db, err := snapshot.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	var snap *snapshot.Snapshot
	if diffSnapshotFlag != "" {
		snap, err = db.Get(cmd.Context(), diffSnapshotFlag)
	} else {
		snap, err = db.Latest(cmd.Context(), target)
	}
	if err != nil {
		return err
	}

	if s.GetNoColor() {
		color.NoColor = true
	}
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n%s\n", bold("Configuration Drift"))
	fmt.Fprintf(out, "  Snapshot: %s (%s)\n", snap.ID[:8], snap.CreatedAt.Local().Format(time.DateTime))
	fmt.Fprintf(out, "  Current:  %s\n\n", target)

	changes := snapshot.Diff(snap, store)
	if len(changes) == 0 {
		fmt.Fprintf(out, "%s No drift (%d entries match)\n", green("✓"), len(snap.Entries))
		return nil
	}

	var added, removed, changed int
	for _, c := range changes {
		switch c.Kind {
		case snapshot.ChangeAdded:
			added++
			fmt.Fprintf(out, "  %s %s.%s = %s\n", green("+"), c.Section, c.Option, c.After)
		case snapshot.ChangeRemoved:
			removed++
			fmt.Fprintf(out, "  %s %s.%s = %s\n", red("-"), c.Section, c.Option, c.Before)
		case snapshot.ChangeChanged:
			changed++
			fmt.Fprintf(out, "  %s %s.%s = %s → %s\n", yellow("~"), c.Section, c.Option, c.Before, c.After)
		}
	}

	fmt.Fprintf(out, "\n%s\n", bold("Summary"))
	if added > 0 {
		fmt.Fprintf(out, "  Added:   %s\n", green(strconv.Itoa(added)))
	}
	if removed > 0 {
		fmt.Fprintf(out, "  Removed: %s\n", red(strconv.Itoa(removed)))
	}
	if changed > 0 {
		fmt.Fprintf(out, "  Changed: %s\n", yellow(strconv.Itoa(changed)))
	}

	return fmt.Errorf("configuration drift detected")
}
