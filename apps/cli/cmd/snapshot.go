package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/weftconf/weft/packages/snapshot"
)

var snapshotDBFlag string

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <command>",
	Short: "Record and inspect parsed configurations",
	Long: `Record fully resolved configurations in a local database and inspect
them later. Snapshots pin down what a file meant at a point in time,
including everything pulled in through includes and interpolation.

Examples:
  weft snapshot save app.conf
  weft snapshot list
  weft snapshot show 1a2b3c4d`,
}

var snapshotSaveCmd = &cobra.Command{
	Use:   "save <file>",
	Short: "Parse a file and record the result",
	Args:  usage(cobra.ExactArgs(1)),
	RunE:  snapshotSaveCommand,
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded snapshots, newest first",
	Args:  usage(cobra.NoArgs),
	RunE:  snapshotListCommand,
}

var snapshotShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a recorded snapshot",
	Long: `Show the sections and options of a recorded snapshot. The id may be
any unique prefix of the full snapshot id.`,
	Args: usage(cobra.ExactArgs(1)),
	RunE: snapshotShowCommand,
}

func init() {
	snapshotCmd.PersistentFlags().StringVar(&snapshotDBFlag, "db", "", "Snapshot database path (default from settings)")

	snapshotCmd.AddCommand(snapshotSaveCmd)
	snapshotCmd.AddCommand(snapshotListCmd)
	snapshotCmd.AddCommand(snapshotShowCmd)
	rootCmd.AddCommand(snapshotCmd)
}

func snapshotDBPath(cmd *cobra.Command) (string, error) {
	if snapshotDBFlag != "" {
		return snapshotDBFlag, nil
	}
	s, err := effectiveSettings(cmd)
	if err != nil {
		return "", err
	}
	return s.SnapshotDB, nil
}

func snapshotSaveCommand(cmd *cobra.Command, args []string) error {
	s, err := effectiveSettings(cmd)
	if err != nil {
		return err
	}
	p, err := buildParser(s)
	if err != nil {
		return err
	}

	store, err := p.Parse(cmd.Context(), args[0])
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

	snap, err := db.Save(cmd.Context(), args[0], store)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Saved snapshot %s (%d entries)\n", snap.ID, len(snap.Entries))
	return nil
}

func snapshotListCommand(cmd *cobra.Command, args []string) error {
	path, err := snapshotDBPath(cmd)
	if err != nil {
		return err
	}
	db, err := snapshot.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	snaps, err := db.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No snapshots recorded.")
		return nil
	}

	for _, snap := range snaps {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s\n",
			snap.ID[:8], snap.CreatedAt.Local().Format(time.DateTime), snap.Source)
	}
	return nil
}

func snapshotShowCommand(cmd *cobra.Command, args []string) error {
	path, err := snapshotDBPath(cmd)
	if err != nil {
		return err
	}
	db, err := snapshot.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	snap, err := db.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Snapshot %s\n", snap.ID)
	fmt.Fprintf(out, "Source:  %s\n", snap.Source)
	fmt.Fprintf(out, "Created: %s\n", snap.CreatedAt.Local().Format(time.DateTime))

	current := ""
	for _, e := range snap.Entries {
		if e.Section != current {
			fmt.Fprintf(out, "\n[%s]\n", e.Section)
			current = e.Section
		}
		fmt.Fprintf(out, "  %s = %s\n", e.Option, e.Value)
	}
	return nil
}
