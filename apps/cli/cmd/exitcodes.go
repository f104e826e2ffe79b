package cmd

import (
	"errors"

	"github.com/spf13/cobra"
)

// Exit codes for the weft CLI
const (
	// ExitSuccess indicates the command completed
	ExitSuccess = 0

	// ExitFailure indicates a parse or validation failure
	ExitFailure = 1

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 2
)

// usageError marks flag and argument mistakes so Execute can exit with
// ExitUsageError instead of ExitFailure.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }

func (e *usageError) Unwrap() error { return e.err }

func isUsageError(err error) bool {
	var ue *usageError
	return errors.As(err, &ue)
}

// usage wraps a positional argument validator so its failures count as
// usage errors.
func usage(pos cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := pos(cmd, args); err != nil {
			return &usageError{err}
		}
		return nil
	}
}
