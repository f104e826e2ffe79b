// Package cmd implements the weft CLI commands using Cobra.
//
// Available commands:
//   - get: Resolve a single option from a configuration file
//   - sections: Display sections and options defined in a file
//   - validate: Check configuration syntax without loading values anywhere
//   - import: Convert JSON, YAML or Java properties documents to weft format
//   - watch: Re-validate files whenever they change on disk
//   - snapshot: Record and inspect parsed configurations in a local database
//   - diff: Compare a file against a recorded snapshot
//   - bench: Measure parse latency for a configuration file
//   - init: Create a starter configuration and settings file
//   - version: Show weft version information
//
// Global flags control variable interpolation (-D definitions, --env-file,
// --safe) and include handling (--max-include-depth, --include-pattern,
// --fetch-rate) for every command that parses files.
package cmd
