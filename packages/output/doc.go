// Package output provides formatters for displaying configuration check results.
//
// Supported output formats:
//   - Console: Human-readable colored terminal output
//   - JSON: Machine-readable JSON output
//   - JUnit: JUnit XML format for CI integration
//   - TAP: Test Anything Protocol format
//
// Each formatter accumulates results as checks complete and writes its
// report when Flush is called.
package output
