package output

import (
	"encoding/json"
	"io"
	"os"
	"time"
)

// JSONOutput represents the complete JSON output structure
type JSONOutput struct {
	Summary  JSONSummary `json:"summary"`
	Files    []JSONCheck `json:"files"`
	Duration float64     `json:"duration"`
	Time     string      `json:"time"`
}

// JSONSummary represents the check summary
type JSONSummary struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// JSONCheck represents a single check result
type JSONCheck struct {
	Target   string  `json:"target"`
	Ok       bool    `json:"ok"`
	Error    string  `json:"error,omitempty"`
	Sections int     `json:"sections,omitempty"`
	Options  int     `json:"options,omitempty"`
	Duration float64 `json:"duration"`
}

// JSONFormatter formats check results as JSON
type JSONFormatter struct {
	writer io.Writer
	checks []JSONCheck
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
		checks: make([]JSONCheck, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) FormatCheck(res CheckResult) {
	check := JSONCheck{
		Target:   res.Target,
		Ok:       res.Ok(),
		Duration: float64(res.Duration.Milliseconds()),
	}

	if res.Err != nil {
		check.Error = res.Err.Error()
	} else {
		check.Sections = res.Sections
		check.Options = res.Options
	}

	f.checks = append(f.checks, check)
}

func (f *JSONFormatter) FormatError(err error) {
	// Errors are included in individual check results
}

func (f *JSONFormatter) FormatHeader(version string) {
	// No header needed for JSON output
}

// Flush writes the accumulated JSON output
func (f *JSONFormatter) Flush(totalDuration time.Duration) error {
	var passed, failed int
	for _, c := range f.checks {
		if c.Ok {
			passed++
		} else {
			failed++
		}
	}

	output := JSONOutput{
		Summary: JSONSummary{
			Total:  len(f.checks),
			Passed: passed,
			Failed: failed,
		},
		Files:    f.checks,
		Duration: float64(totalDuration.Milliseconds()),
		Time:     time.Now().Format(time.RFC3339),
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
