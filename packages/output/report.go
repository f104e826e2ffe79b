package output

import "time"

// CheckResult records the outcome of loading a single configuration source.
type CheckResult struct {
	Target   string
	Err      error
	Duration time.Duration
	Sections int
	Options  int
}

// Ok reports whether the source loaded cleanly.
func (r CheckResult) Ok() bool {
	return r.Err == nil
}
