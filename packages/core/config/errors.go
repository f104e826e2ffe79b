package config

import "fmt"

type DuplicateSectionError struct {
	Section string
}

func (e *DuplicateSectionError) Error() string {
	return fmt.Sprintf("section [%s] already exists", e.Section)
}

type DuplicateOptionError struct {
	Section string
	Option  string
}

func (e *DuplicateOptionError) Error() string {
	return fmt.Sprintf("option %q already set in section [%s]", e.Option, e.Section)
}

type NoSuchSectionError struct {
	Section string
}

func (e *NoSuchSectionError) Error() string {
	return fmt.Sprintf("no such section: [%s]", e.Section)
}

type NoSuchOptionError struct {
	Section string
	Option  string
}

func (e *NoSuchOptionError) Error() string {
	return fmt.Sprintf("section [%s] has no option %q", e.Section, e.Option)
}

// ConversionError reports a typed read of an option whose stored text
// does not parse as the requested type.
type ConversionError struct {
	Section string
	Option  string
	Value   string
	Want    string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("option %s.%s: cannot convert %q to %s", e.Section, e.Option, e.Value, e.Want)
}
