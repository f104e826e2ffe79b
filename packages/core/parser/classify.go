package parser

import (
	"fmt"
	"regexp"
	"strings"
)

type LineKind int

const (
	LineComment LineKind = iota
	LineBlank
	LineSection
	LineBadSection
	LineRawAssign
	LineAssign
	LineUnknown
)

func (k LineKind) String() string {
	switch k {
	case LineComment:
		return "comment"
	case LineBlank:
		return "blank"
	case LineSection:
		return "section"
	case LineBadSection:
		return "bad section"
	case LineRawAssign:
		return "raw assignment"
	case LineAssign:
		return "assignment"
	default:
		return "unknown"
	}
}

var (
	commentPattern   = regexp.MustCompile(`^\s*#`)
	blankPattern     = regexp.MustCompile(`^\s*$`)
	sectionPattern   = regexp.MustCompile(`^\s*\[([A-Za-z0-9_]+)\]\s*$`)
	openBracket      = regexp.MustCompile(`^\s*\[`)
	sectionName      = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	rawAssignPattern = regexp.MustCompile(`^\s*([A-Za-z0-9_.]+)\s*->\s*(.*)$`)
	assignPattern    = regexp.MustCompile(`^\s*([A-Za-z0-9_.]+)\s*[:=]\s*(.*)$`)
)

// classified is one logical line after classification. name and value
// are filled for sections and assignments; problem describes a bad
// section header.
type classified struct {
	kind    LineKind
	name    string
	value   string
	problem string
}

// classify applies the line grammar in fixed precedence order. It never
// fails; structurally bad lines come back as LineBadSection or
// LineUnknown for the driver to report.
func classify(text string) classified {
	switch {
	case commentPattern.MatchString(text):
		return classified{kind: LineComment}
	case blankPattern.MatchString(text):
		return classified{kind: LineBlank}
	}
	if m := sectionPattern.FindStringSubmatch(text); m != nil {
		return classified{kind: LineSection, name: m[1]}
	}
	if openBracket.MatchString(text) {
		return classified{kind: LineBadSection, problem: sectionProblem(text)}
	}
	if m := rawAssignPattern.FindStringSubmatch(text); m != nil {
		return classified{kind: LineRawAssign, name: m[1], value: m[2]}
	}
	if m := assignPattern.FindStringSubmatch(text); m != nil {
		return classified{kind: LineAssign, name: m[1], value: trimValue(m[2])}
	}
	return classified{kind: LineUnknown}
}

// trimValue strips trailing whitespace from a normal assignment value,
// except that a whitespace character completing a trailing escape (as
// in `\ `) is kept for the metachar pass. Raw values are never trimmed.
func trimValue(s string) string {
	trimmed := strings.TrimRight(s, " \t")
	if len(trimmed) == len(s) {
		return s
	}
	n := 0
	for i := len(trimmed) - 1; i >= 0 && trimmed[i] == '\\'; i-- {
		n++
	}
	if n%2 == 1 {
		return s[:len(trimmed)+1]
	}
	return trimmed
}

func sectionProblem(text string) string {
	trimmed := strings.TrimSpace(text)
	end := strings.IndexByte(trimmed, ']')
	if end < 0 {
		return "unterminated section header"
	}
	name := trimmed[1:end]
	if strings.TrimSpace(name) == "" {
		return "empty section name"
	}
	if !sectionName.MatchString(name) {
		return fmt.Sprintf("illegal character in section name %q", name)
	}
	return "unexpected text after section header"
}
