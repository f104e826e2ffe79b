package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  classified
	}{
		{"comment", "# a comment", classified{kind: LineComment}},
		{"indented comment", "   # still a comment", classified{kind: LineComment}},
		{"comment with equals", "# not = assignment", classified{kind: LineComment}},
		{"empty", "", classified{kind: LineBlank}},
		{"whitespace only", " \t ", classified{kind: LineBlank}},
		{"section", "[main]", classified{kind: LineSection, name: "main"}},
		{"padded section", "  [db_2]  ", classified{kind: LineSection, name: "db_2"}},
		{"assign equals", "host=example.org", classified{kind: LineAssign, name: "host", value: "example.org"}},
		{"assign colon", "host: example.org", classified{kind: LineAssign, name: "host", value: "example.org"}},
		{"assign trims trailing space", "host = example.org  ", classified{kind: LineAssign, name: "host", value: "example.org"}},
		{"assign keeps escaped trailing space", `pad = v\ `, classified{kind: LineAssign, name: "pad", value: `v\ `}},
		{"assign escaped backslash then space trimmed", `pad = v\\  `, classified{kind: LineAssign, name: "pad", value: `v\\`}},
		{"assign empty value", "host =", classified{kind: LineAssign, name: "host", value: ""}},
		{"dotted option name", "pool.size = 10", classified{kind: LineAssign, name: "pool.size", value: "10"}},
		{"raw assign", "tpl -> ${later.value}", classified{kind: LineRawAssign, name: "tpl", value: "${later.value}"}},
		{"raw assign keeps trailing space", "tpl -> v  ", classified{kind: LineRawAssign, name: "tpl", value: "v  "}},
		{"unterminated section", "[main", classified{kind: LineBadSection, problem: "unterminated section header"}},
		{"empty section", "[]", classified{kind: LineBadSection, problem: "empty section name"}},
		{"blank section", "[  ]", classified{kind: LineBadSection, problem: "empty section name"}},
		{"bad section chars", "[a b]", classified{kind: LineBadSection, problem: `illegal character in section name "a b"`}},
		{"dash in section", "[a-b]", classified{kind: LineBadSection, problem: `illegal character in section name "a-b"`}},
		{"trailing junk after section", "[main] extra", classified{kind: LineBadSection, problem: "unexpected text after section header"}},
		{"unrecognized", "just some words", classified{kind: LineUnknown}},
		{"indented directive is not recognized", `  %include "x"`, classified{kind: LineUnknown}},
		{"name with illegal char", "ho-st = x", classified{kind: LineUnknown}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.input))
		})
	}
}
