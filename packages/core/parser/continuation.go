package parser

import (
	"strings"

	"github.com/weftconf/weft/packages/core/source"
)

// lineStream is what the assembler consumes: the include-expanded
// physical lines, each tagged with its origin.
type lineStream interface {
	Scan() bool
	Text() string
	Location() source.Location
	Line() int
}

// continuation joins backslash-continued physical lines into logical
// lines. A trailing run of n backslashes stands for floor(n/2) literal
// backslashes; an odd run additionally joins the next physical line,
// with no separator inserted. Input ending mid-continuation flushes
// whatever is buffered.
type continuation struct {
	src    lineStream
	line   string
	loc    source.Location
	lineNo int
}

func (c *continuation) Scan() bool {
	if !c.src.Scan() {
		return false
	}
	c.loc = c.src.Location()
	c.lineNo = c.src.Line()

	var b strings.Builder
	for {
		kept, continues := trimContinuation(c.src.Text())
		b.WriteString(kept)
		if !continues || !c.src.Scan() {
			break
		}
	}
	c.line = b.String()
	return true
}

func (c *continuation) Text() string {
	return c.line
}

// Location and Line report where the logical line started.
func (c *continuation) Location() source.Location {
	return c.loc
}

func (c *continuation) Line() int {
	return c.lineNo
}

func trimContinuation(line string) (kept string, continues bool) {
	n := 0
	for i := len(line) - 1; i >= 0 && line[i] == '\\'; i-- {
		n++
	}
	if n == 0 {
		return line, false
	}
	return line[:len(line)-n] + strings.Repeat(`\`, n/2), n%2 == 1
}
