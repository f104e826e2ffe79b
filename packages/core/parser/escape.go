package parser

import (
	"fmt"
	"strconv"
	"strings"
)

// expandMetachars decodes the escape sequences \t \n \r \\ \<space> and
// \uXXXX (exactly four hex digits). Unknown escapes pass through intact
// so the substituter still sees \$; a lone trailing backslash also
// passes through.
func expandMetachars(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		c := s[i]
		if c != '\\' || i == len(s)-1 {
			b.WriteByte(c)
			i++
			continue
		}
		switch next := s[i+1]; next {
		case 't':
			b.WriteByte('\t')
			i += 2
		case 'n':
			b.WriteByte('\n')
			i += 2
		case 'r':
			b.WriteByte('\r')
			i += 2
		case '\\':
			b.WriteByte('\\')
			i += 2
		case ' ':
			b.WriteByte(' ')
			i += 2
		case 'u':
			if i+6 > len(s) {
				return "", fmt.Errorf("incomplete unicode escape %q", s[i:])
			}
			code, err := strconv.ParseUint(s[i+2:i+6], 16, 32)
			if err != nil {
				return "", fmt.Errorf("invalid unicode escape %q", s[i:i+6])
			}
			b.WriteRune(rune(code))
			i += 6
		default:
			b.WriteByte('\\')
			b.WriteByte(next)
			i += 2
		}
	}
	return b.String(), nil
}
