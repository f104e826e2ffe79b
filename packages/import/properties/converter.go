// Package properties provides Java properties to weft format conversion.
package properties

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Converter converts .properties files to weft format.
type Converter struct {
	defaultSection string
}

// Option is a functional option for Converter.
type Option func(*Converter)

// WithDefaultSection sets the section that receives keys without a dot.
func WithDefaultSection(name string) Option {
	return func(c *Converter) {
		c.defaultSection = name
	}
}

// NewConverter creates a new properties converter.
func NewConverter(opts ...Option) *Converter {
	c := &Converter{
		defaultSection: "main",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ConvertFile converts a .properties file to weft format.
func (c *Converter) ConvertFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	return c.Convert(data)
}

// Convert converts properties text to weft format. The first dot of
// each key names the section; dotless keys land in the default section.
func (c *Converter) Convert(data []byte) (string, error) {
	doc := newDocument()
	scanner := bufio.NewScanner(bytes.NewReader(data))

	var logical strings.Builder
	for scanner.Scan() {
		line := strings.TrimLeft(scanner.Text(), " \t\f")
		if logical.Len() == 0 {
			if line == "" || line[0] == '#' || line[0] == '!' {
				continue
			}
		}

		// An odd run of trailing backslashes continues onto the next line.
		if trailingBackslashes(line)%2 == 1 {
			logical.WriteString(line[:len(line)-1])
			continue
		}

		logical.WriteString(line)
		if err := c.addEntry(doc, logical.String()); err != nil {
			return "", err
		}
		logical.Reset()
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read properties: %w", err)
	}
	if logical.Len() > 0 {
		if err := c.addEntry(doc, logical.String()); err != nil {
			return "", err
		}
	}

	return doc.render("properties"), nil
}

func (c *Converter) addEntry(doc *document, line string) error {
	rawKey, rawValue := splitEntry(line)

	key, err := unescape(rawKey)
	if err != nil {
		return err
	}
	value, err := unescape(rawValue)
	if err != nil {
		return err
	}

	section, option, found := strings.Cut(key, ".")
	if !found {
		doc.set(c.defaultSection, sanitizeKey(key), value)
		return nil
	}
	doc.set(sanitizeSection(section), sanitizeKey(option), value)
	return nil
}

// splitEntry splits a logical line into key and value at the first
// unescaped separator ('=', ':', or whitespace followed by an optional
// '=' or ':').
func splitEntry(line string) (string, string) {
	for i := 0; i < len(line); i++ {
		ch := line[i]
		if ch == '\\' {
			i++
			continue
		}
		if ch == '=' || ch == ':' {
			return line[:i], strings.TrimLeft(line[i+1:], " \t\f")
		}
		if ch == ' ' || ch == '\t' || ch == '\f' {
			key := line[:i]
			rest := strings.TrimLeft(line[i:], " \t\f")
			if rest != "" && (rest[0] == '=' || rest[0] == ':') {
				rest = strings.TrimLeft(rest[1:], " \t\f")
			}
			return key, rest
		}
	}
	return line, ""
}

// unescape processes properties escape sequences. Unknown escapes drop
// the backslash and keep the character, matching java.util.Properties.
func unescape(s string) (string, error) {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch != '\\' {
			sb.WriteByte(ch)
			continue
		}
		i++
		if i >= len(s) {
			break
		}
		switch s[i] {
		case 't':
			sb.WriteByte('\t')
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 'f':
			sb.WriteByte('\f')
		case 'u':
			if i+4 >= len(s) {
				return "", fmt.Errorf("incomplete unicode escape in %q", s)
			}
			code, err := strconv.ParseUint(s[i+1:i+5], 16, 32)
			if err != nil {
				return "", fmt.Errorf("invalid unicode escape in %q", s)
			}
			sb.WriteRune(rune(code))
			i += 4
		default:
			sb.WriteByte(s[i])
		}
	}
	return sb.String(), nil
}

func trailingBackslashes(s string) int {
	n := 0
	for i := len(s) - 1; i >= 0 && s[i] == '\\'; i-- {
		n++
	}
	return n
}

// document accumulates sections in encounter order before rendering.
type document struct {
	order    []string
	sections map[string]*docSection
}

type docSection struct {
	keys   []string
	values map[string]string
}

func newDocument() *document {
	return &document{sections: make(map[string]*docSection)}
}

func (d *document) touch(section string) *docSection {
	sec, ok := d.sections[section]
	if !ok {
		sec = &docSection{values: make(map[string]string)}
		d.sections[section] = sec
		d.order = append(d.order, section)
	}
	return sec
}

func (d *document) set(section, key, value string) {
	sec := d.touch(section)
	if _, dup := sec.values[key]; !dup {
		sec.keys = append(sec.keys, key)
	}
	sec.values[key] = value
}

func (d *document) render(origin string) string {
	var sb strings.Builder
	sb.WriteString("# Generated from ")
	sb.WriteString(origin)
	sb.WriteString("\n")

	for _, name := range d.order {
		sec := d.sections[name]
		sb.WriteString("\n[")
		sb.WriteString(name)
		sb.WriteString("]\n")
		for _, key := range sec.keys {
			sb.WriteString(key)
			sb.WriteString(" = ")
			sb.WriteString(escapeValue(sec.values[key]))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// escapeValue makes a raw string safe to appear after "= " in weft text.
// Backslashes double, newlines become metachar escapes, "${" loses its
// meaning, and whitespace at either end is protected from trimming.
func escapeValue(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		ch := s[i]
		edge := i == 0 || i == len(s)-1
		switch {
		case ch == '\\':
			sb.WriteString(`\\`)
		case ch == '\n':
			sb.WriteString(`\n`)
		case ch == '\r':
			sb.WriteString(`\r`)
		case ch == '\t' && edge:
			sb.WriteString(`\t`)
		case ch == ' ' && edge:
			sb.WriteString(`\ `)
		case ch == '$' && i+1 < len(s) && s[i+1] == '{':
			sb.WriteString(`\$`)
		default:
			sb.WriteByte(ch)
		}
	}
	return sb.String()
}

// sanitizeSection maps an arbitrary name onto the section charset.
func sanitizeSection(name string) string {
	result := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			return r
		}
		return '_'
	}, name)

	for strings.Contains(result, "__") {
		result = strings.ReplaceAll(result, "__", "_")
	}
	result = strings.Trim(result, "_")

	if result == "" {
		return "_"
	}
	return result
}

// sanitizeKey maps a dotted option name onto the option charset,
// keeping interior dots.
func sanitizeKey(name string) string {
	result := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '.' {
			return r
		}
		return '_'
	}, name)

	for strings.Contains(result, "__") {
		result = strings.ReplaceAll(result, "__", "_")
	}
	result = strings.Trim(result, "_.")

	if result == "" {
		return "_"
	}
	return result
}
