// Package json provides JSON document to weft format conversion.
package json

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Converter converts JSON documents to weft format.
type Converter struct {
	defaultSection string
}

// Option is a functional option for Converter.
type Option func(*Converter)

// WithDefaultSection sets the section that receives top-level scalars.
func WithDefaultSection(name string) Option {
	return func(c *Converter) {
		c.defaultSection = name
	}
}

// NewConverter creates a new JSON converter.
func NewConverter(opts ...Option) *Converter {
	c := &Converter{
		defaultSection: "main",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ConvertFile converts a JSON file to weft format.
func (c *Converter) ConvertFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	return c.Convert(data)
}

// Convert converts a JSON document to weft format. Top-level objects
// become sections, deeper nesting flattens into dotted option names,
// and arrays index their elements.
func (c *Converter) Convert(data []byte) (string, error) {
	if !gjson.ValidBytes(data) {
		return "", fmt.Errorf("invalid JSON document")
	}

	root := gjson.ParseBytes(data)
	doc := newDocument()

	switch {
	case root.IsObject():
		root.ForEach(func(key, value gjson.Result) bool {
			switch {
			case value.IsObject():
				section := sanitizeSection(key.String())
				doc.touch(section)
				c.walkObject(doc, section, "", value)
			case value.IsArray():
				c.walkArray(doc, c.defaultSection, sanitizeSegment(key.String()), value)
			default:
				doc.set(c.defaultSection, sanitizeSegment(key.String()), scalarString(value))
			}
			return true
		})
	case root.IsArray():
		c.walkArray(doc, c.defaultSection, "", root)
	default:
		doc.set(c.defaultSection, "value", scalarString(root))
	}

	return doc.render("JSON"), nil
}

func (c *Converter) walkObject(doc *document, section, prefix string, obj gjson.Result) {
	obj.ForEach(func(key, value gjson.Result) bool {
		name := joinKey(prefix, sanitizeSegment(key.String()))
		switch {
		case value.IsObject():
			c.walkObject(doc, section, name, value)
		case value.IsArray():
			c.walkArray(doc, section, name, value)
		default:
			doc.set(section, name, scalarString(value))
		}
		return true
	})
}

func (c *Converter) walkArray(doc *document, section, prefix string, arr gjson.Result) {
	i := 0
	arr.ForEach(func(_, value gjson.Result) bool {
		name := joinKey(prefix, strconv.Itoa(i))
		i++
		switch {
		case value.IsObject():
			c.walkObject(doc, section, name, value)
		case value.IsArray():
			c.walkArray(doc, section, name, value)
		default:
			doc.set(section, name, scalarString(value))
		}
		return true
	})
}

func scalarString(v gjson.Result) string {
	if v.Type == gjson.Null {
		return ""
	}
	return v.String()
}

func joinKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
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

// sanitizeSegment maps one key path segment onto the option charset.
func sanitizeSegment(name string) string {
	return sanitizeSection(name)
}
