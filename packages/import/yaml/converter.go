// Package yaml provides YAML document to weft format conversion.
package yaml

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Converter converts YAML documents to weft format.
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

// NewConverter creates a new YAML converter.
func NewConverter(opts ...Option) *Converter {
	c := &Converter{
		defaultSection: "main",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ConvertFile converts a YAML file to weft format.
func (c *Converter) ConvertFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	return c.Convert(data)
}

// Convert converts a YAML document to weft format. The document is
// walked as a node tree so mapping order survives; top-level mappings
// become sections and deeper nesting flattens into dotted option names.
func (c *Converter) Convert(data []byte) (string, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return "", fmt.Errorf("failed to parse YAML document: %w", err)
	}

	doc := newDocument()
	if len(root.Content) > 0 {
		c.walkRoot(doc, deref(root.Content[0]))
	}

	return doc.render("YAML"), nil
}

func (c *Converter) walkRoot(doc *document, n *yaml.Node) {
	switch n.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i]
			value := deref(n.Content[i+1])
			if key.Kind != yaml.ScalarNode {
				continue
			}
			switch value.Kind {
			case yaml.MappingNode:
				section := sanitizeSection(key.Value)
				doc.touch(section)
				c.walkMapping(doc, section, "", value)
			case yaml.SequenceNode:
				c.walkSequence(doc, c.defaultSection, sanitizeSegment(key.Value), value)
			default:
				doc.set(c.defaultSection, sanitizeSegment(key.Value), scalarValue(value))
			}
		}
	case yaml.SequenceNode:
		c.walkSequence(doc, c.defaultSection, "", n)
	case yaml.ScalarNode:
		doc.set(c.defaultSection, "value", scalarValue(n))
	}
}

func (c *Converter) walkMapping(doc *document, section, prefix string, n *yaml.Node) {
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i]
		value := deref(n.Content[i+1])
		if key.Kind != yaml.ScalarNode {
			continue
		}
		name := joinKey(prefix, sanitizeSegment(key.Value))
		switch value.Kind {
		case yaml.MappingNode:
			c.walkMapping(doc, section, name, value)
		case yaml.SequenceNode:
			c.walkSequence(doc, section, name, value)
		default:
			doc.set(section, name, scalarValue(value))
		}
	}
}

func (c *Converter) walkSequence(doc *document, section, prefix string, n *yaml.Node) {
	for i, item := range n.Content {
		value := deref(item)
		name := joinKey(prefix, strconv.Itoa(i))
		switch value.Kind {
		case yaml.MappingNode:
			c.walkMapping(doc, section, name, value)
		case yaml.SequenceNode:
			c.walkSequence(doc, section, name, value)
		default:
			doc.set(section, name, scalarValue(value))
		}
	}
}

// deref follows alias nodes to their anchor target.
func deref(n *yaml.Node) *yaml.Node {
	if n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		return n.Alias
	}
	return n
}

func scalarValue(n *yaml.Node) string {
	if n.Tag == "!!null" {
		return ""
	}
	return n.Value
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
