package config

import (
	"strconv"
	"strings"
)

// Reserved pseudo-section names. Both are resolved dynamically during
// variable substitution and can never be declared or stored.
const (
	SectionEnv    = "env"
	SectionSystem = "system"
)

// Store holds one parsed configuration: sections in declaration order,
// each with its options in declaration order. Section names are
// case-sensitive; option names are canonicalized to lower case unless
// WithPreservedCase is set.
type Store struct {
	sections []*section
	byName   map[string]*section
	preserve bool
}

type section struct {
	name   string
	names  []string
	values map[string]string
}

type StoreOption func(*Store)

// WithPreservedCase keeps option names exactly as written instead of
// lowercasing them.
func WithPreservedCase() StoreOption {
	return func(s *Store) { s.preserve = true }
}

func NewStore(opts ...StoreOption) *Store {
	s := &Store{byName: make(map[string]*section)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) canon(option string) string {
	if s.preserve {
		return option
	}
	return strings.ToLower(option)
}

// AddSection creates a new, empty section. Adding a section twice, or
// using a reserved pseudo-section name, is an error.
func (s *Store) AddSection(name string) error {
	if name == SectionEnv || name == SectionSystem {
		return &DuplicateSectionError{Section: name}
	}
	if _, ok := s.byName[name]; ok {
		return &DuplicateSectionError{Section: name}
	}
	sec := &section{name: name, values: make(map[string]string)}
	s.sections = append(s.sections, sec)
	s.byName[name] = sec
	return nil
}

// AddOption stores a value under its canonical option name. The section
// must already exist and the option must not.
func (s *Store) AddOption(sectionName, option, value string) error {
	sec, ok := s.byName[sectionName]
	if !ok {
		return &NoSuchSectionError{Section: sectionName}
	}
	key := s.canon(option)
	if _, ok := sec.values[key]; ok {
		return &DuplicateOptionError{Section: sectionName, Option: key}
	}
	sec.names = append(sec.names, key)
	sec.values[key] = value
	return nil
}

// SetOption stores a value, overwriting any previous one. The section
// must already exist.
func (s *Store) SetOption(sectionName, option, value string) error {
	sec, ok := s.byName[sectionName]
	if !ok {
		return &NoSuchSectionError{Section: sectionName}
	}
	key := s.canon(option)
	if _, ok := sec.values[key]; !ok {
		sec.names = append(sec.names, key)
	}
	sec.values[key] = value
	return nil
}

// Get returns an option value and whether it is present. Unknown
// sections and options are not errors.
func (s *Store) Get(sectionName, option string) (string, bool) {
	sec, ok := s.byName[sectionName]
	if !ok {
		return "", false
	}
	v, ok := sec.values[s.canon(option)]
	return v, ok
}

// GetDefault returns the option value, or fallback when absent.
func (s *Store) GetDefault(sectionName, option, fallback string) string {
	if v, ok := s.Get(sectionName, option); ok {
		return v
	}
	return fallback
}

// GetInt converts the stored text at read time. The text itself is never
// altered, so repeated calls always yield the same result.
func (s *Store) GetInt(sectionName, option string) (int, error) {
	v, ok := s.Get(sectionName, option)
	if !ok {
		return 0, &NoSuchOptionError{Section: sectionName, Option: s.canon(option)}
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &ConversionError{Section: sectionName, Option: s.canon(option), Value: v, Want: "int"}
	}
	return n, nil
}

// GetBool accepts the usual INI boolean literals: true/yes/on/1 and
// false/no/off/0, case-insensitively.
func (s *Store) GetBool(sectionName, option string) (bool, error) {
	v, ok := s.Get(sectionName, option)
	if !ok {
		return false, &NoSuchOptionError{Section: sectionName, Option: s.canon(option)}
	}
	switch strings.ToLower(v) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0":
		return false, nil
	}
	return false, &ConversionError{Section: sectionName, Option: s.canon(option), Value: v, Want: "bool"}
}

// HasSection reports whether a section was declared. Pseudo-sections are
// never materialized and always report false.
func (s *Store) HasSection(sectionName string) bool {
	_, ok := s.byName[sectionName]
	return ok
}

// HasOption reports whether an option is set in a declared section.
func (s *Store) HasOption(sectionName, option string) bool {
	_, ok := s.Get(sectionName, option)
	return ok
}

// SectionNames returns the declared section names in declaration order.
func (s *Store) SectionNames() []string {
	names := make([]string, len(s.sections))
	for i, sec := range s.sections {
		names[i] = sec.name
	}
	return names
}

// OptionNames returns the canonical option names of a section in
// declaration order, or nil for an unknown section.
func (s *Store) OptionNames(sectionName string) []string {
	sec, ok := s.byName[sectionName]
	if !ok {
		return nil
	}
	names := make([]string, len(sec.names))
	copy(names, sec.names)
	return names
}

// Options returns a copy of a section's options. Unknown sections yield
// an empty map rather than an error.
func (s *Store) Options(sectionName string) map[string]string {
	out := make(map[string]string)
	sec, ok := s.byName[sectionName]
	if !ok {
		return out
	}
	for k, v := range sec.values {
		out[k] = v
	}
	return out
}
