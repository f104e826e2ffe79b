package env

import (
	"os"
	"strings"
)

// Lookup resolves a name against some environment-like source.
type Lookup func(name string) (string, bool)

// Environ returns a Lookup over the process environment.
func Environ() Lookup {
	return os.LookupEnv
}

// Map returns a Lookup over a fixed set of values.
func Map(values map[string]string) Lookup {
	return func(name string) (string, bool) {
		v, ok := values[name]
		return v, ok
	}
}

// Overlay returns a Lookup that consults overrides first and falls back
// to base for anything not overridden.
func Overlay(base Lookup, overrides map[string]string) Lookup {
	if len(overrides) == 0 {
		return base
	}
	return func(name string) (string, bool) {
		if v, ok := overrides[name]; ok {
			return v, true
		}
		return base(name)
	}
}

// SystemEnv returns the process environment as a map, optionally keeping
// only variables with the given prefix (prefix stripped from the keys).
func SystemEnv(prefix string) map[string]string {
	result := make(map[string]string)
	for _, e := range os.Environ() {
		key, value, ok := strings.Cut(e, "=")
		if !ok {
			continue
		}
		if prefix == "" {
			result[key] = value
		} else if rest, ok := strings.CutPrefix(key, prefix); ok && rest != "" {
			result[rest] = value
		}
	}
	return result
}
