package resolver

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/weftconf/weft/packages/core/config"
	"github.com/weftconf/weft/packages/core/env"
)

var refPattern = regexp.MustCompile(`^[A-Za-z0-9_.]+$`)

// SubstitutionError reports a ${ref} that named nothing resolvable.
type SubstitutionError struct {
	Section  string
	Variable string
}

func (e *SubstitutionError) Error() string {
	if e.Section == "" {
		return fmt.Sprintf("cannot substitute ${%s}: no section open", e.Variable)
	}
	return fmt.Sprintf("cannot substitute ${%s}: nothing named in section [%s]", e.Variable, e.Section)
}

// Resolver substitutes ${ref} tokens against a store plus the env and
// system pseudo-sections. When Safe is set, unresolvable references
// become empty strings instead of errors; syntax problems stay fatal
// either way.
type Resolver struct {
	Env   env.Lookup
	Props *env.Properties
	Safe  bool
}

// Expand rewrites every ${ref} in value. A backslash before a dollar
// sign escapes it (the backslash is consumed). Substituted values are
// not rescanned, so substitution cannot loop.
func (r *Resolver) Expand(value string, store *config.Store, current string) (string, error) {
	if !strings.Contains(value, "$") {
		return value, nil
	}

	var b strings.Builder
	b.Grow(len(value))
	for i := 0; i < len(value); {
		c := value[i]
		switch {
		case c == '\\' && i+1 < len(value) && value[i+1] == '$':
			b.WriteByte('$')
			i += 2
		case c == '$' && i+1 < len(value) && value[i+1] == '{':
			end := strings.IndexByte(value[i:], '}')
			if end < 0 {
				return "", fmt.Errorf("unterminated ${ in %q", value)
			}
			ref := value[i+2 : i+end]
			if !refPattern.MatchString(ref) {
				return "", fmt.Errorf("bad variable reference ${%s}", ref)
			}
			resolved, err := r.Lookup(ref, store, current)
			if err != nil {
				if !r.Safe {
					return "", err
				}
				resolved = ""
			}
			b.WriteString(resolved)
			i += end + 1
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String(), nil
}

// Lookup resolves one reference. A dot-free ref names an option in the
// current section; otherwise the first dot splits section from option,
// so dotted option names are addressed fully qualified. Only sections
// already in the store are visible, which rules out forward references.
func (r *Resolver) Lookup(ref string, store *config.Store, current string) (string, error) {
	section, option := splitRef(ref, current)
	switch section {
	case config.SectionEnv:
		if r.Env != nil {
			if v, ok := r.Env(option); ok {
				return v, nil
			}
		}
	case config.SectionSystem:
		if r.Props != nil {
			if v, ok := r.Props.Lookup(option); ok {
				return v, nil
			}
		}
	default:
		if v, ok := store.Get(section, option); ok {
			return v, nil
		}
	}
	return "", &SubstitutionError{Section: section, Variable: ref}
}

func splitRef(ref, current string) (section, option string) {
	if before, after, ok := strings.Cut(ref, "."); ok {
		return before, after
	}
	return current, ref
}
