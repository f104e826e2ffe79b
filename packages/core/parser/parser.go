package parser

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/weftconf/weft/packages/core/config"
	"github.com/weftconf/weft/packages/core/env"
	"github.com/weftconf/weft/packages/core/include"
	"github.com/weftconf/weft/packages/core/resolver"
	"github.com/weftconf/weft/packages/core/source"
	"github.com/weftconf/weft/packages/logging"
)

// ParseError tags a failure with the source and line that produced it.
// The underlying cause, when there is one, stays reachable through
// errors.As and errors.Is.
type ParseError struct {
	File    string
	Line    int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	msg := e.Message
	switch {
	case msg == "" && e.Err != nil:
		msg = e.Err.Error()
	case msg != "" && e.Err != nil:
		msg = msg + ": " + e.Err.Error()
	}
	if e.File != "" {
		return e.File + ":" + strconv.Itoa(e.Line) + ": " + msg
	}
	return "line " + strconv.Itoa(e.Line) + ": " + msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parser holds the knobs for loading configuration files. The zero
// value is not usable; call New.
type Parser struct {
	predefined map[string]map[string]string
	safe       bool
	maxNesting int
	pattern    *regexp.Regexp
	preserve   bool
	opener     *source.Opener
	envLookup  env.Lookup
	props      *env.Properties
	observer   func(source.Location)
}

type Option func(*Parser)

// WithPredefined seeds sections into the store before any file content,
// so file text can reference them. A file redeclaring one of these
// sections gets the usual duplicate-section error.
func WithPredefined(sections map[string]map[string]string) Option {
	return func(p *Parser) { p.predefined = sections }
}

// WithSafeSubstitution turns unresolvable ${ref} tokens into empty
// strings instead of errors. Substitution syntax errors stay fatal.
func WithSafeSubstitution() Option {
	return func(p *Parser) { p.safe = true }
}

// WithMaxNesting bounds the include stack, root file included.
func WithMaxNesting(n int) Option {
	return func(p *Parser) { p.maxNesting = n }
}

// WithIncludePattern replaces the %include directive pattern. The
// pattern must capture the target in exactly one group.
func WithIncludePattern(re *regexp.Regexp) Option {
	return func(p *Parser) { p.pattern = re }
}

// WithPreservedCase keeps option names as written instead of
// lowercasing them.
func WithPreservedCase() Option {
	return func(p *Parser) { p.preserve = true }
}

// WithOpener replaces the opener used for the root target and for
// include targets.
func WithOpener(o *source.Opener) Option {
	return func(p *Parser) { p.opener = o }
}

// WithEnviron replaces the lookup behind the env pseudo-section.
func WithEnviron(lookup env.Lookup) Option {
	return func(p *Parser) { p.envLookup = lookup }
}

// WithProperties replaces the properties behind the system
// pseudo-section.
func WithProperties(props *env.Properties) Option {
	return func(p *Parser) { p.props = props }
}

// WithSourceObserver registers a callback invoked for every source a
// parse opens, the root included. Watch mode uses it to find the files
// behind a configuration.
func WithSourceObserver(fn func(source.Location)) Option {
	return func(p *Parser) { p.observer = fn }
}

func New(opts ...Option) *Parser {
	p := &Parser{
		maxNesting: include.DefaultMaxNesting,
		pattern:    include.DefaultPattern,
		opener:     source.NewOpener(),
		envLookup:  env.Environ(),
		props:      env.NewProperties(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse loads a configuration from a path or URL.
func (p *Parser) Parse(ctx context.Context, target string) (*config.Store, error) {
	lines, err := p.opener.Open(ctx, source.ParseLocation(target))
	if err != nil {
		return nil, err
	}
	return p.parse(ctx, lines)
}

// ParseString loads a configuration from in-memory text. name is used
// in error messages and to resolve relative includes.
func (p *Parser) ParseString(ctx context.Context, text, name string) (*config.Store, error) {
	return p.parse(ctx, source.FromString(name, text))
}

func (p *Parser) parse(ctx context.Context, root *source.Lines) (*config.Store, error) {
	incOpts := []include.Option{
		include.WithOpener(p.opener),
		include.WithPattern(p.pattern),
		include.WithMaxNesting(p.maxNesting),
	}
	if p.observer != nil {
		incOpts = append(incOpts, include.WithObserver(p.observer))
	}
	stream, err := include.New(ctx, root, incOpts...)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	store, err := p.seedStore()
	if err != nil {
		return nil, err
	}
	res := &resolver.Resolver{Env: p.envLookup, Props: p.props, Safe: p.safe}

	lines := &continuation{src: stream}
	current := ""
	count := 0
	for lines.Scan() {
		count++
		ln := classify(lines.Text())
		file, lineNo := lines.Location().String(), lines.Line()

		switch ln.kind {
		case LineComment, LineBlank:

		case LineSection:
			if err := store.AddSection(ln.name); err != nil {
				return nil, &ParseError{File: file, Line: lineNo, Err: err}
			}
			current = ln.name

		case LineBadSection:
			return nil, &ParseError{File: file, Line: lineNo, Message: ln.problem}

		case LineRawAssign:
			if current == "" {
				return nil, &ParseError{File: file, Line: lineNo, Message: "assignment outside any section"}
			}
			if err := store.AddOption(current, ln.name, ln.value); err != nil {
				return nil, &ParseError{File: file, Line: lineNo, Err: err}
			}

		case LineAssign:
			if current == "" {
				return nil, &ParseError{File: file, Line: lineNo, Message: "assignment outside any section"}
			}
			expanded, err := expandMetachars(ln.value)
			if err != nil {
				return nil, &ParseError{File: file, Line: lineNo, Err: err}
			}
			value, err := res.Expand(expanded, store, current)
			if err != nil {
				return nil, &ParseError{File: file, Line: lineNo, Err: err}
			}
			if err := store.AddOption(current, ln.name, value); err != nil {
				return nil, &ParseError{File: file, Line: lineNo, Err: err}
			}

		default:
			return nil, &ParseError{File: file, Line: lineNo, Message: fmt.Sprintf("unrecognized line: %q", lines.Text())}
		}
	}
	if err := stream.Err(); err != nil {
		return nil, err
	}

	logger := logging.GetLogger("parser")
	logger.Debug().
		Str("source", root.Location().String()).
		Int("lines", count).
		Int("sections", len(store.SectionNames())).
		Msg("parsed configuration")
	return store, nil
}

// seedStore builds a fresh store holding just the predefined sections.
// Every parse gets its own store, so a failed parse leaves nothing
// behind.
func (p *Parser) seedStore() (*config.Store, error) {
	var storeOpts []config.StoreOption
	if p.preserve {
		storeOpts = append(storeOpts, config.WithPreservedCase())
	}
	store := config.NewStore(storeOpts...)

	names := make([]string, 0, len(p.predefined))
	for name := range p.predefined {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := store.AddSection(name); err != nil {
			return nil, fmt.Errorf("predefined section %q: %w", name, err)
		}
		options := p.predefined[name]
		keys := make([]string, 0, len(options))
		for k := range options {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := store.AddOption(name, k, options[k]); err != nil {
				return nil, fmt.Errorf("predefined section %q: %w", name, err)
			}
		}
	}
	return store, nil
}
