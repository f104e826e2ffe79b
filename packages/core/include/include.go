package include

import (
	"context"
	"fmt"
	"regexp"

	"github.com/weftconf/weft/packages/core/source"
	"github.com/weftconf/weft/packages/logging"
)

// DefaultMaxNesting bounds the stack of open sources, the root file
// included. Cycles are not detected by identity; this bound is what
// stops a self-including file.
const DefaultMaxNesting = 100

// DefaultPattern matches an include directive. Replacement patterns
// must capture the target in exactly one group.
var DefaultPattern = regexp.MustCompile(`^%include\s+"([^"]+)"\s*$`)

// NestingError reports an include chain deeper than the configured
// maximum.
type NestingError struct {
	Limit int
}

func (e *NestingError) Error() string {
	return fmt.Sprintf("include nesting exceeds %d levels", e.Limit)
}

// Stream flattens a root source and everything it includes into one
// line sequence. Include directives produce no output line of their
// own; the included lines appear in their place. Relative targets are
// resolved against the location of the source naming them.
type Stream struct {
	ctx      context.Context
	opener   *source.Opener
	pattern  *regexp.Regexp
	max      int
	observer func(source.Location)
	frames   []*source.Lines
	line     string
	loc      source.Location
	lineNo   int
	err      error
}

type Option func(*Stream)

// WithOpener replaces the opener used for include targets.
func WithOpener(o *source.Opener) Option {
	return func(s *Stream) { s.opener = o }
}

// WithPattern replaces the include directive pattern.
func WithPattern(re *regexp.Regexp) Option {
	return func(s *Stream) { s.pattern = re }
}

// WithMaxNesting replaces the default nesting bound.
func WithMaxNesting(n int) Option {
	return func(s *Stream) { s.max = n }
}

// WithObserver registers a callback invoked once per opened source, the
// root included, in open order. Watch mode uses it to learn which files
// a configuration pulls in.
func WithObserver(fn func(source.Location)) Option {
	return func(s *Stream) { s.observer = fn }
}

// New takes ownership of root: it is closed when the stream is
// exhausted, fails, or is closed.
func New(ctx context.Context, root *source.Lines, opts ...Option) (*Stream, error) {
	s := &Stream{
		ctx:     ctx,
		opener:  source.NewOpener(),
		pattern: DefaultPattern,
		max:     DefaultMaxNesting,
		frames:  []*source.Lines{root},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.pattern.NumSubexp() != 1 {
		root.Close()
		return nil, fmt.Errorf("include pattern %q must have exactly one capture group", s.pattern)
	}
	if s.observer != nil {
		s.observer(root.Location())
	}
	return s, nil
}

// Scan advances to the next line, expanding include directives along
// the way. It returns false at end of input or on error; check Err.
func (s *Stream) Scan() bool {
	if s.err != nil {
		return false
	}
	for {
		top := s.scanTop()
		if top == nil {
			return false
		}
		line := top.Text()
		m := s.pattern.FindStringSubmatch(line)
		if m == nil {
			s.line = line
			s.loc = top.Location()
			s.lineNo = top.Line()
			return true
		}
		if err := s.push(m[1], top.Location()); err != nil {
			s.fail(err)
			return false
		}
	}
}

// scanTop pops exhausted frames until one has a line, closing each
// popped source exactly once.
func (s *Stream) scanTop() *source.Lines {
	for len(s.frames) > 0 {
		top := s.frames[len(s.frames)-1]
		if top.Scan() {
			return top
		}
		if err := top.Err(); err != nil {
			s.fail(fmt.Errorf("reading %s: %w", top.Location(), err))
			return nil
		}
		top.Close()
		s.frames = s.frames[:len(s.frames)-1]
	}
	return nil
}

func (s *Stream) push(target string, base source.Location) error {
	if len(s.frames)+1 > s.max {
		return &NestingError{Limit: s.max}
	}
	loc := base.Sibling(target)
	lines, err := s.opener.Open(s.ctx, loc)
	if err != nil {
		return fmt.Errorf("include %q from %s: %w", target, base, err)
	}
	logger := logging.GetLogger("include")
	logger.Debug().
		Str("target", loc.String()).
		Int("depth", len(s.frames)+1).
		Msg("opened include")
	if s.observer != nil {
		s.observer(loc)
	}
	s.frames = append(s.frames, lines)
	return nil
}

func (s *Stream) fail(err error) {
	s.err = err
	s.closeAll()
}

func (s *Stream) closeAll() {
	for i := len(s.frames) - 1; i >= 0; i-- {
		s.frames[i].Close()
	}
	s.frames = nil
}

// Text returns the line read by the last successful Scan.
func (s *Stream) Text() string {
	return s.line
}

// Location identifies the source that produced the last line.
func (s *Stream) Location() source.Location {
	return s.loc
}

// Line returns the 1-based line number of the last line within its own
// source, not within the flattened stream.
func (s *Stream) Line() int {
	return s.lineNo
}

func (s *Stream) Err() error {
	return s.err
}

// Close releases every still-open source.
func (s *Stream) Close() error {
	s.closeAll()
	return nil
}
