package source

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout bounds a remote fetch.
	DefaultTimeout = 30 * time.Second

	maxLineBytes = 1024 * 1024
)

// Lines yields the physical lines of one open source, terminators
// stripped. It follows the bufio.Scanner protocol: Scan until false,
// then check Err.
type Lines struct {
	loc     Location
	scanner *bufio.Scanner
	closer  io.Closer
	line    int
	err     error
	closed  bool
}

func newLines(loc Location, r io.Reader, c io.Closer) *Lines {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &Lines{loc: loc, scanner: scanner, closer: c}
}

// FromReader wraps an already open stream of text.
func FromReader(loc Location, r io.Reader) *Lines {
	c, _ := r.(io.Closer)
	return newLines(loc, r, c)
}

// FromString wraps in-memory text under a display name.
func FromString(name, text string) *Lines {
	return newLines(Location{Path: name}, strings.NewReader(text), nil)
}

func (l *Lines) Scan() bool {
	if l.closed || l.err != nil {
		return false
	}
	if l.scanner.Scan() {
		l.line++
		return true
	}
	l.err = l.scanner.Err()
	return false
}

func (l *Lines) Text() string {
	return l.scanner.Text()
}

// Line returns the 1-based number of the line read by the last Scan.
func (l *Lines) Line() int {
	return l.line
}

func (l *Lines) Err() error {
	return l.err
}

func (l *Lines) Location() Location {
	return l.loc
}

// Close releases the underlying file or response body. Safe to call
// more than once.
func (l *Lines) Close() error {
	if l.closed {
		return nil
	}
	l.closed = true
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// Opener opens locations as line sources. The zero value is not usable;
// call NewOpener.
type Opener struct {
	client  *http.Client
	limiter *rate.Limiter
}

type OpenerOption func(*Opener)

// WithHTTPClient replaces the default client (and its timeout).
func WithHTTPClient(c *http.Client) OpenerOption {
	return func(o *Opener) { o.client = c }
}

// WithRateLimit caps remote fetches at perSecond requests. Zero or
// negative disables the cap.
func WithRateLimit(perSecond float64) OpenerOption {
	return func(o *Opener) {
		if perSecond > 0 {
			o.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

func NewOpener(opts ...OpenerOption) *Opener {
	o := &Opener{
		client: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Open dispatches on the location kind. Underlying I/O errors are
// returned as-is so callers can inspect them.
func (o *Opener) Open(ctx context.Context, loc Location) (*Lines, error) {
	if loc.IsRemote() {
		return o.openRemote(ctx, loc)
	}
	f, err := os.Open(loc.Path)
	if err != nil {
		return nil, err
	}
	return newLines(loc, f, f), nil
}

func (o *Opener) openRemote(ctx context.Context, loc Location) (*Lines, error) {
	if o.limiter != nil {
		if err := o.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc.URL.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: unexpected status %s", loc, resp.Status)
	}
	return newLines(loc, resp.Body, resp.Body), nil
}
