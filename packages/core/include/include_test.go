package include

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftconf/weft/packages/core/source"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func collect(t *testing.T, s *Stream) []string {
	t.Helper()
	var lines []string
	for s.Scan() {
		lines = append(lines, s.Text())
	}
	require.NoError(t, s.Err())
	return lines
}

func TestStream_NoIncludes(t *testing.T) {
	s, err := New(context.Background(), source.FromString("inline", "[main]\nhost=example.org\n"))
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, []string{"[main]", "host=example.org"}, collect(t, s))
}

func TestStream_IncludedLinesReplaceDirective(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.conf"), "before=1\n%include \"extra.conf\"\nafter=2\n")
	writeFile(t, filepath.Join(dir, "extra.conf"), "k=v\n")

	opener := source.NewOpener()
	root, err := opener.Open(context.Background(), source.ParseLocation(filepath.Join(dir, "main.conf")))
	require.NoError(t, err)

	s, err := New(context.Background(), root, WithOpener(opener))
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, []string{"before=1", "k=v", "after=2"}, collect(t, s))
}

func TestStream_RelativeToIncludingFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.conf"), "%include \"sub/mid.conf\"\n")
	writeFile(t, filepath.Join(dir, "sub", "mid.conf"), "mid=1\n%include \"leaf.conf\"\n")
	// leaf.conf sits next to mid.conf, not next to main.conf
	writeFile(t, filepath.Join(dir, "sub", "leaf.conf"), "leaf=1\n")

	opener := source.NewOpener()
	root, err := opener.Open(context.Background(), source.ParseLocation(filepath.Join(dir, "main.conf")))
	require.NoError(t, err)

	s, err := New(context.Background(), root, WithOpener(opener))
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, []string{"mid=1", "leaf=1"}, collect(t, s))
}

func TestStream_NestingGuard(t *testing.T) {
	dir := t.TempDir()
	// The file includes itself; only the depth bound stops it.
	writeFile(t, filepath.Join(dir, "loop.conf"), "%include \"loop.conf\"\n")

	opener := source.NewOpener()
	root, err := opener.Open(context.Background(), source.ParseLocation(filepath.Join(dir, "loop.conf")))
	require.NoError(t, err)

	s, err := New(context.Background(), root, WithOpener(opener), WithMaxNesting(3))
	require.NoError(t, err)
	defer s.Close()

	for s.Scan() {
	}
	var nesting *NestingError
	require.ErrorAs(t, s.Err(), &nesting)
	assert.Equal(t, 3, nesting.Limit)
}

func TestStream_MissingTarget(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.conf"), "%include \"absent.conf\"\n")

	opener := source.NewOpener()
	root, err := opener.Open(context.Background(), source.ParseLocation(filepath.Join(dir, "main.conf")))
	require.NoError(t, err)

	s, err := New(context.Background(), root, WithOpener(opener))
	require.NoError(t, err)
	defer s.Close()

	for s.Scan() {
	}
	require.Error(t, s.Err())
	assert.True(t, errors.Is(s.Err(), os.ErrNotExist), "underlying I/O error should survive wrapping: %v", s.Err())
	assert.Contains(t, s.Err().Error(), "absent.conf")
}

func TestStream_CustomPattern(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.conf"), ".include <extra.conf>\n")
	writeFile(t, filepath.Join(dir, "extra.conf"), "k=v\n")

	opener := source.NewOpener()
	root, err := opener.Open(context.Background(), source.ParseLocation(filepath.Join(dir, "main.conf")))
	require.NoError(t, err)

	s, err := New(context.Background(), root,
		WithOpener(opener),
		WithPattern(regexp.MustCompile(`^\.include\s+<([^>]+)>\s*$`)))
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, []string{"k=v"}, collect(t, s))
}

func TestStream_PatternNeedsOneGroup(t *testing.T) {
	_, err := New(context.Background(), source.FromString("inline", ""),
		WithPattern(regexp.MustCompile(`^%include .*$`)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "capture group")
}

func TestStream_RemoteInclude(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/conf/main.conf", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "%include \"extra.conf\"\nlocal=1\n")
	})
	mux.HandleFunc("/conf/extra.conf", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "remote=1\n")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	opener := source.NewOpener(source.WithRateLimit(100))
	root, err := opener.Open(context.Background(), source.ParseLocation(srv.URL+"/conf/main.conf"))
	require.NoError(t, err)

	s, err := New(context.Background(), root, WithOpener(opener))
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, []string{"remote=1", "local=1"}, collect(t, s))
}

func TestStream_ObserverSeesEveryOpen(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.conf"), "%include \"sub/mid.conf\"\n")
	writeFile(t, filepath.Join(dir, "sub", "mid.conf"), "%include \"leaf.conf\"\n")
	writeFile(t, filepath.Join(dir, "sub", "leaf.conf"), "leaf=1\n")

	opener := source.NewOpener()
	root, err := opener.Open(context.Background(), source.ParseLocation(filepath.Join(dir, "main.conf")))
	require.NoError(t, err)

	var opened []string
	s, err := New(context.Background(), root,
		WithOpener(opener),
		WithObserver(func(loc source.Location) { opened = append(opened, loc.Path) }))
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, []string{"leaf=1"}, collect(t, s))
	assert.Equal(t, []string{
		filepath.Join(dir, "main.conf"),
		filepath.Join(dir, "sub", "mid.conf"),
		filepath.Join(dir, "sub", "leaf.conf"),
	}, opened)
}

func TestStream_LocalIncludesRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "remote=1\n")
	}))
	defer srv.Close()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.conf"), fmt.Sprintf("%%include %q\nlocal=1\n", srv.URL+"/shared.conf"))

	opener := source.NewOpener()
	root, err := opener.Open(context.Background(), source.ParseLocation(filepath.Join(dir, "main.conf")))
	require.NoError(t, err)

	s, err := New(context.Background(), root, WithOpener(opener))
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, []string{"remote=1", "local=1"}, collect(t, s))
}
