package parser

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftconf/weft/packages/core/config"
	"github.com/weftconf/weft/packages/core/env"
	"github.com/weftconf/weft/packages/core/include"
	"github.com/weftconf/weft/packages/core/resolver"
	"github.com/weftconf/weft/packages/core/source"
)

func parseString(t *testing.T, text string, opts ...Option) (*config.Store, error) {
	t.Helper()
	return New(opts...).ParseString(context.Background(), text, "test.conf")
}

func mustParse(t *testing.T, text string, opts ...Option) *config.Store {
	t.Helper()
	store, err := parseString(t, text, opts...)
	require.NoError(t, err)
	return store
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestParse_Simple(t *testing.T) {
	store := mustParse(t, "[main]\nfoo: bar\n")

	v, ok := store.Get("main", "foo")
	require.True(t, ok)
	assert.Equal(t, "bar", v)
	assert.Equal(t, []string{"main"}, store.SectionNames())
}

func TestParse_SeparatorsAndTrimming(t *testing.T) {
	store := mustParse(t, "[main]\na = padded   \nb:colon\nc =\n")

	assert.Equal(t, "padded", store.GetDefault("main", "a", "?"))
	assert.Equal(t, "colon", store.GetDefault("main", "b", "?"))
	assert.Equal(t, "", store.GetDefault("main", "c", "?"))
	assert.True(t, store.HasOption("main", "c"))
}

func TestParse_CommentsAndBlanks(t *testing.T) {
	store := mustParse(t, "# header comment\n\n[main]\n  # indented\n\na = 1\n")

	assert.Equal(t, []string{"a"}, store.OptionNames("main"))
}

func TestParse_BackwardReference(t *testing.T) {
	store := mustParse(t, `[db]
host = db1.example.org
[app]
primary = ${db.host}
banner = on ${primary}
`)

	assert.Equal(t, "db1.example.org", store.GetDefault("app", "primary", "?"))
	assert.Equal(t, "on db1.example.org", store.GetDefault("app", "banner", "?"))
}

func TestParse_ForwardReferenceFails(t *testing.T) {
	_, err := parseString(t, "[a]\nx = ${b.y}\n[b]\ny = 1\n")

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 2, pe.Line)

	var sub *resolver.SubstitutionError
	require.ErrorAs(t, err, &sub)
	assert.Equal(t, "b", sub.Section)
	assert.Equal(t, "b.y", sub.Variable)
}

func TestParse_EnvPseudoSection(t *testing.T) {
	store := mustParse(t, "[a]\np = ${env.SOME_VAR}\n",
		WithEnviron(env.Map(map[string]string{"SOME_VAR": "hello"})))

	assert.Equal(t, "hello", store.GetDefault("a", "p", "?"))
}

func TestParse_SystemPseudoSection(t *testing.T) {
	props := env.NewProperties()
	props.Set("build.channel", "stable")

	store := mustParse(t, "[a]\nchan = ${system.build.channel}\nos = ${system.os.name}\n",
		WithProperties(props))

	assert.Equal(t, "stable", store.GetDefault("a", "chan", "?"))
	assert.Equal(t, runtime.GOOS, store.GetDefault("a", "os", "?"))
}

func TestParse_DuplicateSection(t *testing.T) {
	_, err := parseString(t, "[main]\na = 1\n[main]\n")

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 3, pe.Line)

	var dup *config.DuplicateSectionError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "main", dup.Section)
}

func TestParse_DuplicateOption(t *testing.T) {
	_, err := parseString(t, "[main]\nFoo = 1\nfoo = 2\n")

	var dup *config.DuplicateOptionError
	require.ErrorAs(t, err, &dup, "canonicalization makes Foo and foo collide")
	assert.Equal(t, "foo", dup.Option)
}

func TestParse_PreservedCase(t *testing.T) {
	store := mustParse(t, "[main]\nFoo = 1\nfoo = 2\n", WithPreservedCase())

	assert.Equal(t, "1", store.GetDefault("main", "Foo", "?"))
	assert.Equal(t, "2", store.GetDefault("main", "foo", "?"))
}

func TestParse_RawAssignment(t *testing.T) {
	store := mustParse(t, "[main]\ntpl -> ${main.later}\\t${x}\nlater = 1\n")

	// Raw values skip both metachar expansion and substitution.
	assert.Equal(t, `${main.later}\t${x}`, store.GetDefault("main", "tpl", "?"))
}

func TestParse_Metachars(t *testing.T) {
	store := mustParse(t, `[main]
cols = a\tb\nc
path = C:\\temp
spaced = keep\ `+"\n"+`uni = \u0041ok
`)

	assert.Equal(t, "a\tb\nc", store.GetDefault("main", "cols", "?"))
	assert.Equal(t, `C:\temp`, store.GetDefault("main", "path", "?"))
	assert.Equal(t, "keep ", store.GetDefault("main", "spaced", "?"))
	assert.Equal(t, "Aok", store.GetDefault("main", "uni", "?"))
}

func TestParse_BadUnicodeEscapeFatal(t *testing.T) {
	for _, opts := range [][]Option{nil, {WithSafeSubstitution()}} {
		_, err := parseString(t, `[main]`+"\n"+`x = \u12`+"\n", opts...)
		var pe *ParseError
		require.ErrorAs(t, err, &pe, "bad escapes are syntax, not substitution")
		assert.Contains(t, pe.Error(), "unicode escape")
	}
}

func TestParse_EscapedDollar(t *testing.T) {
	store := mustParse(t, `[main]`+"\n"+`price = \$5`+"\n")

	assert.Equal(t, "$5", store.GetDefault("main", "price", "?"))
}

func TestParse_SafeMode(t *testing.T) {
	store := mustParse(t, "[main]\nx = <${ghost.ref}>\n", WithSafeSubstitution())
	assert.Equal(t, "<>", store.GetDefault("main", "x", "?"))

	_, err := parseString(t, "[main]\nx = ${bad\n", WithSafeSubstitution())
	require.Error(t, err, "safe mode does not cover syntax errors")
}

func TestParse_Continuation(t *testing.T) {
	store := mustParse(t, "[main]\nmsg = hello \\\nworld\n")

	assert.Equal(t, "hello world", store.GetDefault("main", "msg", "?"))
}

func TestParse_ContinuationAcrossEvenBackslashes(t *testing.T) {
	// Two trailing backslashes: literal, no join. The pair collapses to
	// one backslash, which metachar expansion cannot halve again since
	// a lone trailing backslash passes through.
	store := mustParse(t, "[main]\na = x\\\\\nb = 2\n")

	assert.Equal(t, `x\`, store.GetDefault("main", "a", "?"))
	assert.Equal(t, "2", store.GetDefault("main", "b", "?"))
}

func TestParse_AssignmentOutsideSection(t *testing.T) {
	_, err := parseString(t, "foo = 1\n")

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 1, pe.Line)
	assert.Contains(t, pe.Error(), "assignment outside any section")
}

func TestParse_UnrecognizedLine(t *testing.T) {
	_, err := parseString(t, "[main]\nwhat is this\n")

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 2, pe.Line)
	assert.Contains(t, pe.Error(), "unrecognized line")
}

func TestParse_BadSectionHeaders(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"[main\n", "unterminated section header"},
		{"[]\n", "empty section name"},
		{"[a b]\n", "illegal character"},
		{"[main] extra\n", "unexpected text"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			_, err := parseString(t, tt.input)
			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Contains(t, pe.Error(), tt.want)
		})
	}
}

func TestParse_Predefined(t *testing.T) {
	predef := map[string]map[string]string{
		"deploy": {"region": "eu-west-1", "tier": "prod"},
	}

	store := mustParse(t, "[app]\nr = ${deploy.region}\n", WithPredefined(predef))
	assert.Equal(t, "eu-west-1", store.GetDefault("app", "r", "?"))
	assert.Equal(t, []string{"deploy", "app"}, store.SectionNames(),
		"predefined sections precede all file content")

	_, err := parseString(t, "[deploy]\n", WithPredefined(predef))
	var dup *config.DuplicateSectionError
	require.ErrorAs(t, err, &dup)
}

func TestParse_IncludePositioning(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.conf"), "[a]\nbefore = 1\n%include \"extra.conf\"\nafter = 2\n")
	writeFile(t, filepath.Join(dir, "extra.conf"), "k = v\n")

	store, err := New().Parse(context.Background(), filepath.Join(dir, "main.conf"))
	require.NoError(t, err)

	assert.Equal(t, []string{"before", "k", "after"}, store.OptionNames("a"),
		"included lines land exactly where the directive sat")
}

func TestParse_IncludeContinuesSection(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.conf"), "[main]\na = 1\n%include \"extra.conf\"\nc = ${sub.b}\n")
	writeFile(t, filepath.Join(dir, "extra.conf"), "[sub]\nb = 2\n")

	store, err := New().Parse(context.Background(), filepath.Join(dir, "main.conf"))
	require.NoError(t, err)

	// The stream is flat: a section opened by an included file stays
	// current after the include ends.
	assert.Equal(t, "2", store.GetDefault("sub", "b", "?"))
	assert.Equal(t, "2", store.GetDefault("sub", "c", "?"))
	assert.False(t, store.HasOption("main", "c"))
}

func TestParse_IncludeRelativeToIncluder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.conf"), "[a]\n%include \"sub/mid.conf\"\n")
	writeFile(t, filepath.Join(dir, "sub", "mid.conf"), "m = 1\n%include \"leaf.conf\"\n")
	writeFile(t, filepath.Join(dir, "sub", "leaf.conf"), "l = 2\n")

	store, err := New().Parse(context.Background(), filepath.Join(dir, "main.conf"))
	require.NoError(t, err)

	assert.Equal(t, "1", store.GetDefault("a", "m", "?"))
	assert.Equal(t, "2", store.GetDefault("a", "l", "?"))
}

func TestParse_NestingExceeded(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "loop.conf"), "%include \"loop.conf\"\n")

	_, err := New(WithMaxNesting(4)).Parse(context.Background(), filepath.Join(dir, "loop.conf"))

	var nesting *include.NestingError
	require.ErrorAs(t, err, &nesting)
	assert.Equal(t, 4, nesting.Limit)
}

func TestParse_ErrorInIncludedFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.conf"), "[a]\n%include \"extra.conf\"\n")
	writeFile(t, filepath.Join(dir, "extra.conf"), "good = 1\nbroken line\n")

	_, err := New().Parse(context.Background(), filepath.Join(dir, "main.conf"))

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.True(t, strings.HasSuffix(pe.File, "extra.conf"), "error names the included file: %s", pe.File)
	assert.Equal(t, 2, pe.Line)
}

func TestParse_MissingRootFile(t *testing.T) {
	_, err := New().Parse(context.Background(), filepath.Join(t.TempDir(), "absent.conf"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestParse_CustomIncludePattern(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.conf"), "[a]\n!use <extra.conf>\n")
	writeFile(t, filepath.Join(dir, "extra.conf"), "k = v\n")

	p := New(WithIncludePattern(regexp.MustCompile(`^!use\s+<([^>]+)>\s*$`)))
	store, err := p.Parse(context.Background(), filepath.Join(dir, "main.conf"))
	require.NoError(t, err)

	assert.Equal(t, "v", store.GetDefault("a", "k", "?"))
}

func TestParse_RemoteConfig(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/conf/main.conf", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "[remote]\n%include \"extra.conf\"\nlocal = ${shared}\n")
	})
	mux.HandleFunc("/conf/extra.conf", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "shared = from-server\n")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := New(WithOpener(source.NewOpener(source.WithRateLimit(100))))
	store, err := p.Parse(context.Background(), srv.URL+"/conf/main.conf")
	require.NoError(t, err)

	assert.Equal(t, "from-server", store.GetDefault("remote", "shared", "?"))
	assert.Equal(t, "from-server", store.GetDefault("remote", "local", "?"))
}

func TestParse_EmptyInput(t *testing.T) {
	store := mustParse(t, "")
	assert.Empty(t, store.SectionNames())
}

func TestParse_DottedOptionNames(t *testing.T) {
	store := mustParse(t, "[main]\npool.size = 10\n[other]\nref = ${main.pool.size}\n")

	assert.Equal(t, "10", store.GetDefault("main", "pool.size", "?"))
	assert.Equal(t, "10", store.GetDefault("other", "ref", "?"))
}
