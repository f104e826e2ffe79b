package properties

import (
	"context"
	"strings"
	"testing"

	"github.com/weftconf/weft/packages/core/parser"
)

func TestConvert_DottedKeysBecomeSections(t *testing.T) {
	converter := NewConverter()

	text, err := converter.Convert([]byte(`
db.host=localhost
db.pool.size=10
verbose=true
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"[db]", "host = localhost", "pool.size = 10", "[main]", "verbose = true"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q, got:\n%s", want, text)
		}
	}
}

func TestConvert_Separators(t *testing.T) {
	converter := NewConverter()

	text, err := converter.Convert([]byte("app.a=1\napp.b: 2\napp.c 3\napp.d = 4\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"a = 1", "b = 2", "c = 3", "d = 4"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q, got:\n%s", want, text)
		}
	}
}

func TestConvert_Comments(t *testing.T) {
	converter := NewConverter()

	text, err := converter.Convert([]byte("# hash comment\n! bang comment\napp.key=value\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if strings.Contains(text, "comment") {
		t.Errorf("expected comments to be dropped, got:\n%s", text)
	}
	if !strings.Contains(text, "key = value") {
		t.Errorf("expected key, got:\n%s", text)
	}
}

func TestConvert_LineContinuation(t *testing.T) {
	converter := NewConverter()

	text, err := converter.Convert([]byte("app.targets=alpha,\\\n    beta,\\\n    gamma\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(text, "targets = alpha,beta,gamma") {
		t.Errorf("expected joined continuation, got:\n%s", text)
	}
}

func TestConvert_Escapes(t *testing.T) {
	converter := NewConverter()

	text, err := converter.Convert([]byte(`app.tab=a\tb
app.unicode=\u00e9clair
app.sep=key\=with\:seps
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(text, "unicode = éclair") {
		t.Errorf("expected unicode escape decoded, got:\n%s", text)
	}
	if !strings.Contains(text, "sep = key=with:seps") {
		t.Errorf("expected separator escapes decoded, got:\n%s", text)
	}
	if !strings.Contains(text, "tab = a\tb") {
		t.Errorf("expected tab decoded, got:\n%s", text)
	}
}

func TestConvert_EscapedSeparatorInKey(t *testing.T) {
	converter := NewConverter()

	text, err := converter.Convert([]byte(`app.weird\=key=value`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The '=' decoded from the key cannot survive sanitizing.
	if !strings.Contains(text, "weird_key = value") {
		t.Errorf("expected sanitized key, got:\n%s", text)
	}
}

func TestConvert_BadUnicodeEscape(t *testing.T) {
	converter := NewConverter()

	if _, err := converter.Convert([]byte(`app.bad=\u12`)); err == nil {
		t.Fatal("expected error for short unicode escape")
	}
}

func TestConvert_OutputReloads(t *testing.T) {
	converter := NewConverter()

	text, err := converter.Convert([]byte(`paths.temp=C:\\temp\\new
paths.message=hello there
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	store, err := parser.New().ParseString(context.Background(), text, "converted")
	if err != nil {
		t.Fatalf("converted output failed to load: %v\n%s", err, text)
	}

	if got, _ := store.Get("paths", "temp"); got != `C:\temp\new` {
		t.Errorf("round trip of temp: got %q", got)
	}
	if got, _ := store.Get("paths", "message"); got != "hello there" {
		t.Errorf("round trip of message: got %q", got)
	}
}
