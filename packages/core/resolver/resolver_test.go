package resolver

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftconf/weft/packages/core/config"
	"github.com/weftconf/weft/packages/core/env"
)

func testStore(t *testing.T) *config.Store {
	t.Helper()
	s := config.NewStore()
	require.NoError(t, s.AddSection("db"))
	require.NoError(t, s.AddOption("db", "host", "db.example.org"))
	require.NoError(t, s.AddOption("db", "port", "5432"))
	require.NoError(t, s.AddOption("db", "pool.size", "10"))
	require.NoError(t, s.AddSection("app"))
	require.NoError(t, s.AddOption("app", "name", "weft"))
	return s
}

func TestResolver_Expand(t *testing.T) {
	store := testStore(t)
	r := &Resolver{
		Env:   env.Map(map[string]string{"HOME_REGION": "eu-west-1"}),
		Props: env.NewProperties(),
	}
	r.Props.Set("build.channel", "stable")

	tests := []struct {
		name    string
		input   string
		current string
		want    string
	}{
		{"no references", "plain text", "app", "plain text"},
		{"current section", "${name}-cli", "app", "weft-cli"},
		{"qualified", "${db.host}:${db.port}", "app", "db.example.org:5432"},
		{"dotted option fully qualified", "${db.pool.size}", "app", "10"},
		{"env pseudo-section", "region=${env.HOME_REGION}", "app", "region=eu-west-1"},
		{"system pseudo-section", "${system.build.channel}", "app", "stable"},
		{"escaped dollar", `costs \$5`, "app", "costs $5"},
		{"escaped reference", `keep \${name}`, "app", "keep ${name}"},
		{"bare dollar literal", "a$b$", "app", "a$b$"},
		{"adjacent references", "${name}${name}", "app", "weftweft"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Expand(tt.input, store, tt.current)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolver_Unresolvable(t *testing.T) {
	store := testStore(t)
	r := &Resolver{Env: env.Map(nil)}

	_, err := r.Expand("${db.missing}", store, "app")
	var sub *SubstitutionError
	require.ErrorAs(t, err, &sub)
	assert.Equal(t, "db", sub.Section)
	assert.Equal(t, "db.missing", sub.Variable)

	_, err = r.Expand("${ghost.opt}", store, "app")
	require.ErrorAs(t, err, &sub)
	assert.Equal(t, "ghost", sub.Section)

	_, err = r.Expand("${env.WEFT_TEST_ABSENT}", store, "app")
	require.ErrorAs(t, err, &sub)
	assert.Equal(t, "env", sub.Section)
}

func TestResolver_SafeMode(t *testing.T) {
	store := testStore(t)
	r := &Resolver{Env: env.Map(nil), Safe: true}

	got, err := r.Expand("a=${db.missing};b=${name}", store, "app")
	require.NoError(t, err)
	assert.Equal(t, "a=;b=weft", got)
}

func TestResolver_SyntaxErrors(t *testing.T) {
	store := testStore(t)

	tests := []struct {
		name  string
		input string
	}{
		{"unterminated", "${name"},
		{"empty reference", "${}"},
		{"illegal characters", "${na me}"},
		{"dash in reference", "${a-b}"},
	}

	for _, safe := range []bool{false, true} {
		r := &Resolver{Safe: safe}
		for _, tt := range tests {
			t.Run(fmt.Sprintf("%s safe=%v", tt.name, safe), func(t *testing.T) {
				_, err := r.Expand(tt.input, store, "app")
				require.Error(t, err, "syntax errors stay fatal in safe mode")
				var sub *SubstitutionError
				assert.False(t, errors.As(err, &sub), "syntax problems are not substitution failures")
			})
		}
	}
}

func TestResolver_SinglePass(t *testing.T) {
	s := config.NewStore()
	require.NoError(t, s.AddSection("a"))
	// The stored value itself looks like a reference; it must come
	// through verbatim, not get resolved a second time.
	require.NoError(t, s.AddOption("a", "tpl", "${name}"))
	require.NoError(t, s.AddOption("a", "name", "inner"))

	r := &Resolver{}
	got, err := r.Expand("${a.tpl}", s, "a")
	require.NoError(t, err)
	assert.Equal(t, "${name}", got)
}

func TestResolver_NoSectionOpen(t *testing.T) {
	store := config.NewStore()
	r := &Resolver{}

	_, err := r.Expand("${name}", store, "")
	var sub *SubstitutionError
	require.ErrorAs(t, err, &sub)
	assert.Equal(t, "", sub.Section)
}
