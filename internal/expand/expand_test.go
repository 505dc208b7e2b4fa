package expand

import (
	"errors"
	"testing"

	"github.com/specialistvlad/markbuild/internal/props"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExpander(t *testing.T, kv ...string) *Expander {
	t.Helper()
	store := props.New()
	for i := 0; i < len(kv); i += 2 {
		require.NoError(t, store.Set(kv[i], kv[i+1]))
	}
	return New(store)
}

func TestExpand(t *testing.T) {
	e := newTestExpander(t,
		"version", "1.2",
		"project.name", "demo",
		"build-dir", "out",
		"env.HOME", "/home/me",
	)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no references", "plain text", "plain text"},
		{"single", "${version}", "1.2"},
		{"embedded", "v${version}-final", "v1.2-final"},
		{"multiple", "${project.name}/${version}", "demo/1.2"},
		{"dashed name", "${build-dir}/bin", "out/bin"},
		{"whitespace", "${ version }", "1.2"},
		{"function", "${upper(project.name)}", "DEMO"},
		{"function with literal brace", `${replace(version, "}", "x")}`, "1.2"},
		{"defined true", `${defined("version")}`, "true"},
		{"defined false", `${defined("missing")}`, "false"},
		{"literal", "${1 + 2}", "3"},
		{"escape", "$${version}", "${version}"},
		{"directive text untouched", "%{ not a directive", "%{ not a directive"},
		{"format", `${format("%s-%s", project.name, version)}`, "demo-1.2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Expand(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpand_Errors(t *testing.T) {
	e := newTestExpander(t, "a", "1", "a.b", "2")

	t.Run("undefined", func(t *testing.T) {
		_, err := e.Expand("x ${missing} y")
		var undef *UndefinedPropertyError
		require.True(t, errors.As(err, &undef))
		assert.Equal(t, "missing", undef.Name)
		assert.EqualError(t, err, "property 'missing' has not been set")
	})

	t.Run("undefined dashed", func(t *testing.T) {
		_, err := e.Expand("${no-such}")
		var undef *UndefinedPropertyError
		require.True(t, errors.As(err, &undef))
		assert.Equal(t, "no-such", undef.Name)
	})

	t.Run("unterminated", func(t *testing.T) {
		_, err := e.Expand("${a")
		var exprErr *ExpressionError
		require.True(t, errors.As(err, &exprErr))
		assert.Contains(t, err.Error(), "unterminated")
	})

	t.Run("empty", func(t *testing.T) {
		_, err := e.Expand("${ }")
		require.Error(t, err)
	})

	t.Run("syntax", func(t *testing.T) {
		_, err := e.Expand("${upper(}")
		var exprErr *ExpressionError
		require.True(t, errors.As(err, &exprErr))
	})

	t.Run("unknown function", func(t *testing.T) {
		_, err := e.Expand("${nosuchfunc(a)}")
		require.Error(t, err)
	})

	t.Run("conflicting references", func(t *testing.T) {
		// "a" and "a.b" cannot both be exposed as HCL variables.
		_, err := e.Expand(`${format("%s%s", a, a.b)}`)
		var exprErr *ExpressionError
		require.True(t, errors.As(err, &exprErr))
		assert.Contains(t, err.Error(), "conflicts")
	})
}

func TestExpand_DirectLookupWins(t *testing.T) {
	// Both "a" and "a.b" are defined; plain references never go through HCL.
	e := newTestExpander(t, "a", "1", "a.b", "2")
	got, err := e.Expand("${a}+${a.b}")
	require.NoError(t, err)
	assert.Equal(t, "1+2", got)
}

func TestExpand_SeesLaterWrites(t *testing.T) {
	e := newTestExpander(t)
	require.NoError(t, e.Properties().Set("late", "yes"))
	got, err := e.Expand("${late}")
	require.NoError(t, err)
	assert.Equal(t, "yes", got)
}
