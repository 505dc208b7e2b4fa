package hclutil

import (
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/stretchr/testify/require"
)

func parseTraversal(t *testing.T, src string) hcl.Traversal {
	t.Helper()
	expr, diags := hclsyntax.ParseExpression([]byte(src), "test.hcl", hcl.Pos{Line: 1, Column: 1})
	require.False(t, diags.HasErrors(), "Expression parsing failed: %s", diags.Error())
	vars := expr.Variables()
	require.Len(t, vars, 1)
	return vars[0]
}

func TestTraversalKey(t *testing.T) {
	require.Equal(t, "project.name", TraversalKey(parseTraversal(t, "project.name")))
	require.Equal(t, "items[0].id", TraversalKey(parseTraversal(t, "items[0].id")))
	require.Equal(t, "version", TraversalKey(parseTraversal(t, "version")))
}

func TestAttrPath(t *testing.T) {
	require.Equal(t, []string{"project", "name"}, AttrPath(parseTraversal(t, "project.name")))
	require.Equal(t, []string{"items"}, AttrPath(parseTraversal(t, "items[0].id")))
	require.Nil(t, AttrPath(nil))
}
