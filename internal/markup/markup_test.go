package markup

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleXML = `<?xml version="1.0"?>
<project name="demo" xmlns:ext="urn:example:ext">
  <!-- a comment -->
  <property name="version" value="1.2"/>
  <ext:note text="ignored"/>
  <target name="build" ext:owner="me">
    <echo message="v${version}"/>
  </target>
</project>
`

func TestParseXML_Structure(t *testing.T) {
	root, err := ParseXML(strings.NewReader(sampleXML), "demo.build.xml")
	require.NoError(t, err)

	assert.Equal(t, ElementNode, root.Kind)
	assert.Equal(t, "project", root.Name)
	assert.Equal(t, map[string]string{"name": "demo"}, root.AttrMap(), "namespace declarations are not attributes")
	assert.Equal(t, Location{File: "demo.build.xml", Line: 2}, root.Location)

	elems := root.Elements()
	require.Len(t, elems, 3)
	assert.Equal(t, "property", elems[0].Name)
	assert.Equal(t, "note", elems[1].Name)
	assert.Equal(t, "urn:example:ext", elems[1].Namespace)
	assert.Equal(t, "target", elems[2].Name)
	assert.Equal(t, 6, elems[2].Location.Line)

	// The foreign attribute is kept but qualified.
	require.Len(t, elems[2].Attrs, 2)
	assert.Equal(t, "urn:example:ext", elems[2].Attrs[1].Namespace)
	_, ok := elems[2].Attr("owner")
	assert.False(t, ok, "qualified attributes are not returned by Attr")

	var kinds []Kind
	for _, c := range root.Children {
		kinds = append(kinds, c.Kind)
	}
	assert.Contains(t, kinds, CommentNode)
	assert.Contains(t, kinds, TextNode)

	msg, ok := elems[2].Elements()[0].Attr("message")
	require.True(t, ok)
	assert.Equal(t, "v${version}", msg)
}

func TestParseXML_Malformed(t *testing.T) {
	_, err := ParseXML(strings.NewReader("<project><target></project>"), "bad.xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.xml")
}

const sampleHCL = `
project "demo" {
  default = "build"

  property "version" {
    value = 1.2
  }

  target "build" {
    echo {
      message = "v${version} for ${project.name}"
    }
    echo {
      message = "${upper(version)}"
      if      = true
    }
  }
}
`

func TestParseHCL_MapsBlocksToElements(t *testing.T) {
	root, err := ParseHCL([]byte(sampleHCL), "demo.build.hcl")
	require.NoError(t, err)

	assert.Equal(t, "project", root.Name)
	assert.Equal(t, map[string]string{"name": "demo", "default": "build"}, root.AttrMap())
	assert.Equal(t, 2, root.Location.Line)

	elems := root.Elements()
	require.Len(t, elems, 2)
	assert.Equal(t, map[string]string{"name": "version", "value": "1.2"}, elems[0].AttrMap())

	echoes := elems[1].Elements()
	require.Len(t, echoes, 2)
	msg, _ := echoes[0].Attr("message")
	assert.Equal(t, "v${version} for ${project.name}", msg)

	msg, _ = echoes[1].Attr("message")
	assert.Equal(t, "${upper(version)}", msg)
	cond, _ := echoes[1].Attr("if")
	assert.Equal(t, "true", cond)
}

func TestParseHCL_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"two roots", `project "a" {}
project "b" {}`, "exactly one top-level block"},
		{"top-level attribute", `x = 1
project "a" {}`, "must be placed inside the root block"},
		{"two labels", `project "a" "b" {}`, "at most one label"},
		{"label and name", `project "a" { name = "b" }`, "already takes its name"},
		{"directive", `project "a" { x = "%{ if true }y%{ endif }" }`, "Template directives are not supported"},
		{"syntax", `project "a" {`, "failed to parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseHCL([]byte(tt.src), "t.hcl")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseFile_DispatchesByExtension(t *testing.T) {
	dir := t.TempDir()
	xmlPath := filepath.Join(dir, "a.build.xml")
	hclPath := filepath.Join(dir, "a.build.hcl")
	require.NoError(t, os.WriteFile(xmlPath, []byte(`<project name="x"/>`), 0o600))
	require.NoError(t, os.WriteFile(hclPath, []byte(`project "x" {}`), 0o600))

	fromXML, err := ParseFile(xmlPath)
	require.NoError(t, err)
	fromHCL, err := ParseFile(hclPath)
	require.NoError(t, err)

	assert.Equal(t, fromXML.AttrMap(), fromHCL.AttrMap())

	_, err = ParseFile(filepath.Join(dir, "missing.xml"))
	require.Error(t, err)
}

func TestNewElement(t *testing.T) {
	n := NewElement("token", "key", "A", "value", "B").Append(NewElement("child"))
	assert.Equal(t, []Attr{{Name: "key", Value: "A"}, {Name: "value", Value: "B"}}, n.Attrs)
	require.Len(t, n.Elements(), 1)
	assert.Panics(t, func() { NewElement("x", "odd") })
}

func TestLocation_String(t *testing.T) {
	assert.Equal(t, "a.xml:3", Location{File: "a.xml", Line: 3}.String())
	assert.Equal(t, "a.xml", Location{File: "a.xml"}.String())
	assert.Equal(t, "line 3", Location{Line: 3}.String())
	assert.Equal(t, "<unknown>", Location{}.String())
}
