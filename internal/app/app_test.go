package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/markbuild/internal/binder"
	"github.com/specialistvlad/markbuild/internal/project"
	"github.com/specialistvlad/markbuild/internal/textenc"
	"github.com/specialistvlad/markbuild/internal/typereg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const buildXML = `<?xml version="1.0"?>
<project name="site" default="dist">
  <property name="version" value="1.0"/>
  <property name="out" value="build"/>

  <target name="dist" description="Stamps the sources">
    <echo message="Building ${project.name} ${version} for ${env.USER}"/>
    <copy file="src/index.txt" todir="${out}">
      <filterchain>
        <replacetokens>
          <token key="VERSION" value="${version}"/>
        </replacetokens>
        <expandproperties/>
      </filterchain>
    </copy>
    <move file="src/tmp.txt" tofile="${out}/moved.txt"/>
  </target>

  <target name="clean">
    <echo message="cleaning"/>
  </target>
</project>
`

const buildHCL = `project "site" {
  default = "dist"

  property "version" {
    value = "1.0"
  }
  property "out" {
    value = "build"
  }

  target "dist" {
    description = "Stamps the sources"
    echo {
      message = "Building ${project.name} ${version} for ${env.USER}"
    }
    copy {
      file  = "src/index.txt"
      todir = "${out}"
      filterchain {
        replacetokens {
          token {
            key   = "VERSION"
            value = "${version}"
          }
        }
        expandproperties {}
      }
    }
    move {
      file   = "src/tmp.txt"
      tofile = "${out}/moved.txt"
    }
  }

  target "clean" {
    echo {
      message = "cleaning"
    }
  }
}
`

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func TestApp_RunsDefaultTarget(t *testing.T) {
	for name, file := range map[string]struct{ path, content string }{
		"xml": {"site.build.xml", buildXML},
		"hcl": {"site.build.hcl", buildHCL},
	} {
		t.Run(name, func(t *testing.T) {
			dir := writeTree(t, map[string]string{
				file.path:       file.content,
				"src/index.txt": "v@VERSION@ of ${project.name}",
				"src/tmp.txt":   "temporary",
			})
			cfg := &Config{
				BuildFile:   filepath.Join(dir, file.path),
				Environ:     []string{"USER=tester"},
				MetricsFile: filepath.Join(dir, "metrics.prom"),
			}
			a, out := SetupAppTest(t, cfg)
			require.NoError(t, a.Run(context.Background()))

			assert.Contains(t, out.String(), "Building site 1.0 for tester\n")

			stamped, err := os.ReadFile(filepath.Join(dir, "build", "index.txt"))
			require.NoError(t, err)
			assert.Equal(t, "v1.0 of site", string(stamped))

			assert.NoFileExists(t, filepath.Join(dir, "src", "tmp.txt"))
			assert.FileExists(t, filepath.Join(dir, "build", "moved.txt"))

			metrics, err := os.ReadFile(cfg.MetricsFile)
			require.NoError(t, err)
			assert.Contains(t, string(metrics), `markbuild_files_transferred_total{mode="filtered",op="copy"} 1`)
			assert.Contains(t, string(metrics), `markbuild_files_transferred_total{mode="raw",op="move"} 1`)
		})
	}
}

func TestApp_NamespacedRoot(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"x.build.xml": `<project xmlns="urn:example:build" xmlns:doc="urn:example:doc" name="ns" default="t">
  <doc:note text="ignored"/>
  <target name="t">
    <echo message="hello from ${project.name}" doc:hint="ignored"/>
  </target>
</project>`,
	})
	a, out := SetupAppTest(t, &Config{BuildFile: filepath.Join(dir, "x.build.xml")})

	require.NoError(t, a.Run(context.Background()))
	assert.Contains(t, out.String(), "hello from ns\n")
}

func TestApp_CommandLinePropertiesWin(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"a.build.xml": `<project default="show">
  <property name="version" value="1.0"/>
  <target name="show"><echo message="v=${version}"/></target>
</project>`,
	})
	a, out := SetupAppTest(t, &Config{
		BuildFile:  filepath.Join(dir, "a.build.xml"),
		Properties: map[string]string{"version": "9.9"},
	})
	require.NoError(t, a.Run(context.Background()))
	assert.Contains(t, out.String(), "v=9.9\n")
	assert.True(t, a.Properties().IsReadOnly("version"))
}

func TestApp_BaseDirAndTargetSelection(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"build/a.build.xml": `<project name="p" basedir="..">
  <target name="show"><echo message="${project.basedir}"/></target>
</project>`,
	})
	a, out := SetupAppTest(t, &Config{BuildFile: filepath.Join(dir, "build", "a.build.xml"), Target: "show"})
	require.NoError(t, a.Run(context.Background()))
	assert.Contains(t, out.String(), dir+"\n")
	assert.Equal(t, dir, a.Project().BaseDir)
}

func TestApp_ListTargets(t *testing.T) {
	dir := writeTree(t, map[string]string{"site.build.xml": buildXML})
	a, out := SetupAppTest(t, &Config{BuildFile: filepath.Join(dir, "site.build.xml"), ListTargets: true})
	require.NoError(t, a.Run(context.Background()))

	assert.Contains(t, out.String(), "Project site\n")
	assert.Contains(t, out.String(), "* dist")
	assert.Contains(t, out.String(), "Stamps the sources")
	assert.Contains(t, out.String(), "  clean\n")
	assert.NoDirExists(t, filepath.Join(dir, "build"), "listing does not run anything")
}

func TestApp_LoadErrors(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		check func(t *testing.T, err error)
	}{
		{"wrong root", `<build/>`, func(t *testing.T, err error) {
			assert.ErrorContains(t, err, "root element must be <project>")
		}},
		{"invalid encoding", `<project>
  <target name="t">
    <copy file="a" tofile="b"><filterchain encoding="not-a-real-codec"/></copy>
  </target>
</project>`, func(t *testing.T, err error) {
			var ierr *textenc.InvalidEncodingError
			require.ErrorAs(t, err, &ierr)
			var located *binder.BindError
			require.ErrorAs(t, err, &located)
			assert.Equal(t, 3, located.Location.Line)
		}},
		{"copy without destination", `<project><target name="t"><copy file="a"/></target></project>`, func(t *testing.T, err error) {
			assert.ErrorContains(t, err, "one of 'tofile' or 'todir' is required")
		}},
		{"filter used as task", `<project><target name="t"><tabstospaces/></target></project>`, func(t *testing.T, err error) {
			var uerr *binder.UnknownElementError
			require.ErrorAs(t, err, &uerr)
			assert.Contains(t, uerr.Detail, "does not implement")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeTree(t, map[string]string{"x.build.xml": tt.doc})
			a, _ := SetupAppTest(t, &Config{BuildFile: filepath.Join(dir, "x.build.xml")})
			tt.check(t, a.Load(context.Background()))
		})
	}
}

func TestApp_FailedLoadDiscardsProperties(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"x.build.xml": `<project name="p" default="t">
  <property name="early" value="1" readonly="true"/>
  <property name="env.HOME" value="/elsewhere" overwrite="true"/>
  <target name="t"><bogus/></target>
</project>`,
	})
	a, _ := SetupAppTest(t, &Config{
		BuildFile:  filepath.Join(dir, "x.build.xml"),
		Environ:    []string{"HOME=/home/tester"},
		Properties: map[string]string{"mode": "ci"},
	})
	before := a.Properties().Snapshot()

	var uerr *binder.UnknownElementError
	require.ErrorAs(t, a.Load(context.Background()), &uerr)

	assert.Equal(t, before, a.Properties().Snapshot())
	assert.False(t, a.Properties().Has("project.name"))
	assert.False(t, a.Properties().IsReadOnly("early"))
	assert.True(t, a.Properties().IsReadOnly("mode"))
	assert.Nil(t, a.Project())
}

func TestApp_RunFailure(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"x.build.xml": `<project default="t"><target name="t"><copy file="missing.txt" todir="out"/></target></project>`,
	})
	a, _ := SetupAppTest(t, &Config{BuildFile: filepath.Join(dir, "x.build.xml")})
	err := a.Run(context.Background())
	assert.ErrorContains(t, err, "build failed")
	assert.ErrorIs(t, err, os.ErrNotExist)

	a, _ = SetupAppTest(t, &Config{BuildFile: filepath.Join(dir, "x.build.xml"), Target: "nope"})
	var uerr *project.UnknownTargetError
	require.ErrorAs(t, a.Run(context.Background()), &uerr)
}

type brokenModule struct{}

type brokenTask struct {
	Items []int `build:"item,collection"`
}

func (m *brokenModule) Register(r *typereg.Registry) {
	r.Register("broken", &brokenTask{})
}

func TestNewApp_PanicsOnInvalidSchema(t *testing.T) {
	assert.Panics(t, func() {
		SetupAppTest(t, &Config{BuildFile: "x"}, &brokenModule{})
	})
}

func TestNewLogger(t *testing.T) {
	var buf SafeBuffer
	logger := newLogger("warn", "text", &buf)

	logger.Info("hidden")
	logger.Warn("shown", "target", "dist")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "level=WARN msg=shown component=markbuild target=dist")
	assert.NotContains(t, out, "time=")

	var jsonBuf SafeBuffer
	newLogger("bogus", "json", &jsonBuf).Info("json record")
	assert.Contains(t, jsonBuf.String(), `"msg":"json record"`)
	assert.Contains(t, jsonBuf.String(), `"time":`)
}
