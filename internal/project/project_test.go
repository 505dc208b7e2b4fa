package project

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/specialistvlad/markbuild/internal/binder"
	"github.com/specialistvlad/markbuild/internal/expand"
	"github.com/specialistvlad/markbuild/internal/markup"
	"github.com/specialistvlad/markbuild/internal/namedcoll"
	"github.com/specialistvlad/markbuild/internal/props"
	"github.com/specialistvlad/markbuild/internal/typereg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type say struct {
	Message string `build:"message"`
}

func (s *say) Execute(_ context.Context, rt *Runtime) error {
	_, err := fmt.Fprintln(rt.Out, s.Message)
	return err
}

type fail struct{}

func (f *fail) Execute(context.Context, *Runtime) error {
	return errors.New("boom")
}

type fixture struct {
	store  *props.Store
	binder *binder.Binder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	r := typereg.New()
	r.Register("say", &say{})
	r.Register("fail", &fail{})
	store := props.New()
	return &fixture{
		store:  store,
		binder: binder.New(r, &binder.Env{Expander: expand.New(store)}),
	}
}

func (f *fixture) bindXML(t *testing.T, doc string) (*Project, error) {
	t.Helper()
	root, err := markup.ParseXML(strings.NewReader(doc), "build.xml")
	require.NoError(t, err)
	var p Project
	err = f.binder.Bind(context.Background(), root, &p)
	return &p, err
}

const sampleProject = `<project name="demo" default="build">
  <property name="version" value="1.2"/>
  <property name="label" value="demo-${version}"/>
  <target name="build" description="Builds it">
    <say message="building ${label}"/>
    <say message="done" if="true"/>
    <say message="skipped" unless="true"/>
  </target>
  <target name="broken">
    <say message="before"/>
    <fail/>
    <say message="after"/>
  </target>
</project>`

func TestProject_BindAndRun(t *testing.T) {
	f := newFixture(t)
	p, err := f.bindXML(t, sampleProject)
	require.NoError(t, err)

	assert.Equal(t, "demo", p.Name)
	assert.Equal(t, []string{"build", "broken"}, p.Targets.Names())
	require.Len(t, p.Properties, 2)
	label, _ := f.store.Get("label")
	assert.Equal(t, "demo-1.2", label)

	var out bytes.Buffer
	rt := &Runtime{Out: &out, Properties: f.store}
	require.NoError(t, p.Run(context.Background(), rt, ""))
	assert.Equal(t, "building demo-1.2\ndone\n", out.String())
}

func TestProject_RunStopsAtFirstFailure(t *testing.T) {
	f := newFixture(t)
	p, err := f.bindXML(t, sampleProject)
	require.NoError(t, err)

	var out bytes.Buffer
	err = p.Run(context.Background(), &Runtime{Out: &out}, "broken")
	assert.EqualError(t, err, "target 'broken': boom")
	assert.Equal(t, "before\n", out.String())
}

func TestProject_RunUnknownTarget(t *testing.T) {
	f := newFixture(t)
	p, err := f.bindXML(t, sampleProject)
	require.NoError(t, err)

	err = p.Run(context.Background(), &Runtime{Out: &bytes.Buffer{}}, "buidl")
	var uerr *UnknownTargetError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "build", uerr.Suggestion)

	p.Default = ""
	assert.ErrorIs(t, p.Run(context.Background(), &Runtime{}, ""), ErrNoTarget)
}

func TestProject_DuplicateTargetIsLocated(t *testing.T) {
	f := newFixture(t)
	_, err := f.bindXML(t, `<project>
  <target name="build"/>
  <target name="test"/>
  <target name="build"/>
</project>`)

	var dup *namedcoll.DuplicateNameError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "build", dup.Name)

	var located *binder.BindError
	require.ErrorAs(t, err, &located)
	assert.Equal(t, "target", located.Element)
	assert.Equal(t, 4, located.Location.Line)
}

func TestProperty_Definitions(t *testing.T) {
	t.Run("first definition wins", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.bindXML(t, `<project>
  <property name="a" value="1"/>
  <property name="a" value="2"/>
  <property name="b" value="1"/>
  <property name="b" value="2" overwrite="true"/>
</project>`)
		require.NoError(t, err)
		a, _ := f.store.Get("a")
		b, _ := f.store.Get("b")
		assert.Equal(t, "1", a)
		assert.Equal(t, "2", b)
	})

	t.Run("read-only values are kept", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.store.SetReadOnly("mode", "release"))
		_, err := f.bindXML(t, `<project>
  <property name="mode" value="debug" overwrite="true"/>
  <property name="frozen" value="x" readonly="true"/>
  <property name="frozen" value="y" overwrite="true"/>
</project>`)
		require.NoError(t, err)
		mode, _ := f.store.Get("mode")
		frozen, _ := f.store.Get("frozen")
		assert.Equal(t, "release", mode)
		assert.Equal(t, "x", frozen)
		assert.True(t, f.store.IsReadOnly("frozen"))
	})

	t.Run("excluded properties are not defined", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.bindXML(t, `<project><property name="a" value="1" if="false"/></project>`)
		require.NoError(t, err)
		assert.False(t, f.store.Has("a"))
	})

	t.Run("no property store", func(t *testing.T) {
		err := (&Property{Name: "a"}).Initialize(context.Background(), &binder.Env{})
		assert.ErrorIs(t, err, errNoPropertyStore)
	})
}

func TestProject_HCLMatchesXML(t *testing.T) {
	const hclDoc = `project "demo" {
  default = "build"
  property "version" {
    value = "1.2"
  }
  property "label" {
    value = "demo-${version}"
  }
  target "build" {
    description = "Builds it"
    say {
      message = "building ${label}"
    }
    say {
      message = "done"
      if      = true
    }
    say {
      message = "skipped"
      unless  = true
    }
  }
  target "broken" {
    say {
      message = "before"
    }
    fail {}
    say {
      message = "after"
    }
  }
}`
	fromXML, err := newFixture(t).bindXML(t, sampleProject)
	require.NoError(t, err)

	f := newFixture(t)
	root, err := markup.ParseHCL([]byte(hclDoc), "build.hcl")
	require.NoError(t, err)
	var fromHCL Project
	require.NoError(t, f.binder.Bind(context.Background(), root, &fromHCL))

	opt := cmp.Comparer(func(a, b Targets) bool {
		return cmp.Equal(a.Items(), b.Items(), cmpopts.EquateEmpty())
	})
	if diff := cmp.Diff(*fromXML, fromHCL, opt); diff != "" {
		t.Errorf("projects differ (-xml +hcl):\n%s", diff)
	}
}
