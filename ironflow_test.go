package ironflow_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/ironflow"
	"github.com/aretw0/ironflow/pkg/adapters/memory"
	"github.com/aretw0/ironflow/pkg/domain"
	"github.com/aretw0/ironflow/pkg/dsl"
	"github.com/aretw0/ironflow/pkg/dtype"
	"github.com/aretw0/ironflow/pkg/flow"
	"github.com/aretw0/ironflow/pkg/nodes/std"
	"github.com/aretw0/ironflow/pkg/registry"
)

func newIronflow(t *testing.T, opts ...ironflow.Option) *ironflow.Ironflow {
	t.Helper()
	iflow, err := ironflow.New("test", opts...)
	require.NoError(t, err)
	return iflow
}

func TestNew(t *testing.T) {
	iflow := newIronflow(t)

	assert.Equal(t, "test", iflow.Title())
	assert.Equal(t, 1, iflow.NScripts())
	assert.Equal(t, 0, iflow.ActiveScriptIndex())
	assert.Equal(t, "script_0", iflow.Script().Title)
	assert.Len(t, iflow.Registry().Templates(std.Group), 11)
}

func TestScripts(t *testing.T) {
	iflow := newIronflow(t)

	iflow.CreateScript("")
	iflow.CreateScript("named")
	assert.Equal(t, 3, iflow.NScripts())
	assert.Equal(t, 2, iflow.ActiveScriptIndex(), "created scripts become active")
	assert.Equal(t, "script_1", iflow.Session().Scripts[1].Title)
	assert.Equal(t, "script_2", iflow.NextAutoScriptName())

	t.Run("activate", func(t *testing.T) {
		require.NoError(t, iflow.SetActiveScript(0))
		assert.Equal(t, 0, iflow.ActiveScriptIndex())

		require.NoError(t, iflow.SetActiveScript(-1))
		assert.Equal(t, 2, iflow.ActiveScriptIndex())

		err := iflow.SetActiveScript(3)
		assert.ErrorIs(t, err, ironflow.ErrScriptIndex)
		assert.Equal(t, 2, iflow.ActiveScriptIndex())
	})

	t.Run("rename", func(t *testing.T) {
		assert.False(t, iflow.RenameScript(""))
		assert.False(t, iflow.RenameScript("script_0"))
		assert.True(t, iflow.RenameScript("main"))
		assert.Equal(t, "main", iflow.Script().Title)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, iflow.SetActiveScript(1))
		require.NoError(t, iflow.DeleteScript())
		assert.Equal(t, 2, iflow.NScripts())
		assert.Equal(t, 0, iflow.ActiveScriptIndex())

		require.NoError(t, iflow.DeleteScript())
		assert.Equal(t, 0, iflow.ActiveScriptIndex(), "deleting the first script wraps to the last")
		assert.Equal(t, "main", iflow.Script().Title)

		require.NoError(t, iflow.DeleteScript())
		assert.Equal(t, 1, iflow.NScripts(), "the last script is replaced")
		assert.Equal(t, "script_0", iflow.Script().Title)
	})
}

func TestCreateNode(t *testing.T) {
	iflow := newIronflow(t)

	lin, err := iflow.CreateNode("std.Linspace", 0, 0)
	require.NoError(t, err)
	sin, err := iflow.CreateNode("std.Sin", 200, 0)
	require.NoError(t, err)

	_, err = iflow.Flow().Connect(lin.Output("linspace"), sin.Input("x"))
	require.NoError(t, err)
	assert.Len(t, sin.Output("sin").Value, 10)

	_, err = iflow.CreateNode("std.Missing", 0, 0)
	assert.Error(t, err)
}

func TestRegisterNode(t *testing.T) {
	iflow := newIronflow(t)
	tpl := &flow.Template{
		Title: "Noop",
		Func:  func(flow.Values) (flow.Values, error) { return flow.Values{}, nil },
	}

	require.NoError(t, iflow.RegisterNodes("custom", tpl))
	_, err := iflow.CreateNode("custom.Noop", 0, 0)
	assert.NoError(t, err)
}

func TestRegisterNodesFromDir(t *testing.T) {
	dir := t.TempDir()
	doc := `---
title: Double
group: math
function: math.double
inputs:
  - label: x
    dtype:
      kind: integer
      default: 2
outputs:
  - label: y
    dtype:
      kind: integer
---
Double x.`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "double.md"), []byte(doc), 0o644))

	double := func(in flow.Values) (flow.Values, error) {
		return flow.Values{"y": in["x"].(int64) * 2}, nil
	}
	iflow := newIronflow(t, ironflow.WithPackages(func(r *registry.Registry) error {
		r.RegisterFunction("math.double", double)
		return nil
	}), ironflow.WithNodeDirs(dir))

	n, err := iflow.CreateNode("math.Double", 0, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 4, n.Output("y").Value)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.json")
	iflow := newIronflow(t)

	lin, err := iflow.CreateNode("std.Linspace", 0, 0)
	require.NoError(t, err)
	sin, err := iflow.CreateNode("std.Sin", 200, 0)
	require.NoError(t, err)
	_, err = iflow.Flow().Connect(lin.Output("linspace"), sin.Input("x"))
	require.NoError(t, err)
	iflow.CreateScript("second")

	require.NoError(t, iflow.Save(path))

	loaded := newIronflow(t, ironflow.WithSessionFile(path))
	assert.Equal(t, 2, loaded.NScripts())
	assert.Equal(t, 1, loaded.ActiveScriptIndex(), "the saved active script is restored")
	require.NoError(t, loaded.SetActiveScript(0))
	assert.Len(t, loaded.Flow().Nodes(), 2)
	assert.Len(t, loaded.Flow().Connections(), 1)
	assert.Len(t, loaded.Flow().Nodes()[1].Output("sin").Value, 10)
}

func TestSaveLoad_FloatList(t *testing.T) {
	sum := func(r *registry.Registry) error {
		b := dsl.New("p")
		b.Add("Sum").
			In("xs", dtype.List(dtype.WithClasses(dtype.ClassFloat))).
			Out("y", dtype.Float()).
			Func(func(in flow.Values) (flow.Values, error) {
				total := 0.0
				for _, e := range dtype.Elements(in["xs"]) {
					f, ok := e.(float64)
					if !ok {
						return nil, fmt.Errorf("element %v is %T", e, e)
					}
					total += f
				}
				return flow.Values{"y": total}, nil
			})
		return b.Register(r)
	}
	path := filepath.Join(t.TempDir(), "sum.json")
	iflow := newIronflow(t, ironflow.WithPackages(sum))
	node, err := iflow.CreateNode("p.Sum", 0, 0)
	require.NoError(t, err)
	require.NoError(t, node.Input("xs").Update([]any{1.0, 2.0}))
	require.Equal(t, 3.0, node.Output("y").Value)
	require.NoError(t, iflow.Save(path))

	loaded := newIronflow(t, ironflow.WithPackages(sum), ironflow.WithSessionFile(path))
	restored := loaded.Flow().Nodes()[0]
	assert.Equal(t, []any{1.0, 2.0}, restored.Input("xs").Value)
	assert.True(t, restored.Input("xs").Ready())
	assert.NoError(t, restored.Err())
	assert.Equal(t, 3.0, restored.Output("y").Value)
}

func TestLoadFromData_ActiveScript(t *testing.T) {
	iflow := newIronflow(t)
	iflow.CreateScript("b")
	iflow.CreateScript("c")
	require.NoError(t, iflow.SetActiveScript(1))
	doc, err := iflow.Serialize()
	require.NoError(t, err)

	other := newIronflow(t)
	require.NoError(t, other.LoadFromData(doc))
	assert.Equal(t, 1, other.ActiveScriptIndex())
	assert.Equal(t, "b", other.Script().Title)

	doc.ActiveScript = 7
	assert.ErrorIs(t, other.LoadFromData(doc), domain.ErrInvalidDocument)
	assert.Equal(t, 1, other.ActiveScriptIndex(), "a rejected document leaves the session alone")
}

func TestSessionFileMissing(t *testing.T) {
	iflow := newIronflow(t, ironflow.WithSessionFile(filepath.Join(t.TempDir(), "absent.json")))
	assert.Equal(t, 1, iflow.NScripts())
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))

	_, err := ironflow.New("test", ironflow.WithSessionFile(path))
	assert.ErrorIs(t, err, domain.ErrInvalidDocument)
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	iflow := newIronflow(t)
	_, err := iflow.CreateNode("std.Input", 0, 0)
	require.NoError(t, err)

	require.NoError(t, iflow.SaveTo(ctx, store, "s1"))

	other := newIronflow(t)
	require.NoError(t, other.LoadFrom(ctx, store, "s1"))
	assert.Len(t, other.Flow().Nodes(), 1)

	assert.ErrorIs(t, other.LoadFrom(ctx, store, "missing"), domain.ErrSessionNotFound)
}

func TestRecommend(t *testing.T) {
	iflow := newIronflow(t)
	click, err := iflow.CreateNode("std.Click", 0, 0)
	require.NoError(t, err)

	recs, err := iflow.Recommend(click.Output("exec"))
	require.NoError(t, err)
	assert.NotEmpty(t, recs)
}
