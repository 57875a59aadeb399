package registry_test

import (
	"testing"

	"github.com/aretw0/ironflow/pkg/flow"
	"github.com/aretw0/ironflow/pkg/ports/tests"
	"github.com/aretw0/ironflow/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	r := registry.NewRegistry()

	first := &flow.Template{Title: "Sin", Doc: "v1"}
	require.NoError(t, r.Register(first, "math"))
	got, ok := r.Get("math", "Sin")
	require.True(t, ok)
	assert.Equal(t, "math", got.Group)

	t.Run("re-registering replaces", func(t *testing.T) {
		second := &flow.Template{Title: "Sin", Doc: "v2"}
		require.NoError(t, r.Register(second, "math"))
		got, ok := r.Get("math", "Sin")
		require.True(t, ok)
		assert.Equal(t, "v2", got.Doc)
		assert.Len(t, r.Templates("math"), 1)
	})

	t.Run("same template under a second group", func(t *testing.T) {
		tpl := &flow.Template{Title: "Cos"}
		require.NoError(t, r.Register(tpl, "math"))
		registered, ok := r.Get("math", "Cos")
		require.True(t, ok)
		placed := flow.New().CreateNode(registered, 0, 0)

		require.NoError(t, r.Register(tpl, "trig"))
		assert.Empty(t, tpl.Group, "caller's template is not modified")
		assert.Equal(t, "math.Cos", placed.Template.Identifier())
		moved, ok := r.Get("trig", "Cos")
		require.True(t, ok)
		assert.Equal(t, "trig.Cos", moved.Identifier())
		require.True(t, r.Unregister("trig", "Cos"))
		require.True(t, r.Unregister("math", "Cos"))
	})

	t.Run("default group", func(t *testing.T) {
		require.NoError(t, r.Register(&flow.Template{Title: "Mine"}, ""))
		_, ok := r.Get(registry.DefaultGroup, "Mine")
		assert.True(t, ok)
	})

	t.Run("invalid titles", func(t *testing.T) {
		assert.Error(t, r.Register(&flow.Template{}, "x"))
		assert.Error(t, r.Register(&flow.Template{Title: "a.b"}, "x"))
	})

	assert.Equal(t, []string{"custom", "math"}, r.Groups())
	assert.Len(t, r.All(), 2)
}

func TestLookup(t *testing.T) {
	r := registry.NewRegistry()
	require.NoError(t, r.Register(&flow.Template{Title: "Select"}, "std"))
	require.NoError(t, r.Register(&flow.Template{Title: "Plot"}, "std"))
	require.NoError(t, r.Register(&flow.Template{Title: "Plot"}, "viz"))

	tests := []struct {
		name    string
		wantErr bool
		group   string
	}{
		{"std.Select", false, "std"},
		{"Select", false, "std"},
		{"viz.Plot", false, "viz"},
		{"Plot", true, ""},
		{"Missing", true, ""},
		{"std.Missing", true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl, err := r.Lookup(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.group, tpl.Group)
		})
	}

	assert.True(t, r.Unregister("viz", "Plot"))
	assert.False(t, r.Unregister("viz", "Plot"))
	assert.Equal(t, []string{"std"}, r.Groups())
}

func TestFunctions(t *testing.T) {
	r := registry.NewRegistry()
	r.RegisterFunction("double", func(in flow.Values) (flow.Values, error) {
		return flow.Values{"y": in["x"].(int) * 2}, nil
	})
	r.RegisterUpdate("noop", func(*flow.Node, int) error { return nil })

	fn, err := r.Function("double")
	require.NoError(t, err)
	out, err := fn(flow.Values{"x": 4})
	require.NoError(t, err)
	assert.Equal(t, 8, out["y"])

	_, err = r.Function("missing")
	assert.Error(t, err)
	_, err = r.Update("noop")
	assert.NoError(t, err)
	assert.Equal(t, []string{"double", "noop"}, r.Functions())
}

func TestRegistry_TemplateLoaderContract(t *testing.T) {
	r := registry.NewRegistry()
	require.NoError(t, r.Register(&flow.Template{Title: "Sin"}, "math"))
	require.NoError(t, r.Register(&flow.Template{Title: "Select"}, "std"))

	tests.TemplateLoaderContractTest(t, r, map[string]string{
		"math.Sin":   "Sin",
		"std.Select": "Select",
	})
}
