package flow_test

import (
	"errors"
	"testing"

	"github.com/aretw0/ironflow/pkg/dtype"
	"github.com/aretw0/ironflow/pkg/flow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func source(label string, d *dtype.DType) *flow.Template {
	return &flow.Template{
		Title:   "Source",
		Outputs: []flow.PortSpec{{Label: label, DType: d}},
	}
}

func sink(d *dtype.DType) *flow.Template {
	return &flow.Template{
		Title:  "Sink",
		Inputs: []flow.PortSpec{{Label: "x", DType: d}},
	}
}

func TestCheckConnectionValidity(t *testing.T) {
	f := flow.New()

	place := func(tpl *flow.Template) *flow.Node { return f.CreateNode(tpl, 0, 0) }

	o0 := place(source("o0", dtype.Untyped())).Outputs[0]
	o0.Value = nil
	o1 := place(source("o1", dtype.Untyped())).Outputs[0]
	o1.Value = 42
	o2 := place(source("o2", dtype.Integer(dtype.AllowNone()))).Outputs[0]
	o2.Value = 42
	o3 := place(source("o3", dtype.Integer())).Outputs[0]
	o3.Value = 42
	o4 := place(source("o4", dtype.String())).Outputs[0]

	i0 := place(sink(nil)).Inputs[0]
	i1 := place(sink(dtype.Integer(dtype.AllowNone()))).Inputs[0]
	i2 := place(sink(dtype.Integer())).Inputs[0]

	outputs := []*flow.Port{o0, o1, o2, o3, o4}
	tests := []struct {
		name string
		in   *flow.Port
		want []bool
	}{
		{"untyped input accepts everything", i0, []bool{true, true, true, true, true}},
		{"none-allowing integer", i1, []bool{true, true, true, true, false}},
		{"strict integer", i2, []bool{false, true, false, true, false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i, out := range outputs {
				ok, _ := f.CheckConnectionValidity(tt.in, out)
				assert.Equal(t, tt.want[i], ok, "output o%d", i)

				swapped, _ := f.CheckConnectionValidity(out, tt.in)
				assert.Equal(t, ok, swapped, "argument order must not matter")
			}
		})
	}

	t.Run("structural failures win", func(t *testing.T) {
		n := place(&flow.Template{
			Title:   "Both",
			Inputs:  []flow.PortSpec{{Label: "in"}},
			Outputs: []flow.PortSpec{{Label: "out"}},
		})
		ok, err := f.CheckConnectionValidity(n.Outputs[0], n.Inputs[0])
		assert.False(t, ok)
		assert.ErrorIs(t, err, flow.ErrSameNode)

		ok, err = f.CheckConnectionValidity(o1, o3)
		assert.False(t, ok)
		assert.ErrorIs(t, err, flow.ErrDirection)
	})

	t.Run("mismatch is a connection error", func(t *testing.T) {
		_, err := f.CheckConnectionValidity(i2, o4)
		var connErr *flow.ConnectionError
		require.True(t, errors.As(err, &connErr))
		assert.Equal(t, "Source.o4", connErr.From)
		assert.Equal(t, "Sink.x", connErr.To)
		assert.ErrorIs(t, err, flow.ErrTypeMismatch)
	})
}

func TestPortReadiness(t *testing.T) {
	f := flow.New()

	t.Run("untyped", func(t *testing.T) {
		p := f.CreateNode(sink(nil), 0, 0).Inputs[0]
		for _, v := range []any{nil, "foo", 42} {
			require.NoError(t, p.Update(v))
			assert.True(t, p.Ready())
		}
	})

	t.Run("string allowing none", func(t *testing.T) {
		p := f.CreateNode(sink(dtype.String(dtype.AllowNone())), 0, 0).Inputs[0]
		require.NoError(t, p.Update(nil))
		assert.True(t, p.Ready())
		require.NoError(t, p.Update("foo"))
		assert.True(t, p.Ready())
		require.NoError(t, p.Update(42))
		assert.False(t, p.Ready())
	})

	t.Run("strict string", func(t *testing.T) {
		p := f.CreateNode(sink(dtype.String()), 0, 0).Inputs[0]
		assert.True(t, p.Ready(), "default is a valid string")
		require.NoError(t, p.Update(nil))
		assert.False(t, p.Ready())
	})
}

func TestDTypeMutability(t *testing.T) {
	f := flow.New()
	tpl := &flow.Template{
		Title:  "Chooser",
		Inputs: []flow.PortSpec{{Label: "c", DType: dtype.Choice([]any{"a", "b"})}},
	}
	n1 := f.CreateNode(tpl, 0, 0)
	n2 := f.CreateNode(tpl, 1, 0)

	n1.Inputs[0].DType.Items = append(n1.Inputs[0].DType.Items, "c")
	assert.Equal(t, []any{"a", "b"}, n2.Inputs[0].DType.Items)
	assert.Equal(t, []any{"a", "b"}, tpl.Inputs[0].DType.Items)
	assert.NotSame(t, n1.Inputs[0].DType, n2.Inputs[0].DType)
}

func adder() *flow.Template {
	return &flow.Template{
		Title: "Add",
		Inputs: []flow.PortSpec{
			{Label: "a", DType: dtype.Integer()},
			{Label: "b", DType: dtype.Integer(dtype.WithDefault(1))},
		},
		Outputs: []flow.PortSpec{{Label: "sum", DType: dtype.Integer()}},
		Func: func(in flow.Values) (flow.Values, error) {
			return flow.Values{"sum": in["a"].(int) + in["b"].(int)}, nil
		},
	}
}

func TestConnectPropagates(t *testing.T) {
	f := flow.New()
	first := f.CreateNode(adder(), 0, 0)
	second := f.CreateNode(adder(), 1, 0)

	assert.Equal(t, 1, first.OutputValue(0))

	c, err := f.Connect(second.Input("a"), first.Output("sum"))
	require.NoError(t, err)
	assert.Same(t, first.Outputs[0], c.Out)
	assert.Equal(t, 2, second.OutputValue(0))

	require.NoError(t, first.Input("a").Update(5))
	assert.Equal(t, 6, first.OutputValue(0))
	assert.Equal(t, 7, second.OutputValue(0))

	_, err = f.Connect(first.Output("sum"), second.Input("a"))
	assert.ErrorIs(t, err, flow.ErrDuplicateConnection)

	t.Run("a new connection replaces the old one", func(t *testing.T) {
		third := f.CreateNode(adder(), 2, 0)
		_, err := f.Connect(third.Output("sum"), second.Input("a"))
		require.NoError(t, err)
		assert.Len(t, second.Input("a").Connections(), 1)
		assert.Empty(t, first.Output("sum").Connections())
		assert.Equal(t, 2, second.OutputValue(0))
	})

	t.Run("remove node drops its connections", func(t *testing.T) {
		before := len(f.Connections())
		require.NoError(t, f.RemoveNode(second))
		assert.Len(t, f.Connections(), before-1)
		assert.ErrorIs(t, f.RemoveNode(second), flow.ErrUnknownNode)
	})
}

func TestInvalidInputClearsOutputs(t *testing.T) {
	f := flow.New()
	n := f.CreateNode(adder(), 0, 0)
	require.NoError(t, n.Input("a").Batch())
	assert.True(t, n.Outputs[0].Batched())

	require.NoError(t, n.Input("a").Update("nope"))
	assert.False(t, n.Input("a").Ready())
	assert.Nil(t, n.OutputValue(0))
	assert.False(t, n.Outputs[0].Batched())
}

func TestBatching(t *testing.T) {
	f := flow.New()
	n := f.CreateNode(adder(), 0, 0)
	a := n.Input("a")

	t.Run("batching an unconnected input wraps its value", func(t *testing.T) {
		require.NoError(t, a.Update(2))
		require.NoError(t, a.Batch())
		assert.Equal(t, []any{2}, a.Value)
		assert.True(t, a.Ready())
		assert.Equal(t, []any{3}, n.OutputValue(0))
		assert.True(t, n.Outputs[0].Batched())
	})

	t.Run("unbatched inputs are broadcast", func(t *testing.T) {
		require.NoError(t, a.Update([]any{1, 2, 3}))
		assert.Equal(t, []any{2, 3, 4}, n.OutputValue(0))
	})

	t.Run("batch lengths must agree", func(t *testing.T) {
		b := n.Input("b")
		assert.ErrorIs(t, b.Batch(), flow.ErrBatchLength)
		err := b.Update([]any{1, 2})
		assert.ErrorIs(t, err, flow.ErrBatchLength)
		assert.Nil(t, n.OutputValue(0))
		assert.Equal(t, map[string]int{"a": 3, "b": 2}, n.BatchLengths())

		require.NoError(t, b.Update([]any{10, 20, 30}))
		assert.Equal(t, []any{11, 22, 33}, n.OutputValue(0))
		require.NoError(t, b.Unbatch())
		assert.Equal(t, 30, b.Value)
	})

	t.Run("unbatching keeps the last element", func(t *testing.T) {
		require.NoError(t, a.Unbatch())
		assert.Equal(t, 3, a.Value)
		assert.Equal(t, 33, n.OutputValue(0))
		assert.False(t, n.Outputs[0].Batched())
	})

	t.Run("connected inputs keep their value", func(t *testing.T) {
		up := f.CreateNode(adder(), 0, 1)
		_, err := f.Connect(up.Output("sum"), a)
		require.NoError(t, err)
		require.NoError(t, a.Batch())
		assert.Equal(t, 1, a.Value)
		assert.False(t, a.Ready(), "an integer is not a batch")
		assert.Nil(t, n.OutputValue(0))
	})

	t.Run("batched outputs feed batched inputs", func(t *testing.T) {
		g := flow.New()
		up := g.CreateNode(adder(), 0, 0)
		require.NoError(t, up.Input("a").Batch())
		require.NoError(t, up.Input("a").Update([]any{1, 2}))

		down := g.CreateNode(adder(), 1, 0)
		_, err := g.Connect(up.Output("sum"), down.Input("a"))
		assert.ErrorIs(t, err, flow.ErrTypeMismatch, "unbatched input rejects a batched output")

		require.NoError(t, down.Input("a").Batch())
		_, err = g.Connect(up.Output("sum"), down.Input("a"))
		require.NoError(t, err)
		assert.Equal(t, []any{3, 4}, down.OutputValue(0))
	})
}

func TestNodeFunctionError(t *testing.T) {
	boom := errors.New("boom")
	var updates []error
	f := flow.New(flow.WithHooks(flow.Hooks{OnNodeUpdated: func(e *flow.NodeEvent) { updates = append(updates, e.Err) }}))
	n := f.CreateNode(&flow.Template{
		Title:   "Fail",
		Inputs:  []flow.PortSpec{{Label: "x", DType: dtype.Integer()}},
		Outputs: []flow.PortSpec{{Label: "y"}},
		Func: func(in flow.Values) (flow.Values, error) {
			if in["x"].(int) > 0 {
				return nil, boom
			}
			return flow.Values{"y": "ok"}, nil
		},
	}, 0, 0)
	assert.Equal(t, "ok", n.OutputValue(0))

	err := n.Input("x").Update(1)
	assert.ErrorIs(t, err, boom)
	var nodeErr *flow.NodeError
	require.ErrorAs(t, err, &nodeErr)
	assert.Equal(t, "Fail", nodeErr.Node)
	assert.Nil(t, n.OutputValue(0))
	assert.ErrorIs(t, n.Err(), boom)
	require.Len(t, updates, 2)
	assert.NoError(t, updates[0])
}

func TestRepresentations(t *testing.T) {
	f := flow.New()
	tpl := adder()
	tpl.Doc = "Adds two integers."
	tpl.Representations = func(n *flow.Node) map[string]any {
		return map[string]any{"extra": n.Title}
	}
	n := f.CreateNode(tpl, 0, 0)

	reps := n.Representations()
	assert.Equal(t, 1, reps["sum"])
	assert.Equal(t, "Adds two integers.", reps["doc"])
	assert.Equal(t, "Add", reps["extra"])
	assert.True(t, n.RepresentationUpdated)
}

func TestHooksAndUpdateCallbacks(t *testing.T) {
	var checks []*flow.ConnectionEvent
	var placed int
	f := flow.New(flow.WithHooks(flow.Hooks{
		OnConnectionChecked: func(e *flow.ConnectionEvent) { checks = append(checks, e) },
		OnNodePlaced:        func(*flow.NodeEvent) { placed++ },
	}))
	a := f.CreateNode(adder(), 0, 0)
	b := f.CreateNode(adder(), 0, 0)
	assert.Equal(t, 2, placed)

	var seen []int
	b.OnBeforeUpdate(func(_ *flow.Node, inp int) { seen = append(seen, inp) })
	b.OnAfterUpdate(func(_ *flow.Node, inp int) { seen = append(seen, inp) })

	_, err := f.Connect(a.Output("sum"), b.Input("b"))
	require.NoError(t, err)
	require.Len(t, checks, 1)
	assert.Equal(t, "dtype-dtype", checks[0].Check)
	assert.True(t, checks[0].Valid)
	assert.Equal(t, []int{1, 1}, seen)
}

func TestDataCycle(t *testing.T) {
	f := flow.New()
	a := f.CreateNode(adder(), 0, 0)
	b := f.CreateNode(adder(), 1, 0)

	_, err := f.Connect(a.Output("sum"), b.Input("a"))
	require.NoError(t, err)
	_, err = f.Connect(b.Output("sum"), a.Input("a"))
	require.NoError(t, err, "the connection stays, the failed update is recorded")

	assert.ErrorIs(t, a.Err(), flow.ErrCycle)
	assert.ErrorIs(t, b.Err(), flow.ErrCycle)
}
