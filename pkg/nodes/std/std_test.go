package std_test

import (
	"math"
	"testing"

	"github.com/aretw0/ironflow/pkg/flow"
	"github.com/aretw0/ironflow/pkg/nodes/std"
	"github.com/aretw0/ironflow/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func templates(t *testing.T) *registry.Registry {
	t.Helper()
	r := registry.NewRegistry()
	require.NoError(t, std.Register(r))
	return r
}

func place(t *testing.T, f *flow.Flow, r *registry.Registry, title string) *flow.Node {
	t.Helper()
	tmpl, err := r.Lookup(std.Group + "." + title)
	require.NoError(t, err)
	return f.CreateNode(tmpl, 0, 0)
}

func TestRegister(t *testing.T) {
	r := templates(t)
	ids, err := r.ListTemplates()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"std.Click", "std.ExecCounter", "std.ForEach", "std.Input", "std.InputArray",
		"std.IntRandom", "std.Linspace", "std.Select", "std.Sin", "std.Slice", "std.Transpose",
	}, ids)

	require.NoError(t, std.Register(r), "registering again replaces")
	assert.Len(t, r.Templates(std.Group), 11)
}

func TestSelect(t *testing.T) {
	r := templates(t)
	tests := []struct {
		name    string
		array   any
		i       int
		want    any
		wantErr bool
	}{
		{name: "first", array: []any{"a", "b", "c"}, i: 0, want: "a"},
		{name: "negative", array: []int{1, 2, 3}, i: -1, want: 3},
		{name: "out of range", array: []any{1}, i: 3, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := place(t, flow.New(), r, "Select")
			require.NoError(t, n.Input("i").Update(tt.i))
			err := n.Input("array").Update(tt.array)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, n.OutputValue(0))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, n.OutputValue(0))
		})
	}
}

func TestSlice(t *testing.T) {
	r := templates(t)
	array := []any{0, 1, 2, 3, 4}
	tests := []struct {
		name string
		i, j any
		want []any
	}{
		{name: "whole", want: array},
		{name: "head", j: 2, want: []any{0, 1}},
		{name: "tail", i: -2, want: []any{3, 4}},
		{name: "clamped", i: 3, j: 99, want: []any{3, 4}},
		{name: "crossed", i: 4, j: 1, want: []any{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := place(t, flow.New(), r, "Slice")
			require.NoError(t, n.Input("i").Update(tt.i))
			require.NoError(t, n.Input("j").Update(tt.j))
			require.NoError(t, n.Input("array").Update(array))
			assert.Equal(t, tt.want, n.OutputValue(0))
		})
	}
}

func TestTranspose(t *testing.T) {
	r := templates(t)
	n := place(t, flow.New(), r, "Transpose")

	require.NoError(t, n.Input("array").Update([]any{[]any{1, 2, 3}, []any{4, 5, 6}}))
	assert.Equal(t, []any{[]any{1, 4}, []any{2, 5}, []any{3, 6}}, n.OutputValue(0))

	require.NoError(t, n.Input("array").Update([]any{1, 2}))
	assert.Equal(t, []any{[]any{1}, []any{2}}, n.OutputValue(0))

	err := n.Input("array").Update([]any{[]any{1, 2}, []any{3}})
	assert.ErrorIs(t, err, std.ErrRagged)
}

func TestGenerators(t *testing.T) {
	r := templates(t)
	f := flow.New()

	lin := place(t, f, r, "Linspace")
	got, ok := lin.OutputValue(0).([]float64)
	require.True(t, ok, "defaults produce a value on placement")
	require.Len(t, got, 10)
	assert.Equal(t, 1.0, got[0])
	assert.Equal(t, 2.0, got[9])

	require.NoError(t, lin.Input("steps").Update(1))
	assert.Equal(t, []float64{1.0}, lin.OutputValue(0))

	rnd := place(t, f, r, "IntRandom")
	assert.Equal(t, []int64{0}, rnd.OutputValue(0))
	require.NoError(t, rnd.Input("high").Update(10))
	require.NoError(t, rnd.Input("length").Update(50))
	ints := rnd.OutputValue(0).([]int64)
	assert.Len(t, ints, 50)
	for _, v := range ints {
		assert.True(t, v >= 0 && v < 10)
	}
	assert.Error(t, rnd.Input("high").Update(0))
}

func TestSin(t *testing.T) {
	r := templates(t)
	f := flow.New()
	lin := place(t, f, r, "Linspace")
	sin := place(t, f, r, "Sin")

	_, err := f.Connect(lin.Output("linspace"), sin.Input("x"))
	require.NoError(t, err)
	require.NoError(t, lin.Input("min").Update(0.0))
	require.NoError(t, lin.Input("max").Update(math.Pi))
	require.NoError(t, lin.Input("steps").Update(3))

	out := sin.OutputValue(0).([]float64)
	require.Len(t, out, 3)
	assert.InDelta(t, 0, out[0], 1e-9)
	assert.InDelta(t, 1, out[1], 1e-9)
	assert.InDelta(t, 0, out[2], 1e-9)
}

func TestInput(t *testing.T) {
	r := templates(t)
	n := place(t, flow.New(), r, "Input")

	require.NoError(t, n.Input("input").Update(" 42 "))
	assert.Equal(t, " 42 ", n.Output("as_str").Value)
	assert.Equal(t, int64(42), n.Output("as_int").Value)
	assert.Equal(t, 42.0, n.Output("as_float").Value)

	require.NoError(t, n.Input("input").Update("2.5"))
	assert.Nil(t, n.Output("as_int").Value)
	assert.Equal(t, 2.5, n.Output("as_float").Value)

	arr := place(t, flow.New(), r, "InputArray")
	require.NoError(t, arr.Input("input").Update("1, 2,3"))
	assert.Equal(t, []string{"1", " 2", "3"}, arr.Output("as_str").Value)
	assert.Equal(t, []int64{1, 2, 3}, arr.Output("as_int").Value)
	assert.Equal(t, []float64{1, 2, 3}, arr.Output("as_float").Value)

	require.NoError(t, arr.Input("input").Update("1,x"))
	assert.Nil(t, arr.Output("as_int").Value)
	assert.Nil(t, arr.Output("as_float").Value)
}

func TestForEach(t *testing.T) {
	r := templates(t)
	f := flow.New(flow.WithMode(flow.ModeExec))
	click := place(t, f, r, "Click")
	loop := place(t, f, r, "ForEach")
	perItem := place(t, f, r, "ExecCounter")
	done := place(t, f, r, "ExecCounter")

	for _, pair := range [][2]*flow.Port{
		{click.Output("exec"), loop.Input("start")},
		{loop.Output("loop"), perItem.Input("exec")},
		{loop.Output("finished"), done.Input("exec")},
	} {
		_, err := f.Connect(pair[0], pair[1])
		require.NoError(t, err)
	}
	require.NoError(t, loop.Input("elements").Update([]any{"a", "b"}))

	require.NoError(t, std.Press(click))
	assert.Equal(t, "a", loop.Output("e").Value)
	require.NoError(t, std.Press(click))
	assert.Equal(t, "b", loop.Output("e").Value)
	assert.Equal(t, 2, perItem.Output("count").Value)
	assert.Nil(t, done.Output("count").Value)

	require.NoError(t, std.Press(click))
	assert.Equal(t, 1, done.Output("count").Value)
	assert.Equal(t, 2, loop.Representations()["count"])

	require.NoError(t, loop.Input("reset").Update(nil))
	require.NoError(t, std.Press(click))
	assert.Equal(t, "a", loop.Output("e").Value)
	assert.Equal(t, 3, perItem.Output("count").Value)

	assert.Error(t, std.Press(loop), "only Click nodes can be pressed")
}

func TestForEach_LoopBack(t *testing.T) {
	r := templates(t)
	f := flow.New(flow.WithMode(flow.ModeExec))
	click := place(t, f, r, "Click")
	loop := place(t, f, r, "ForEach")
	body := place(t, f, r, "ExecCounter")
	done := place(t, f, r, "ExecCounter")

	for _, pair := range [][2]*flow.Port{
		{click.Output("exec"), loop.Input("start")},
		{loop.Output("loop"), body.Input("exec")},
		{body.Output("exec"), loop.Input("start")},
		{loop.Output("finished"), done.Input("exec")},
	} {
		_, err := f.Connect(pair[0], pair[1])
		require.NoError(t, err)
	}
	require.NoError(t, loop.Input("elements").Update([]any{"a", "b", "c"}))

	require.NoError(t, std.Press(click))
	assert.Equal(t, 3, body.Output("count").Value, "one press runs every element")
	assert.Equal(t, "c", loop.Output("e").Value)
	assert.Equal(t, 1, done.Output("count").Value)
	assert.NoError(t, loop.Err())
}
