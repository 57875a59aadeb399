package recommend_test

import (
	"testing"

	"github.com/aretw0/ironflow/internal/testutils"
	"github.com/aretw0/ironflow/pkg/adapters/memory"
	"github.com/aretw0/ironflow/pkg/dsl"
	"github.com/aretw0/ironflow/pkg/dtype"
	"github.com/aretw0/ironflow/pkg/flow"
	"github.com/aretw0/ironflow/pkg/nodes/std"
	"github.com/aretw0/ironflow/pkg/recommend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func atomistics(t *testing.T) *memory.Loader {
	t.Helper()
	onto := testutils.Atomistics(t)
	structure := dtype.Data(dtype.WithClasses(dtype.ClassObject))

	b := dsl.New("atom")
	for _, fn := range []string{"bulk", "surface", "repeat", "md"} {
		nb := b.Add(fn).Func(func(flow.Values) (flow.Values, error) { return flow.Values{}, nil })
		for _, in := range onto.Function(fn).Inputs {
			nb.In(in.Label, structure, dsl.OType(in))
		}
		for _, out := range onto.Function(fn).Outputs {
			nb.Out(out.Label, structure, dsl.OType(out))
		}
	}
	loader, err := b.Build()
	require.NoError(t, err)
	return loader
}

func stdLoader(t *testing.T) *memory.Loader {
	t.Helper()
	tpls, err := std.Templates()
	require.NoError(t, err)
	return memory.NewLoader(tpls...)
}

func place(t *testing.T, loader *memory.Loader, id string) *flow.Node {
	t.Helper()
	tmpl, err := loader.GetTemplate(id)
	require.NoError(t, err)
	return flow.New().CreateNode(tmpl, 0, 0)
}

func TestOntology(t *testing.T) {
	loader := atomistics(t)
	r := recommend.New(loader)

	md := place(t, loader, "atom.md")
	recs, err := r.For(md.Input("structure"))
	require.NoError(t, err)
	assert.Equal(t, []recommend.Recommendation{
		{Group: "atom", Title: "bulk", Port: "structure", Reason: recommend.ReasonSource},
		{Group: "atom", Title: "repeat", Port: "structure", Reason: recommend.ReasonSource},
	}, recs, "surfaces are not periodic")

	bulk := place(t, loader, "atom.bulk")
	recs, err = r.For(bulk.Output("structure"))
	require.NoError(t, err)
	var ids []string
	for _, rec := range recs {
		assert.Equal(t, recommend.ReasonConsumer, rec.Reason)
		ids = append(ids, rec.Identifier())
	}
	assert.Equal(t, []string{"atom.md", "atom.repeat"}, ids)
}

func TestDType(t *testing.T) {
	loader := stdLoader(t)
	r := recommend.New(loader)

	sin := place(t, loader, "std.Sin")
	recs, err := r.For(sin.Input("x"))
	require.NoError(t, err)

	var got []string
	for _, rec := range recs {
		assert.Equal(t, recommend.ReasonDType, rec.Reason)
		got = append(got, rec.Identifier()+"."+rec.Port)
	}
	assert.Equal(t, []string{
		"std.InputArray.as_int",
		"std.InputArray.as_float",
		"std.IntRandom.randint",
		"std.Linspace.linspace",
		"std.Sin.sin",
	}, got)
}

func TestExec(t *testing.T) {
	loader := stdLoader(t)
	click := place(t, loader, "std.Click")

	recs, err := recommend.New(loader).For(click.Output("exec"))
	require.NoError(t, err)
	assert.Equal(t, []recommend.Recommendation{
		{Group: "std", Title: "ExecCounter", Port: "exec", Reason: recommend.ReasonExec},
		{Group: "std", Title: "ForEach", Port: "start", Reason: recommend.ReasonExec},
		{Group: "std", Title: "ForEach", Port: "reset", Reason: recommend.ReasonExec},
	}, recs)
}

func TestNoPort(t *testing.T) {
	_, err := recommend.New(stdLoader(t)).For(nil)
	assert.ErrorIs(t, err, recommend.ErrNoPort)
}
