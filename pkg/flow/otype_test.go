package flow_test

import (
	"testing"

	"github.com/aretw0/ironflow/internal/testutils"
	"github.com/aretw0/ironflow/pkg/flow"
	"github.com/aretw0/ironflow/pkg/otype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ontologyTemplates mirrors every ontology function as a template.
func ontologyTemplates(onto *otype.Ontology) map[string]*flow.Template {
	tpls := map[string]*flow.Template{}
	for _, fn := range onto.Functions {
		tpl := &flow.Template{Title: fn.Name}
		for _, in := range fn.Inputs {
			tpl.Inputs = append(tpl.Inputs, flow.PortSpec{Label: in.Label, OType: in})
		}
		for _, out := range fn.Outputs {
			tpl.Outputs = append(tpl.Outputs, flow.PortSpec{Label: out.Label, OType: out})
		}
		tpls[fn.Name] = tpl
	}
	return tpls
}

func TestOTypeChecks(t *testing.T) {
	onto := testutils.Atomistics(t)
	tpls := ontologyTemplates(onto)
	f := flow.New()

	bulk := f.CreateNode(tpls["bulk"], 0, 0)
	surface := f.CreateNode(tpls["surface"], 0, 1)
	repeat := f.CreateNode(tpls["repeat"], 1, 0)
	md := f.CreateNode(tpls["md"], 2, 0)

	t.Run("surface feeds repeat while nothing needs periodicity", func(t *testing.T) {
		_, err := f.Connect(surface.Output("structure"), repeat.Input("structure"))
		require.NoError(t, err)
		assert.True(t, repeat.Input("structure").OTypeOK())
		assert.True(t, surface.Output("structure").OTypeOK())
	})

	t.Run("md requirement travels upstream through repeat", func(t *testing.T) {
		_, err := f.Connect(repeat.Output("structure"), md.Input("structure"))
		require.NoError(t, err)

		assert.Equal(t, []string{"periodic"}, repeat.Input("structure").DownstreamRequirements())
		assert.False(t, repeat.Input("structure").OTypeOK())
		assert.False(t, repeat.Input("structure").Ready())
		assert.False(t, md.Input("structure").OTypeOK(), "surface workflow is not in md's tree")
		assert.False(t, surface.Output("structure").OTypeOK())
	})

	t.Run("swapping in a bulk structure satisfies everything", func(t *testing.T) {
		_, err := f.Connect(bulk.Output("structure"), repeat.Input("structure"))
		require.NoError(t, err)
		assert.True(t, repeat.Input("structure").OTypeOK())
		assert.True(t, md.Input("structure").OTypeOK())
		assert.True(t, bulk.Output("structure").OTypeOK())
		assert.True(t, surface.Output("structure").OTypeOK(), "disconnected outputs are fine")
	})

	t.Run("disconnecting downstream relaxes requirements", func(t *testing.T) {
		require.NoError(t, f.Disconnect(md.Input("structure"), repeat.Output("structure")))
		assert.Empty(t, repeat.Input("structure").DownstreamRequirements())
		assert.True(t, md.Input("structure").OTypeOK())
	})

	t.Run("source tree of a port", func(t *testing.T) {
		tree := md.Input("structure").SourceTree()
		require.NotNil(t, tree)
		assert.NotNil(t, tree.Child(onto.Output("bulk", "structure").Ref()))
		assert.Nil(t, bulk.Output("structure").SourceTree())
	})
}
