package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/ironflow/pkg/adapters/memory"
	"github.com/aretw0/ironflow/pkg/domain"
	"github.com/aretw0/ironflow/pkg/dtype"
	"github.com/aretw0/ironflow/pkg/flow"
	"github.com/aretw0/ironflow/pkg/session"
)

func loader() *memory.Loader {
	return memory.NewLoader(
		&flow.Template{
			Title:   "Const",
			Group:   "math",
			Inputs:  []flow.PortSpec{{Label: "v", DType: dtype.Integer()}},
			Outputs: []flow.PortSpec{{Label: "v", DType: dtype.Integer()}},
			Func:    func(in flow.Values) (flow.Values, error) { return flow.Values{"v": in["v"]}, nil },
		},
		&flow.Template{
			Title:   "Upper",
			Group:   "text",
			Inputs:  []flow.PortSpec{{Label: "s", DType: dtype.String()}},
			Outputs: []flow.PortSpec{{Label: "s", DType: dtype.String()}},
			Func:    func(in flow.Values) (flow.Values, error) { return flow.Values{"s": in["s"]}, nil },
		},
	)
}

func saved(t *testing.T) *domain.Document {
	t.Helper()
	l := loader()
	s := session.New("check")
	f := s.CreateScript("main").Flow
	for _, id := range []string{"math.Const", "math.Const"} {
		tmpl, err := l.GetTemplate(id)
		require.NoError(t, err)
		f.CreateNode(tmpl, 0, 0)
	}
	_, err := f.Connect(f.Nodes()[0].Outputs[0], f.Nodes()[1].Inputs[0])
	require.NoError(t, err)
	doc, err := s.Serialize()
	require.NoError(t, err)
	return doc
}

func TestCheck_Valid(t *testing.T) {
	r := Check(saved(t), loader())
	assert.NoError(t, r.Err())
	assert.Empty(t, r.Issues)
	assert.Equal(t, 1, r.Scripts)
	assert.Equal(t, 2, r.Nodes)
	assert.Equal(t, 1, r.Connections)
}

func TestCheck_Issues(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*domain.Document)
		severity Severity
		contains string
	}{
		{
			name:     "missing template",
			mutate:   func(d *domain.Document) { d.Scripts[0].Flow.Nodes[1].Identifier = "math.Gone" },
			severity: SeverityError,
			contains: "template not found",
		},
		{
			name: "connection no longer type-checks",
			mutate: func(d *domain.Document) {
				d.Scripts[0].Flow.Nodes[1].Inputs[0].DType = dtype.String()
			},
			severity: SeverityError,
			contains: "connection 0.0 -> 1.0",
		},
		{
			name:     "structural",
			mutate:   func(d *domain.Document) { d.ActiveScript = 4 },
			severity: SeverityError,
			contains: "active",
		},
		{
			name: "changed port layout",
			mutate: func(d *domain.Document) {
				n := &d.Scripts[0].Flow.Nodes[0]
				n.Outputs = append(n.Outputs, n.Outputs[0])
			},
			severity: SeverityWarning,
			contains: "saved with 1 inputs and 2 outputs",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := saved(t)
			tt.mutate(doc)
			r := Check(doc, loader())
			require.NotEmpty(t, r.Issues)
			found := false
			for _, i := range r.Issues {
				if i.Severity == tt.severity && strings.Contains(i.String(), tt.contains) {
					found = true
				}
			}
			assert.True(t, found, "issues: %v", r.Issues)
			if tt.severity == SeverityWarning {
				assert.NoError(t, r.Err())
			} else {
				assert.Error(t, r.Err())
			}
		})
	}
}
