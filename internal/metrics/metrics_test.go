package metrics_test

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/ironflow/internal/metrics"
	"github.com/aretw0/ironflow/pkg/dtype"
	"github.com/aretw0/ironflow/pkg/flow"
)

func TestHooks(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	f := flow.New(flow.WithHooks(m.Hooks()))

	src := &flow.Template{
		Title:   "Src",
		Outputs: []flow.PortSpec{{Label: "v", DType: dtype.Integer()}},
		Func:    func(flow.Values) (flow.Values, error) { return flow.Values{"v": 1}, nil },
	}
	sink := &flow.Template{
		Title:  "Sink",
		Inputs: []flow.PortSpec{{Label: "s", DType: dtype.String()}, {Label: "i", DType: dtype.Integer()}},
		Func:   func(flow.Values) (flow.Values, error) { return flow.Values{}, nil },
	}
	a := f.CreateNode(src, 0, 0)
	b := f.CreateNode(sink, 1, 0)

	_, err := f.Connect(a.Output("v"), b.Input("s"))
	assert.ErrorIs(t, err, flow.ErrTypeMismatch)
	_, err = f.Connect(a.Output("v"), b.Input("i"))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	for _, line := range []string{
		"ironflow_nodes_placed_total 2",
		`ironflow_connection_checks_total{check="dtype-dtype",valid="false"} 1`,
		`ironflow_connection_checks_total{check="dtype-dtype",valid="true"} 1`,
		`ironflow_connections_total{event="connected"} 1`,
		`ironflow_node_updates_total{result="ok"}`,
	} {
		assert.Contains(t, string(body), line)
	}
}
