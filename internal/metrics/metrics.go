// Package metrics exports flow activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/ironflow/pkg/flow"
)

// Metrics holds the collectors fed by flow hooks.
type Metrics struct {
	ConnectionChecks *prometheus.CounterVec
	Connections      *prometheus.CounterVec
	NodesPlaced      prometheus.Counter
	NodeUpdates      *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them with reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		ConnectionChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ironflow_connection_checks_total",
			Help: "Connection validity checks by check kind and result.",
		}, []string{"check", "valid"}),
		Connections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ironflow_connections_total",
			Help: "Connections made and removed.",
		}, []string{"event"}),
		NodesPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ironflow_nodes_placed_total",
			Help: "Nodes placed in any flow.",
		}),
		NodeUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ironflow_node_updates_total",
			Help: "Node updates by result.",
		}, []string{"result"}),
		gatherer: reg,
	}
	reg.MustRegister(m.ConnectionChecks, m.Connections, m.NodesPlaced, m.NodeUpdates)
	return m
}

// Hooks returns flow hooks recording into m.
func (m *Metrics) Hooks() flow.Hooks {
	return flow.Hooks{
		OnConnectionChecked: func(e *flow.ConnectionEvent) {
			m.ConnectionChecks.WithLabelValues(e.Check, strconv.FormatBool(e.Valid)).Inc()
		},
		OnConnected: func(*flow.ConnectionEvent) {
			m.Connections.WithLabelValues("connected").Inc()
		},
		OnDisconnected: func(*flow.ConnectionEvent) {
			m.Connections.WithLabelValues("disconnected").Inc()
		},
		OnNodePlaced: func(*flow.NodeEvent) {
			m.NodesPlaced.Inc()
		},
		OnNodeUpdated: func(e *flow.NodeEvent) {
			result := "ok"
			if e.Err != nil {
				result = "error"
			}
			m.NodeUpdates.WithLabelValues(result).Inc()
		},
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
