// Package metrics exposes Prometheus instrumentation for MCP tools and the HTTP transport.
package metrics

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "lexdesk"

// Tool call outcomes used as the status label.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

var (
	toolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "tool_calls_total",
			Help:      "Total number of MCP tool calls",
		},
		[]string{"tool", "status"},
	)

	toolDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "tool_duration_seconds",
			Help:      "MCP tool call duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"tool"},
	)

	searchResults = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "search_results",
			Help:      "Number of documents returned per search",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 20, 50},
		},
		[]string{"tool"},
	)
)

func init() {
	prometheus.MustRegister(toolCallsTotal)
	prometheus.MustRegister(toolDuration)
	prometheus.MustRegister(searchResults)
}

// ObserveTool records one completed tool call.
func ObserveTool(tool string, start time.Time, isError bool) {
	status := StatusOK
	if isError {
		status = StatusError
	}
	toolCallsTotal.WithLabelValues(tool, status).Inc()
	toolDuration.WithLabelValues(tool).Observe(time.Since(start).Seconds())
}

// ObserveResults records the number of documents a search tool returned.
func ObserveResults(tool string, n int) {
	searchResults.WithLabelValues(tool).Observe(float64(n))
}

// Instrument wraps a typed tool handler so every call is counted and timed.
// A call whose result has IsError set, or which returns an error, counts as failed.
func Instrument[In any](tool string, h func(context.Context, *mcp.CallToolRequest, In) (*mcp.CallToolResult, any, error)) func(context.Context, *mcp.CallToolRequest, In) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, in In) (*mcp.CallToolResult, any, error) {
		start := time.Now()
		res, out, err := h(ctx, req, in)
		ObserveTool(tool, start, err != nil || (res != nil && res.IsError))
		return res, out, err
	}
}
