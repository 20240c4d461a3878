package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueryRequests counts requests to the query endpoint, labeled by status.
	QueryRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agent_query_requests_total",
		Help: "The total number of received agent queries",
	}, []string{"status"}) // status: success, invalid, error

	// QueryDuration measures end-to-end handling time of a query.
	QueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "agent_query_duration_seconds",
		Help:    "Time taken to answer an agent query",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"}) // result: success, error

	// LLMCalls counts completions requested from the vendor
	LLMCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agent_llm_calls_total",
		Help: "The total number of LLM completion calls",
	}, []string{"provider", "model", "status"}) // status: success, error, masked

	// LLMCallDuration measures the latency of a single vendor call.
	LLMCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "agent_llm_call_duration_seconds",
		Help:    "Time taken by a single LLM completion call",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	}, []string{"provider"})

	// VendorHTTPRequests counts outbound HTTP requests to vendor APIs
	VendorHTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agent_vendor_http_requests_total",
		Help: "Total number of outbound HTTP requests to LLM vendors",
	}, []string{"host", "code"}) // code: HTTP status or "error"
)
