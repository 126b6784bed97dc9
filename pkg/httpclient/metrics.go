package httpclient

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	responsesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "middleware_http_client_responses_total",
		Help: "Responses received by pooled HTTP clients, by status class.",
	}, []string{"pool", "class"})

	openConnections = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "middleware_http_client_open_connections",
		Help: "Connections currently open in a pool.",
	}, []string{"pool"})
)

// statusClass buckets a status code as "2xx" through "5xx".
func statusClass(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500 && code < 600:
		return "5xx"
	}
	return "other"
}
