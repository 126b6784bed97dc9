package logs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	kindUser   = "user"
	kindSystem = "system"
)

var (
	savedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "middleware_logs_saved_total",
		Help: "Log entries persisted, by kind",
	}, []string{"kind"})
	saveFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "middleware_logs_save_failures_total",
		Help: "Log saves that failed in the store, by kind",
	}, []string{"kind"})
	deletedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "middleware_logs_deleted_total",
		Help: "Log entries removed by retention, by kind",
	}, []string{"kind"})
)
