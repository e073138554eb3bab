package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operations counts ledger operations by name and outcome
// ("ok", "validation", "lock_timeout", "storage").
var Operations = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ledger_operations_total",
	Help: "Ledger operations by outcome.",
}, []string{"op", "outcome"})

// SecondaryWriteFailures counts dropped best-effort writes per sink.
var SecondaryWriteFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "secondary_write_failures_total",
	Help: "Failed movement/audit appends (logged and dropped).",
}, []string{"sink"})
