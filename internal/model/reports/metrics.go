package reports

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	histogramAggregationTime = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "spendings",
			Subsystem: "reports",
			Name:      "histogram_aggregation_time_seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"kind", "error"},
	)

	excludedRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spendings",
			Subsystem: "reports",
			Name:      "excluded_records_total",
			Help:      "Ledger rows left out of summaries.",
		},
		[]string{"reason"},
	)
)

func observeAggregation(kind string, elapsed time.Duration, err bool) {
	histogramAggregationTime.
		WithLabelValues(kind, strconv.FormatBool(err)).
		Observe(elapsed.Seconds())
}
