package capture

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	processedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "presence_captures_processed_total",
		Help: "Captures consumed from the queue.",
	})
	recordedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "presence_captures_recorded_total",
		Help: "Captures that created a new presence record.",
	})
	duplicateTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "presence_captures_duplicate_total",
		Help: "Captures for a student already recorded that day.",
	})
	unmatchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "presence_captures_unmatched_total",
		Help: "Captures where no student met the match threshold.",
	})
	failedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "presence_captures_failed_total",
		Help: "Captures that failed recognition or persistence.",
	})
)
