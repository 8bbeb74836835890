package wal

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	SegmentCycleTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wal_segment_cycle_total",
			Help: "Total number of tail segment cycles executed.",
		},
	)

	SegmentCycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wal_segment_cycle_duration_seconds",
			Help:    "Duration of tail segment cycles in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16),
		},
	)

	EntriesAppendedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wal_entries_appended_total",
			Help: "Total number of entries successfully appended.",
		},
	)

	BytesAppendedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wal_bytes_appended_total",
			Help: "Total number of encoded bytes written to segment files.",
		},
	)

	TruncateFrontTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wal_truncate_front_total",
			Help: "Total number of successful TruncateFront operations.",
		},
	)

	TruncateBackTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wal_truncate_back_total",
			Help: "Total number of successful TruncateBack operations.",
		},
	)

	CacheEvictionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wal_cache_evictions_total",
			Help: "Total number of segment cache evictions.",
		},
	)

	CorruptTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wal_corrupt_total",
			Help: "Total number of times the sticky corrupt flag was set.",
		},
	)
)

// RegisterMetrics registers all metrics collectors with the given prometheus registerer.
func RegisterMetrics(registerer prometheus.Registerer) error {
	metrics := []prometheus.Collector{
		SegmentCycleTotal,
		SegmentCycleDuration,
		EntriesAppendedTotal,
		BytesAppendedTotal,
		TruncateFrontTotal,
		TruncateBackTotal,
		CacheEvictionsTotal,
		CorruptTotal,
	}
	for _, metric := range metrics {
		if err := registerer.Register(metric); err != nil {
			return err
		}
	}
	return nil
}
