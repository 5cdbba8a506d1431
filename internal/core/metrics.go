package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	uploadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cartoonify",
		Name:      "uploads_total",
		Help:      "Number of uploads received.",
	})
	rejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cartoonify",
		Name:      "rejections_total",
		Help:      "Number of uploads rejected, by reason.",
	}, []string{"reason"})
	avatarsGeneratedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cartoonify",
		Name:      "avatars_generated_total",
		Help:      "Number of avatars written.",
	})
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cartoonify",
		Name:      "cache_hits_total",
		Help:      "Number of avatars served from the render cache.",
	})
	processingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "cartoonify",
		Name:      "processing_duration_seconds",
		Help:      "Time from upload to stored avatar.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 32},
	})
)
