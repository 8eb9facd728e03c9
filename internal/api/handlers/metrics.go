package handlers

import "github.com/prometheus/client_golang/prometheus"

var (
	viewsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "bubblegum_video_views_total", Help: "View events recorded"},
	)
	likesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bubblegum_video_likes_total", Help: "Like toggles"},
		[]string{"action"}, // "like" / "unlike"
	)
	uploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bubblegum_video_uploads_total", Help: "Admin video uploads"},
		[]string{"status"}, // "ok" / "error"
	)
	uploadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bubblegum_video_upload_seconds",
			Help:    "Time spent pushing a video to the storage backend",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 8),
		},
	)
)

func RegisterMetrics() {
	prometheus.MustRegister(viewsTotal, likesTotal, uploadsTotal, uploadDuration)
}
