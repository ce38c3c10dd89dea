package models

import "time"

// SystemMetrics is a lightweight aggregate snapshot exposed to managers.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	AttendanceUpdates        uint64    `json:"attendance_updates"`
	DeadlineRejections       uint64    `json:"deadline_rejections"`
	RateLimitRejections      uint64    `json:"rate_limit_rejections"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
