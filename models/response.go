package models

// AuditResponse is the response for POST /api/v1/audit.
type AuditResponse struct {
	// Success indicates whether the audit produced a report.
	Success bool `json:"success"`

	Report *Report `json:"report,omitempty"`

	// Rendered holds the report markup when format is html or markdown.
	Rendered string `json:"rendered,omitempty"`

	// CacheStatus is "hit" or "miss" when max_age was requested.
	CacheStatus string `json:"cache_status,omitempty"`

	// Delivery is "queued" when a notify destination was accepted.
	Delivery string `json:"delivery,omitempty"`

	// Timing provides duration breakdowns for the operation.
	Timing TimingInfo `json:"timing"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// TimingInfo breaks down the time spent serving a request.
type TimingInfo struct {
	TotalMs int64 `json:"total_ms"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status    string    `json:"status"` // "healthy" or "degraded"
	Uptime    string    `json:"uptime"`
	PoolStats PoolStats `json:"pool_stats"`
	Version   string    `json:"version"`
}

// PoolStats reports renderer activity.
type PoolStats struct {
	ActiveRenders int    `json:"active_renders"`
	TotalRenders  int64  `json:"total_renders"`
	Mode          string `json:"mode"`
	BrowserPID    int    `json:"browser_pid,omitempty"`
}
