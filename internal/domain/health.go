package domain

// HealthStatus is returned by GET /healthz and GET /readyz.
type HealthStatus struct {
	Status     string           `json:"status"` // healthy, unhealthy
	Components []ComponentCheck `json:"components,omitempty"`
}

// ComponentCheck is the outcome of probing one dependency.
type ComponentCheck struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
	Error       string `json:"error,omitempty"`
}
