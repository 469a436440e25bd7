package daemon

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"sort"
	"sync"
	"time"
)

// staleAfter is how many poll intervals may pass without a poll before the
// loop counts as stuck.
const staleAfter = 3

// HealthStatus represents the current health state of the daemon.
type HealthStatus struct {
	Status        string        `json:"status"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	MemoryMB      float64       `json:"memory_mb"`
	LastPoll      *time.Time    `json:"last_poll,omitempty"`
	LastError     string        `json:"last_error,omitempty"`
	Version       string        `json:"version,omitempty"`
	Goroutines    int           `json:"goroutines"`
	Checks        []CheckResult `json:"checks"`
}

// CheckResult represents the result of a single health check.
type CheckResult struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

// HealthChecker derives daemon health from the poll loop.
type HealthChecker struct {
	mu           sync.RWMutex
	startTime    time.Time
	lastPoll     time.Time
	lastErr      error
	version      string
	pollInterval time.Duration
	customChecks map[string]func() error
	now          func() time.Time
}

// NewHealthChecker creates a new health checker.
func NewHealthChecker(version string, pollInterval time.Duration) *HealthChecker {
	return &HealthChecker{
		startTime:    time.Now(),
		version:      version,
		pollInterval: pollInterval,
		customChecks: make(map[string]func() error),
		now:          time.Now,
	}
}

// WithClock replaces the time source.
func (h *HealthChecker) WithClock(now func() time.Time) *HealthChecker {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.now = now
	h.startTime = now()
	return h
}

// RecordPoll notes the outcome of one delivery poll.
func (h *HealthChecker) RecordPoll(at time.Time, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastErr = err
	if err == nil {
		h.lastPoll = at
	}
}

// AddCheck adds a custom health check function.
func (h *HealthChecker) AddCheck(name string, check func() error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.customChecks[name] = check
}

// RemoveCheck removes a custom health check.
func (h *HealthChecker) RemoveCheck(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.customChecks, name)
}

// pollCheck fails when the last poll errored or polls stopped arriving.
func (h *HealthChecker) pollCheck() error {
	if h.lastErr != nil {
		return h.lastErr
	}
	if h.pollInterval <= 0 {
		return nil
	}
	limit := staleAfter * h.pollInterval
	now := h.now()
	since := h.lastPoll
	if since.IsZero() {
		since = h.startTime
	}
	if now.Sub(since) > limit {
		return fmt.Errorf("no poll for %s", now.Sub(since).Round(time.Second))
	}
	return nil
}

// Check performs a health check and returns the status.
func (h *HealthChecker) Check() *HealthStatus {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	h.mu.RLock()
	defer h.mu.RUnlock()

	status := &HealthStatus{
		Status:        "healthy",
		UptimeSeconds: int64(h.now().Sub(h.startTime).Seconds()),
		MemoryMB:      float64(memStats.Alloc) / 1024 / 1024,
		Version:       h.version,
		Goroutines:    runtime.NumGoroutine(),
	}
	if !h.lastPoll.IsZero() {
		at := h.lastPoll
		status.LastPoll = &at
	}
	if h.lastErr != nil {
		status.LastError = h.lastErr.Error()
	}

	names := make([]string, 0, len(h.customChecks))
	for name := range h.customChecks {
		names = append(names, name)
	}
	sort.Strings(names)

	status.Checks = append(status.Checks, result("poll", h.pollCheck()))
	for _, name := range names {
		status.Checks = append(status.Checks, result(name, h.customChecks[name]()))
	}
	for _, c := range status.Checks {
		if !c.Healthy {
			status.Status = "unhealthy"
		}
	}
	return status
}

func result(name string, err error) CheckResult {
	r := CheckResult{Name: name, Healthy: err == nil}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// IsHealthy returns true if the daemon is healthy.
func (h *HealthChecker) IsHealthy() bool {
	return h.Check().Status == "healthy"
}

// Uptime returns how long the daemon has been running.
func (h *HealthChecker) Uptime() time.Duration {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.now().Sub(h.startTime)
}

// JSON returns the health status as JSON.
func (h *HealthChecker) JSON() ([]byte, error) {
	return json.MarshalIndent(h.Check(), "", "  ")
}

// ServeHTTP answers /healthz with the status document; unhealthy is a 503.
func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	status := h.Check()
	w.Header().Set("Content-Type", "application/json")
	if status.Status != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(status)
}
