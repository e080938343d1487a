// Package healthcheck collects runtime checks and keeps the latest snapshot
// for the health endpoint.
package healthcheck

import (
	"context"
	"time"
)

const (
	// StatusOK indicates check passed.
	StatusOK = "ok"
	// StatusWarn indicates check completed with warning.
	StatusWarn = "warn"
	// StatusError indicates check failed.
	StatusError = "error"
	// StatusUnknown indicates check result is not yet known.
	StatusUnknown = "unknown"
)

// CheckResult is one runtime check item produced by a checker.
type CheckResult struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Subtitle  string         `json:"subtitle,omitempty"`
	Status    string         `json:"status"`
	Summary   string         `json:"summary"`
	Detail    string         `json:"detail,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CheckedAt time.Time      `json:"checked_at"`
}

// Checker evaluates one or more runtime checks.
type Checker interface {
	ListChecks(ctx context.Context) []CheckResult
}

// OverallStatus folds results into one status: error wins over warn, warn
// over unknown, unknown over ok. No results is unknown.
func OverallStatus(results []CheckResult) string {
	if len(results) == 0 {
		return StatusUnknown
	}
	rank := map[string]int{StatusOK: 0, StatusUnknown: 1, StatusWarn: 2, StatusError: 3}
	overall := StatusOK
	for _, r := range results {
		if rank[r.Status] > rank[overall] {
			overall = r.Status
		}
	}
	return overall
}
