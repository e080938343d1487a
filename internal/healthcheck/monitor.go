package healthcheck

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

const refreshTimeout = 30 * time.Second

// Snapshot is the latest set of check results.
type Snapshot struct {
	Status    string        `json:"status"`
	Checks    []CheckResult `json:"checks"`
	UpdatedAt time.Time     `json:"updated_at,omitempty"`
}

// Monitor runs checkers on a cron schedule and serves the latest results.
type Monitor struct {
	logger   *slog.Logger
	checkers []Checker

	mu       sync.RWMutex
	snapshot Snapshot

	cron *cron.Cron
}

// NewMonitor creates a Monitor over checkers.
func NewMonitor(log *slog.Logger, checkers ...Checker) *Monitor {
	if log == nil {
		log = slog.Default()
	}
	return &Monitor{
		logger:   log.With(slog.String("component", "healthcheck")),
		checkers: checkers,
		snapshot: Snapshot{Status: StatusUnknown, Checks: []CheckResult{}},
	}
}

// Refresh runs every checker once and replaces the snapshot.
func (m *Monitor) Refresh(ctx context.Context) Snapshot {
	results := make([]CheckResult, 0, len(m.checkers))
	for _, checker := range m.checkers {
		if checker == nil {
			continue
		}
		results = append(results, checker.ListChecks(ctx)...)
	}
	snap := Snapshot{Status: OverallStatus(results), Checks: results, UpdatedAt: time.Now().UTC()}

	m.mu.Lock()
	m.snapshot = snap
	m.mu.Unlock()

	if snap.Status != StatusOK {
		m.logger.Warn("health checks degraded", slog.String("status", snap.Status), slog.Int("checks", len(results)))
	} else {
		m.logger.Debug("health checks refreshed", slog.Int("checks", len(results)))
	}
	return snap
}

// Snapshot returns a copy of the latest results.
func (m *Monitor) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := m.snapshot
	snap.Checks = append([]CheckResult(nil), m.snapshot.Checks...)
	return snap
}

// Start schedules Refresh with a standard cron spec or descriptor such as
// "@every 30m". An empty spec leaves the monitor idle.
func (m *Monitor) Start(spec string) error {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		m.logger.Info("scheduled health checks disabled")
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		m.Refresh(ctx)
	}); err != nil {
		return fmt.Errorf("schedule health checks %q: %w", spec, err)
	}
	m.mu.Lock()
	m.cron = c
	m.mu.Unlock()
	c.Start()
	m.logger.Info("scheduled health checks", slog.String("schedule", spec))
	return nil
}

// Stop halts the schedule and waits for a running refresh.
func (m *Monitor) Stop(ctx context.Context) {
	m.mu.Lock()
	c := m.cron
	m.cron = nil
	m.mu.Unlock()
	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
	}
}
