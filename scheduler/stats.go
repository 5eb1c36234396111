package scheduler

import (
	"sync"
	"time"
)

// Stats collects loop counters for the status endpoint
type Stats struct {
	mu sync.RWMutex
	s  StatsSnapshot
}

// StatsSnapshot is a point-in-time copy of Stats
type StatsSnapshot struct {
	StartedAt        time.Time  `json:"started_at"`
	Cycles           int        `json:"cycles"`
	Failures         int        `json:"failures"`
	NotModified      int        `json:"not_modified"`
	ItemsNotified    int        `json:"items_notified"`
	DeliveryFailures int        `json:"delivery_failures"`
	SeenCount        int        `json:"seen_count"`
	CurrentBackoff   string     `json:"current_backoff"`
	LastCycleAt      *time.Time `json:"last_cycle_at,omitempty"`
	LastSuccessAt    *time.Time `json:"last_success_at,omitempty"`
	LastError        string     `json:"last_error,omitempty"`
	LastErrorKind    string     `json:"last_error_kind,omitempty"`
}

func NewStats(now time.Time) *Stats {
	return &Stats{s: StatsSnapshot{StartedAt: now}}
}

// Snapshot returns a copy safe to use from other goroutines
func (st *Stats) Snapshot() StatsSnapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s
}

func (st *Stats) recordCycle(at time.Time, report CycleReport, err error, seenCount int, backoff time.Duration) {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.s.Cycles++
	st.s.LastCycleAt = &at
	st.s.SeenCount = seenCount
	st.s.CurrentBackoff = backoff.String()

	if report.NotModified {
		st.s.NotModified++
	}
	if report.DeliveryErr != nil {
		st.s.DeliveryFailures++
	}

	if err != nil {
		st.s.Failures++
		st.s.LastError = err.Error()
		st.s.LastErrorKind = ErrorKind(err)
		return
	}
	st.s.LastSuccessAt = &at
	if report.DeliveryErr == nil {
		st.s.ItemsNotified += report.New
	}
}
