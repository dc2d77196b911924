package monitor

import (
	"sync"
	"time"

	"arbmonitor/internal/domain"

	"github.com/google/uuid"
)

// StatusSnapshot is the read-only view of the monitor exposed over HTTP.
type StatusSnapshot struct {
	Type             domain.MonitorType `json:"type"`
	StartedAt        time.Time          `json:"started_at"`
	Cycles           int64              `json:"cycles"`
	FailedCycles     int64              `json:"failed_cycles"`
	LastCycleID      uuid.UUID          `json:"last_cycle_id"`
	LastCycleAt      time.Time          `json:"last_cycle_at"`
	LastDuration     string             `json:"last_duration"`
	LastError        string             `json:"last_error,omitempty"`
	LastSpreads      int                `json:"last_spreads"`
	LastProfitable   int                `json:"last_profitable"`
	LastSkipped      int                `json:"last_skipped"`
	Sources          int                `json:"sources"`
	Routes           int                `json:"routes"`
	RefreshFailures  int                `json:"last_refresh_failures"`
	ActionFailures   int                `json:"last_action_failures"`
	AboveMinSpread   int                `json:"last_above_min_spread"`
	MinSpread        float64            `json:"min_spread"`
	PollIntervalSecs float64            `json:"poll_interval_seconds"`
}

type status struct {
	mu   sync.RWMutex
	snap StatusSnapshot
}

type cycleReport struct {
	id              uuid.UUID
	at              time.Time
	duration        time.Duration
	spreads         int
	profitable      int
	aboveMin        int
	skipped         int
	refreshFailures int
	actionFailures  int
	err             error
}

func (s *status) record(r cycleReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Cycles++
	s.snap.LastCycleID = r.id
	s.snap.LastCycleAt = r.at
	s.snap.LastDuration = r.duration.String()
	s.snap.LastSpreads = r.spreads
	s.snap.LastProfitable = r.profitable
	s.snap.AboveMinSpread = r.aboveMin
	s.snap.LastSkipped = r.skipped
	s.snap.RefreshFailures = r.refreshFailures
	s.snap.ActionFailures = r.actionFailures
	s.snap.LastError = ""
	if r.err != nil {
		s.snap.FailedCycles++
		s.snap.LastError = r.err.Error()
	}
}

func (s *status) get() StatusSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}
