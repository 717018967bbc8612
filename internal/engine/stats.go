package engine

import (
	"sync"
	"time"
)

// Stats holds the process-wide polling counters. They are in-memory only and
// reset on restart.
type Stats struct {
	mu                sync.Mutex
	startedAt         time.Time
	cyclesRun         int64
	searchesRun       int64
	itemsFound        int64
	notificationsSent int64
	searchErrors      int64
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	CyclesRun         int64         `json:"cycles_run"`
	SearchesRun       int64         `json:"searches_run"`
	ItemsFound        int64         `json:"items_found"`
	NotificationsSent int64         `json:"notifications_sent"`
	SearchErrors      int64         `json:"search_errors"`
	Uptime            time.Duration `json:"uptime"`
}

// NewStats creates zeroed counters with the uptime clock started.
func NewStats() *Stats {
	return &Stats{startedAt: time.Now()}
}

func (s *Stats) cycleDone(searches int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cyclesRun++
	s.searchesRun += int64(searches)
}

func (s *Stats) itemFound() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.itemsFound++
}

func (s *Stats) notificationsDelivered(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notificationsSent += int64(n)
}

func (s *Stats) searchFailed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchErrors++
}

// Snapshot returns a consistent copy of the counters.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		CyclesRun:         s.cyclesRun,
		SearchesRun:       s.searchesRun,
		ItemsFound:        s.itemsFound,
		NotificationsSent: s.notificationsSent,
		SearchErrors:      s.searchErrors,
		Uptime:            time.Since(s.startedAt),
	}
}
