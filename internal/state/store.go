package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/bouyomi/bouyomi"
)

// historyLimit caps how many submitted lines a snapshot remembers.
const historyLimit = 20

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Status              bouyomi.Status
	HasStatus           bool
	History             []string // most recent last
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive poll failures
}

// IsOffline returns true when the application has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update replaces the stored status. When err is non-nil status is ignored, the previous
// status is kept and the error is recorded for visibility.
func (s *Store) Update(status bouyomi.Status, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.LastUpdated = time.Now()
		s.snapshot.ConsecutiveFailures++
		return
	}

	s.snapshot.Status = status
	s.snapshot.HasStatus = true
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
}

// RecordTalk remembers a line handed to the talker.
func (s *Store) RecordTalk(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.History = append(s.snapshot.History, text)
	if over := len(s.snapshot.History) - historyLimit; over > 0 {
		s.snapshot.History = append([]string(nil), s.snapshot.History[over:]...)
	}
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.History = cloneHistory(s.snapshot.History)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func cloneHistory(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	dup := make([]string, len(items))
	copy(dup, items)
	return dup
}
