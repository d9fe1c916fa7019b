package store

import (
	"sync"

	"github.com/Vodeneev/livebet/internal/pkg/models"
)

// historyCap bounds per-match history; the oldest snapshot is evicted first.
const historyCap = 10

// MatchStore keeps a bounded snapshot history per match id. A single ingest
// goroutine writes; the strategy engines, the HTTP state server and the
// emitters read concurrently, so every access goes through the RWMutex.
//
// Entries are never deleted: matches go stale when their feed disappears,
// which is acceptable for a session-scoped scanner run.
type MatchStore struct {
	mu        sync.RWMutex
	histories map[string][]models.MatchSnapshot
}

func New() *MatchStore {
	return &MatchStore{
		histories: make(map[string][]models.MatchSnapshot),
	}
}

// Upsert appends the snapshot to its match history, creating the history on
// first observation and evicting the oldest entry beyond capacity.
func (s *MatchStore) Upsert(snap models.MatchSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.histories[snap.MatchID], snap)
	if len(history) > historyCap {
		history = history[len(history)-historyCap:]
	}
	s.histories[snap.MatchID] = history
}

// History returns the stored snapshots for a match, oldest first. The
// returned slice is a copy, callers may keep it across later upserts.
func (s *MatchStore) History(matchID string) []models.MatchSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.histories[matchID]
	if len(history) == 0 {
		return nil
	}
	out := make([]models.MatchSnapshot, len(history))
	copy(out, history)
	return out
}

// Latest returns the most recent snapshot for a match, or false when the
// match has never been observed.
func (s *MatchStore) Latest(matchID string) (models.MatchSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.histories[matchID]
	if len(history) == 0 {
		return models.MatchSnapshot{}, false
	}
	return history[len(history)-1], true
}

// LatestAll returns the most recent snapshot of every observed match.
func (s *MatchStore) LatestAll() []models.MatchSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.MatchSnapshot, 0, len(s.histories))
	for _, history := range s.histories {
		if len(history) > 0 {
			out = append(out, history[len(history)-1])
		}
	}
	return out
}

// Len returns the number of distinct matches observed this run.
func (s *MatchStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.histories)
}
