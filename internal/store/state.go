package store

import (
	"time"

	"github.com/araddon/dateparse"

	"github.com/TobiSchelling/topicwatch/internal/domain"
)

// State is the persisted state document: per-topic check history and the URL
// deduplication map. The orchestrator owns one in-memory copy per run and
// writes it back whole.
type State struct {
	Topics        map[string]*domain.TopicState `json:"topics"`
	Deduplication Deduplication                 `json:"deduplication"`
}

// Deduplication maps URL hashes to the timestamp each was last seen.
// Entries are only removed by the explicit prune maintenance operation.
type Deduplication struct {
	URLHashMap map[string]string `json:"url_hash_map"`
}

// NewState returns an empty, fully initialized state document.
func NewState() *State {
	return &State{
		Topics:        make(map[string]*domain.TopicState),
		Deduplication: Deduplication{URLHashMap: make(map[string]string)},
	}
}

// Topic returns the state record for a topic, creating it lazily.
func (st *State) Topic(id string) *domain.TopicState {
	if st.Topics == nil {
		st.Topics = make(map[string]*domain.TopicState)
	}
	ts, ok := st.Topics[id]
	if !ok {
		ts = &domain.TopicState{}
		st.Topics[id] = ts
	}
	return ts
}

// TotalAlertsToday sums alerts_today across all topics.
func (st *State) TotalAlertsToday() int {
	total := 0
	for _, ts := range st.Topics {
		total += ts.AlertsToday
	}
	return total
}

// LoadState reads the state document. A missing or corrupt file yields an
// empty state.
func (s *Store) LoadState() *State {
	st := NewState()
	if !readDocument(s.statePath(), st) {
		return NewState()
	}
	if st.Topics == nil {
		st.Topics = make(map[string]*domain.TopicState)
	}
	if st.Deduplication.URLHashMap == nil {
		st.Deduplication.URLHashMap = make(map[string]string)
	}
	return st
}

// SaveState replaces the state document.
func (s *Store) SaveState(st *State) error {
	return writeDocument(s.statePath(), st)
}

// PruneDedup removes deduplication entries last seen before maxAge ago and
// saves the state document. Entries whose timestamp cannot be parsed are
// also removed: the dedup filter already treats them as absent, so they only
// take up space. Returns the number of entries removed.
func (s *Store) PruneDedup(maxAge time.Duration) (int, error) {
	st := s.LoadState()
	cutoff := s.Now().Add(-maxAge)

	removed := 0
	for hash, seen := range st.Deduplication.URLHashMap {
		ts, err := dateparse.ParseAny(seen)
		if err != nil || ts.Before(cutoff) {
			delete(st.Deduplication.URLHashMap, hash)
			removed++
		}
	}

	if removed == 0 {
		return 0, nil
	}
	return removed, s.SaveState(st)
}
