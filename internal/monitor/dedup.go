package monitor

import (
	"time"

	"github.com/araddon/dateparse"

	"github.com/TobiSchelling/topicwatch/internal/domain"
	"github.com/TobiSchelling/topicwatch/internal/store"
)

// isDuplicate reports whether a URL was seen within the deduplication
// window. A malformed stored timestamp counts as not seen; a surprising
// alert beats a missed one.
func isDuplicate(url string, state *store.State, window time.Duration, now time.Time) bool {
	lastSeen, ok := state.Deduplication.URLHashMap[domain.HashURL(url)]
	if !ok {
		return false
	}
	seen, err := dateparse.ParseAny(lastSeen)
	if err != nil {
		return false
	}
	return now.Sub(seen) < window
}

// markSeen records a URL sighting, overwriting any previous timestamp.
func markSeen(url string, state *store.State, now time.Time) {
	state.Deduplication.URLHashMap[domain.HashURL(url)] = now.Format(time.RFC3339)
}
