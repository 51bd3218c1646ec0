package monitor

import (
	"github.com/TobiSchelling/topicwatch/internal/domain"
	"github.com/TobiSchelling/topicwatch/internal/store"
)

// withinRateLimits reports whether one more alert may be queued for the
// topic. The per-topic cap is checked before the global one so a noisy
// topic cannot starve the rest of the daily budget.
func withinRateLimits(topicID string, state *store.State, settings domain.Settings) bool {
	if state.Topic(topicID).AlertsToday >= settings.MaxAlertsPerTopicPerDay {
		return false
	}
	return state.TotalAlertsToday() < settings.MaxAlertsPerDay
}
