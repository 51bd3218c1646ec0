package monitor

import (
	"time"

	"github.com/araddon/dateparse"

	"github.com/TobiSchelling/topicwatch/internal/domain"
)

// ShouldCheck reports whether a topic is due for a check. Topics with no
// recorded last check, or an unreadable one, are always due.
func ShouldCheck(topic domain.Topic, ts *domain.TopicState, now time.Time, force bool) bool {
	if force {
		return true
	}
	if ts == nil || ts.LastCheck == "" {
		return true
	}
	last, err := dateparse.ParseAny(ts.LastCheck)
	if err != nil {
		return true
	}
	return now.Sub(last) >= topic.Frequency.Interval()
}
