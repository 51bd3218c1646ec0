// Package domain holds the shared record types of the topic monitor: topics,
// search results, alerts, findings, and per-topic state. Timestamps inside
// persisted records are kept as strings (RFC 3339 when written by us) and
// parsed tolerantly on read.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// Frequency is how often a topic is checked.
type Frequency string

const (
	FrequencyHourly Frequency = "hourly"
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
)

// ParseFrequency parses a frequency name.
func ParseFrequency(s string) (Frequency, error) {
	switch Frequency(strings.ToLower(strings.TrimSpace(s))) {
	case FrequencyHourly:
		return FrequencyHourly, nil
	case FrequencyDaily:
		return FrequencyDaily, nil
	case FrequencyWeekly:
		return FrequencyWeekly, nil
	}
	return "", fmt.Errorf("unknown frequency %q", s)
}

// Interval returns the minimum time between checks for this frequency.
// Unknown values fall back to daily.
func (f Frequency) Interval() time.Duration {
	switch f {
	case FrequencyHourly:
		return time.Hour
	case FrequencyWeekly:
		return 7 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// Topic is a user-defined subject to monitor. Topics are authored in config
// and read-only to the engine; the ID is a stable slug and immutable.
type Topic struct {
	ID                  string    `yaml:"id" json:"id"`
	Name                string    `yaml:"name" json:"name"`
	Query               string    `yaml:"query" json:"query"`
	Keywords            []string  `yaml:"keywords" json:"keywords,omitempty"`
	Frequency           Frequency `yaml:"frequency" json:"frequency"`
	ImportanceThreshold Priority  `yaml:"importance_threshold" json:"importance_threshold"`
	Channels            []string  `yaml:"channels" json:"channels,omitempty"`
	Context             string    `yaml:"context" json:"context,omitempty"`
	AlertOn             []string  `yaml:"alert_on" json:"alert_on,omitempty"`
	Emoji               string    `yaml:"emoji" json:"emoji,omitempty"`
	Created             string    `yaml:"created" json:"created,omitempty"`
}

// SearchResult is a single result from the search collaborator. Snippet and
// PublishedDate are optional. Results are ephemeral; only derived alerts and
// findings are persisted.
type SearchResult struct {
	Title         string `json:"title"`
	URL           string `json:"url"`
	Snippet       string `json:"snippet,omitempty"`
	PublishedDate string `json:"published_date,omitempty"`
}

// TopicState is the mutable per-topic record, created lazily on first check.
type TopicState struct {
	LastCheck        string `json:"last_check,omitempty"`
	LastResultsCount int    `json:"last_results_count"`
	AlertsToday      int    `json:"alerts_today"`
	FindingsCount    int    `json:"findings_count"`
}

// Alert is a queued, user-facing notification awaiting external delivery.
// ID is content-derived from (url, timestamp); the queue never holds two
// alerts with the same ID.
type Alert struct {
	ID        string   `json:"id"`
	Timestamp string   `json:"timestamp"`
	Priority  Priority `json:"priority"`
	Channel   string   `json:"channel"`
	TopicID   string   `json:"topic_id"`
	TopicName string   `json:"topic_name"`
	Title     string   `json:"title"`
	Snippet   string   `json:"snippet,omitempty"`
	URL       string   `json:"url"`
	Score     float64  `json:"score"`
	Reason    string   `json:"reason"`
	Message   string   `json:"message"`
	Context   string   `json:"context,omitempty"`
	Sent      bool     `json:"sent"`
	SentAt    string   `json:"sent_at,omitempty"`
}

// Finding is a below-alert-threshold result retained for later review,
// stored in per (topic, date) buckets.
type Finding struct {
	Result    SearchResult `json:"result"`
	Score     float64      `json:"score"`
	Reason    string       `json:"reason"`
	Timestamp string       `json:"timestamp"`
}

// Settings are the global monitoring knobs.
type Settings struct {
	MaxAlertsPerDay          int     `yaml:"max_alerts_per_day"`
	MaxAlertsPerTopicPerDay  int     `yaml:"max_alerts_per_topic_per_day"`
	DeduplicationWindowHours int     `yaml:"deduplication_window_hours"`
	AlertRetentionHours      int     `yaml:"alert_retention_hours"`
	HighScoreThreshold       float64 `yaml:"high_score_threshold"`
	MediumScoreThreshold     float64 `yaml:"medium_score_threshold"`
}

// Normalize fills zero-valued settings with their defaults.
func (s *Settings) Normalize() {
	if s.MaxAlertsPerDay <= 0 {
		s.MaxAlertsPerDay = 5
	}
	if s.MaxAlertsPerTopicPerDay <= 0 {
		s.MaxAlertsPerTopicPerDay = 2
	}
	if s.DeduplicationWindowHours <= 0 {
		s.DeduplicationWindowHours = 72
	}
	if s.AlertRetentionHours <= 0 {
		s.AlertRetentionHours = 168
	}
	if s.HighScoreThreshold <= 0 {
		s.HighScoreThreshold = 0.7
	}
	if s.MediumScoreThreshold <= 0 {
		s.MediumScoreThreshold = 0.4
	}
}

// DedupWindow returns the deduplication window as a duration.
func (s Settings) DedupWindow() time.Duration {
	return time.Duration(s.DeduplicationWindowHours) * time.Hour
}
