// Package score rates search results against a topic's keywords and alert
// terms. Scoring is a pure function of its inputs: no I/O, no clock access
// beyond the caller-supplied reference time.
package score

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/TobiSchelling/topicwatch/internal/domain"
)

// Scoring weights. A result's score is the clamped sum of its matched
// contributions; the tier thresholds in settings carve the [0,1] range into
// low / medium / high.
const (
	keywordTitleWeight   = 0.20
	keywordSnippetWeight = 0.10
	alertTermTitleWeight = 0.25
	alertTermSnipWeight  = 0.15
	freshDayBoost        = 0.15
	freshWindowBoost     = 0.05

	freshDay    = 24 * time.Hour
	freshWindow = 72 * time.Hour
)

// Score rates a result for a topic using the current time as the freshness
// reference.
func Score(result domain.SearchResult, topic domain.Topic, settings domain.Settings) (domain.Priority, float64, string) {
	return ScoreAt(time.Now(), result, topic, settings)
}

// ScoreAt rates a result for a topic. It returns the priority tier, a score
// in [0,1] consistent with the tier thresholds, and a non-empty reason
// suitable for alert text. Missing snippet or published date degrade the
// score, never error. Results below the topic's importance threshold are
// demoted to low (discard) regardless of content score.
func ScoreAt(now time.Time, result domain.SearchResult, topic domain.Topic, settings domain.Settings) (domain.Priority, float64, string) {
	settings.Normalize()

	title := strings.ToLower(result.Title)
	snippet := strings.ToLower(result.Snippet)

	var score float64
	var reasons []string

	if matched := matchTerms(topic.Keywords, title, snippet, keywordTitleWeight, keywordSnippetWeight, &score); len(matched) > 0 {
		reasons = append(reasons, "matches keywords: "+strings.Join(matched, ", "))
	}
	if matched := matchTerms(topic.AlertOn, title, snippet, alertTermTitleWeight, alertTermSnipWeight, &score); len(matched) > 0 {
		reasons = append(reasons, "alert terms: "+strings.Join(matched, ", "))
	}

	if reason, boost := freshness(now, result.PublishedDate); boost > 0 {
		score += boost
		reasons = append(reasons, reason)
	}

	if score > 1 {
		score = 1
	}

	priority := domain.PriorityLow
	switch {
	case score >= settings.HighScoreThreshold:
		priority = domain.PriorityHigh
	case score >= settings.MediumScoreThreshold:
		priority = domain.PriorityMedium
	}

	reason := strings.Join(reasons, "; ")
	if reason == "" {
		reason = "no keyword matches"
	}

	// Anything below the topic's configured minimum importance is a silent
	// drop, even if content scoring alone would rank it.
	if priority != domain.PriorityLow && !priority.AtLeast(topic.ImportanceThreshold) {
		reason = fmt.Sprintf("%s (below %s threshold)", reason, topic.ImportanceThreshold)
		priority = domain.PriorityLow
	}

	return priority, score, reason
}

// matchTerms adds titleWeight for each term found in the title and
// snippetWeight for terms found only in the snippet. Returns the matched
// terms in stable order.
func matchTerms(terms []string, title, snippet string, titleWeight, snippetWeight float64, score *float64) []string {
	var matched []string
	for _, term := range terms {
		t := strings.ToLower(strings.TrimSpace(term))
		if t == "" {
			continue
		}
		switch {
		case strings.Contains(title, t):
			*score += titleWeight
			matched = append(matched, t)
		case snippet != "" && strings.Contains(snippet, t):
			*score += snippetWeight
			matched = append(matched, t)
		}
	}
	sort.Strings(matched)
	return matched
}

// freshness returns a boost for recently published results. Absent or
// unparseable dates get no boost and no error.
func freshness(now time.Time, published string) (string, float64) {
	if published == "" {
		return "", 0
	}
	ts, err := dateparse.ParseAny(published)
	if err != nil {
		return "", 0
	}
	age := now.Sub(ts)
	if age < 0 {
		age = 0
	}
	switch {
	case age < freshDay:
		return "published within 24h", freshDayBoost
	case age < freshWindow:
		return "published within 72h", freshWindowBoost
	}
	return "", 0
}
