// Package alert renders queued findings into human-readable messages and
// delivery payloads. Physical delivery is left to external senders; this
// package only shapes what they send.
package alert

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/TobiSchelling/topicwatch/internal/domain"
)

const snippetLimit = 300

var priorityEmoji = map[domain.Priority]string{
	domain.PriorityHigh:   "🔥",
	domain.PriorityMedium: "📌",
	domain.PriorityLow:    "📝",
}

// RenderMessage formats a scored search result as a Markdown alert message.
func RenderMessage(topic domain.Topic, result domain.SearchResult, priority domain.Priority, score float64, reason string) string {
	topicEmoji := topic.Emoji
	if topicEmoji == "" {
		topicEmoji = "🔍"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s *%s*\n\n", priorityEmoji[priority], topicEmoji, topic.Name)
	fmt.Fprintf(&b, "*%s*\n", result.Title)

	if snippet := truncateSnippet(result.Snippet); snippet != "" {
		fmt.Fprintf(&b, "%s\n", snippet)
	}
	if topic.Context != "" {
		fmt.Fprintf(&b, "\n💡 _Context: %s_\n", topic.Context)
	}
	if result.URL != "" {
		fmt.Fprintf(&b, "\n🔗 %s\n", result.URL)
	}
	fmt.Fprintf(&b, "\n📊 _Score: %.2f | %s_", score, reason)

	return b.String()
}

// FormatFallback builds a message for alerts queued without a pre-rendered
// one, such as records written by older versions.
func FormatFallback(a domain.Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s *%s*\n\n", priorityEmoji[a.Priority], a.TopicName)
	fmt.Fprintf(&b, "*%s*\n", a.Title)

	if snippet := truncateSnippet(a.Snippet); snippet != "" {
		fmt.Fprintf(&b, "%s\n", snippet)
	}
	if a.URL != "" {
		fmt.Fprintf(&b, "\n🔗 %s", a.URL)
	}

	return b.String()
}

// DeliveryPayload is what an external sender needs to deliver one alert:
// the rendered message plus routing metadata for priority-aware handling.
type DeliveryPayload struct {
	ID        string          `json:"id"`
	Priority  domain.Priority `json:"priority"`
	Channel   string          `json:"channel"`
	Target    string          `json:"target,omitempty"`
	TopicName string          `json:"topic_name"`
	Title     string          `json:"title"`
	URL       string          `json:"url"`
	Score     float64         `json:"score"`
	Message   string          `json:"message"`
}

// DeliveryPayloads converts pending alerts into sender payloads, filling in
// a fallback message where none was rendered at queue time.
func DeliveryPayloads(alerts []domain.Alert, target string) []DeliveryPayload {
	payloads := make([]DeliveryPayload, 0, len(alerts))
	for _, a := range alerts {
		msg := a.Message
		if msg == "" {
			msg = FormatFallback(a)
		}
		payloads = append(payloads, DeliveryPayload{
			ID:        a.ID,
			Priority:  a.Priority,
			Channel:   a.Channel,
			Target:    target,
			TopicName: a.TopicName,
			Title:     a.Title,
			URL:       a.URL,
			Score:     a.Score,
			Message:   msg,
		})
	}
	return payloads
}

func truncateSnippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= snippetLimit {
		return s
	}
	// Back up to a rune boundary so the cut never leaves invalid UTF-8.
	cut := snippetLimit - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
