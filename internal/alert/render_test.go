package alert

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/topicwatch/internal/domain"
)

func TestRenderMessage(t *testing.T) {
	topic := domain.Topic{
		ID:      "ai-news",
		Name:    "AI News",
		Emoji:   "🤖",
		Context: "watching for model releases",
	}
	result := domain.SearchResult{
		Title:   "New model announced",
		URL:     "https://example.com/model",
		Snippet: "A lab announced a new model today.",
	}

	msg := RenderMessage(topic, result, domain.PriorityHigh, 0.85, "keyword 'model' in title")

	require.Contains(t, msg, "🔥 🤖 *AI News*")
	require.Contains(t, msg, "*New model announced*")
	require.Contains(t, msg, "A lab announced a new model today.")
	require.Contains(t, msg, "💡 _Context: watching for model releases_")
	require.Contains(t, msg, "🔗 https://example.com/model")
	require.Contains(t, msg, "📊 _Score: 0.85 | keyword 'model' in title_")
}

func TestRenderMessageDefaults(t *testing.T) {
	topic := domain.Topic{ID: "t", Name: "Plain"}
	result := domain.SearchResult{Title: "Title only", URL: "https://example.com"}

	msg := RenderMessage(topic, result, domain.PriorityMedium, 0.5, "no keyword matches")

	require.Contains(t, msg, "📌 🔍 *Plain*")
	require.NotContains(t, msg, "Context:")
}

func TestRenderMessageTruncatesSnippet(t *testing.T) {
	topic := domain.Topic{ID: "t", Name: "T"}
	result := domain.SearchResult{
		Title:   "Long",
		URL:     "https://example.com",
		Snippet: strings.Repeat("x", 400),
	}

	msg := RenderMessage(topic, result, domain.PriorityLow, 0.1, "r")

	require.Contains(t, msg, strings.Repeat("x", 297)+"...")
	require.NotContains(t, msg, strings.Repeat("x", 298))
}

func TestRenderMessageTruncationKeepsValidUTF8(t *testing.T) {
	topic := domain.Topic{ID: "t", Name: "T"}
	result := domain.SearchResult{
		Title: "Multibyte",
		URL:   "https://example.com",
		// 200 two-byte runes; the cut point falls mid-rune.
		Snippet: strings.Repeat("é", 200),
	}

	msg := RenderMessage(topic, result, domain.PriorityLow, 0.1, "r")

	require.True(t, utf8.ValidString(msg))
	require.Contains(t, msg, "...")
}

func TestFormatFallback(t *testing.T) {
	a := domain.Alert{
		Priority:  domain.PriorityMedium,
		TopicName: "AI News",
		Title:     "Old record",
		Snippet:   "queued before rendering existed",
		URL:       "https://example.com/old",
	}

	msg := FormatFallback(a)
	require.Contains(t, msg, "📌 *AI News*")
	require.Contains(t, msg, "*Old record*")
	require.Contains(t, msg, "🔗 https://example.com/old")
}

func TestDeliveryPayloads(t *testing.T) {
	alerts := []domain.Alert{
		{
			ID:        "a1",
			Channel:   "telegram",
			Priority:  domain.PriorityHigh,
			TopicName: "AI News",
			Title:     "Big story",
			URL:       "https://example.com/story",
			Score:     0.85,
			Message:   "prerendered",
		},
		{ID: "a2", Channel: "telegram", TopicName: "T", Title: "fallback me", Priority: domain.PriorityHigh},
	}

	payloads := DeliveryPayloads(alerts, "12345")
	require.Len(t, payloads, 2)
	require.Equal(t, "prerendered", payloads[0].Message)
	require.Equal(t, "12345", payloads[0].Target)
	require.Equal(t, domain.PriorityHigh, payloads[0].Priority)
	require.Equal(t, "AI News", payloads[0].TopicName)
	require.Equal(t, "https://example.com/story", payloads[0].URL)
	require.Equal(t, 0.85, payloads[0].Score)
	require.Contains(t, payloads[1].Message, "*fallback me*")
}
