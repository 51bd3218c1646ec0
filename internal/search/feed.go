package search

import (
	"context"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/TobiSchelling/topicwatch/internal/config"
	"github.com/TobiSchelling/topicwatch/internal/domain"
)

const (
	minTokenLength   = 3
	feedSnippetLimit = 300
)

// FeedProvider treats configured RSS/Atom feeds as a search backend: feed
// entries whose title or description mention a query token are returned as
// results. Useful when no API-backed provider is configured.
type FeedProvider struct {
	feeds  []config.Feed
	parser *gofeed.Parser
}

// NewFeedProvider creates a feed-backed provider.
func NewFeedProvider(feeds []config.Feed) *FeedProvider {
	return &FeedProvider{feeds: feeds, parser: gofeed.NewParser()}
}

func (p *FeedProvider) Name() string { return "feeds" }

func (p *FeedProvider) Available() bool {
	return len(p.feeds) > 0
}

func (p *FeedProvider) Search(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	tokens := queryTokens(query)
	if len(tokens) == 0 {
		return nil, nil
	}

	var results []domain.SearchResult
	for _, fc := range p.feeds {
		feed, err := p.parser.ParseURLWithContext(fc.URL, ctx)
		if err != nil {
			// One broken feed must not sink the others.
			continue
		}
		for _, item := range feed.Items {
			if limit > 0 && len(results) >= limit {
				return results, nil
			}
			r := feedItemResult(item)
			if r == nil {
				continue
			}
			if matchesQuery(*r, tokens) {
				results = append(results, *r)
			}
		}
	}
	return results, nil
}

func feedItemResult(item *gofeed.Item) *domain.SearchResult {
	link := item.Link
	if link == "" {
		link = item.GUID
	}
	title := strings.TrimSpace(item.Title)
	if link == "" || title == "" {
		return nil
	}

	var published string
	if item.PublishedParsed != nil {
		published = item.PublishedParsed.Format("2006-01-02")
	} else if item.UpdatedParsed != nil {
		published = item.UpdatedParsed.Format("2006-01-02")
	}

	snippet := strings.TrimSpace(item.Description)
	if snippet == "" {
		snippet = strings.TrimSpace(item.Content)
	}
	if len(snippet) > feedSnippetLimit {
		snippet = snippet[:feedSnippetLimit]
	}

	return &domain.SearchResult{
		Title:         title,
		URL:           link,
		Snippet:       snippet,
		PublishedDate: published,
	}
}

// matchesQuery reports whether any query token appears in the result's
// title or snippet.
func matchesQuery(r domain.SearchResult, tokens []string) bool {
	haystack := strings.ToLower(r.Title + " " + r.Snippet)
	for _, tok := range tokens {
		if strings.Contains(haystack, tok) {
			return true
		}
	}
	return false
}

func queryTokens(query string) []string {
	var tokens []string
	for _, field := range strings.Fields(strings.ToLower(query)) {
		field = strings.Trim(field, `"'()`)
		if len(field) >= minTokenLength {
			tokens = append(tokens, field)
		}
	}
	return tokens
}
