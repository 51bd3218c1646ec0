package search

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/topicwatch/internal/config"
	"github.com/TobiSchelling/topicwatch/internal/domain"
)

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

type stubProvider struct {
	name      string
	available bool
	results   []domain.SearchResult
	err       error
	calls     int
}

func (s *stubProvider) Name() string    { return s.name }
func (s *stubProvider) Available() bool { return s.available }

func (s *stubProvider) Search(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	s.calls++
	return s.results, s.err
}

func TestSanitizeQuery(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "ai news", "ai news"},
		{"trims whitespace", "  ai news \n", "ai news"},
		{"strips control chars", "ai\x00 news\x1b[0m\x7f", "ai news[0m"},
		{"caps length", strings.Repeat("a", 600), strings.Repeat("a", 500)},
		{"empty", "\t\n", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, SanitizeQuery(tt.in))
		})
	}
}

func TestSanitizeQueryCutsOnRuneBoundary(t *testing.T) {
	// 200 three-byte runes; 500 bytes falls mid-rune.
	got := SanitizeQuery(strings.Repeat("日", 200))

	require.True(t, utf8.ValidString(got))
	require.LessOrEqual(t, len(got), 500)
	require.Equal(t, strings.Repeat("日", 166), got)
}

func TestRegistryFallbackOrder(t *testing.T) {
	unavailable := &stubProvider{name: "first", available: false}
	failing := &stubProvider{name: "second", available: true, err: errors.New("boom")}
	empty := &stubProvider{name: "third", available: true}
	working := &stubProvider{name: "fourth", available: true, results: []domain.SearchResult{
		{Title: "hit", URL: "https://example.com/hit"},
	}}
	late := &stubProvider{name: "fifth", available: true, results: []domain.SearchResult{
		{Title: "unreached", URL: "https://example.com/unreached"},
	}}

	r := &Registry{timeout: time.Second, logger: testLogger()}
	for _, p := range []Provider{unavailable, failing, empty, working, late} {
		r.Register(p)
	}

	results, name, err := r.Search(context.Background(), "ai news", 5)
	require.NoError(t, err)
	require.Equal(t, "fourth", name)
	require.Len(t, results, 1)

	require.Equal(t, 0, unavailable.calls)
	require.Equal(t, 1, failing.calls)
	require.Equal(t, 1, empty.calls)
	require.Equal(t, 1, working.calls)
	require.Equal(t, 0, late.calls)
}

func TestRegistryAllProvidersExhausted(t *testing.T) {
	r := &Registry{timeout: time.Second, logger: testLogger()}
	r.Register(&stubProvider{name: "only", available: true, err: errors.New("down")})

	_, _, err := r.Search(context.Background(), "ai news", 5)
	require.ErrorIs(t, err, ErrNoProviders)
}

func TestRegistryEmptyQuery(t *testing.T) {
	r := &Registry{timeout: time.Second, logger: testLogger()}
	_, _, err := r.Search(context.Background(), "  \n", 5)
	require.Error(t, err)
}

func TestParseExecOutput(t *testing.T) {
	out := []byte(`Searching via serper...
{"provider": "serper", "results": [
  {"title": "AI breakthrough", "url": "https://example.com/a", "snippet": "big news", "published_date": "2026-08-29"},
  {"title": "no url entry", "url": "", "snippet": "dropped"}
]}`)

	results, err := parseExecOutput(out)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "AI breakthrough", results[0].Title)
	require.Equal(t, "https://example.com/a", results[0].URL)
	require.Equal(t, "2026-08-29", results[0].PublishedDate)
}

func TestParseExecOutputNoJSON(t *testing.T) {
	_, err := parseExecOutput([]byte("tool crashed before printing anything"))
	require.Error(t, err)
}

func TestParseSearxNGResponse(t *testing.T) {
	body := []byte(`{"results": [
	  {"title": "First", "url": "https://example.com/1", "content": "alpha", "publishedDate": "2026-08-28"},
	  {"title": "", "url": "https://example.com/skip", "content": "no title"},
	  {"title": "Second", "url": "https://example.com/2", "content": "beta"},
	  {"title": "Third", "url": "https://example.com/3", "content": "gamma"}
	]}`)

	results, err := parseSearxNGResponse(body, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "First", results[0].Title)
	require.Equal(t, "Second", results[1].Title)
}

func TestSearxNGProviderSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path)
		require.Equal(t, "ai news", r.URL.Query().Get("q"))
		require.Equal(t, "json", r.URL.Query().Get("format"))
		w.Write([]byte(`{"results": [{"title": "Hit", "url": "https://example.com/hit", "content": "body"}]}`))
	}))
	defer srv.Close()

	p := NewSearxNGProvider(config.SearxNGConfig{BaseURL: srv.URL}, 5*time.Second)
	require.True(t, p.Available())

	results, err := p.Search(context.Background(), "ai news", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "Hit", results[0].Title)
}

func TestSearxNGProviderUnavailableWithoutURL(t *testing.T) {
	t.Setenv("SEARXNG_INSTANCE_URL", "")
	p := NewSearxNGProvider(config.SearxNGConfig{}, time.Second)
	require.False(t, p.Available())
}

func TestNewsAPIProviderSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		require.Equal(t, "ai news", r.URL.Query().Get("q"))
		w.Write([]byte(`{"status": "ok", "articles": [
		  {"url": "https://example.com/n1", "title": "Story", "publishedAt": "2026-08-29T10:00:00Z", "description": "details"},
		  {"url": "https://removed.com", "title": "[Removed]", "description": ""}
		]}`))
	}))
	defer srv.Close()

	t.Setenv("NEWSAPI_KEY", "secret")
	p := NewNewsAPIProvider(config.NewsAPIConfig{Enabled: true}, 5*time.Second)
	p.baseURL = srv.URL
	require.True(t, p.Available())

	results, err := p.Search(context.Background(), "ai news", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "Story", results[0].Title)
}

func TestNewsAPIProviderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "error", "articles": []}`))
	}))
	defer srv.Close()

	t.Setenv("NEWSAPI_KEY", "secret")
	p := NewNewsAPIProvider(config.NewsAPIConfig{Enabled: true}, 5*time.Second)
	p.baseURL = srv.URL

	_, err := p.Search(context.Background(), "ai news", 5)
	require.Error(t, err)
}

func TestNewsAPIProviderDisabled(t *testing.T) {
	t.Setenv("NEWSAPI_KEY", "secret")
	p := NewNewsAPIProvider(config.NewsAPIConfig{Enabled: false}, time.Second)
	require.False(t, p.Available())
}

func TestFeedProviderMatching(t *testing.T) {
	tokens := queryTokens(`"AI agents" (latest) ok`)
	require.Equal(t, []string{"agents", "latest"}, tokens)

	hit := domain.SearchResult{Title: "New AI agents framework", Snippet: "release notes"}
	miss := domain.SearchResult{Title: "Gardening tips", Snippet: "tomatoes"}
	require.True(t, matchesQuery(hit, tokens))
	require.False(t, matchesQuery(miss, tokens))
}

func TestFeedProviderAvailability(t *testing.T) {
	require.False(t, NewFeedProvider(nil).Available())
	require.True(t, NewFeedProvider([]config.Feed{{URL: "https://example.com/feed.xml"}}).Available())
}
