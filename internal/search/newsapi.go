package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/TobiSchelling/topicwatch/internal/config"
	"github.com/TobiSchelling/topicwatch/internal/domain"
)

const newsAPIBaseURL = "https://newsapi.org/v2/everything"

// NewsAPIProvider searches NewsAPI's everything endpoint.
type NewsAPIProvider struct {
	apiKey  string
	enabled bool
	client  *http.Client
	baseURL string
}

// NewNewsAPIProvider creates a NewsAPI-backed provider. The API key is read
// from the environment variable named in config.
func NewNewsAPIProvider(cfg config.NewsAPIConfig, timeout time.Duration) *NewsAPIProvider {
	keyEnv := cfg.APIKeyEnv
	if keyEnv == "" {
		keyEnv = "NEWSAPI_KEY"
	}
	return &NewsAPIProvider{
		apiKey:  os.Getenv(keyEnv),
		enabled: cfg.Enabled,
		client:  &http.Client{Timeout: timeout},
		baseURL: newsAPIBaseURL,
	}
}

func (p *NewsAPIProvider) Name() string { return "newsapi" }

func (p *NewsAPIProvider) Available() bool {
	return p.enabled && p.apiKey != ""
}

func (p *NewsAPIProvider) Search(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	params := url.Values{
		"q":        {query},
		"language": {"en"},
		"pageSize": {strconv.Itoa(limit)},
		"sortBy":   {"relevancy"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating newsapi request: %w", err)
	}
	req.Header.Set("X-Api-Key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("newsapi request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("newsapi status %d", resp.StatusCode)
	}

	var payload struct {
		Status   string `json:"status"`
		Articles []struct {
			URL         string `json:"url"`
			Title       string `json:"title"`
			PublishedAt string `json:"publishedAt"`
			Description string `json:"description"`
		} `json:"articles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding newsapi response: %w", err)
	}
	if payload.Status != "ok" {
		return nil, fmt.Errorf("newsapi status %q", payload.Status)
	}

	var results []domain.SearchResult
	for _, a := range payload.Articles {
		if a.URL == "" || a.Title == "" {
			continue
		}
		if a.Title == "[Removed]" || a.URL == "https://removed.com" {
			continue
		}
		results = append(results, domain.SearchResult{
			Title:         strings.TrimSpace(a.Title),
			URL:           a.URL,
			Snippet:       strings.TrimSpace(a.Description),
			PublishedDate: a.PublishedAt,
		})
	}
	return results, nil
}
