package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/TobiSchelling/topicwatch/internal/config"
	"github.com/TobiSchelling/topicwatch/internal/domain"
)

// SearxNGProvider queries a SearxNG metasearch instance. Requests are
// throttled per instance so batch runs stay polite.
type SearxNGProvider struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// NewSearxNGProvider creates a SearxNG-backed provider. The base URL comes
// from config or the SEARXNG_INSTANCE_URL environment variable.
func NewSearxNGProvider(cfg config.SearxNGConfig, timeout time.Duration) *SearxNGProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = os.Getenv("SEARXNG_INSTANCE_URL")
	}

	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 1
	}

	return &SearxNGProvider{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

func (p *SearxNGProvider) Name() string { return "searxng" }

func (p *SearxNGProvider) Available() bool {
	return p.baseURL != ""
}

func (p *SearxNGProvider) Search(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("searxng throttle: %w", err)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("categories", "general")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating searxng request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("searxng request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("searxng status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading searxng response: %w", err)
	}

	return parseSearxNGResponse(body, limit)
}

func parseSearxNGResponse(body []byte, limit int) ([]domain.SearchResult, error) {
	var payload struct {
		Results []struct {
			Title         string `json:"title"`
			URL           string `json:"url"`
			Content       string `json:"content"`
			PublishedDate string `json:"publishedDate"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parsing searxng response: %w", err)
	}

	var results []domain.SearchResult
	for _, r := range payload.Results {
		if r.URL == "" || r.Title == "" {
			continue
		}
		results = append(results, domain.SearchResult{
			Title:         strings.TrimSpace(r.Title),
			URL:           r.URL,
			Snippet:       strings.TrimSpace(r.Content),
			PublishedDate: r.PublishedDate,
		})
		if limit > 0 && len(results) >= limit {
			break
		}
	}
	return results, nil
}
