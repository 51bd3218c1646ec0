// Package search adapts external search providers behind a narrow interface.
// The engine never knows whether results come from a subprocess, an HTTP API,
// or an RSS feed; providers are tried in configured order and any total
// failure degrades to zero results upstream.
package search

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/TobiSchelling/topicwatch/internal/config"
	"github.com/TobiSchelling/topicwatch/internal/domain"
)

const maxQueryLength = 500

// ErrNoProviders is returned when no configured provider produced results.
var ErrNoProviders = errors.New("no search providers available")

// Provider is a single search backend.
type Provider interface {
	Name() string
	// Available reports whether the provider has usable configuration.
	Available() bool
	Search(ctx context.Context, query string, limit int) ([]domain.SearchResult, error)
}

// Registry holds providers in fallback order.
type Registry struct {
	providers []Provider
	timeout   time.Duration
	logger    *zerolog.Logger
}

// NewRegistry builds a registry from the search configuration. Unknown
// provider names are skipped with a warning.
func NewRegistry(cfg config.Search, logger *zerolog.Logger) *Registry {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 45 * time.Second
	}

	r := &Registry{timeout: timeout, logger: logger}
	for _, name := range cfg.Providers {
		switch name {
		case "exec":
			r.providers = append(r.providers, NewExecProvider(cfg.Exec.Command))
		case "searxng":
			r.providers = append(r.providers, NewSearxNGProvider(cfg.SearxNG, timeout))
		case "newsapi":
			r.providers = append(r.providers, NewNewsAPIProvider(cfg.NewsAPI, timeout))
		case "feeds":
			r.providers = append(r.providers, NewFeedProvider(cfg.Feeds))
		default:
			logger.Warn().Str("provider", name).Msg("unknown search provider in config")
		}
	}
	return r
}

// Register appends a provider; used by tests and custom wiring.
func (r *Registry) Register(p Provider) {
	r.providers = append(r.providers, p)
}

// Search sanitizes the query and tries each available provider in order,
// returning the first non-empty result set along with the provider name.
func (r *Registry) Search(ctx context.Context, query string, limit int) ([]domain.SearchResult, string, error) {
	query = SanitizeQuery(query)
	if query == "" {
		return nil, "", errors.New("empty query")
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	for _, p := range r.providers {
		if !p.Available() {
			continue
		}
		results, err := p.Search(ctx, query, limit)
		if err != nil {
			r.logger.Warn().Err(err).Str("provider", p.Name()).Msg("search provider failed")
			continue
		}
		if len(results) == 0 {
			continue
		}
		return results, p.Name(), nil
	}

	return nil, "", ErrNoProviders
}

// SanitizeQuery strips control characters and caps the query length before
// it reaches any collaborator.
func SanitizeQuery(q string) string {
	var b strings.Builder
	b.Grow(len(q))
	for _, r := range q {
		if r < 0x20 || r == 0x7f {
			continue
		}
		b.WriteRune(r)
	}
	s := strings.TrimSpace(b.String())
	if len(s) > maxQueryLength {
		cut := maxQueryLength
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}
	return s
}
