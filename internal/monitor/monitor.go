// Package monitor runs check cycles over configured topics: pick due topics,
// search, deduplicate, score, and route results to the alert queue or the
// findings archive while honoring daily rate limits.
package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/araddon/dateparse"
	"github.com/rs/zerolog"

	"github.com/TobiSchelling/topicwatch/internal/alert"
	"github.com/TobiSchelling/topicwatch/internal/config"
	"github.com/TobiSchelling/topicwatch/internal/domain"
	"github.com/TobiSchelling/topicwatch/internal/score"
	"github.com/TobiSchelling/topicwatch/internal/store"
)

// Searcher finds results for a topic query. Implemented by search.Registry.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]domain.SearchResult, string, error)
}

// Options select and modify a run.
type Options struct {
	// DryRun performs a full cycle without writing state, alerts, or
	// findings.
	DryRun bool
	// TopicID restricts the run to a single topic.
	TopicID string
	// Frequency restricts the run to topics of one frequency.
	Frequency string
	// Force checks selected topics even if they are not due.
	Force bool
}

// TopicReport summarizes one topic's check.
type TopicReport struct {
	TopicID       string
	Provider      string
	Results       int
	Duplicates    int
	AlertsQueued  int
	FindingsSaved int
	RateLimited   int
	Err           error
}

// Report summarizes a run.
type Report struct {
	Checked       int
	Skipped       int
	AlertsQueued  int
	FindingsSaved int
	Topics        []TopicReport
}

// Runner executes monitoring cycles. It assumes it is the only writer to the
// store for the duration of a run.
type Runner struct {
	cfg      *config.Config
	store    *store.Store
	searcher Searcher
	logger   *zerolog.Logger
	now      func() time.Time
}

// NewRunner creates a runner over the given collaborators.
func NewRunner(cfg *config.Config, st *store.Store, searcher Searcher, logger *zerolog.Logger) *Runner {
	return &Runner{
		cfg:      cfg,
		store:    st,
		searcher: searcher,
		logger:   logger,
		now:      time.Now,
	}
}

// Run executes one monitoring cycle and persists state unless dry-running.
// Per-topic failures are isolated; a broken topic never aborts the run.
func (r *Runner) Run(ctx context.Context, opts Options) (*Report, error) {
	topics, err := r.selectTopics(opts)
	if err != nil {
		return nil, err
	}

	now := r.now()
	state := r.store.LoadState()
	resetDailyCounters(state, now)

	report := &Report{}
	for _, topic := range topics {
		if !ShouldCheck(topic, state.Topics[topic.ID], now, opts.Force) {
			r.logger.Debug().Str("topic", topic.ID).Msg("not due, skipping")
			report.Skipped++
			continue
		}

		tr := r.checkTopic(ctx, topic, state, opts)
		report.Checked++
		report.AlertsQueued += tr.AlertsQueued
		report.FindingsSaved += tr.FindingsSaved
		report.Topics = append(report.Topics, tr)
	}

	if !opts.DryRun {
		if err := r.store.SaveState(state); err != nil {
			return report, fmt.Errorf("saving state: %w", err)
		}
	}
	return report, nil
}

func (r *Runner) selectTopics(opts Options) ([]domain.Topic, error) {
	if opts.TopicID != "" {
		t := r.cfg.Topic(opts.TopicID)
		if t == nil {
			return nil, fmt.Errorf("unknown topic %q", opts.TopicID)
		}
		return []domain.Topic{*t}, nil
	}

	if opts.Frequency != "" {
		freq, err := domain.ParseFrequency(opts.Frequency)
		if err != nil {
			return nil, err
		}
		var topics []domain.Topic
		for _, t := range r.cfg.Topics {
			if t.Frequency == freq {
				topics = append(topics, t)
			}
		}
		return topics, nil
	}

	return r.cfg.Topics, nil
}

// checkTopic runs the full per-topic pipeline. It recovers from panics so
// one topic cannot take down the batch.
func (r *Runner) checkTopic(ctx context.Context, topic domain.Topic, state *store.State, opts Options) (tr TopicReport) {
	tr.TopicID = topic.ID
	defer func() {
		if rec := recover(); rec != nil {
			tr.Err = fmt.Errorf("topic %s panicked: %v", topic.ID, rec)
			r.logger.Error().Str("topic", topic.ID).Interface("panic", rec).Msg("topic check failed")
		}
	}()

	now := r.now()
	settings := r.cfg.Settings

	results, provider, err := r.searcher.Search(ctx, topic.Query, r.cfg.Search.MaxResults)
	if err != nil {
		r.logger.Warn().Err(err).Str("topic", topic.ID).Msg("search failed")
		if opts.DryRun {
			results, provider = mockResults(topic), "mock"
		} else {
			results = nil
		}
	}
	tr.Provider = provider
	tr.Results = len(results)

	window := settings.DedupWindow()
	var highs, mediums []scored
	for _, res := range results {
		if isDuplicate(res.URL, state, window, now) {
			tr.Duplicates++
			continue
		}
		priority, sc, reason := score.ScoreAt(now, res, topic, settings)
		markSeen(res.URL, state, now)

		switch priority {
		case domain.PriorityHigh:
			highs = append(highs, scored{res, priority, sc, reason})
		case domain.PriorityMedium:
			mediums = append(mediums, scored{res, priority, sc, reason})
		}
	}

	ts := state.Topic(topic.ID)

	for _, s := range highs {
		if !withinRateLimits(topic.ID, state, settings) {
			tr.RateLimited++
			r.logger.Info().Str("topic", topic.ID).Str("url", s.result.URL).Msg("rate limited, dropping alert")
			continue
		}
		if err := r.queueAlert(topic, s, now, opts.DryRun); err != nil {
			tr.Err = err
			r.logger.Error().Err(err).Str("topic", topic.ID).Msg("queueing alert")
			continue
		}
		ts.AlertsToday++
		tr.AlertsQueued++
	}

	date := now.Format("2006-01-02")
	for _, s := range mediums {
		if !opts.DryRun {
			f := domain.Finding{
				Result:    s.result,
				Score:     s.score,
				Reason:    s.reason,
				Timestamp: now.Format(time.RFC3339),
			}
			if err := r.store.SaveFinding(topic.ID, date, f); err != nil {
				tr.Err = err
				r.logger.Error().Err(err).Str("topic", topic.ID).Msg("saving finding")
				continue
			}
		}
		tr.FindingsSaved++
	}

	ts.LastCheck = now.Format(time.RFC3339)
	ts.LastResultsCount = len(results)
	ts.FindingsCount += tr.FindingsSaved

	r.logger.Info().
		Str("topic", topic.ID).
		Str("provider", provider).
		Int("results", tr.Results).
		Int("duplicates", tr.Duplicates).
		Int("alerts", tr.AlertsQueued).
		Int("findings", tr.FindingsSaved).
		Msg("topic checked")
	return tr
}

type scored struct {
	result   domain.SearchResult
	priority domain.Priority
	score    float64
	reason   string
}

// queueAlert attempts an enqueue per enabled channel, but alert IDs are
// derived from (url, timestamp), so the idempotent queue keeps only the
// first channel's record. The daily counter is the caller's to increment,
// once per result.
func (r *Runner) queueAlert(topic domain.Topic, s scored, now time.Time, dryRun bool) error {
	message := alert.RenderMessage(topic, s.result, s.priority, s.score, s.reason)

	for _, channel := range r.enabledChannels(topic) {
		if dryRun {
			continue
		}
		_, err := r.store.QueueAlert(domain.Alert{
			Timestamp: now.Format(time.RFC3339),
			Priority:  s.priority,
			Channel:   channel,
			TopicID:   topic.ID,
			TopicName: topic.Name,
			Title:     s.result.Title,
			Snippet:   s.result.Snippet,
			URL:       s.result.URL,
			Score:     s.score,
			Reason:    s.reason,
			Message:   message,
			Context:   topic.Context,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// enabledChannels returns the topic's channels that are enabled in config.
// A topic with none configured falls back to every enabled channel.
func (r *Runner) enabledChannels(topic domain.Topic) []string {
	if len(topic.Channels) > 0 {
		var channels []string
		for _, name := range topic.Channels {
			if ch, ok := r.cfg.Channels[name]; ok && ch.Enabled {
				channels = append(channels, name)
			}
		}
		return channels
	}

	var channels []string
	for name, ch := range r.cfg.Channels {
		if ch.Enabled {
			channels = append(channels, name)
		}
	}
	return channels
}

// resetDailyCounters zeroes alerts_today for topics whose last check fell on
// an earlier calendar day.
func resetDailyCounters(state *store.State, now time.Time) {
	today := now.Format("2006-01-02")
	for _, ts := range state.Topics {
		if ts.LastCheck == "" {
			continue
		}
		last, err := dateparse.ParseAny(ts.LastCheck)
		if err != nil {
			continue
		}
		if last.Format("2006-01-02") < today {
			ts.AlertsToday = 0
		}
	}
}

// mockResults synthesizes plausible results so dry runs can exercise the
// pipeline without a working search backend.
func mockResults(topic domain.Topic) []domain.SearchResult {
	var kw string
	if len(topic.Keywords) > 0 {
		kw = topic.Keywords[0]
	} else {
		kw = topic.Name
	}
	return []domain.SearchResult{
		{
			Title:         fmt.Sprintf("Major %s development announced", kw),
			URL:           fmt.Sprintf("https://example.com/mock/%s/1", topic.ID),
			Snippet:       fmt.Sprintf("Mock result for %q while search is unavailable.", topic.Query),
			PublishedDate: time.Now().Format("2006-01-02"),
		},
		{
			Title:         fmt.Sprintf("Weekly roundup mentioning %s", kw),
			URL:           fmt.Sprintf("https://example.com/mock/%s/2", topic.ID),
			Snippet:       "Second mock result.",
			PublishedDate: time.Now().Format("2006-01-02"),
		},
	}
}
