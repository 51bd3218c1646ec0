package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/TobiSchelling/topicwatch/internal/domain"
)

// execEnvAllowlist limits the subprocess environment to variables the search
// tool legitimately needs: basic shell context plus provider credentials.
var execEnvAllowlist = []string{
	"PATH", "HOME", "LANG", "TERM",
	"SERPER_API_KEY", "TAVILY_API_KEY", "EXA_API_KEY",
	"YOU_API_KEY", "SEARXNG_INSTANCE_URL", "WSP_CACHE_DIR",
}

// ExecProvider runs an external search tool as a subprocess. The tool takes
// --query and --max-results flags and prints a JSON object with a "results"
// array; any leading status output before the JSON is tolerated. The
// caller's context bounds the subprocess lifetime.
type ExecProvider struct {
	command string
}

// NewExecProvider creates a subprocess-backed provider. An empty command
// disables it.
func NewExecProvider(command string) *ExecProvider {
	return &ExecProvider{command: command}
}

func (p *ExecProvider) Name() string { return "exec" }

func (p *ExecProvider) Available() bool {
	if p.command == "" {
		return false
	}
	_, err := os.Stat(p.command)
	return err == nil
}

func (p *ExecProvider) Search(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	cmd := exec.CommandContext(ctx, p.command,
		"--query", query,
		"--max-results", strconv.Itoa(limit),
	)
	cmd.Env = allowedEnv()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("search tool timed out: %w", ctx.Err())
		}
		return nil, fmt.Errorf("search tool failed: %w (stderr: %s)", err, truncate(stderr.String(), 200))
	}

	return parseExecOutput(stdout.Bytes())
}

// parseExecOutput extracts the JSON payload from the tool's stdout. The tool
// may print status lines before the JSON object.
func parseExecOutput(out []byte) ([]domain.SearchResult, error) {
	start := bytes.IndexByte(out, '{')
	if start < 0 {
		return nil, fmt.Errorf("no JSON object in search tool output")
	}

	var payload struct {
		Provider string `json:"provider"`
		Results  []struct {
			Title         string `json:"title"`
			URL           string `json:"url"`
			Snippet       string `json:"snippet"`
			PublishedDate string `json:"published_date"`
		} `json:"results"`
	}
	if err := json.Unmarshal(out[start:], &payload); err != nil {
		return nil, fmt.Errorf("parsing search tool output: %w", err)
	}

	results := make([]domain.SearchResult, 0, len(payload.Results))
	for _, r := range payload.Results {
		if r.URL == "" {
			continue
		}
		results = append(results, domain.SearchResult{
			Title:         strings.TrimSpace(r.Title),
			URL:           r.URL,
			Snippet:       strings.TrimSpace(r.Snippet),
			PublishedDate: r.PublishedDate,
		})
	}
	return results, nil
}

func allowedEnv() []string {
	var env []string
	for _, key := range execEnvAllowlist {
		if v, ok := os.LookupEnv(key); ok {
			env = append(env, key+"="+v)
		}
	}
	return env
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
