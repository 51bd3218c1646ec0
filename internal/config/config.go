package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/TobiSchelling/topicwatch/internal/domain"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Topics   []domain.Topic     `yaml:"topics"`
	Settings domain.Settings    `yaml:"settings"`
	Search   Search             `yaml:"search"`
	Channels map[string]Channel `yaml:"channels"`
	Output   Output             `yaml:"output"`
	Logging  Logging            `yaml:"logging"`
}

// Search configures the search collaborator adapters. Providers lists the
// fallback order; adapters with no usable configuration are skipped.
type Search struct {
	Providers      []string      `yaml:"providers"`
	MaxResults     int           `yaml:"max_results"`
	TimeoutSeconds int           `yaml:"timeout_seconds"`
	Exec           ExecConfig    `yaml:"exec"`
	SearxNG        SearxNGConfig `yaml:"searxng"`
	NewsAPI        NewsAPIConfig `yaml:"newsapi"`
	Feeds          []Feed        `yaml:"feeds"`
}

// ExecConfig configures a subprocess search tool that prints JSON results.
type ExecConfig struct {
	Command string `yaml:"command"`
}

type SearxNGConfig struct {
	BaseURL        string  `yaml:"base_url"`
	RequestsPerSec float64 `yaml:"requests_per_sec"`
}

type NewsAPIConfig struct {
	Enabled   bool   `yaml:"enabled"`
	APIKeyEnv string `yaml:"api_key_env"`
}

type Feed struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
}

// Channel is delivery-channel metadata passed through to the delivery
// collaborator; the engine never interprets it.
type Channel struct {
	Enabled bool   `yaml:"enabled"`
	Target  string `yaml:"target"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for topicwatch.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "topicwatch")
}

// DataDir returns the XDG data directory for topicwatch.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "topicwatch")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/topicwatch/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'topicwatch init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults and validating
// topics.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Search: Search{
			Providers:      []string{"exec", "searxng", "newsapi", "feeds"},
			MaxResults:     5,
			TimeoutSeconds: 45,
			NewsAPI: NewsAPIConfig{
				APIKeyEnv: "NEWSAPI_KEY",
			},
			SearxNG: SearxNGConfig{
				RequestsPerSec: 1,
			},
		},
		Logging: Logging{Level: "info"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Settings.Normalize()

	seen := make(map[string]bool, len(cfg.Topics))
	for i, topic := range cfg.Topics {
		if topic.ID == "" {
			return nil, fmt.Errorf("topic %d: missing id", i)
		}
		if seen[topic.ID] {
			return nil, fmt.Errorf("duplicate topic id %q", topic.ID)
		}
		seen[topic.ID] = true
		if topic.Query == "" {
			return nil, fmt.Errorf("topic %q: missing query", topic.ID)
		}
		if topic.Frequency == "" {
			cfg.Topics[i].Frequency = domain.FrequencyDaily
		} else if _, err := domain.ParseFrequency(string(topic.Frequency)); err != nil {
			return nil, fmt.Errorf("topic %q: %w", topic.ID, err)
		}
	}

	return cfg, nil
}

// Topic returns the configured topic with the given ID, or nil.
func (c *Config) Topic(id string) *domain.Topic {
	for i := range c.Topics {
		if c.Topics[i].ID == id {
			return &c.Topics[i]
		}
	}
	return nil
}

// GetDataDir returns the effective data directory: environment override,
// then config, then the XDG default.
func (c *Config) GetDataDir(env Env) string {
	if env.DataDir != "" {
		return env.DataDir
	}
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
