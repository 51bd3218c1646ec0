package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/araddon/dateparse"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/TobiSchelling/topicwatch/internal/alert"
	"github.com/TobiSchelling/topicwatch/internal/config"
	"github.com/TobiSchelling/topicwatch/internal/monitor"
	"github.com/TobiSchelling/topicwatch/internal/search"
	"github.com/TobiSchelling/topicwatch/internal/store"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
	envCfg     config.Env
	logger     zerolog.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "topicwatch",
	Short:   "Proactive topic monitoring and alerting",
	Long:    "Topicwatch checks configured topics on a schedule, scores fresh search results, and queues the important ones as alerts for external delivery.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = newLogger(verbose)

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		var err error
		envCfg, err = config.LoadEnv()
		if err != nil {
			return fmt.Errorf("reading environment: %w", err)
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(topicsCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(alertsCmd)
	rootCmd.AddCommand(pruneCmd)
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("topicwatch", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/topicwatch/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to define topics, keywords, and channels.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show topic and queue status",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}

		state := st.LoadState()
		now := time.Now()

		fmt.Printf("Topics: %d\n\n", len(cfg.Topics))
		for _, topic := range cfg.Topics {
			ts := state.Topics[topic.ID]
			due := "due"
			if !monitor.ShouldCheck(topic, ts, now, false) {
				due = "not due"
			}
			fmt.Printf("  %s (%s, %s)\n", topic.ID, topic.Frequency, due)
			if ts != nil {
				fmt.Printf("    last check: %s\n", humanTime(ts.LastCheck))
				fmt.Printf("    alerts today: %d, findings: %d\n", ts.AlertsToday, ts.FindingsCount)
			} else {
				fmt.Println("    never checked")
			}
		}

		pending := st.PendingAlerts()
		fmt.Printf("\nAlert queue: %d pending, %d total\n", len(pending), len(st.AllAlerts()))
		fmt.Printf("Alerts today: %d / %d\n", state.TotalAlertsToday(), cfg.Settings.MaxAlertsPerDay)
		fmt.Printf("Seen URLs: %d\n", len(state.Deduplication.URLHashMap))
		return nil
	},
}

func humanTime(raw string) string {
	if raw == "" {
		return "never"
	}
	ts, err := dateparse.ParseAny(raw)
	if err != nil {
		return raw
	}
	return ts.Local().Format("2006-01-02 15:04")
}

// --- topics command ---

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Inspect configured topics",
}

var topicsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured topics",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(cfg.Topics) == 0 {
			fmt.Println("No topics configured. Edit the config to add some.")
			return nil
		}

		for _, t := range cfg.Topics {
			fmt.Printf("  %s  %s (%s, threshold %s)\n", t.ID, t.Name, t.Frequency, t.ImportanceThreshold)
			fmt.Printf("      query: %s\n", t.Query)
			if len(t.Keywords) > 0 {
				fmt.Printf("      keywords: %v\n", t.Keywords)
			}
		}
		return nil
	},
}

func init() {
	topicsCmd.AddCommand(topicsListCmd)
}

// --- monitor command ---

var (
	monitorDryRun    bool
	monitorTopic     string
	monitorFrequency string
	monitorForce     bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Check due topics and queue alerts",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}

		registry := search.NewRegistry(cfg.Search, &logger)
		runner := monitor.NewRunner(cfg, st, registry, &logger)

		report, err := runner.Run(context.Background(), monitor.Options{
			DryRun:    monitorDryRun,
			TopicID:   monitorTopic,
			Frequency: monitorFrequency,
			Force:     monitorForce,
		})
		if err != nil {
			return err
		}

		if report.Checked == 0 {
			fmt.Printf("Nothing due (%d topics skipped).\n", report.Skipped)
			return nil
		}

		for _, tr := range report.Topics {
			if tr.Err != nil {
				fmt.Printf("  %s: error: %v\n", tr.TopicID, tr.Err)
				continue
			}
			fmt.Printf("  %s: %d results via %s (%d duplicates, %d alerts, %d findings)\n",
				tr.TopicID, tr.Results, tr.Provider, tr.Duplicates, tr.AlertsQueued, tr.FindingsSaved)
		}
		fmt.Printf("\nChecked %d topic(s): %d alert(s) queued, %d finding(s) saved.\n",
			report.Checked, report.AlertsQueued, report.FindingsSaved)
		if monitorDryRun {
			fmt.Println("Dry run: nothing was written.")
		}
		return nil
	},
}

func init() {
	monitorCmd.Flags().BoolVar(&monitorDryRun, "dry-run", false, "Run the pipeline without writing anything")
	monitorCmd.Flags().StringVar(&monitorTopic, "topic", "", "Check a single topic by ID")
	monitorCmd.Flags().StringVar(&monitorFrequency, "frequency", "", "Only check topics with this frequency")
	monitorCmd.Flags().BoolVar(&monitorForce, "force", false, "Check even if not due")
}

// --- alerts command ---

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Inspect and maintain the alert queue",
}

var alertsJSON bool

var alertsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending alerts",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}

		pending := st.PendingAlerts()

		if alertsJSON {
			payloads := alert.DeliveryPayloads(pending, deliveryTarget())
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(payloads)
		}

		if len(pending) == 0 {
			fmt.Println("No pending alerts.")
			return nil
		}

		for _, a := range pending {
			fmt.Printf("  [%s] %s %s: %s\n", a.ID, a.Priority, a.TopicID, a.Title)
			fmt.Printf("      queued %s via %s\n", humanTime(a.Timestamp), a.Channel)
		}
		return nil
	},
}

// deliveryTarget resolves where the external sender should deliver:
// environment override first, then the configured telegram channel.
func deliveryTarget() string {
	if envCfg.TelegramTarget != "" {
		return envCfg.TelegramTarget
	}
	if ch, ok := cfg.Channels["telegram"]; ok {
		return ch.Target
	}
	return ""
}

var alertsMarkSentCmd = &cobra.Command{
	Use:   "mark-sent [ID...]",
	Short: "Mark alerts as delivered (all pending when no IDs are given)",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}

		if len(args) == 0 {
			marked, err := st.MarkAllSent()
			if err != nil {
				return err
			}
			fmt.Printf("Marked %d pending alert(s) sent.\n", marked)
			return nil
		}

		for _, id := range args {
			if err := st.MarkAlertSent(id); err != nil {
				return fmt.Errorf("marking %s: %w", id, err)
			}
			fmt.Printf("Marked sent: %s\n", id)
		}
		return nil
	},
}

var clearOldHours int

var alertsClearOldCmd = &cobra.Command{
	Use:   "clear-old",
	Short: "Remove alerts older than the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}

		hours := clearOldHours
		if hours <= 0 {
			hours = cfg.Settings.AlertRetentionHours
		}

		removed, err := st.ClearOldAlerts(time.Duration(hours) * time.Hour)
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d alert(s) older than %dh.\n", removed, hours)
		return nil
	},
}

func init() {
	alertsListCmd.Flags().BoolVar(&alertsJSON, "json", false, "Print delivery payloads as JSON")
	alertsClearOldCmd.Flags().IntVar(&clearOldHours, "hours", 0, "Retention window override in hours")

	alertsCmd.AddCommand(alertsListCmd)
	alertsCmd.AddCommand(alertsMarkSentCmd)
	alertsCmd.AddCommand(alertsClearOldCmd)
}

// --- prune command ---

var pruneHours int

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Prune old entries from the deduplication map",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}

		hours := pruneHours
		if hours <= 0 {
			hours = cfg.Settings.DeduplicationWindowHours
		}

		removed, err := st.PruneDedup(time.Duration(hours) * time.Hour)
		if err != nil {
			return err
		}
		fmt.Printf("Pruned %d seen-URL entr(ies) older than %dh.\n", removed, hours)
		return nil
	},
}

func init() {
	pruneCmd.Flags().IntVar(&pruneHours, "hours", 0, "Dedup window override in hours")
}

func openStore() (*store.Store, error) {
	return store.Open(cfg.GetDataDir(envCfg))
}
