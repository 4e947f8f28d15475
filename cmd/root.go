package cmd

import (
	"fmt"
	"os"

	"github.com/iksnae/voiceflow-portal/internal"
	"github.com/iksnae/voiceflow-portal/internal/config"
	"github.com/iksnae/voiceflow-portal/internal/session"
	"github.com/spf13/cobra"
)

var (
	verbose   bool
	logLevel  string
	apiURL    string
	storeType string
	storePath string
	redisURL  string
	profile   string
	envFile   string
	noLatency bool
	version   string = "dev"
	commit    string = "unknown"
	date      string = "unknown"
)

// cfg is resolved before every command runs
var cfg config.Config

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "voiceflow-portal",
	Short: "Customer analytics portal for your conversational agent",
	Long: `A terminal portal for your agent's analytics.

Sign in with an access token to browse conversation metrics, read and
export transcripts, and watch live sessions as they happen.

Features:
  • Dashboard with session totals, top intents and daily volume
  • Transcript history with per-turn detail
  • CSV export (plus JSON, JSONL, YAML and Markdown)
  • Live session monitor
  • Interactive dashboard and an HTTP API server

Quick Start:
  voiceflow-portal login <token>              # Sign in
  voiceflow-portal transcripts                # List transcripts
  voiceflow-portal export <transcript-id>     # Write {id}_export.csv
  voiceflow-portal dashboard                  # Interactive portal

Settings are read from .env / .env.local and VF_PORTAL_* variables;
flags take precedence.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		internal.SetVerbose(verbose)
		return loadConfig(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig layers flags over .env files and the environment
func loadConfig(cmd *cobra.Command) error {
	var files []string
	if envFile != "" {
		files = append(files, envFile)
	}
	loaded, err := config.Load(files...)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("api-url") {
		loaded.APIURL = apiURL
	}
	if flags.Changed("store") {
		loaded.StoreType = session.StoreType(storeType)
	}
	if flags.Changed("store-path") {
		loaded.StorePath = storePath
	}
	if flags.Changed("redis-url") {
		loaded.RedisURL = redisURL
	}
	if flags.Changed("profile") {
		loaded.Profile = profile
	}
	if flags.Changed("no-latency") {
		loaded.NoLatency = noLatency
	}
	if flags.Changed("log-level") {
		level, err := internal.ParseLogLevel(logLevel)
		if err != nil {
			return err
		}
		loaded.LogLevel = level
	}
	if err := loaded.Validate(); err != nil {
		return err
	}
	cfg = loaded
	if !verbose {
		internal.SetLogLevel(cfg.LogLevel)
	}
	internal.LogDebug("config: api=%q store=%s profile=%s data=%s", cfg.APIURL, cfg.StoreType, cfg.Profile, cfg.DataDir)
	return nil
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	flags.StringVar(&logLevel, "log-level", "", "Log level: error, warn, info or debug (default info)")
	flags.StringVar(&apiURL, "api-url", "", "Analytics API base URL (default: simulated backend)")
	flags.StringVar(&storeType, "store", "", "Session store: memory, sqlite or redis (default sqlite)")
	flags.StringVar(&storePath, "store-path", "", "Path to the sqlite session database")
	flags.StringVar(&redisURL, "redis-url", "", "Redis URL for the redis session store")
	flags.StringVar(&profile, "profile", "", "Session profile name")
	flags.StringVar(&envFile, "env-file", "", "Load settings from this file instead of .env.local/.env")
	flags.BoolVar(&noLatency, "no-latency", false, "Disable simulated backend latency")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
