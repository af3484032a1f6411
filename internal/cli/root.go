package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/casehq/triage/internal/classify"
	"github.com/casehq/triage/internal/model"
	"github.com/casehq/triage/internal/pipeline"
	"github.com/casehq/triage/internal/store"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "triage",
	Short: "Triage - deterministic support ticket classification",
	Long: `Triage classifies support tickets into categories and priority levels
using deterministic keyword matching.

Tickets arrive one at a time or through bulk imports (CSV, JSON, XML,
local files or remote feeds). Every classification carries confidence
scores, human-readable reasoning, and the keywords that produced it.
Identical input always yields identical output; a manual override is
never overwritten without being explicitly asked to.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number and build information for Triage.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("triage v0.1.0")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.triage/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(home + "/.triage")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match TRIAGE_*
	viper.SetEnvPrefix("TRIAGE")
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig builds the effective configuration: defaults, then the
// config file viper located, then environment overrides for secrets.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()

	if path := viper.ConfigFileUsed(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if token := os.Getenv("TRIAGE_SLACK_TOKEN"); token != "" {
		cfg.Notify.SlackToken = token
	}
	cfg.Output.Verbose = verbose

	return cfg, nil
}

// buildStore opens the configured ticket store, wrapping it in the
// read-through cache when a TTL is set.
func buildStore(cfg *model.Config) (store.Store, error) {
	var st store.Store
	switch cfg.Store.Driver {
	case "", "sqlite":
		s, err := store.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		st = s
	case "memory":
		st = store.NewMemoryStore()
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	if cfg.Store.CacheTTL > 0 {
		st = store.NewCachedStore(st, cfg.Store.CacheTTL)
	}
	return st, nil
}

// buildEngine creates the classification engine from the built-in rules
// or the configured override file.
func buildEngine(cfg *model.Config) (*classify.Engine, error) {
	rules := classify.DefaultRuleSet()
	if cfg.Rules.Path != "" {
		loaded, err := classify.LoadRuleSet(cfg.Rules.Path)
		if err != nil {
			return nil, err
		}
		rules = loaded
	}
	return classify.NewEngine(rules), nil
}

// buildImporter wires the full import path. The returned store is the
// caller's to close.
func buildImporter(cfg *model.Config) (*pipeline.Importer, store.Store, error) {
	st, err := buildStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	engine, err := buildEngine(cfg)
	if err != nil {
		_ = st.Close()
		return nil, nil, err
	}
	return pipeline.NewImporter(cfg, st, engine), st, nil
}
