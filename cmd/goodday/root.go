package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/hyperengineering/goodday"
	"github.com/hyperengineering/goodday/internal/container"
	"github.com/hyperengineering/goodday/internal/store"
	"github.com/spf13/cobra"
)

var (
	cfgFile        string
	cfgAPIToken    string
	cfgAPIBase     string
	cfgSearchURL   string
	cfgSearchToken string
	cfgCachePath   string
	cfgCacheTTL    time.Duration
	cfgLogLevel    string
	cfgDebug       bool

	outputJSON bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "goodday",
	Short: "Goodday - project management tools for agents",
	Long: `Goodday exposes the Goodday project management API as MCP tools and
as commands: projects, sprints, tasks, messages, users, documents and
semantic task search.

Configuration is read from a YAML file (--config), then .env and the
environment (GOODDAY_API_TOKEN, GOODDAY_SEARCH_BEARER_TOKEN, ...), then flags.
Later sources win.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), renderBannerWithTagline())
		fmt.Fprintln(cmd.OutOrStdout())
		return cmd.Help()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Path to a YAML config file (default ~/.goodday/config.yaml)")
	pf.StringVar(&cfgAPIToken, "api-token", "", "Goodday API token (default: $GOODDAY_API_TOKEN)")
	pf.StringVar(&cfgAPIBase, "api-base", "", "Goodday API base URL")
	pf.StringVar(&cfgSearchURL, "search-url", "", "Semantic search proxy URL")
	pf.StringVar(&cfgSearchToken, "search-token", "", "Search proxy bearer token (default: $GOODDAY_SEARCH_BEARER_TOKEN)")
	pf.StringVar(&cfgCachePath, "cache-path", "", `Directory cache database path, or "off"`)
	pf.DurationVar(&cfgCacheTTL, "cache-ttl", 0, "How long cached projects and users stay fresh")
	pf.StringVar(&cfgLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.BoolVar(&cfgDebug, "debug", false, "Log all API traffic to stderr")
	pf.BoolVar(&outputJSON, "json", false, "Output as JSON")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Print progress lines while tools run")
}

// loadConfig merges the config file, .env, the environment and flags, in
// increasing precedence.
func loadConfig() (goodday.Config, error) {
	var file goodday.Config
	path := cfgFile
	if path == "" {
		if _, err := os.Stat(store.DefaultConfigPath()); err == nil {
			path = store.DefaultConfigPath()
		} else if !errors.Is(err, fs.ErrNotExist) {
			return goodday.Config{}, fmt.Errorf("config: %w", err)
		}
	}
	if path != "" {
		var err error
		if file, err = goodday.LoadConfigFile(path); err != nil {
			return goodday.Config{}, err
		}
	}

	if err := goodday.LoadDotEnv(); err != nil {
		return goodday.Config{}, err
	}
	env, err := goodday.ConfigFromEnv()
	if err != nil {
		return goodday.Config{}, err
	}

	flags := goodday.Config{
		APIToken:    cfgAPIToken,
		APIBase:     cfgAPIBase,
		SearchURL:   cfgSearchURL,
		SearchToken: cfgSearchToken,
		CachePath:   cfgCachePath,
		CacheTTL:    cfgCacheTTL,
		LogLevel:    cfgLogLevel,
		Debug:       cfgDebug,
	}
	return file.Merge(env).Merge(flags), nil
}

// newContainer loads the configuration and wires the services.
func newContainer(opts container.Options) (*container.Container, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	opts.Version = version
	return container.New(cfg, opts)
}
