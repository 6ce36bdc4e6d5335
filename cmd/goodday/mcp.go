package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hyperengineering/goodday/internal/container"
	"github.com/hyperengineering/goodday/internal/observe"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server for agent integration",
	Long: `Start a Model Context Protocol (MCP) server over stdio.

Configuration for an MCP client:

  {
    "mcpServers": {
      "goodday": {
        "command": "goodday",
        "args": ["mcp"],
        "env": {
          "GOODDAY_API_TOKEN": "...",
          "GOODDAY_SEARCH_BEARER_TOKEN": "..."
        }
      }
    }
  }

Environment variables:
  GOODDAY_API_TOKEN            Goodday API token (required)
  GOODDAY_SEARCH_URL           Semantic search proxy URL
  GOODDAY_SEARCH_BEARER_TOKEN  Search proxy token (required for search)
  GOODDAY_CACHE_PATH           Directory cache database, or "off"
  GOODDAY_CACHE_TTL            Directory cache freshness (e.g. 10m)
  GOODDAY_REFRESH_CRON         Cron spec for background cache refresh
  GOODDAY_METRICS_ADDR         Serve Prometheus metrics on this address
  GOODDAY_LOG_LEVEL            debug, info, warn or error

Logs go to stderr; stdout carries the MCP transport.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

var (
	mcpMetricsAddr string
	mcpRefreshCron string
)

func init() {
	mcpCmd.Flags().StringVar(&mcpMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9464)")
	mcpCmd.Flags().StringVar(&mcpRefreshCron, "refresh-cron", "", `Refresh the directory cache on this cron spec (e.g. "@every 15m")`)
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if mcpMetricsAddr != "" {
		cfg.MetricsAddr = mcpMetricsAddr
	}
	if mcpRefreshCron != "" {
		cfg.RefreshSchedule = mcpRefreshCron
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := container.Options{Version: version}
	if cfg.MetricsAddr != "" {
		mp, shutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceVersion: version})
		if err != nil {
			return fmt.Errorf("init metrics: %w", err)
		}
		defer func() { _ = shutdown(context.Background()) }()
		opts.MeterProvider = mp
	}

	c, err := container.New(cfg, opts)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()
	logger := c.Logger()
	runCfg := c.Config()

	if cfg.MetricsAddr != "" {
		go func() {
			if err := observe.Serve(ctx, cfg.MetricsAddr, logger); err != nil {
				logger.Error("metrics server stopped", zap.Error(err))
			}
		}()
		printInfo(cmd.ErrOrStderr(), "Metrics on http://%s/metrics", cfg.MetricsAddr)
	}
	logger.Info("starting MCP server",
		zap.String("version", version),
		zap.Bool("cache", runCfg.CacheEnabled()),
		zap.String("refresh_cron", runCfg.RefreshSchedule))
	err = c.Server().Serve(ctx, os.Stdin, os.Stdout)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
