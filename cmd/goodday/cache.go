package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hyperengineering/goodday"
	"github.com/hyperengineering/goodday/internal/container"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or refresh the local directory cache",
	Long: `The directory cache keeps the project and user lists in a local SQLite
database so name lookups do not refetch them on every call.`,
}

var cacheRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refetch projects and users into the cache",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newContainer(container.Options{})
		if err != nil {
			return err
		}
		defer func() { _ = c.Close() }()

		err = runWithSpinner(cmd.ErrOrStderr(), "Refreshing directory cache", func() error {
			return c.Client().Refresh(cmd.Context())
		})
		if err != nil {
			return fmt.Errorf("refresh cache: %w", err)
		}

		stats, err := c.Client().Stats()
		if err != nil {
			return fmt.Errorf("get stats: %w", err)
		}
		if outputJSON {
			return outputAsJSON(cmd, stats)
		}
		if !stats.Enabled {
			printWarning(cmd.OutOrStdout(), "Cache is disabled; nothing was stored")
			return nil
		}
		printSuccess(cmd.OutOrStdout(), "Cached %d projects and %d users", stats.Projects, stats.Users)
		return nil
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newContainer(container.Options{})
		if err != nil {
			return err
		}
		defer func() { _ = c.Close() }()

		stats, err := c.Client().Stats()
		if err != nil {
			return fmt.Errorf("get stats: %w", err)
		}
		if outputJSON {
			return outputAsJSON(cmd, stats)
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderStats(stats))
		return nil
	},
}

func renderStats(s *goodday.CacheStats) string {
	if !s.Enabled {
		return renderPanel("Directory Cache", [][2]string{{"Status", "disabled"}})
	}
	return renderPanel("Directory Cache", [][2]string{
		{"Path", s.Path},
		{"TTL", s.TTL.String()},
		{"Projects", fmt.Sprintf("%d (refreshed %s)", s.Projects, humanTime(s.ProjectsRefreshed))},
		{"Users", fmt.Sprintf("%d (refreshed %s)", s.Users, humanTime(s.UsersRefreshed))},
		{"History", fmt.Sprintf("%d calls", s.HistoryEntries)},
		{"Schema", s.SchemaVersion},
	})
}

func humanTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}

var historyLimit int

var historyCmd = &cobra.Command{
	Use:     "history",
	Short:   "List recent tool calls",
	Example: `  goodday history --limit 50`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newContainer(container.Options{})
		if err != nil {
			return err
		}
		defer func() { _ = c.Close() }()

		calls, err := c.Client().History(historyLimit)
		if errors.Is(err, goodday.ErrCacheDisabled) {
			return errors.New("history needs the local cache; unset GOODDAY_CACHE_PATH=off")
		}
		if err != nil {
			return fmt.Errorf("list history: %w", err)
		}
		if outputJSON {
			return outputAsJSON(cmd, calls)
		}
		if len(calls) == 0 {
			printMuted(cmd.OutOrStdout(), "No tool calls recorded yet.")
			return nil
		}

		rows := make([][]string, 0, len(calls))
		for _, r := range calls {
			status := iconSuccess
			if r.IsError {
				status = iconError
			}
			rows = append(rows, []string{
				humanTime(r.CreatedAt),
				r.Tool,
				r.Duration.Round(time.Millisecond).String(),
				status,
				r.Arguments,
			})
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"WHEN", "TOOL", "TOOK", "OK", "ARGUMENTS"}, rows))
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of calls to list")

	cacheCmd.AddCommand(cacheRefreshCmd, cacheStatsCmd)
	rootCmd.AddCommand(cacheCmd, historyCmd)
}
