package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var historyLimit int

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect and manage the download queue",
}

var queueStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show queue statistics",
	RunE:  runQueueStats,
}

var queueListCmd = &cobra.Command{
	Use:   "list",
	Short: "List downloads in the queue",
	RunE:  runQueueList,
}

var queueClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove finished downloads from the queue",
	RunE:  runQueueClear,
}

var queueCleanupOlderThan time.Duration

var queueCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove finished downloads older than a threshold",
	RunE:  runQueueCleanup,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past downloads",
	Long: `Show finished downloads recorded in the local database, newest first.

Examples:
  wmm history
  wmm history --limit 20
  wmm history prune --older-than 720h`,
	RunE: runHistory,
}

var historyPruneOlderThan time.Duration

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old download history",
	RunE:  runHistoryPrune,
}

func init() {
	queueCmd.AddCommand(queueStatsCmd)
	queueCmd.AddCommand(queueListCmd)
	queueCmd.AddCommand(queueClearCmd)
	queueCleanupCmd.Flags().DurationVar(&queueCleanupOlderThan, "older-than", time.Hour, "age threshold")
	queueCmd.AddCommand(queueCleanupCmd)

	historyCmd.Flags().IntVar(&historyLimit, "limit", 50, "maximum entries to show")
	historyPruneCmd.Flags().DurationVar(&historyPruneOlderThan, "older-than", 30*24*time.Hour, "age threshold")
	historyCmd.AddCommand(historyPruneCmd)

	rootCmd.AddCommand(queueCmd)
	rootCmd.AddCommand(historyCmd)
}

func runQueueStats(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	stats := service.Queue().Stats()

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(stats)
	}

	fmt.Println("Download Queue:")
	fmt.Printf("  Active:    %d\n", stats.Active)
	fmt.Printf("  Paused:    %d\n", stats.Paused)
	fmt.Printf("  Completed: %d\n", stats.Completed)
	fmt.Printf("  Failed:    %d\n", stats.Failed)
	fmt.Printf("  Cancelled: %d\n", stats.Cancelled)
	fmt.Printf("  Total:     %d\n", stats.Total)
	if stats.Active > 0 {
		fmt.Printf("  Avg speed: %s/s\n", formatBytes(int64(stats.AvgSpeed)))
	}
	return nil
}

func runQueueList(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	downloads := service.Queue().List()

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(downloads)
	}

	if len(downloads) == 0 {
		fmt.Println("The download queue is empty.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tKIND\tSTATUS\tPROGRESS\tSIZE")
	fmt.Fprintln(w, "----\t----\t------\t--------\t----")
	for _, d := range downloads {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d%%\t%s\n",
			truncate(d.Name, 40),
			d.Kind,
			statusColor(d.Status),
			d.Progress,
			formatBytes(d.SizeBytes),
		)
	}
	w.Flush()
	return nil
}

func runQueueClear(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	n := service.Queue().ClearFinished()
	fmt.Printf("Removed %d finished downloads\n", n)
	return nil
}

func runQueueCleanup(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	n := service.Queue().CleanupOlderThan(queueCleanupOlderThan)
	fmt.Printf("Removed %d downloads finished more than %s ago\n", n, queueCleanupOlderThan)
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	entries, err := service.DB().History(historyLimit)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Println("No download history.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tKIND\tSTATUS\tSIZE\tFINISHED")
	fmt.Fprintln(w, "----\t----\t------\t----\t--------")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			truncate(e.Name, 40),
			e.Kind,
			statusColor(e.Status),
			formatBytes(e.SizeBytes),
			e.EndedAt.Format("2006-01-02 15:04"),
		)
	}
	w.Flush()

	fmt.Printf("\n%d entries\n", len(entries))
	return nil
}

func runHistoryPrune(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	n, err := service.DB().PruneHistory(historyPruneOlderThan)
	if err != nil {
		return fmt.Errorf("pruning history: %w", err)
	}

	fmt.Printf("Removed %d history entries older than %s\n", n, historyPruneOlderThan)
	return nil
}
