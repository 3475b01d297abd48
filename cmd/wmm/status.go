package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"wmm/internal/source/steam"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current status",
	Long: `Show the current configuration, SteamCMD state, and instance summary.

Examples:
  wmm status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	cfg := service.Config()

	fmt.Println("Configuration:")
	fmt.Printf("  App ID:             %s\n", cfg.AppID)
	fmt.Printf("  Max concurrent:     %d\n", cfg.MaxConcurrent)
	if cfg.FetchTimeout > 0 {
		fmt.Printf("  Fetch timeout:      %s\n", cfg.FetchTimeout)
	}

	steamState := colorRed("not installed")
	if service.SteamCmd().Installed() {
		steamState = colorGreen("installed")
	}
	fmt.Printf("  SteamCMD:           %s (%s)\n", steamState, service.SteamCmd().Dir)

	if install, err := steam.FindGameInstall(cfg.AppID); err == nil && install != nil {
		fmt.Printf("  Game install:       %s (%s)\n", colorGreen(install.Name), install.InstallPath)
	} else {
		fmt.Printf("  Game install:       %s\n", colorYellow("not found in local Steam libraries"))
	}

	if !service.SteamCmd().Installed() {
		fmt.Println("\nInstall SteamCMD with 'wmm steamcmd install'.")
	}

	instances, err := service.Instances().List()
	if err != nil {
		return fmt.Errorf("listing instances: %w", err)
	}

	if len(instances) == 0 {
		fmt.Println("\nNo instances configured.")
		return nil
	}

	fmt.Println("\nInstances:")
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTATUS\tMODS")
	fmt.Fprintln(w, "----\t------\t----")
	for _, inst := range instances {
		fmt.Fprintf(w, "%s\t%s\t%d\n", truncate(inst.Name, 30), inst.Status, inst.ModsCount)
	}
	w.Flush()

	fmt.Printf("\nTotal: %d instance(s)\n", len(instances))
	return nil
}
