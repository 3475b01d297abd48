package main

import (
	"context"
	"fmt"

	"wmm/internal/domain"

	"github.com/spf13/cobra"
)

var downloadInstance string

var downloadCmd = &cobra.Command{
	Use:   "download <item-id>",
	Short: "Download a Workshop mod",
	Long: `Download a single Steam Workshop item through SteamCMD.

When --instance is given, the mod is installed into that instance after the
download completes.

Examples:
  wmm download 2169435993
  wmm download 2169435993 --instance 1f0c6f2a`,
	Args: cobra.ExactArgs(1),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadInstance, "instance", "i", "", "instance to install into")

	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	itemID := args[0]

	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	if downloadInstance != "" {
		if _, err := service.Instances().Get(downloadInstance); err != nil {
			return fmt.Errorf("instance not found: %s", downloadInstance)
		}
	}

	if err := service.SteamCmd().EnsureInstalled(cmd.Context()); err != nil {
		return fmt.Errorf("preparing steamcmd: %w", err)
	}

	ctx := context.Background()

	if verbose {
		fmt.Printf("Resolving Workshop item %s...\n", itemID)
	}

	id, err := service.QueueWorkshopItem(ctx, itemID, downloadInstance)
	if err != nil {
		return fmt.Errorf("queueing download: %w", err)
	}

	d, _ := service.Queue().Get(id)
	if d != nil {
		fmt.Printf("Downloading: %s\n", d.Name)
	}

	final, err := waitForDownload(service, id)
	if err != nil {
		return err
	}

	switch final.Status {
	case domain.StatusComplete:
		fmt.Printf("%s %s downloaded\n", colorGreen("✓"), final.Name)
		if final.InstallState == domain.InstallFailed {
			return fmt.Errorf("mod downloaded but installation into instance %s failed", downloadInstance)
		}
		if downloadInstance != "" {
			fmt.Printf("  Installed into instance %s\n", downloadInstance)
		}
		return nil
	case domain.StatusCancelled:
		return ErrCancelled
	default:
		return fmt.Errorf("download failed: %s", final.Error)
	}
}
