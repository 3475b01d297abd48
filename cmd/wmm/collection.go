package main

import (
	"context"
	"fmt"
	"time"

	"wmm/internal/domain"

	"github.com/spf13/cobra"
)

var (
	collectionInstance  string
	collectionNewInst   string
	collectionInstallTO time.Duration
)

var collectionCmd = &cobra.Command{
	Use:   "collection <collection-id>",
	Short: "Download a Workshop collection",
	Long: `Download every item of a Steam Workshop collection through SteamCMD.

The collection expands into one download per member item; members download
concurrently up to the configured limit. With --instance (or --new-instance)
each completed item is installed into the instance once the whole collection
has finished.

Examples:
  wmm collection 2820363371
  wmm collection 2820363371 --instance 1f0c6f2a
  wmm collection 2820363371 --new-instance "10 Years Later"`,
	Args: cobra.ExactArgs(1),
	RunE: runCollection,
}

func init() {
	collectionCmd.Flags().StringVarP(&collectionInstance, "instance", "i", "", "instance to install into")
	collectionCmd.Flags().StringVar(&collectionNewInst, "new-instance", "", "create a new instance with this name and install into it")
	collectionCmd.Flags().DurationVar(&collectionInstallTO, "install-timeout", 10*time.Minute, "how long to wait for installation after the downloads finish")

	rootCmd.AddCommand(collectionCmd)
}

func runCollection(cmd *cobra.Command, args []string) error {
	collectionID := args[0]

	if collectionInstance != "" && collectionNewInst != "" {
		return fmt.Errorf("--instance and --new-instance are mutually exclusive")
	}

	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	instanceID := collectionInstance
	if instanceID != "" {
		if _, err := service.Instances().Get(instanceID); err != nil {
			return fmt.Errorf("instance not found: %s", instanceID)
		}
	}
	if collectionNewInst != "" {
		inst, err := service.Instances().Create(collectionNewInst, "")
		if err != nil {
			return fmt.Errorf("creating instance: %w", err)
		}
		instanceID = inst.ID
		fmt.Printf("Created instance %s (%s)\n", inst.Name, inst.ID)
	}

	if err := service.SteamCmd().EnsureInstalled(cmd.Context()); err != nil {
		return fmt.Errorf("preparing steamcmd: %w", err)
	}

	ctx := context.Background()

	if verbose {
		fmt.Printf("Resolving collection %s...\n", collectionID)
	}

	id, err := service.QueueWorkshopCollection(ctx, collectionID, instanceID)
	if err != nil {
		return fmt.Errorf("queueing collection: %w", err)
	}

	d, _ := service.Queue().Get(id)
	if d != nil {
		fmt.Printf("Downloading collection: %s (%d items)\n", d.Name, len(d.ItemIDs))
	}

	final, err := waitForDownload(service, id)
	if err != nil {
		return err
	}

	switch final.Status {
	case domain.StatusComplete:
		fmt.Printf("%s %s downloaded\n", colorGreen("✓"), final.Name)
	case domain.StatusCancelled:
		return ErrCancelled
	default:
		fmt.Printf("%s %s: %s\n", colorRed("✗"), final.Name, final.Error)
	}

	if instanceID != "" {
		result, err := waitForInstance(service, instanceID, collectionInstallTO)
		if err != nil {
			return err
		}
		if !result.Succeeded {
			return fmt.Errorf("instance %s finished with errors; see 'wmm instance show %s'", instanceID, instanceID)
		}
		fmt.Printf("%s Instance %s is ready\n", colorGreen("✓"), instanceID)
	}

	if final.Status == domain.StatusFailed {
		return fmt.Errorf("collection finished with failures: %s", final.Error)
	}
	return nil
}
