package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var infoCollection bool

var infoCmd = &cobra.Command{
	Use:   "info <id>",
	Short: "Show Workshop item or collection details",
	Long: `Look up a Workshop item (or, with --collection, a collection) in the Steam
Web API and show its catalog details.

Examples:
  wmm info 2169435993
  wmm info 2820363371 --collection`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	infoCmd.Flags().BoolVarP(&infoCollection, "collection", "c", false, "look up a collection instead of an item")

	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	ctx := context.Background()

	if infoCollection {
		col, err := service.Catalog().ParseCollection(ctx, args[0], true)
		if err != nil {
			return fmt.Errorf("looking up collection: %w", err)
		}

		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(col)
		}

		fmt.Printf("Collection: %s\n", col.Title)
		fmt.Printf("  ID:    %s\n", col.ID)
		fmt.Printf("  Items: %d\n", len(col.ItemIDs))
		if col.Description != "" {
			fmt.Printf("  About: %s\n", truncate(col.Description, 200))
		}
		if len(col.Details) > 0 {
			fmt.Println("\nMembers:")
			for _, d := range col.Details {
				fmt.Printf("  - %s (%s, %s)\n", d.Name, d.ID, formatBytes(d.SizeBytes))
			}
		}
		return nil
	}

	detail, err := service.Catalog().GetItemDetails(ctx, args[0])
	if err != nil {
		return fmt.Errorf("looking up item: %w", err)
	}

	// Refresh the local cache while we have fresh data.
	if err := service.DB().SaveItem(detail); err != nil && verbose {
		fmt.Fprintf(os.Stderr, "warning: caching item: %v\n", err)
	}

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(detail)
	}

	fmt.Printf("Item: %s\n", detail.Name)
	fmt.Printf("  ID:     %s\n", detail.ID)
	fmt.Printf("  Size:   %s\n", formatBytes(detail.SizeBytes))
	if detail.Author != "" {
		fmt.Printf("  Author: %s\n", detail.Author)
	}
	if len(detail.Tags) > 0 {
		fmt.Printf("  Tags:   %s\n", strings.Join(detail.Tags, ", "))
	}
	if !detail.TimeUpdated.IsZero() {
		fmt.Printf("  Updated: %s\n", detail.TimeUpdated.Format("2006-01-02"))
	}
	if detail.Description != "" {
		fmt.Printf("\n%s\n", truncate(detail.Description, 400))
	}
	return nil
}
