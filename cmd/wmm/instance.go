package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	instanceDescription string
	instanceKeepFiles   bool
	instanceForce       bool
)

var instanceCmd = &cobra.Command{
	Use:   "instance",
	Short: "Manage game instances",
	Long: `Manage isolated game instances that mods are installed into.

Each instance is a directory with its own mods folder and metadata.

Examples:
  wmm instance list
  wmm instance create "Heavily Modded"
  wmm instance show 1f0c6f2a
  wmm instance delete 1f0c6f2a`,
}

var instanceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List instances",
	RunE:  runInstanceList,
}

var instanceCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new instance",
	Args:  cobra.ExactArgs(1),
	RunE:  runInstanceCreate,
}

var instanceShowCmd = &cobra.Command{
	Use:   "show <instance-id>",
	Short: "Show instance details and installed mods",
	Args:  cobra.ExactArgs(1),
	RunE:  runInstanceShow,
}

var instanceDeleteCmd = &cobra.Command{
	Use:   "delete <instance-id>",
	Short: "Delete an instance",
	Args:  cobra.ExactArgs(1),
	RunE:  runInstanceDelete,
}

func init() {
	instanceCreateCmd.Flags().StringVarP(&instanceDescription, "description", "d", "", "instance description")
	instanceDeleteCmd.Flags().BoolVar(&instanceKeepFiles, "keep-files", false, "remove only the metadata, keep the file tree")
	instanceDeleteCmd.Flags().BoolVarP(&instanceForce, "force", "f", false, "skip confirmation prompt")

	instanceCmd.AddCommand(instanceListCmd)
	instanceCmd.AddCommand(instanceCreateCmd)
	instanceCmd.AddCommand(instanceShowCmd)
	instanceCmd.AddCommand(instanceDeleteCmd)

	rootCmd.AddCommand(instanceCmd)
}

func runInstanceList(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	instances, err := service.Instances().List()
	if err != nil {
		return fmt.Errorf("listing instances: %w", err)
	}

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(instances)
	}

	if len(instances) == 0 {
		fmt.Println("No instances.")
		fmt.Println("\nCreate one with 'wmm instance create <name>'.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tMODS\tCREATED")
	fmt.Fprintln(w, "--\t----\t------\t----\t-------")
	for _, inst := range instances {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			inst.ID,
			truncate(inst.Name, 30),
			inst.Status,
			inst.ModsCount,
			inst.CreatedAt.Format("2006-01-02"),
		)
	}
	w.Flush()

	fmt.Printf("\nTotal: %d instance(s)\n", len(instances))
	return nil
}

func runInstanceCreate(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	inst, err := service.Instances().Create(args[0], instanceDescription)
	if err != nil {
		return fmt.Errorf("creating instance: %w", err)
	}

	fmt.Printf("%s Created instance %s\n", colorGreen("✓"), inst.Name)
	fmt.Printf("  ID:   %s\n", inst.ID)
	fmt.Printf("  Path: %s\n", inst.Path)
	return nil
}

func runInstanceShow(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	inst, err := service.Instances().Get(args[0])
	if err != nil {
		return fmt.Errorf("instance not found: %s", args[0])
	}

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(inst)
	}

	fmt.Printf("Instance: %s\n", inst.Name)
	fmt.Printf("  ID:     %s\n", inst.ID)
	fmt.Printf("  Status: %s\n", inst.Status)
	fmt.Printf("  Path:   %s\n", inst.Path)
	if inst.Description != "" {
		fmt.Printf("  About:  %s\n", inst.Description)
	}
	if inst.CollectionID != "" {
		fmt.Printf("  Collection: %s\n", inst.CollectionID)
	}

	if size, err := service.Instances().ModsSize(inst.ID); err == nil {
		fmt.Printf("  Mods size: %s\n", formatBytes(size))
	}

	if len(inst.Installed) == 0 {
		fmt.Println("\nNo mods installed.")
		return nil
	}

	fmt.Printf("\nInstalled mods (%d):\n", len(inst.Installed))
	for _, m := range inst.Installed {
		line := fmt.Sprintf("  - %s (%s)", m.Name, m.ID)
		if m.Author != "" {
			line += " by " + m.Author
		}
		fmt.Println(line)
	}
	return nil
}

func runInstanceDelete(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	inst, err := service.Instances().Get(args[0])
	if err != nil {
		return fmt.Errorf("instance not found: %s", args[0])
	}

	if !instanceForce && !instanceKeepFiles {
		fmt.Printf("Delete instance %s and all its files? [y/N] ", inst.Name)
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			return ErrCancelled
		}
	}

	if err := service.Instances().Delete(inst.ID, !instanceKeepFiles); err != nil {
		return fmt.Errorf("deleting instance: %w", err)
	}

	fmt.Printf("%s Deleted instance %s\n", colorGreen("✓"), inst.Name)
	return nil
}
