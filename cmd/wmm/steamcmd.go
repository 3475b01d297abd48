package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var steamcmdCmd = &cobra.Command{
	Use:   "steamcmd",
	Short: "Manage the bundled SteamCMD installation",
}

var steamcmdInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Download and install SteamCMD",
	Long: `Download the SteamCMD archive for this platform and install it into the
data directory. Safe to run repeatedly; an existing installation is kept.`,
	RunE: runSteamcmdInstall,
}

func init() {
	steamcmdCmd.AddCommand(steamcmdInstallCmd)
	rootCmd.AddCommand(steamcmdCmd)
}

func runSteamcmdInstall(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer service.Close()

	steam := service.SteamCmd()
	if steam.Installed() {
		fmt.Printf("SteamCMD already installed at %s\n", steam.Dir)
		return nil
	}

	fmt.Println("Installing SteamCMD...")
	if err := steam.Install(cmd.Context()); err != nil {
		return fmt.Errorf("installing steamcmd: %w", err)
	}

	fmt.Printf("%s SteamCMD installed at %s\n", colorGreen("✓"), steam.Dir)
	return nil
}
