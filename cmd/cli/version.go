package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/move-everything/installer/internal/common"
	"github.com/move-everything/installer/internal/release"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		version, gitCommit, ok := common.GetModuleBuildInfo()

		if !ok {
			fmt.Println("Failed to get version information")
			return
		}

		fmt.Printf("Move Everything installer %s", version)
		if gitCommit != "unknown" && len(gitCommit) > 0 {
			if len(gitCommit) > 8 {
				fmt.Printf(" (git: %s)", gitCommit[:8])
			} else {
				fmt.Printf(" (git: %s)", gitCommit)
			}
		}
		fmt.Println()

		updater, err := newUpdater()
		if err != nil {
			fmt.Println("(failed to check for updates)")
			return
		}

		// Keep the version command quick when offline
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		rel, err := updater.CheckForUpdate(ctx)
		if err != nil {
			fmt.Println("(failed to check for updates)")
			return
		}

		if rel == nil {
			fmt.Println(successStyle.Render("You're running the latest version!"))
		} else {
			fmt.Printf("%s %s\n", newBadgeStyle.Render("NEW"), "Version "+rel.Version+" is available")
			fmt.Println("   Run 'move-installer update' to upgrade")
		}
	},
}

func newUpdater() (*release.Updater, error) {
	client, err := newReleaseClient()
	if err != nil {
		return nil, err
	}
	return release.NewUpdater(client,
		cfg.Release.InstallerOwner, cfg.Release.InstallerRepo, common.GetReleaseVersion()), nil
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
