package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/move-everything/installer/internal/installer"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove Move Everything and restore the stock firmware binary",
	Long: `Stops the Move Everything service, removes the shim and all of its data,
restores the original Move binary from the backup and reboots the device.
Installed modules and their settings are deleted.`,
	RunE: func(cmd *cobra.Command, args []string) error {

		ctx, cancel := commandContext()
		defer cancel()

		ok, err := confirm(cmd, "Uninstall Move Everything?",
			"All modules and settings on the device are deleted and the Move reboots.")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println(mutedStyle.Render("Cancelled"))
			return nil
		}

		session, err := connectDevice(ctx)
		if err != nil {
			return err
		}

		var result installer.UninstallResult
		err = runWithProgress(ctx, cmd, "Uninstalling Move Everything", func(ctx context.Context, sink installer.ProgressFunc) error {
			orchestrator := newOrchestrator(session.executor, sink)
			var err error
			result, err = orchestrator.Uninstall(ctx, session.addr())
			return err
		})
		if err != nil {
			return err
		}

		if !result.Restored {
			fmt.Println(warningStyle.Render("No backup of the original Move binary was found. Reinstall the firmware if the Move does not start normally."))
		}
		return nil
	},
}

func init() {
	uninstallCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")

	rootCmd.AddCommand(uninstallCmd)
}
