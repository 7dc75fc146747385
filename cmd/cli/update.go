package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update the installer to the latest release",
	RunE: func(cmd *cobra.Command, args []string) error {

		ctx, cancel := commandContext()
		defer cancel()

		updater, err := newUpdater()
		if err != nil {
			return err
		}

		rel, err := updater.CheckForUpdate(ctx)
		if err != nil {
			return err
		}
		if rel == nil {
			fmt.Println(successStyle.Render("You're running the latest version!"))
			return nil
		}

		ok, err := confirm(cmd, fmt.Sprintf("Update the installer to %s?", rel.Version),
			"The running binary is replaced in place.")
		if err != nil || !ok {
			return err
		}

		fmt.Println(infoStyle.Render("Downloading " + updater.AssetName() + "..."))
		updated, err := updater.Update(ctx)
		if err != nil {
			return err
		}
		if updated != nil {
			fmt.Println(successStyle.Render("Updated to " + updated.Version))
		}
		return nil
	},
}

func init() {
	updateCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")

	rootCmd.AddCommand(updateCmd)
}
