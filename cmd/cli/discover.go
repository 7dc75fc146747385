package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/move-everything/installer/internal/discovery"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find the Move on the local network",
	Long:  "Resolves the device by name and falls back to service discovery. With --address the given IP is only probed.",
	RunE: func(cmd *cobra.Command, args []string) error {

		ctx, cancel := commandContext()
		defer cancel()

		device, err := resolveDevice(ctx)
		if err != nil {
			return err
		}

		// A configured address skips discovery, so confirm something answers
		resolver := discovery.NewResolver(discovery.OptionsFromConfig(cfg.Device))
		if _, err := resolver.Validate(ctx, device.Address); err != nil {
			return err
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(device)
		}

		fmt.Printf("%s%s\n", labelStyle.Render("Hostname"), device.Hostname)
		fmt.Printf("%s%s\n", labelStyle.Render("Address"), device.Address)
		fmt.Printf("%s%s\n", labelStyle.Render("Web UI"), device.BaseURL(cfg.Device.HTTPPort))
		return nil
	},
}

func init() {
	discoverCmd.Flags().Bool("json", false, "Print the device as JSON")

	rootCmd.AddCommand(discoverCmd)
}
