package cli

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/move-everything/installer/internal/diagnostics"
	"github.com/move-everything/installer/internal/models"
)

var diagnosticsCmd = &cobra.Command{
	Use:   "diagnostics",
	Short: "Print a diagnostics report to attach to a bug report",
	Long: `Collects the installer version, platform, pairing state and recent
warnings into a JSON document. The session token and key material are never
included.`,
	RunE: func(cmd *cobra.Command, args []string) error {

		ctx, cancel := commandContext()
		defer cancel()

		inputs := diagnostics.Inputs{
			Environment: cfg.Environment,
			Events:      cfg.GetLogger(),
		}

		if manager, err := newKeyManager(); err == nil {
			inputs.Keys = manager
		} else {
			logrus.WithError(err).Warnln("Cannot inspect ssh keys")
		}

		if tokens, err := newTokenStore(); err == nil {
			inputs.Tokens = tokens
		} else {
			logrus.WithError(err).Warnln("Cannot open trust store")
		}

		discover, _ := cmd.Flags().GetBool("discover")
		if addr, ok, err := cfg.GetDeviceAddress(); err == nil && ok {
			inputs.Device = &models.DeviceHandle{Hostname: cfg.Device.Hostname, Address: addr}
		} else if discover {
			if device, err := resolveDevice(ctx); err == nil {
				inputs.Device = &device
			} else {
				logrus.WithError(err).Warnln("Device discovery failed")
			}
		}

		report := diagnostics.Collect(inputs)
		data, err := report.JSON()
		if err != nil {
			return err
		}

		output, _ := cmd.Flags().GetString("output")
		if len(output) == 0 {
			fmt.Println(string(data))
			return nil
		}

		if err := os.WriteFile(output, append(data, '\n'), 0600); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		fmt.Println(successStyle.Render("Report written to ") + output)
		return nil
	},
}

func init() {
	diagnosticsCmd.Flags().StringP("output", "o", "", "Write the report to this file instead of stdout")
	diagnosticsCmd.Flags().Bool("discover", false, "Look for the device when no address is configured")

	rootCmd.AddCommand(diagnosticsCmd)
}
