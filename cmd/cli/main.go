package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/move-everything/installer/internal/config"
)

// cfg is loaded once per invocation, before any command runs.
var cfg *config.Config

func preRunConfigE(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()

	configFile, _ := flags.GetString("config")
	loaded, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}
	cfg = loaded

	if verbose, _ := flags.GetBool("verbose"); verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	// --address skips discovery entirely
	if address, _ := flags.GetString("address"); len(address) > 0 {
		cfg.Device.Address = address
	}

	return nil
}

var rootCmd = &cobra.Command{
	Use:   "move-installer",
	Short: "Move Everything installer - set up and manage Move Everything on an Ableton Move",
	Long: `Move Everything installer finds your Ableton Move on the local network,
pairs this computer with it using the code shown on the device, and installs
the Move Everything core package and modules over ssh.

Run without a subcommand to start the guided setup.`,
	PersistentPreRunE: preRunConfigE,
	SilenceUsage:      true,
	RunE:              runSetup,
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("config", "", "Config file (default is ./config.yaml or ~/.config/move-installer/config.yaml)")
	rootCmd.PersistentFlags().String("address", "", "Device IP address, skips discovery (e.g., 192.168.1.40)")
	rootCmd.PersistentFlags().Bool("plain", false, "Print progress as plain lines instead of the interactive view")
}

func GetCommandOptions() *cobra.Command {
	return rootCmd
}
