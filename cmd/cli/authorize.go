package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var authorizeCmd = &cobra.Command{
	Use:   "authorize",
	Short: "Authorize this computer's ssh key on the device",
	Long: `Ensures an ssh key exists, submits it to the device with the stored
session and verifies that ssh works. When no valid session is stored you are
asked for the code shown on the Move.`,
	RunE: func(cmd *cobra.Command, args []string) error {

		ctx, cancel := commandContext()
		defer cancel()

		device, err := resolveDevice(ctx)
		if err != nil {
			return err
		}

		manager, err := newKeyManager()
		if err != nil {
			return err
		}

		session := &deviceSession{
			device:   device,
			keys:     manager,
			executor: newExecutor(nil),
		}

		if err := pairDevice(ctx, session); err != nil {
			return err
		}

		fmt.Println(successStyle.Render("ssh access to ") + session.executor.User() + "@" + device.Address.String() + successStyle.Render(" works"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(authorizeCmd)
}
