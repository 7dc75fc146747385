package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/move-everything/installer/internal/keys"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Show or create the ssh key used for the device",
	RunE: func(cmd *cobra.Command, args []string) error {

		ctx, cancel := commandContext()
		defer cancel()

		manager, err := newKeyManager()
		if err != nil {
			return err
		}

		regenerate, _ := cmd.Flags().GetBool("regenerate")

		var generated bool
		pair, found := manager.FindExisting()
		switch {
		case regenerate:
			ok, err := confirm(cmd, "Replace the installer ssh key?",
				"The device will have to authorize the new key before it can be used.")
			if err != nil || !ok {
				return err
			}
			created, err := manager.Generate(ctx)
			if err != nil {
				return err
			}
			pair, generated = &created, true
		case !found:
			created, err := manager.Generate(ctx)
			if err != nil {
				return err
			}
			pair, generated = &created, true
		}

		if err := manager.WriteRemoteShellConfig(); err != nil {
			fmt.Println(warningStyle.Render("Could not update ssh config: ") + err.Error())
		}

		fingerprint, err := keys.Fingerprint(*pair)
		if err != nil {
			return err
		}

		if generated {
			fmt.Println(successStyle.Render("Generated a new key pair"))
		}
		fmt.Printf("%s%s\n", labelStyle.Render("Private key"), pair.PrivateKeyPath)
		fmt.Printf("%s%s\n", labelStyle.Render("Public key"), pair.PublicKeyPath)
		fmt.Printf("%s%s\n", labelStyle.Render("Fingerprint"), fingerprint)
		fmt.Printf("%s%s\n", labelStyle.Render("ssh config"), manager.ConfigPath())
		return nil
	},
}

func init() {
	keysCmd.Flags().Bool("regenerate", false, "Replace the installer's own key pair")
	keysCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")

	rootCmd.AddCommand(keysCmd)
}
