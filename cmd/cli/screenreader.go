package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/move-everything/installer/internal/models"
)

var screenReaderCmd = &cobra.Command{
	Use:       "screen-reader [on|off]",
	Short:     "Show or change the Move Everything screen reader setting",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {

		ctx, cancel := commandContext()
		defer cancel()

		session, err := connectDevice(ctx)
		if err != nil {
			return err
		}

		orchestrator := newOrchestrator(session.executor, nil)

		if len(args) == 0 {
			enabled, err := orchestrator.ScreenReaderEnabled(ctx, session.addr())
			if err != nil {
				return err
			}
			fmt.Printf("%s%s\n", labelStyle.Render("Screen reader"), onOff(enabled))
			return nil
		}

		var enabled bool
		switch args[0] {
		case "on":
			enabled = true
		case "off":
			enabled = false
		default:
			return models.NewError(models.KindInvalidArgument, "expected on or off, got %q", args[0])
		}

		if err := orchestrator.SetScreenReader(ctx, session.addr(), enabled); err != nil {
			return err
		}
		fmt.Println(successStyle.Render("Screen reader " + onOff(enabled)))
		return nil
	},
}

func onOff(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}

func init() {
	rootCmd.AddCommand(screenReaderCmd)
}
