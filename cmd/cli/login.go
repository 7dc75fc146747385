package cli

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/move-everything/installer/internal/auth"
	"github.com/move-everything/installer/internal/common"
	"github.com/move-everything/installer/internal/models"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Pair with the device using the code shown on its display",
	Long:  "Asks the Move to show a 6-digit code, exchanges it for a session token and stores the token in the trust store",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored device session",
	RunE: func(cmd *cobra.Command, args []string) error {
		tokens, err := newTokenStore()
		if err != nil {
			return err
		}
		if err := tokens.Delete(); err != nil {
			return fmt.Errorf("failed to remove session: %w", err)
		}
		fmt.Println(successStyle.Render("Session removed"))
		return nil
	},
}

func runLogin(cmd *cobra.Command, args []string) error {

	ctx, cancel := commandContext()
	defer cancel()

	code, err := cmd.Flags().GetString("code")
	if err != nil {
		return err
	}

	device, err := resolveDevice(ctx)
	if err != nil {
		return err
	}

	tokens, err := newTokenStore()
	if err != nil {
		return err
	}

	token, err := loginInteractive(ctx, newAuthClient(), tokens, device.Address, code)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(successStyle.Render("Login successful!"))
	if token.Expiry != nil {
		fmt.Printf("Session expires in %s\n", common.FormatDurationRemaining(time.Until(*token.Expiry).Round(time.Minute)))
	}
	fmt.Println()

	return nil
}

// loginInteractive requests a code on the device, prompts for it unless one
// was given, and stores the resulting token. A rejected code is prompted
// again; any other failure is returned.
func loginInteractive(ctx context.Context, client *auth.Client, tokens auth.TokenStore, addr netip.Addr, code string) (models.SessionToken, error) {
	if len(code) == 0 {
		if err := client.RequestChallenge(ctx, addr); err != nil {
			// Older firmware shows the code without being asked
			logrus.WithError(err).Debugln("Challenge request failed")
		}
	}

	for {
		if len(code) == 0 {
			var err error
			code, err = promptCode()
			if err != nil {
				return models.SessionToken{}, fmt.Errorf("login prompt cancelled: %w", err)
			}
		}

		token, err := auth.Login(ctx, client, tokens, addr, code)
		if err == nil {
			return token, nil
		}
		if !errors.Is(err, models.ErrInvalidCode) {
			return models.SessionToken{}, err
		}

		fmt.Println(errorStyle.Render("Code rejected: ") + err.Error())
		code = ""
	}
}

func promptCode() (string, error) {
	fmt.Println()
	fmt.Println(titleStyle.Render("Pair with your Move"))

	var code string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Enter the 6-digit code shown on your Move").
				CharLimit(6).
				Value(&code).
				Validate(func(s string) error {
					if !common.IsChallengeCode(strings.TrimSpace(s)) {
						return fmt.Errorf("the code is 6 digits")
					}
					return nil
				}),
		),
	)

	if err := form.Run(); err != nil {
		return "", err
	}
	return strings.TrimSpace(code), nil
}

func init() {
	loginCmd.Flags().String("code", "", "The 6-digit code shown on the device (prompted when omitted)")

	// Add the commands to the root
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}
