package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/move-everything/installer/internal/installer"
	"github.com/move-everything/installer/internal/models"
	"github.com/move-everything/installer/internal/release"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Guided setup: find the Move, pair, install the core and pick modules",
	Args:  cobra.NoArgs,
	RunE:  runSetup,
}

// runSetup is the guided flow: find the device, pair, install or upgrade
// the core and then pick modules.
func runSetup(cmd *cobra.Command, args []string) error {

	ctx, cancel := commandContext()
	defer cancel()

	fmt.Println(titleStyle.Render("Move Everything installer"))

	session, err := connectDevice(ctx)
	if err != nil {
		return err
	}

	orchestrator := newOrchestrator(session.executor, nil)
	installation, err := orchestrator.InspectInstallation(ctx, session.addr())
	if err != nil {
		return err
	}

	client, err := newReleaseClient()
	if err != nil {
		return err
	}

	rel, err := client.LatestRelease(ctx)
	if err != nil {
		return err
	}

	plan := models.UpgradePlan{}
	if installation.Installed {
		installedIDs := make([]string, 0, len(installation.Modules))
		for _, module := range installation.Modules {
			installedIDs = append(installedIDs, module.ID)
		}
		modules, err := client.ResolveCatalog(ctx, installedIDs)
		if err != nil {
			return err
		}
		plan = installer.ComparePlan(installation, rel.Version, modules)
	}

	if !installation.Installed || plan.CoreUpgrade != nil {
		title := fmt.Sprintf("Install Move Everything %s?", rel.Version)
		if plan.CoreUpgrade != nil {
			title = fmt.Sprintf("Upgrade Move Everything %s → %s?", plan.CoreUpgrade.Current, plan.CoreUpgrade.Available)
		}
		ok, err := confirm(cmd, title, "The Move restarts its audio engine while installing.")
		if err != nil {
			return err
		}
		if !ok {
			if !installation.Installed {
				fmt.Println(mutedStyle.Render("Nothing installed"))
				return nil
			}
		} else {
			artifact, err := client.DownloadCore(ctx, rel, cfg.Release.CoreAssetName)
			if err != nil {
				return err
			}
			if err := installCore(ctx, cmd, session, artifact); err != nil {
				return err
			}
		}
	} else if len(installation.Core) > 0 {
		fmt.Println(successStyle.Render("Move Everything " + installation.Core + " is up to date"))
	}

	if skip, _ := cmd.Flags().GetBool("skip-modules"); skip {
		return nil
	}

	// A fresh install has no plan yet, so every catalog module is new
	if !installation.Installed {
		modules, err := client.ResolveCatalog(ctx, nil)
		if err != nil {
			return err
		}
		plan = installer.ComparePlan(models.Installation{Installed: true}, "", modules)
	}

	selected, err := selectModules(cmd, plan)
	if err != nil {
		return err
	}
	if len(selected) == 0 {
		fmt.Println(successStyle.Render("All done!"))
		return nil
	}

	return installSelected(ctx, cmd, session, client, selected)
}

// selectModules offers upgrades preselected and new modules unselected.
// With --yes only the upgrades are taken.
func selectModules(cmd *cobra.Command, plan models.UpgradePlan) ([]models.Module, error) {
	var upgrades []models.Module
	for _, status := range plan.UpgradableModules {
		upgrades = append(upgrades, status.Module)
	}

	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		return upgrades, nil
	}

	byID := map[string]models.Module{}
	var options []huh.Option[string]
	for _, status := range plan.UpgradableModules {
		byID[status.ID] = status.Module
		label := fmt.Sprintf("%s (upgrade %s → %s)", status.Name, status.CurrentVersion, status.Version)
		options = append(options, huh.NewOption(label, status.ID).Selected(true))
	}
	for _, module := range plan.NewModules {
		byID[module.ID] = module
		label := fmt.Sprintf("%s - %s", module.Name, module.Description)
		options = append(options, huh.NewOption(label, module.ID))
	}

	if len(options) == 0 {
		return nil, nil
	}

	var chosen []string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Which modules should be installed?").
				Description("Space to toggle, enter to confirm").
				Options(options...).
				Value(&chosen),
		),
	)
	if err := form.Run(); err != nil {
		return nil, err
	}

	selected := make([]models.Module, 0, len(chosen))
	for _, id := range chosen {
		selected = append(selected, byID[id])
	}
	return selected, nil
}

// installSelected installs every module and keeps going after a failure.
func installSelected(ctx context.Context, cmd *cobra.Command, session *deviceSession, client *release.Client, modules []models.Module) error {
	var errs []error
	for _, module := range modules {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}

		artifact, err := client.DownloadModule(ctx, module)
		if err == nil {
			_, err = installModule(ctx, cmd, session, module, artifact)
		}
		if err != nil {
			logrus.WithError(err).WithField("module", module.ID).Errorln("Module install failed")
			fmt.Println(errorStyle.Render(module.Name+" failed: ") + err.Error())
			errs = append(errs, fmt.Errorf("%s: %w", module.ID, err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	fmt.Println(successStyle.Render("All done!"))
	return nil
}

func init() {
	for _, cmd := range []*cobra.Command{rootCmd, setupCmd} {
		cmd.Flags().BoolP("yes", "y", false, "Install or upgrade without asking, new modules are skipped")
		cmd.Flags().Bool("skip-modules", false, "Only install the core package")
	}

	rootCmd.AddCommand(setupCmd)
}
