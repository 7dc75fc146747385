package cli

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/move-everything/installer/internal/installer"
	"github.com/move-everything/installer/internal/models"
	"github.com/move-everything/installer/internal/release"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install Move Everything or one of its modules",
}

var installCoreCmd = &cobra.Command{
	Use:   "core",
	Short: "Install or upgrade the Move Everything core package",
	Long: `Downloads the latest core release and installs it on the device. Use
--file to install a package you already have.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {

		ctx, cancel := commandContext()
		defer cancel()

		artifact, err := cmd.Flags().GetString("file")
		if err != nil {
			return err
		}

		// Validate before touching the network so a bad file fails fast
		if len(artifact) > 0 {
			if _, err := installer.ValidateArtifact(artifact); err != nil {
				return err
			}
		}

		session, err := connectDevice(ctx)
		if err != nil {
			return err
		}

		if len(artifact) == 0 {
			client, err := newReleaseClient()
			if err != nil {
				return err
			}
			artifact, _, err = downloadLatestCore(ctx, client)
			if err != nil {
				return err
			}
		}

		return installCore(ctx, cmd, session, artifact)
	},
}

var installModuleCmd = &cobra.Command{
	Use:   "module <id>",
	Short: "Install or upgrade a module from the catalog",
	Long: `Installs a module by its catalog id. Use --file with --type to install a
module package that is not in the catalog.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {

		ctx, cancel := commandContext()
		defer cancel()

		moduleID := args[0]
		artifact, _ := cmd.Flags().GetString("file")
		componentType, _ := cmd.Flags().GetString("type")

		module := models.Module{ID: moduleID, Name: moduleID, ComponentType: componentType}

		var client *release.Client
		if len(artifact) == 0 {
			var err error
			client, err = newReleaseClient()
			if err != nil {
				return err
			}
			modules, err := client.ResolveCatalog(ctx, nil)
			if err != nil {
				return err
			}
			found, ok := release.FindModule(modules, moduleID)
			if !ok {
				return models.NewError(models.KindNotFound, "module %s is not in the catalog", moduleID)
			}
			if len(componentType) > 0 {
				found.ComponentType = componentType
			}
			module = found
		} else if len(componentType) == 0 {
			return models.NewError(models.KindInvalidArgument, "--type is required with --file")
		}

		session, err := connectDevice(ctx)
		if err != nil {
			return err
		}

		if len(artifact) == 0 {
			fmt.Println(infoStyle.Render("Downloading " + module.Name + "..."))
			artifact, err = client.DownloadModule(ctx, module)
			if err != nil {
				return err
			}
		}

		_, err = installModule(ctx, cmd, session, module, artifact)
		return err
	},
}

// downloadLatestCore fetches the newest core package into the download
// directory.
func downloadLatestCore(ctx context.Context, client *release.Client) (string, models.Release, error) {
	rel, err := client.LatestRelease(ctx)
	if err != nil {
		return "", models.Release{}, err
	}

	fmt.Println(infoStyle.Render(fmt.Sprintf("Downloading Move Everything %s...", rel.Version)))

	path, err := client.DownloadCore(ctx, rel, cfg.Release.CoreAssetName)
	if err != nil {
		return "", models.Release{}, err
	}
	return path, rel, nil
}

func installCore(ctx context.Context, cmd *cobra.Command, session *deviceSession, artifact string) error {
	return runWithProgress(ctx, cmd, "Installing Move Everything", func(ctx context.Context, sink installer.ProgressFunc) error {
		orchestrator := newOrchestrator(session.executor, sink)
		return orchestrator.InstallCore(ctx, session.addr(), models.NewCoreJob(artifact))
	})
}

func installModule(ctx context.Context, cmd *cobra.Command, session *deviceSession, module models.Module, artifact string) (string, error) {
	if len(module.Requires) > 0 {
		logrus.WithFields(logrus.Fields{
			"module":   module.ID,
			"requires": module.Requires,
		}).Infoln("Module has external requirements")
		fmt.Println(warningStyle.Render("Note: ") + module.Name + " requires " + module.Requires)
	}

	var target string
	err := runWithProgress(ctx, cmd, "Installing "+module.Name, func(ctx context.Context, sink installer.ProgressFunc) error {
		orchestrator := newOrchestrator(session.executor, sink)
		var err error
		target, err = orchestrator.InstallModule(ctx, session.addr(),
			models.NewModuleJob(module.ID, module.ComponentType, artifact))
		return err
	})
	return target, err
}

func init() {
	installCoreCmd.Flags().String("file", "", "Install this core package instead of downloading the latest release")

	installModuleCmd.Flags().String("file", "", "Install this module package instead of downloading it")
	installModuleCmd.Flags().String("type", "", "Component type (sound_generator, audio_fx, midi_fx, utility, overtake)")

	installCmd.AddCommand(installCoreCmd)
	installCmd.AddCommand(installModuleCmd)

	rootCmd.AddCommand(installCmd)
}
