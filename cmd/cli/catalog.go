package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/move-everything/installer/internal/installer"
	"github.com/move-everything/installer/internal/models"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the modules available for installation",
	RunE: func(cmd *cobra.Command, args []string) error {

		ctx, cancel := commandContext()
		defer cancel()

		client, err := newReleaseClient()
		if err != nil {
			return err
		}

		catalog, err := client.FetchCatalog(ctx)
		if err != nil {
			return err
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(catalog)
		}

		fmt.Println(titleStyle.Render(fmt.Sprintf("%d modules available", len(catalog.Modules))))
		for _, module := range catalog.Modules {
			fmt.Printf("%s %s %s\n", labelStyle.Render(module.ID), module.Name,
				mutedStyle.Render(fmt.Sprintf("[%s] by %s", module.ComponentType, module.Author)))
			if len(module.Description) > 0 {
				fmt.Printf("%s %s\n", labelStyle.Render(""), mutedStyle.Render(module.Description))
			}
		}
		return nil
	},
}

// fetchPlan compares the device against the latest core release and the
// module catalog. It returns the latest core version alongside the plan.
func fetchPlan(ctx context.Context, installation models.Installation) (models.UpgradePlan, string, error) {
	client, err := newReleaseClient()
	if err != nil {
		return models.UpgradePlan{}, "", err
	}

	rel, err := client.LatestRelease(ctx)
	if err != nil {
		return models.UpgradePlan{}, "", err
	}

	installedIDs := make([]string, 0, len(installation.Modules))
	for _, module := range installation.Modules {
		installedIDs = append(installedIDs, module.ID)
	}

	modules, err := client.ResolveCatalog(ctx, installedIDs)
	if err != nil {
		return models.UpgradePlan{}, "", err
	}

	return installer.ComparePlan(installation, rel.Version, modules), rel.Version, nil
}

func init() {
	catalogCmd.Flags().Bool("json", false, "Print the catalog as JSON")

	rootCmd.AddCommand(catalogCmd)
}
