package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/move-everything/installer/internal/models"
)

type statusReport struct {
	Device       models.DeviceHandle `json:"device"`
	Installation models.Installation `json:"installation"`
	LatestCore   string              `json:"latest_core,omitempty"`
	Plan         *models.UpgradePlan `json:"plan,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what is installed on the device and what can be upgraded",
	RunE: func(cmd *cobra.Command, args []string) error {

		ctx, cancel := commandContext()
		defer cancel()

		session, err := connectDevice(ctx)
		if err != nil {
			return err
		}

		orchestrator := newOrchestrator(session.executor, nil)
		installation, err := orchestrator.InspectInstallation(ctx, session.addr())
		if err != nil {
			return err
		}

		report := statusReport{
			Device:       session.device,
			Installation: installation,
		}

		offline, _ := cmd.Flags().GetBool("offline")
		if !offline {
			plan, latest, err := fetchPlan(ctx, installation)
			if err != nil {
				// The device state is still worth showing without the catalog
				logrus.WithError(err).Warnln("Failed to check for updates")
			} else {
				report.Plan = &plan
				report.LatestCore = latest
			}
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(report)
		}

		fmt.Print(renderStatus(report))
		return nil
	},
}

func renderStatus(report statusReport) string {
	var content strings.Builder

	content.WriteString(titleStyle.Render("Move Everything status"))
	content.WriteString("\n")

	content.WriteString(labelStyle.Render("Device"))
	content.WriteString(fmt.Sprintf("%s (%s)\n", report.Device.Hostname, report.Device.Address))

	content.WriteString(labelStyle.Render("Core"))
	switch {
	case !report.Installation.Installed:
		content.WriteString(mutedStyle.Render("not installed"))
	case len(report.Installation.Core) == 0:
		content.WriteString(mutedStyle.Render("installed (unknown version)"))
	default:
		content.WriteString(report.Installation.Core)
	}
	if report.Plan != nil && report.Plan.CoreUpgrade != nil {
		content.WriteString(" ")
		content.WriteString(upgradeBadgeStyle.Render("UPGRADE " + report.Plan.CoreUpgrade.Available))
	} else if report.Installation.Installed && len(report.LatestCore) > 0 {
		content.WriteString(" ")
		content.WriteString(currentBadgeStyle.Render("CURRENT"))
	}
	content.WriteString("\n\n")

	if report.Plan == nil {
		content.WriteString(headerStyle.Render("Modules"))
		content.WriteString("\n")
		if len(report.Installation.Modules) == 0 {
			content.WriteString(mutedStyle.Render("  none installed"))
			content.WriteString("\n")
		}
		for _, module := range report.Installation.Modules {
			content.WriteString(fmt.Sprintf("  %s %s\n", module.Name, mutedStyle.Render(module.Version)))
		}
		return content.String()
	}

	plan := report.Plan

	if len(plan.UpgradableModules) > 0 {
		content.WriteString(headerStyle.Render("Upgrades available"))
		content.WriteString("\n")
		for _, module := range plan.UpgradableModules {
			content.WriteString(fmt.Sprintf("  %s %s → %s %s\n",
				module.Name, mutedStyle.Render(module.CurrentVersion), module.Version,
				upgradeBadgeStyle.Render("UPGRADE")))
		}
		content.WriteString("\n")
	}

	if len(plan.UpToDateModules) > 0 {
		content.WriteString(headerStyle.Render("Up to date"))
		content.WriteString("\n")
		for _, module := range plan.UpToDateModules {
			content.WriteString(fmt.Sprintf("  %s %s %s\n",
				module.Name, mutedStyle.Render(module.CurrentVersion), currentBadgeStyle.Render("CURRENT")))
		}
		content.WriteString("\n")
	}

	if len(plan.NewModules) > 0 {
		content.WriteString(headerStyle.Render("Not installed"))
		content.WriteString("\n")
		for _, module := range plan.NewModules {
			content.WriteString(fmt.Sprintf("  %s %s %s\n",
				module.Name, newBadgeStyle.Render("NEW"), mutedStyle.Render(module.Description)))
		}
		content.WriteString("\n")
	}

	return content.String()
}

func init() {
	statusCmd.Flags().Bool("json", false, "Print the status as JSON")
	statusCmd.Flags().Bool("offline", false, "Only inspect the device, do not check for updates")

	rootCmd.AddCommand(statusCmd)
}
