// Package cli defines the cmekctl command tree. Commands stay thin: they
// load configuration, build the GCP service clients, and hand off to the
// provisioning engine.
package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/gcp-cmek-logging/internal/config"
	"github.com/blackwell-systems/gcp-cmek-logging/internal/provision"
	"github.com/blackwell-systems/gcp-cmek-logging/internal/report"
)

var rootCmd = &cobra.Command{
	Use:   "cmekctl",
	Short: "Provision CMEK-encrypted Cloud Logging stacks",
	Long: `cmekctl provisions and tears down CMEK-encrypted Cloud Logging
environments: KMS keyrings and keys, encrypted log buckets, log sinks,
_Default sink exclusions, test projects and monitoring dashboards.

All mutating commands are idempotent and safe to re-run.`,
	SilenceUsage: true,
}

// Execute runs the root command with the build version.
func Execute(version string) error {
	rootCmd.Version = version

	err := rootCmd.Execute()
	if err != nil {
		color.Red("✗ %v", err)
	}
	return err
}

func init() {
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(teardownCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(dashboardsCmd)
	rootCmd.AddCommand(errlogsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// stackFromConfig maps the resolved CLI configuration onto the reconciler's
// desired-state struct.
func stackFromConfig(cfg *config.Config) *provision.Stack {
	return &provision.Stack{
		Organization:  cfg.Organization,
		FolderName:    cfg.Folder,
		BucketProject: cfg.BucketProject,
		KMSProject:    cfg.KMSProject,
		BucketID:      cfg.BucketID,
		Location:      cfg.Location,
		RetentionDays: cfg.RetentionDays,
		Analytics:     !cfg.NoAnalytics,
		KeyRing:       cfg.KeyRing,
		KeyName:       cfg.KeyName,
		AutoCreateKMS: cfg.AutoCreateKMS,
		SinkName:      cfg.SinkName,
		LogFilter:     cfg.LogFilter,
	}
}

func newReporter() *report.Reporter {
	return report.New()
}
