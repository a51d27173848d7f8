package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/gcp-cmek-logging/internal/config"
	"github.com/blackwell-systems/gcp-cmek-logging/internal/dashboard"
)

var dashboardsCmd = &cobra.Command{
	Use:   "dashboards",
	Short: "Manage Cloud Monitoring dashboards",
}

var dashboardsImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import dashboard templates into Cloud Monitoring",
	Long: `Import every JSON dashboard template in a directory. $PROJECT_ID and
$LOG_BUCKET_ID placeholders are substituted before import, and dashboards
whose display name already exists in the project are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg := config.Resolve()

		dir, _ := cmd.Flags().GetString("dir")
		projectID, _ := cmd.Flags().GetString("project")
		if projectID == "" {
			projectID = cfg.BucketProject
		}
		if projectID == "" {
			return fmt.Errorf("pass --project or --bucket-project")
		}

		api, err := dashboard.NewMonitoringAPI(ctx)
		if err != nil {
			return err
		}

		vars := dashboard.Vars{
			ProjectID:   projectID,
			LogBucketID: cfg.BucketID,
		}

		color.Cyan("Importing dashboards from %s into %s...", dir, projectID)

		created, err := dashboard.New(api, newReporter()).ImportDir(ctx, dir, vars)
		if err != nil {
			color.Red("✗ Dashboard import failed: %v", err)
			return err
		}

		color.Green("✓ Imported %d dashboard(s)", created)
		return nil
	},
}

func init() {
	dashboardsImportCmd.Flags().String("dir", "dashboards", "Directory containing *.json templates")
	dashboardsImportCmd.Flags().String("project", "", "Project to import into (defaults to --bucket-project)")

	dashboardsCmd.AddCommand(dashboardsImportCmd)
}
