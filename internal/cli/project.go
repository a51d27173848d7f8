package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/blackwell-systems/gcp-cmek-logging/internal/config"
	"github.com/blackwell-systems/gcp-cmek-logging/internal/gcp"
	"github.com/blackwell-systems/gcp-cmek-logging/internal/prompt"
	"github.com/blackwell-systems/gcp-cmek-logging/internal/provision"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage throwaway test projects",
}

var projectCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a test project with a generated ID",
	Long: `Create a test project under the configured organization or folder.
The project ID is generated as {prefix}-cmek-{8 hex chars} and the
Logging, KMS and Monitoring APIs are enabled on it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg := config.Resolve()
		org := cfg.Organization
		folder := cfg.Folder
		prefix := cfg.ProjectPrefix

		svc, closeServices, err := gcp.NewServices(ctx)
		if err != nil {
			return err
		}
		defer closeServices()

		p := provision.New(svc, newReporter())

		parent := ""
		if org != "" {
			parent = "organizations/" + org
		}
		if folder != "" {
			if org == "" {
				return fmt.Errorf("--organization is required when --folder is given")
			}
			folderName, err := p.EnsureFolder(ctx, org, folder)
			if err != nil {
				return err
			}
			parent = folderName
		}
		if parent == "" {
			return fmt.Errorf("pass --organization (and optionally --folder) to place the project")
		}

		projectID, err := p.CreateTestProject(ctx, parent, prefix)
		if err != nil {
			color.Red("✗ Failed to create test project: %v", err)
			return err
		}

		color.Green("✓ Test project ready: %s", projectID)
		color.Cyan("\nUse it with: cmekctl setup --bucket-project %s", projectID)
		return nil
	},
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete PROJECT_ID",
	Short: "Delete a test project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		projectID := args[0]

		force, _ := cmd.Flags().GetBool("force")
		if !force {
			if !prompt.New().Confirm(fmt.Sprintf("Project %s will be scheduled for deletion.", projectID)) {
				color.Yellow("Aborted.")
				return nil
			}
		}

		svc, closeServices, err := gcp.NewServices(ctx)
		if err != nil {
			return err
		}
		defer closeServices()

		if err := provision.New(svc, newReporter()).DeleteTestProject(ctx, projectID); err != nil {
			color.Red("✗ Failed to delete project: %v", err)
			return err
		}

		color.Green("✓ Project %s deleted", projectID)
		return nil
	},
}

func init() {
	projectCreateCmd.Flags().String("prefix", "", "Project ID prefix (default \"logtest\")")
	viper.BindPFlag("project-prefix", projectCreateCmd.Flags().Lookup("prefix"))

	// Not bound to viper: teardown owns the "force" key.
	projectDeleteCmd.Flags().Bool("force", false, "Skip the confirmation prompt")

	projectCmd.AddCommand(projectCreateCmd)
	projectCmd.AddCommand(projectDeleteCmd)
}
