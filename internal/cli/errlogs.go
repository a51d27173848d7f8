package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/gcp-cmek-logging/internal/config"
	"github.com/blackwell-systems/gcp-cmek-logging/internal/errlogs"
)

var errlogsCmd = &cobra.Command{
	Use:   "errlogs",
	Short: "Generate synthetic error logs",
}

var errlogsGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write synthetic error entries to Cloud Logging",
	Long: `Write synthetic ERROR-severity entries in the Error Reporting
ReportedErrorEvent format. Useful for verifying that the sink routes
matching entries into the CMEK bucket and that the exclusion keeps them
out of the _Default bucket.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		projectID, _ := cmd.Flags().GetString("project")
		count, _ := cmd.Flags().GetInt("count")
		prefix, _ := cmd.Flags().GetString("prefix")

		if count < 1 {
			return fmt.Errorf("--count must be at least 1, got %d", count)
		}

		return errlogs.Run(ctx, projectID, config.Resolve().BucketProject, count, prefix, newReporter())
	},
}

func init() {
	errlogsGenerateCmd.Flags().String("project", "", "Project to write into (defaults to GOOGLE_CLOUD_PROJECT, then bucket-project)")
	errlogsGenerateCmd.Flags().Int("count", 5, "Number of error entries to write")
	errlogsGenerateCmd.Flags().String("prefix", "", "Marker line prepended to every error message")

	errlogsCmd.AddCommand(errlogsGenerateCmd)
}
