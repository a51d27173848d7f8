package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/blackwell-systems/gcp-cmek-logging/internal/config"
	"github.com/blackwell-systems/gcp-cmek-logging/internal/gcp"
	"github.com/blackwell-systems/gcp-cmek-logging/internal/prompt"
	"github.com/blackwell-systems/gcp-cmek-logging/internal/provision"
)

var teardownCmd = &cobra.Command{
	Use:   "teardown",
	Short: "Tear down the CMEK logging stack",
	Long: `Remove the CMEK logging stack in reverse dependency order: the
_Default sink exclusion, the sink, the log bucket, then the key's IAM
grant. Resources that are already gone count as removed.

The KMS key is left untouched unless --delete-kms is given, in which
case its versions are scheduled for destruction (24h grace period).
The keyring itself can never be deleted and is always retained.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		desired := stackFromConfig(cfg)

		color.Cyan("Tearing down CMEK logging stack in %s...", desired.BucketProject)
		if cfg.DeleteKMS {
			color.Yellow("⚠ --delete-kms: key versions in %s will be scheduled for destruction", desired.KeyResource())
		}

		if !cfg.Force {
			if !prompt.New().Confirm("This removes the exclusion, sink and log bucket, including stored logs.") {
				color.Yellow("Aborted.")
				return nil
			}
		}

		svc, closeServices, err := gcp.NewServices(ctx)
		if err != nil {
			return err
		}
		defer closeServices()

		opts := provision.TeardownOptions{DeleteKMS: cfg.DeleteKMS}
		if err := provision.New(svc, newReporter()).Teardown(ctx, desired, opts); err != nil {
			color.Red("✗ Teardown failed: %v", err)
			return err
		}

		color.Green("✓ Teardown complete")
		return nil
	},
}

func init() {
	teardownCmd.Flags().Bool("delete-kms", false, "Schedule the key's versions for destruction")
	teardownCmd.Flags().Bool("force", false, "Skip the confirmation prompt")

	viper.BindPFlag("delete-kms", teardownCmd.Flags().Lookup("delete-kms"))
	viper.BindPFlag("force", teardownCmd.Flags().Lookup("force"))
}
