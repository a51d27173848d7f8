package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/gcp-cmek-logging/internal/config"
	"github.com/blackwell-systems/gcp-cmek-logging/internal/gcp"
	"github.com/blackwell-systems/gcp-cmek-logging/internal/provision"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which stack resources exist",
	Long: `Probe every resource of the CMEK logging stack and report whether it
exists. Probes are read-only; nothing is created or changed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		desired := stackFromConfig(cfg)

		svc, closeServices, err := gcp.NewServices(ctx)
		if err != nil {
			return err
		}
		defer closeServices()

		color.Cyan("CMEK logging stack in %s:", desired.BucketProject)

		states, err := provision.New(svc, newReporter()).Status(ctx, desired)
		if err != nil {
			return err
		}

		for _, st := range states {
			printResourceState(st)
		}
		return nil
	},
}

func printResourceState(st provision.ResourceState) {
	switch {
	case st.Err != nil:
		color.Yellow("  ⚠ %-10s %s (probe failed: %v)", st.Kind, st.Name, st.Err)
	case st.Exists:
		color.Green("  ✓ %-10s %s", st.Kind, st.Name)
	default:
		color.Red("  ✗ %-10s %s (missing)", st.Kind, st.Name)
	}
}
