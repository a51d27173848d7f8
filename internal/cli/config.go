package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/gcp-cmek-logging/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the resolved configuration",
}

var configGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the resolved configuration and its sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Print(config.Display())
		return nil
	},
}

func init() {
	configCmd.AddCommand(configGetCmd)
}
