package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the cmekctl version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("cmekctl %s\n", rootCmd.Version)
	},
}
