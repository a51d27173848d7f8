package cli

import (
	"github.com/spf13/viper"
)

// Stack-identity flags are persistent so setup, teardown and status all
// accept the same set. Each key is bound to viper exactly once; binding
// the same key from multiple commands would leave only the last bind live.
func init() {
	pf := rootCmd.PersistentFlags()

	pf.String("organization", "", "Organization ID for folder operations")
	pf.String("folder", "", "Folder display name to create or reuse")
	pf.String("bucket-project", "", "Project hosting the log bucket and sink (required)")
	pf.String("kms-project", "", "Project hosting the KMS key (defaults to --bucket-project)")
	pf.String("bucket-id", "", "Log bucket ID")
	pf.String("location", "", "Location for the bucket and key")
	pf.Int("retention-days", 0, "Log bucket retention in days (1-3650)")
	pf.Bool("no-analytics", false, "Disable Log Analytics on the bucket")
	pf.String("key-ring", "", "KMS keyring name")
	pf.String("key-name", "", "KMS key name")
	pf.String("sink-name", "", "Log sink name")
	pf.String("log-filter", "", "Filter routing entries into the sink")

	viper.BindPFlag("organization", pf.Lookup("organization"))
	viper.BindPFlag("folder", pf.Lookup("folder"))
	viper.BindPFlag("bucket-project", pf.Lookup("bucket-project"))
	viper.BindPFlag("kms-project", pf.Lookup("kms-project"))
	viper.BindPFlag("bucket-id", pf.Lookup("bucket-id"))
	viper.BindPFlag("location", pf.Lookup("location"))
	viper.BindPFlag("retention-days", pf.Lookup("retention-days"))
	viper.BindPFlag("no-analytics", pf.Lookup("no-analytics"))
	viper.BindPFlag("key-ring", pf.Lookup("key-ring"))
	viper.BindPFlag("key-name", pf.Lookup("key-name"))
	viper.BindPFlag("sink-name", pf.Lookup("sink-name"))
	viper.BindPFlag("log-filter", pf.Lookup("log-filter"))
}
