// Package config provides configuration management for the cmekctl CLI.
//
// It implements the disciplined Viper pattern where Viper stays contained
// in this package and the rest of the codebase receives explicit Config structs.
// Configuration sources are resolved in this order: flags > env > config file > defaults.
package config

import (
	"fmt"
	"regexp"

	"github.com/spf13/viper"
)

// Retention limits enforced by Cloud Logging for log buckets.
const (
	MinRetentionDays = 1
	MaxRetentionDays = 3650
)

var (
	resourceNameRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]{0,99}$`)
	projectIDRe    = regexp.MustCompile(`^[a-z][a-z0-9-]{5,29}$`)
)

// Config is the explicit configuration struct
// This is what the rest of the codebase sees
type Config struct {
	// Scoping
	Organization  string
	Folder        string
	BucketProject string
	KMSProject    string

	// Log bucket
	BucketID      string
	Location      string
	RetentionDays int
	NoAnalytics   bool

	// KMS
	KeyRing       string
	KeyName       string
	AutoCreateKMS bool

	// Routing
	SinkName  string
	LogFilter string

	// Teardown behavior
	DeleteKMS bool
	Force     bool

	// Test project generation
	ProjectPrefix string
}

// Init initializes viper with defaults and config file paths
func Init() error {
	// Set config file name and type
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Add config file search paths
	viper.AddConfigPath("$HOME/.cmekctl")
	viper.AddConfigPath(".")

	// Set defaults
	viper.SetDefault("location", "us-central1")
	viper.SetDefault("bucket-id", "cmek-logs")
	viper.SetDefault("retention-days", 30)
	viper.SetDefault("no-analytics", false)
	viper.SetDefault("key-ring", "logging-keyring")
	viper.SetDefault("key-name", "logging-key")
	viper.SetDefault("auto-create-kms", false)
	viper.SetDefault("sink-name", "cmek-logging-sink")
	viper.SetDefault("log-filter", "severity>=ERROR")
	viper.SetDefault("delete-kms", false)
	viper.SetDefault("force", false)
	viper.SetDefault("project-prefix", "logtest")

	// Bind environment variables with prefix
	viper.SetEnvPrefix("CMEKCTL")
	viper.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return nil
}

// Resolve reads from all sources and returns the explicit Config without
// validating it. Inspection commands and commands that only consume a field
// or two use it directly; provisioning paths go through Load.
func Resolve() *Config {
	cfg := &Config{
		Organization:  viper.GetString("organization"),
		Folder:        viper.GetString("folder"),
		BucketProject: viper.GetString("bucket-project"),
		KMSProject:    viper.GetString("kms-project"),
		BucketID:      viper.GetString("bucket-id"),
		Location:      viper.GetString("location"),
		RetentionDays: viper.GetInt("retention-days"),
		NoAnalytics:   viper.GetBool("no-analytics"),
		KeyRing:       viper.GetString("key-ring"),
		KeyName:       viper.GetString("key-name"),
		AutoCreateKMS: viper.GetBool("auto-create-kms"),
		SinkName:      viper.GetString("sink-name"),
		LogFilter:     viper.GetString("log-filter"),
		DeleteKMS:     viper.GetBool("delete-kms"),
		Force:         viper.GetBool("force"),
		ProjectPrefix: viper.GetString("project-prefix"),
	}

	// The KMS key defaults to living next to the bucket
	if cfg.KMSProject == "" {
		cfg.KMSProject = cfg.BucketProject
	}

	return cfg
}

// Load reads from all sources and returns a validated Config
func Load() (*Config, error) {
	cfg := Resolve()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures config is sane
func (c *Config) Validate() error {
	if c.BucketProject == "" {
		return fmt.Errorf("missing required --bucket-project")
	}
	if !projectIDRe.MatchString(c.BucketProject) {
		return fmt.Errorf("invalid bucket project ID: %s", c.BucketProject)
	}
	if c.KMSProject != "" && !projectIDRe.MatchString(c.KMSProject) {
		return fmt.Errorf("invalid KMS project ID: %s", c.KMSProject)
	}

	if c.Location == "" {
		return fmt.Errorf("missing required --location")
	}

	if !resourceNameRe.MatchString(c.BucketID) {
		return fmt.Errorf("invalid bucket ID: %s", c.BucketID)
	}
	if !resourceNameRe.MatchString(c.KeyRing) {
		return fmt.Errorf("invalid key ring name: %s", c.KeyRing)
	}
	if !resourceNameRe.MatchString(c.KeyName) {
		return fmt.Errorf("invalid key name: %s", c.KeyName)
	}
	if !resourceNameRe.MatchString(c.SinkName) {
		return fmt.Errorf("invalid sink name: %s", c.SinkName)
	}

	if c.RetentionDays < MinRetentionDays || c.RetentionDays > MaxRetentionDays {
		return fmt.Errorf("invalid retention days: %d (must be %d-%d)",
			c.RetentionDays, MinRetentionDays, MaxRetentionDays)
	}

	if c.LogFilter == "" {
		return fmt.Errorf("missing required --log-filter")
	}

	return nil
}

// Display shows current config (for cmekctl config get). It deliberately
// skips validation so the resolved defaults are visible even before a
// bucket project is configured.
func Display() string {
	cfg := Resolve()

	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		configFile = "(not found)"
	}

	return fmt.Sprintf(`Configuration:
  bucket-project:     %s
  kms-project:        %s
  bucket-id:          %s
  location:           %s
  retention-days:     %d
  analytics:          %t
  key-ring:           %s
  key-name:           %s
  sink-name:          %s
  log-filter:         %s

Sources:
  Config file:        %s
  Environment:        CMEKCTL_*
  Flags:              (per command)
`,
		cfg.BucketProject,
		cfg.KMSProject,
		cfg.BucketID,
		cfg.Location,
		cfg.RetentionDays,
		!cfg.NoAnalytics,
		cfg.KeyRing,
		cfg.KeyName,
		cfg.SinkName,
		cfg.LogFilter,
		configFile,
	)
}
