// Package stack provides declarative stack file parsing and validation for
// cmekctl.
//
// A stack file describes the desired CMEK logging resource set (projects,
// KMS key, log bucket, sink and exclusion-relevant settings) as an
// alternative to passing everything as flags. The validator catches naming
// and cross-field errors before any API call is made.
//
// Supports both YAML (.yaml, .yml) and JSON (.json) stack files for maximum flexibility.
package stack

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/blackwell-systems/gcp-cmek-logging/internal/provision"
)

var nameRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]{0,99}$`)

// Stack represents the stack file structure
type Stack struct {
	Organization string `yaml:"organization,omitempty" json:"organization,omitempty"`
	Folder       string `yaml:"folder,omitempty" json:"folder,omitempty"`

	BucketProject string `yaml:"bucketProject" json:"bucketProject"`
	KMSProject    string `yaml:"kmsProject,omitempty" json:"kmsProject,omitempty"`

	Bucket Bucket `yaml:"bucket" json:"bucket"`
	KMS    KMS    `yaml:"kms" json:"kms"`
	Sink   Sink   `yaml:"sink" json:"sink"`
}

// Bucket describes the CMEK-encrypted log bucket
type Bucket struct {
	ID            string `yaml:"id" json:"id"`
	Location      string `yaml:"location" json:"location"`
	RetentionDays int    `yaml:"retentionDays" json:"retentionDays"`
	Analytics     *bool  `yaml:"analytics,omitempty" json:"analytics,omitempty"`
}

// KMS describes the keyring and key encrypting the bucket
type KMS struct {
	KeyRing    string `yaml:"keyRing" json:"keyRing"`
	KeyName    string `yaml:"keyName" json:"keyName"`
	Location   string `yaml:"location,omitempty" json:"location,omitempty"`
	AutoCreate bool   `yaml:"autoCreate,omitempty" json:"autoCreate,omitempty"`
}

// Sink describes the routing sink
type Sink struct {
	Name   string `yaml:"name" json:"name"`
	Filter string `yaml:"filter" json:"filter"`
}

// ValidationResult collects validation errors
type ValidationResult struct {
	Valid  bool
	Errors []string
}

func (r *ValidationResult) addError(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Load loads and parses a stack file (supports .yaml, .yml, and .json)
func Load(path string) (*Stack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read stack file: %w", err)
	}

	var stack Stack

	// Detect format by file extension
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, &stack); err != nil {
			return nil, fmt.Errorf("failed to parse stack JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &stack); err != nil {
			return nil, fmt.Errorf("failed to parse stack YAML: %w", err)
		}
	default:
		// Try YAML as fallback for backwards compatibility
		if err := yaml.Unmarshal(data, &stack); err != nil {
			return nil, fmt.Errorf("failed to parse stack (unknown extension %s, tried YAML): %w", ext, err)
		}
	}

	return &stack, nil
}

// Save saves a stack to file (format determined by file extension)
func Save(stack *Stack, path string) error {
	var data []byte
	var err error

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		data, err = json.MarshalIndent(stack, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal stack JSON: %w", err)
		}
	default:
		data, err = yaml.Marshal(stack)
		if err != nil {
			return fmt.Errorf("failed to marshal stack YAML: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write stack file: %w", err)
	}

	return nil
}

// Validate checks the stack for naming and cross-field errors
func (s *Stack) Validate() *ValidationResult {
	result := &ValidationResult{Valid: true}

	if s.BucketProject == "" {
		result.addError("bucketProject is required")
	}
	if s.Folder != "" && s.Organization == "" {
		result.addError("organization is required when folder is set")
	}

	if s.Bucket.ID == "" {
		result.addError("bucket.id is required")
	} else if !nameRe.MatchString(s.Bucket.ID) {
		result.addError("invalid bucket.id: %s", s.Bucket.ID)
	}
	if s.Bucket.Location == "" {
		result.addError("bucket.location is required")
	}
	if s.Bucket.RetentionDays < 1 || s.Bucket.RetentionDays > 3650 {
		result.addError("bucket.retentionDays must be 1-3650, got %d", s.Bucket.RetentionDays)
	}

	if s.KMS.KeyRing == "" || s.KMS.KeyName == "" {
		result.addError("kms.keyRing and kms.keyName are required")
	} else {
		if !nameRe.MatchString(s.KMS.KeyRing) {
			result.addError("invalid kms.keyRing: %s", s.KMS.KeyRing)
		}
		if !nameRe.MatchString(s.KMS.KeyName) {
			result.addError("invalid kms.keyName: %s", s.KMS.KeyName)
		}
	}
	if s.KMS.Location != "" && s.KMS.Location != s.Bucket.Location {
		result.addError("kms.location %q must match bucket.location %q", s.KMS.Location, s.Bucket.Location)
	}

	if s.Sink.Name == "" {
		result.addError("sink.name is required")
	} else if !nameRe.MatchString(s.Sink.Name) {
		result.addError("invalid sink.name: %s", s.Sink.Name)
	}
	if s.Sink.Filter == "" {
		result.addError("sink.filter is required")
	}

	return result
}

// ToProvision converts a validated stack file to the reconciler's stack.
func (s *Stack) ToProvision() *provision.Stack {
	analytics := true
	if s.Bucket.Analytics != nil {
		analytics = *s.Bucket.Analytics
	}

	kmsProject := s.KMSProject
	if kmsProject == "" {
		kmsProject = s.BucketProject
	}

	return &provision.Stack{
		Organization:  s.Organization,
		FolderName:    s.Folder,
		BucketProject: s.BucketProject,
		KMSProject:    kmsProject,
		BucketID:      s.Bucket.ID,
		Location:      s.Bucket.Location,
		RetentionDays: s.Bucket.RetentionDays,
		Analytics:     analytics,
		KeyRing:       s.KMS.KeyRing,
		KeyName:       s.KMS.KeyName,
		KeyLocation:   s.KMS.Location,
		AutoCreateKMS: s.KMS.AutoCreate,
		SinkName:      s.Sink.Name,
		LogFilter:     s.Sink.Filter,
	}
}
