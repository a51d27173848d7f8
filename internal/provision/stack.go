// Package provision implements the idempotent reconciliation engine behind
// cmekctl setup and teardown. It works against small service interfaces so
// the engine can be exercised without a live GCP project; the real
// implementations live in internal/gcp.
package provision

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by service implementations when the referenced
// resource does not exist. Teardown treats it as success.
var ErrNotFound = errors.New("resource not found")

// Stack describes the desired CMEK logging resource set for one invocation.
type Stack struct {
	// Optional folder scoping. Organization is the numeric org ID and is
	// required when FolderName is set.
	Organization string
	FolderName   string

	BucketProject string
	KMSProject    string

	BucketID      string
	Location      string
	RetentionDays int
	Analytics     bool

	KeyRing string
	KeyName string
	// KeyLocation defaults to Location when empty. Cloud Logging requires
	// the bucket and its CMEK key to live in the same location.
	KeyLocation   string
	AutoCreateKMS bool

	SinkName  string
	LogFilter string
}

// Validate checks cross-field invariants before any mutation happens.
func (s *Stack) Validate() error {
	if s.BucketProject == "" {
		return fmt.Errorf("stack: bucket project is required")
	}
	if s.KMSProject == "" {
		return fmt.Errorf("stack: KMS project is required")
	}
	if s.BucketID == "" || s.Location == "" {
		return fmt.Errorf("stack: bucket ID and location are required")
	}
	if s.KeyRing == "" || s.KeyName == "" {
		return fmt.Errorf("stack: key ring and key name are required")
	}
	if s.SinkName == "" || s.LogFilter == "" {
		return fmt.Errorf("stack: sink name and log filter are required")
	}
	if s.FolderName != "" && s.Organization == "" {
		return fmt.Errorf("stack: --organization is required when a folder is given")
	}
	if s.KeyLocation != "" && s.KeyLocation != s.Location {
		return fmt.Errorf("stack: log bucket location %q must match KMS key location %q",
			s.Location, s.KeyLocation)
	}
	return nil
}

func (s *Stack) keyLocation() string {
	if s.KeyLocation != "" {
		return s.KeyLocation
	}
	return s.Location
}

// KeyRingParent is the location resource the keyring is created under.
func (s *Stack) KeyRingParent() string {
	return fmt.Sprintf("projects/%s/locations/%s", s.KMSProject, s.keyLocation())
}

// KeyRingResource is the fully qualified keyring name.
func (s *Stack) KeyRingResource() string {
	return fmt.Sprintf("%s/keyRings/%s", s.KeyRingParent(), s.KeyRing)
}

// KeyResource is the fully qualified crypto key name.
func (s *Stack) KeyResource() string {
	return fmt.Sprintf("%s/cryptoKeys/%s", s.KeyRingResource(), s.KeyName)
}

// BucketParent is the location resource the log bucket is created under.
func (s *Stack) BucketParent() string {
	return fmt.Sprintf("projects/%s/locations/%s", s.BucketProject, s.Location)
}

// BucketResource is the fully qualified log bucket name.
func (s *Stack) BucketResource() string {
	return fmt.Sprintf("%s/buckets/%s", s.BucketParent(), s.BucketID)
}

// BucketDestination is the sink destination string for the log bucket.
func (s *Stack) BucketDestination() string {
	return "logging.googleapis.com/" + s.BucketResource()
}

// SinkResource is the fully qualified sink name.
func (s *Stack) SinkResource() string {
	return fmt.Sprintf("projects/%s/sinks/%s", s.BucketProject, s.SinkName)
}

// ExclusionName is the derived name of the _Default sink exclusion that
// prevents routed entries from being stored twice.
func (s *Stack) ExclusionName() string {
	return ExclusionName(s.SinkName)
}

// ExclusionName derives the _Default sink exclusion name for a sink.
func ExclusionName(sinkName string) string {
	return sinkName + "-exclusion"
}
