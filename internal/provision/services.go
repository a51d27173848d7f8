package provision

import "context"

// LogBucket carries the log bucket attributes the reconciler manages.
type LogBucket struct {
	RetentionDays int
	Analytics     bool
	KMSKeyName    string
}

// Sink carries the log sink attributes the reconciler manages.
type Sink struct {
	Destination    string
	Filter         string
	WriterIdentity string
}

// Exclusion is an exclusion filter on the _Default sink.
type Exclusion struct {
	Name   string
	Filter string
}

// FolderService resolves and creates organization folders.
type FolderService interface {
	// Lookup returns the numeric folder ID ("folders/123") for a display
	// name under the given parent, or "" when no such folder exists.
	Lookup(ctx context.Context, parent, displayName string) (string, error)
	Create(ctx context.Context, parent, displayName string) (string, error)
}

// ProjectService manages test projects.
type ProjectService interface {
	Exists(ctx context.Context, projectID string) (bool, error)
	Create(ctx context.Context, projectID, displayName, parent string) error
	Delete(ctx context.Context, projectID string) error
}

// UsageService enables required APIs on a project.
type UsageService interface {
	// EnsureEnabled enables every listed service, waiting for enablement
	// operations to finish.
	EnsureEnabled(ctx context.Context, projectID string, services []string) error
}

// KMSService manages keyrings, keys and key IAM.
type KMSService interface {
	KeyRingExists(ctx context.Context, name string) (bool, error)
	CreateKeyRing(ctx context.Context, parent, id string) error
	KeyExists(ctx context.Context, name string) (bool, error)
	CreateKey(ctx context.Context, parent, id string) error
	// GrantEncrypterDecrypter gives member roles/cloudkms.cryptoKeyEncrypterDecrypter
	// on the key. Re-granting an existing binding is a no-op.
	GrantEncrypterDecrypter(ctx context.Context, keyName, member string) error
	RevokeEncrypterDecrypter(ctx context.Context, keyName, member string) error
	// DestroyKeyVersions schedules every destroyable version of the key for
	// destruction and reports how many were scheduled. The keyring and the
	// key resource itself always survive.
	DestroyKeyVersions(ctx context.Context, keyName string) (int, error)
}

// LoggingService manages log buckets, sinks and _Default sink exclusions.
type LoggingService interface {
	// ServiceAccount returns the Cloud Logging service account that must be
	// able to use the CMEK key. Freshly enabled projects may need retries
	// before the account materializes.
	ServiceAccount(ctx context.Context, projectID string) (string, error)

	GetBucket(ctx context.Context, name string) (*LogBucket, error)
	CreateBucket(ctx context.Context, parent, id string, bucket *LogBucket) error
	UpdateBucket(ctx context.Context, name string, bucket *LogBucket) error
	DeleteBucket(ctx context.Context, name string) error

	GetSink(ctx context.Context, name string) (*Sink, error)
	CreateSink(ctx context.Context, projectID string, name string, sink *Sink) (*Sink, error)
	UpdateSink(ctx context.Context, name string, sink *Sink) error
	DeleteSink(ctx context.Context, name string) error

	// DefaultSinkExclusions returns the exclusions currently attached to the
	// project's _Default sink.
	DefaultSinkExclusions(ctx context.Context, projectID string) ([]Exclusion, error)
	SetDefaultSinkExclusions(ctx context.Context, projectID string, exclusions []Exclusion) error
}

// Services bundles every external dependency of the reconciler.
type Services struct {
	Folders  FolderService
	Projects ProjectService
	Usage    UsageService
	KMS      KMSService
	Logging  LoggingService
}
