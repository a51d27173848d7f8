package provision

import (
	"context"
	"fmt"

	"github.com/blackwell-systems/gcp-cmek-logging/internal/report"
	"github.com/blackwell-systems/gcp-cmek-logging/internal/retry"
)

// APIs that must be enabled before the stack can be provisioned.
var (
	kmsProjectAPIs    = []string{"cloudkms.googleapis.com"}
	bucketProjectAPIs = []string{"logging.googleapis.com", "serviceusage.googleapis.com"}
	testProjectAPIs   = []string{"logging.googleapis.com", "cloudkms.googleapis.com", "monitoring.googleapis.com"}
)

const encrypterDecrypterRole = "roles/cloudkms.cryptoKeyEncrypterDecrypter"

// Provisioner reconciles desired stacks against live GCP state.
type Provisioner struct {
	svc   Services
	rep   *report.Reporter
	retry retry.Policy
}

// New returns a Provisioner with the default propagation retry policy.
func New(svc Services, rep *report.Reporter) *Provisioner {
	return &Provisioner{svc: svc, rep: rep, retry: retry.Propagation}
}

// WithRetryPolicy overrides the propagation retry policy. Used by tests.
func (p *Provisioner) WithRetryPolicy(policy retry.Policy) *Provisioner {
	p.retry = policy
	return p
}

// Apply provisions every resource in the stack, creating what is absent and
// re-applying attributes to what exists. Running it twice with identical
// arguments performs no duplicate creations.
func (p *Provisioner) Apply(ctx context.Context, stack *Stack) error {
	if err := stack.Validate(); err != nil {
		return err
	}

	if stack.FolderName != "" {
		if _, err := p.EnsureFolder(ctx, stack.Organization, stack.FolderName); err != nil {
			return err
		}
	}

	if err := p.ensureAPIs(ctx, stack); err != nil {
		return err
	}

	if err := p.ensureKMS(ctx, stack); err != nil {
		return err
	}

	if err := p.ensureKeyAccess(ctx, stack); err != nil {
		return err
	}

	if err := p.ensureBucket(ctx, stack); err != nil {
		return err
	}

	if err := p.ensureSink(ctx, stack); err != nil {
		return err
	}

	if err := p.ensureDefaultExclusion(ctx, stack); err != nil {
		return err
	}

	p.rep.Successf("CMEK logging stack is ready")
	p.rep.Plainf("  Bucket: %s", stack.BucketResource())
	p.rep.Plainf("  Key:    %s", stack.KeyResource())
	p.rep.Plainf("  Sink:   %s", stack.SinkResource())
	return nil
}

// EnsureFolder resolves the folder by display name under the organization,
// creating it when absent. Returns the numeric folder resource name.
func (p *Provisioner) EnsureFolder(ctx context.Context, org, displayName string) (string, error) {
	parent := "organizations/" + org

	id, err := p.svc.Folders.Lookup(ctx, parent, displayName)
	if err != nil {
		return "", fmt.Errorf("failed to look up folder %q: %w", displayName, err)
	}
	if id != "" {
		p.rep.Successf("Folder %q exists (%s)", displayName, id)
		return id, nil
	}

	p.rep.Stepf("Creating folder %q under %s...", displayName, parent)
	id, err = p.svc.Folders.Create(ctx, parent, displayName)
	if err != nil {
		return "", fmt.Errorf("failed to create folder %q: %w", displayName, err)
	}
	p.rep.Successf("Folder %q created (%s)", displayName, id)
	return id, nil
}

// CreateTestProject creates a disposable project under parent with a
// generated ID and enables the APIs the logging stack needs.
func (p *Provisioner) CreateTestProject(ctx context.Context, parent, prefix string) (string, error) {
	projectID := GeneratedProjectID(prefix)

	exists, err := p.svc.Projects.Exists(ctx, projectID)
	if err != nil {
		return "", fmt.Errorf("failed to probe project %s: %w", projectID, err)
	}
	if exists {
		// Random suffix collision; one regeneration is plenty.
		projectID = GeneratedProjectID(prefix)
	}

	p.rep.Stepf("Creating project %s...", projectID)
	if err := p.svc.Projects.Create(ctx, projectID, projectID, parent); err != nil {
		return "", fmt.Errorf("failed to create project %s: %w", projectID, err)
	}

	p.rep.Stepf("Enabling APIs on %s...", projectID)
	err = retry.Do(ctx, p.retry, func() error {
		return p.svc.Usage.EnsureEnabled(ctx, projectID, testProjectAPIs)
	})
	if err != nil {
		return "", fmt.Errorf("failed to enable APIs on %s: %w", projectID, err)
	}

	p.rep.Successf("Project %s created", projectID)
	return projectID, nil
}

// DeleteTestProject deletes a test project, treating an already-absent
// project as success.
func (p *Provisioner) DeleteTestProject(ctx context.Context, projectID string) error {
	exists, err := p.svc.Projects.Exists(ctx, projectID)
	if err != nil {
		return fmt.Errorf("failed to probe project %s: %w", projectID, err)
	}
	if !exists {
		p.rep.Warnf("Project %s not found (skipping)", projectID)
		return nil
	}

	if err := p.svc.Projects.Delete(ctx, projectID); err != nil {
		return fmt.Errorf("failed to delete project %s: %w", projectID, err)
	}
	p.rep.Successf("Project %s scheduled for deletion", projectID)
	return nil
}

func (p *Provisioner) ensureAPIs(ctx context.Context, stack *Stack) error {
	p.rep.Stepf("Ensuring required APIs are enabled...")

	targets := []struct {
		project  string
		services []string
	}{
		{stack.KMSProject, kmsProjectAPIs},
		{stack.BucketProject, bucketProjectAPIs},
	}

	for _, t := range targets {
		t := t
		err := retry.Do(ctx, p.retry, func() error {
			return p.svc.Usage.EnsureEnabled(ctx, t.project, t.services)
		})
		if err != nil {
			return fmt.Errorf("failed to enable APIs on %s: %w", t.project, err)
		}
	}
	return nil
}

func (p *Provisioner) ensureKMS(ctx context.Context, stack *Stack) error {
	ringName := stack.KeyRingResource()
	keyName := stack.KeyResource()

	ringExists, err := p.svc.KMS.KeyRingExists(ctx, ringName)
	if err != nil {
		return fmt.Errorf("failed to probe keyring %s: %w", ringName, err)
	}
	keyExists := false
	if ringExists {
		keyExists, err = p.svc.KMS.KeyExists(ctx, keyName)
		if err != nil {
			return fmt.Errorf("failed to probe key %s: %w", keyName, err)
		}
	}

	if keyExists {
		p.rep.Successf("KMS key exists: %s", keyName)
		return nil
	}

	if !stack.AutoCreateKMS {
		return fmt.Errorf("KMS key %s does not exist; re-run with --auto-create-kms "+
			"or create it first:\n"+
			"  gcloud kms keyrings create %s --project %s --location %s\n"+
			"  gcloud kms keys create %s --project %s --location %s --keyring %s --purpose encryption",
			keyName,
			stack.KeyRing, stack.KMSProject, stack.keyLocation(),
			stack.KeyName, stack.KMSProject, stack.keyLocation(), stack.KeyRing)
	}

	if !ringExists {
		p.rep.Stepf("Creating keyring %s...", ringName)
		if err := p.svc.KMS.CreateKeyRing(ctx, stack.KeyRingParent(), stack.KeyRing); err != nil {
			return fmt.Errorf("failed to create keyring %s: %w", ringName, err)
		}
	}

	p.rep.Stepf("Creating key %s...", keyName)
	if err := p.svc.KMS.CreateKey(ctx, ringName, stack.KeyName); err != nil {
		return fmt.Errorf("failed to create key %s: %w", keyName, err)
	}
	p.rep.Successf("KMS key created: %s", keyName)
	return nil
}

func (p *Provisioner) ensureKeyAccess(ctx context.Context, stack *Stack) error {
	p.rep.Stepf("Resolving Cloud Logging service account for %s...", stack.BucketProject)

	// The account materializes some time after the Logging API is enabled.
	var sa string
	err := retry.Do(ctx, p.retry, func() error {
		var innerErr error
		sa, innerErr = p.svc.Logging.ServiceAccount(ctx, stack.BucketProject)
		if innerErr != nil {
			return innerErr
		}
		if sa == "" {
			return fmt.Errorf("logging service account not yet provisioned")
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to resolve logging service account: %w", err)
	}

	member := "serviceAccount:" + sa
	if err := p.svc.KMS.GrantEncrypterDecrypter(ctx, stack.KeyResource(), member); err != nil {
		return fmt.Errorf("failed to grant %s on %s to %s: %w",
			encrypterDecrypterRole, stack.KeyResource(), member, err)
	}
	p.rep.Successf("Granted %s to %s", encrypterDecrypterRole, member)
	return nil
}

func (p *Provisioner) ensureBucket(ctx context.Context, stack *Stack) error {
	name := stack.BucketResource()
	desired := &LogBucket{
		RetentionDays: stack.RetentionDays,
		Analytics:     stack.Analytics,
		KMSKeyName:    stack.KeyResource(),
	}

	current, err := p.svc.Logging.GetBucket(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to probe log bucket %s: %w", name, err)
	}

	if current == nil {
		p.rep.Stepf("Creating log bucket %s...", name)
		// The key grant can take a while to propagate; the API rejects the
		// bucket until the logging service account can use the key.
		err := retry.Do(ctx, p.retry, func() error {
			return p.svc.Logging.CreateBucket(ctx, stack.BucketParent(), stack.BucketID, desired)
		})
		if err != nil {
			return fmt.Errorf("failed to create log bucket %s: %w", name, err)
		}
		p.rep.Successf("Log bucket created: %s", name)
		return nil
	}

	if current.KMSKeyName != "" && current.KMSKeyName != desired.KMSKeyName {
		p.rep.Warnf("Log bucket %s is encrypted with %s, not %s; CMEK key cannot be changed here",
			name, current.KMSKeyName, desired.KMSKeyName)
	}

	if current.RetentionDays != desired.RetentionDays || current.Analytics != desired.Analytics {
		p.rep.Stepf("Updating log bucket %s...", name)
		if err := p.svc.Logging.UpdateBucket(ctx, name, desired); err != nil {
			return fmt.Errorf("failed to update log bucket %s: %w", name, err)
		}
		p.rep.Successf("Log bucket updated: %s", name)
		return nil
	}

	p.rep.Successf("Log bucket exists: %s", name)
	return nil
}

func (p *Provisioner) ensureSink(ctx context.Context, stack *Stack) error {
	name := stack.SinkResource()
	desired := &Sink{
		Destination: stack.BucketDestination(),
		Filter:      stack.LogFilter,
	}

	current, err := p.svc.Logging.GetSink(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to probe sink %s: %w", name, err)
	}

	if current == nil {
		p.rep.Stepf("Creating sink %s...", name)
		created, err := p.svc.Logging.CreateSink(ctx, stack.BucketProject, stack.SinkName, desired)
		if err != nil {
			return fmt.Errorf("failed to create sink %s: %w", name, err)
		}
		p.rep.Successf("Sink created: %s (writer %s)", name, created.WriterIdentity)
		return nil
	}

	if current.Destination != desired.Destination || current.Filter != desired.Filter {
		p.rep.Stepf("Updating sink %s...", name)
		if err := p.svc.Logging.UpdateSink(ctx, name, desired); err != nil {
			return fmt.Errorf("failed to update sink %s: %w", name, err)
		}
		p.rep.Successf("Sink updated: %s", name)
		return nil
	}

	p.rep.Successf("Sink exists: %s", name)
	return nil
}

func (p *Provisioner) ensureDefaultExclusion(ctx context.Context, stack *Stack) error {
	name := stack.ExclusionName()

	exclusions, err := p.svc.Logging.DefaultSinkExclusions(ctx, stack.BucketProject)
	if err != nil {
		return fmt.Errorf("failed to read _Default sink exclusions: %w", err)
	}

	for i, ex := range exclusions {
		if ex.Name != name {
			continue
		}
		if ex.Filter == stack.LogFilter {
			p.rep.Successf("_Default sink exclusion exists: %s", name)
			return nil
		}
		exclusions[i].Filter = stack.LogFilter
		if err := p.svc.Logging.SetDefaultSinkExclusions(ctx, stack.BucketProject, exclusions); err != nil {
			return fmt.Errorf("failed to update _Default sink exclusion %s: %w", name, err)
		}
		p.rep.Successf("_Default sink exclusion updated: %s", name)
		return nil
	}

	exclusions = append(exclusions, Exclusion{Name: name, Filter: stack.LogFilter})
	if err := p.svc.Logging.SetDefaultSinkExclusions(ctx, stack.BucketProject, exclusions); err != nil {
		return fmt.Errorf("failed to add _Default sink exclusion %s: %w", name, err)
	}
	p.rep.Successf("_Default sink exclusion added: %s", name)
	return nil
}
