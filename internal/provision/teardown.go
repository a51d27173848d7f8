package provision

import (
	"context"
	"errors"
	"fmt"
)

// TeardownOptions control optional teardown steps.
type TeardownOptions struct {
	// DeleteKMS schedules every destroyable key version for destruction.
	// The key resource and its keyring always survive; KMS does not allow
	// keyring deletion.
	DeleteKMS bool
}

// Teardown removes the stack in strict reverse-dependency order:
// exclusion → sink → bucket → key IAM binding → (optional) key versions.
// Every step treats an already-absent resource as success.
func (p *Provisioner) Teardown(ctx context.Context, stack *Stack, opts TeardownOptions) error {
	if err := stack.Validate(); err != nil {
		return err
	}

	if err := p.removeDefaultExclusion(ctx, stack); err != nil {
		return err
	}

	if err := p.removeSink(ctx, stack); err != nil {
		return err
	}

	if err := p.removeBucket(ctx, stack); err != nil {
		return err
	}

	if err := p.revokeKeyAccess(ctx, stack); err != nil {
		return err
	}

	if opts.DeleteKMS {
		if err := p.destroyKeyVersions(ctx, stack); err != nil {
			return err
		}
	} else {
		p.rep.Infof("KMS key %s left untouched (pass --delete-kms to destroy versions)", stack.KeyResource())
	}

	p.rep.Successf("Teardown complete")
	return nil
}

func (p *Provisioner) removeDefaultExclusion(ctx context.Context, stack *Stack) error {
	name := stack.ExclusionName()

	exclusions, err := p.svc.Logging.DefaultSinkExclusions(ctx, stack.BucketProject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			p.rep.Warnf("_Default sink not found (skipping exclusion removal)")
			return nil
		}
		return fmt.Errorf("failed to read _Default sink exclusions: %w", err)
	}

	kept := exclusions[:0]
	found := false
	for _, ex := range exclusions {
		if ex.Name == name {
			found = true
			continue
		}
		kept = append(kept, ex)
	}

	if !found {
		p.rep.Warnf("_Default sink exclusion %s not found (skipping)", name)
		return nil
	}

	if err := p.svc.Logging.SetDefaultSinkExclusions(ctx, stack.BucketProject, kept); err != nil {
		// Exclusion removal is best-effort; a sink deleted underneath us is
		// still a successful teardown.
		if errors.Is(err, ErrNotFound) {
			p.rep.Warnf("_Default sink disappeared during exclusion removal")
			return nil
		}
		return fmt.Errorf("failed to remove _Default sink exclusion %s: %w", name, err)
	}
	p.rep.Successf("_Default sink exclusion removed: %s", name)
	return nil
}

func (p *Provisioner) removeSink(ctx context.Context, stack *Stack) error {
	name := stack.SinkResource()

	err := p.svc.Logging.DeleteSink(ctx, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			p.rep.Warnf("Sink %s not found (skipping)", name)
			return nil
		}
		return fmt.Errorf("failed to delete sink %s: %w", name, err)
	}
	p.rep.Successf("Sink deleted: %s", name)
	return nil
}

func (p *Provisioner) removeBucket(ctx context.Context, stack *Stack) error {
	name := stack.BucketResource()

	err := p.svc.Logging.DeleteBucket(ctx, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			p.rep.Warnf("Log bucket %s not found (skipping)", name)
			return nil
		}
		return fmt.Errorf("failed to delete log bucket %s: %w", name, err)
	}
	p.rep.Successf("Log bucket deleted: %s", name)
	return nil
}

func (p *Provisioner) revokeKeyAccess(ctx context.Context, stack *Stack) error {
	sa, err := p.svc.Logging.ServiceAccount(ctx, stack.BucketProject)
	if err != nil || sa == "" {
		// Best-effort: the project (and with it the service account) may
		// already be gone.
		p.rep.Warnf("Could not resolve logging service account (skipping IAM revoke)")
		return nil
	}

	member := "serviceAccount:" + sa
	err = p.svc.KMS.RevokeEncrypterDecrypter(ctx, stack.KeyResource(), member)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			p.rep.Warnf("KMS key %s not found (skipping IAM revoke)", stack.KeyResource())
			return nil
		}
		return fmt.Errorf("failed to revoke key access for %s: %w", member, err)
	}
	p.rep.Successf("Revoked %s from %s", encrypterDecrypterRole, member)
	return nil
}

func (p *Provisioner) destroyKeyVersions(ctx context.Context, stack *Stack) error {
	keyName := stack.KeyResource()

	exists, err := p.svc.KMS.KeyExists(ctx, keyName)
	if err != nil {
		return fmt.Errorf("failed to probe key %s: %w", keyName, err)
	}
	if !exists {
		p.rep.Warnf("KMS key %s not found (skipping)", keyName)
		return nil
	}

	count, err := p.svc.KMS.DestroyKeyVersions(ctx, keyName)
	if err != nil {
		return fmt.Errorf("failed to destroy versions of %s: %w", keyName, err)
	}
	if count == 0 {
		p.rep.Warnf("No destroyable versions on %s", keyName)
	} else {
		p.rep.Successf("Scheduled %d key version(s) for destruction (24h grace period)", count)
	}
	p.rep.Infof("Keyring %s is retained; KMS keyrings cannot be deleted", stack.KeyRingResource())
	return nil
}
