package provision

import (
	"context"
	"errors"
)

// ResourceState is the result of one existence probe.
type ResourceState struct {
	Kind   string
	Name   string
	Exists bool
	Err    error
}

// Status probes every resource in the stack without mutating anything.
func (p *Provisioner) Status(ctx context.Context, stack *Stack) ([]ResourceState, error) {
	if err := stack.Validate(); err != nil {
		return nil, err
	}

	var states []ResourceState

	ringExists, err := p.svc.KMS.KeyRingExists(ctx, stack.KeyRingResource())
	states = append(states, ResourceState{"KMS keyring", stack.KeyRingResource(), ringExists, err})

	keyExists := false
	if ringExists {
		keyExists, err = p.svc.KMS.KeyExists(ctx, stack.KeyResource())
	} else {
		err = nil
	}
	states = append(states, ResourceState{"KMS key", stack.KeyResource(), keyExists, err})

	bucket, err := p.svc.Logging.GetBucket(ctx, stack.BucketResource())
	states = append(states, ResourceState{"Log bucket", stack.BucketResource(), bucket != nil, err})

	sink, err := p.svc.Logging.GetSink(ctx, stack.SinkResource())
	states = append(states, ResourceState{"Log sink", stack.SinkResource(), sink != nil, err})

	exclusionExists := false
	exclusions, err := p.svc.Logging.DefaultSinkExclusions(ctx, stack.BucketProject)
	if errors.Is(err, ErrNotFound) {
		err = nil
	}
	for _, ex := range exclusions {
		if ex.Name == stack.ExclusionName() {
			exclusionExists = true
		}
	}
	states = append(states, ResourceState{"_Default exclusion", stack.ExclusionName(), exclusionExists, err})

	return states, nil
}
