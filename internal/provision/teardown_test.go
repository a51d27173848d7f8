package provision

import (
	"context"
	"strings"
	"testing"
)

func seedFullStack(f *fakeGCP, stack *Stack) {
	f.keyRings[stack.KeyRingResource()] = true
	f.keys[stack.KeyResource()] = true
	f.keyVersions[stack.KeyResource()] = 2
	f.grants[stack.KeyResource()] = map[string]bool{"serviceAccount:" + f.sa: true}
	f.buckets[stack.BucketResource()] = &LogBucket{
		RetentionDays: 30,
		Analytics:     true,
		KMSKeyName:    stack.KeyResource(),
	}
	f.sinks[stack.SinkResource()] = &Sink{
		Destination: stack.BucketDestination(),
		Filter:      stack.LogFilter,
	}
	f.defaultEx[stack.BucketProject] = []Exclusion{
		{Name: stack.ExclusionName(), Filter: stack.LogFilter},
	}
}

func TestTeardownRemovesEverythingInOrder(t *testing.T) {
	f := newFakeGCP()
	stack := testStack()
	seedFullStack(f, stack)
	p := testProvisioner(f)

	if err := p.Teardown(context.Background(), stack, TeardownOptions{DeleteKMS: true}); err != nil {
		t.Fatalf("Teardown() error = %v", err)
	}

	if len(f.defaultEx[stack.BucketProject]) != 0 {
		t.Errorf("exclusion survived teardown: %+v", f.defaultEx[stack.BucketProject])
	}
	if f.sinks[stack.SinkResource()] != nil {
		t.Error("sink survived teardown")
	}
	if f.buckets[stack.BucketResource()] != nil {
		t.Error("bucket survived teardown")
	}
	if len(f.grants[stack.KeyResource()]) != 0 {
		t.Error("key IAM binding survived teardown")
	}
	if f.keyVersions[stack.KeyResource()] != 0 {
		t.Error("key versions were not scheduled for destruction")
	}

	// Keyring and key resources always survive.
	if !f.keyRings[stack.KeyRingResource()] {
		t.Error("keyring must never be deleted")
	}
	if !f.keys[stack.KeyResource()] {
		t.Error("key resource must survive version destruction")
	}

	// Strict reverse-dependency order.
	var order []string
	for _, op := range f.ops {
		switch {
		case strings.HasPrefix(op, "logging.setDefaultExclusions"):
			order = append(order, "exclusion")
		case strings.HasPrefix(op, "logging.deleteSink"):
			order = append(order, "sink")
		case strings.HasPrefix(op, "logging.deleteBucket"):
			order = append(order, "bucket")
		case strings.HasPrefix(op, "kms.revoke"):
			order = append(order, "iam")
		case strings.HasPrefix(op, "kms.destroyVersions"):
			order = append(order, "versions")
		}
	}
	want := []string{"exclusion", "sink", "bucket", "iam", "versions"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Errorf("teardown order = %v, want %v", order, want)
	}
}

func TestTeardownOnAbsentResourcesSucceeds(t *testing.T) {
	f := newFakeGCP()
	p := testProvisioner(f)

	if err := p.Teardown(context.Background(), testStack(), TeardownOptions{}); err != nil {
		t.Errorf("Teardown() on empty state error = %v, want nil", err)
	}
	for _, op := range f.ops {
		if strings.HasPrefix(op, "logging.delete") || strings.HasPrefix(op, "kms.") {
			t.Errorf("unexpected mutation on empty state: %s", op)
		}
	}
}

func TestTeardownWithoutDeleteKMSLeavesKey(t *testing.T) {
	f := newFakeGCP()
	stack := testStack()
	seedFullStack(f, stack)
	p := testProvisioner(f)

	if err := p.Teardown(context.Background(), stack, TeardownOptions{}); err != nil {
		t.Fatalf("Teardown() error = %v", err)
	}

	if f.keyVersions[stack.KeyResource()] != 2 {
		t.Error("key versions must be untouched without --delete-kms")
	}
	if !f.keys[stack.KeyResource()] || !f.keyRings[stack.KeyRingResource()] {
		t.Error("key and keyring must be untouched without --delete-kms")
	}
}

func TestTeardownToleratesMissingDefaultSink(t *testing.T) {
	f := newFakeGCP()
	stack := testStack()
	seedFullStack(f, stack)
	f.noDefault = true
	p := testProvisioner(f)

	if err := p.Teardown(context.Background(), stack, TeardownOptions{}); err != nil {
		t.Errorf("Teardown() error = %v, want nil when _Default sink is gone", err)
	}
	if f.sinks[stack.SinkResource()] != nil {
		t.Error("sink removal must proceed past the missing _Default sink")
	}
}
