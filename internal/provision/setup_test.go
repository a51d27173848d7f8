package provision

import (
	"context"
	"strings"
	"testing"
)

func TestApplyCreatesFullStack(t *testing.T) {
	f := newFakeGCP()
	p := testProvisioner(f)
	stack := testStack()

	if err := p.Apply(context.Background(), stack); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	if !f.keyRings[stack.KeyRingResource()] {
		t.Errorf("keyring %s was not created", stack.KeyRingResource())
	}
	if !f.keys[stack.KeyResource()] {
		t.Errorf("key %s was not created", stack.KeyResource())
	}
	if f.buckets[stack.BucketResource()] == nil {
		t.Fatalf("bucket %s was not created", stack.BucketResource())
	}

	bucket := f.buckets[stack.BucketResource()]
	if bucket.RetentionDays != 30 || !bucket.Analytics {
		t.Errorf("bucket attributes = %+v, want retention 30 with analytics", bucket)
	}
	if bucket.KMSKeyName != stack.KeyResource() {
		t.Errorf("bucket key = %s, want %s", bucket.KMSKeyName, stack.KeyResource())
	}

	sink := f.sinks[stack.SinkResource()]
	if sink == nil {
		t.Fatalf("sink %s was not created", stack.SinkResource())
	}
	if sink.Destination != stack.BucketDestination() {
		t.Errorf("sink destination = %s, want %s", sink.Destination, stack.BucketDestination())
	}

	member := "serviceAccount:" + f.sa
	if !f.grants[stack.KeyResource()][member] {
		t.Errorf("logging service account was not granted key access")
	}

	exclusions := f.defaultEx[stack.BucketProject]
	if len(exclusions) != 1 || exclusions[0].Name != "cmek-logging-sink-exclusion" {
		t.Errorf("_Default exclusions = %+v, want single cmek-logging-sink-exclusion", exclusions)
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	f := newFakeGCP()
	p := testProvisioner(f)
	stack := testStack()

	if err := p.Apply(context.Background(), stack); err != nil {
		t.Fatalf("first Apply() error = %v", err)
	}
	before := f.mutations()

	if err := p.Apply(context.Background(), stack); err != nil {
		t.Fatalf("second Apply() error = %v", err)
	}

	if got := f.mutations(); got != before {
		t.Errorf("second Apply performed %d extra mutations: %v", got-before, f.ops[before:])
	}
	if len(f.defaultEx[stack.BucketProject]) != 1 {
		t.Errorf("exclusion was duplicated: %+v", f.defaultEx[stack.BucketProject])
	}
}

func TestApplyWithoutAutoCreateKMSFailsWithRemediation(t *testing.T) {
	f := newFakeGCP()
	p := testProvisioner(f)
	stack := testStack()
	stack.AutoCreateKMS = false

	err := p.Apply(context.Background(), stack)
	if err == nil {
		t.Fatal("Apply() expected error for missing key")
	}
	if !strings.Contains(err.Error(), "--auto-create-kms") {
		t.Errorf("error should point at --auto-create-kms, got: %v", err)
	}
	if f.mutations() > 0 {
		// API enablement happens first and is allowed; no KMS/bucket mutations
		for _, op := range f.ops {
			if strings.HasPrefix(op, "kms.") || strings.HasPrefix(op, "logging.") {
				t.Errorf("unexpected mutation after KMS failure: %s", op)
			}
		}
	}
}

func TestApplyRejectsLocationMismatch(t *testing.T) {
	f := newFakeGCP()
	p := testProvisioner(f)
	stack := testStack()
	stack.KeyLocation = "europe-west1"

	err := p.Apply(context.Background(), stack)
	if err == nil {
		t.Fatal("Apply() expected location mismatch error")
	}
	if f.mutations() != 0 {
		t.Errorf("validation failure must not mutate, got ops: %v", f.ops)
	}
}

func TestApplyUpdatesDriftedBucket(t *testing.T) {
	f := newFakeGCP()
	p := testProvisioner(f)
	stack := testStack()

	// Seed an existing bucket with drifted retention.
	f.keyRings[stack.KeyRingResource()] = true
	f.keys[stack.KeyResource()] = true
	f.buckets[stack.BucketResource()] = &LogBucket{
		RetentionDays: 7,
		Analytics:     true,
		KMSKeyName:    stack.KeyResource(),
	}

	if err := p.Apply(context.Background(), stack); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	if got := f.buckets[stack.BucketResource()].RetentionDays; got != 30 {
		t.Errorf("retention = %d, want 30", got)
	}
	for _, op := range f.ops {
		if op == "logging.createBucket cmek-logs" {
			t.Error("existing bucket must be updated, not recreated")
		}
	}
}

func TestApplyRetriesServiceAccountMaterialization(t *testing.T) {
	f := newFakeGCP()
	f.saMisses = 2 // account appears on the third probe
	p := testProvisioner(f)
	stack := testStack()

	if err := p.Apply(context.Background(), stack); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if f.saCalls < 3 {
		t.Errorf("expected at least 3 service account probes, got %d", f.saCalls)
	}
	if !f.grants[stack.KeyResource()]["serviceAccount:"+f.sa] {
		t.Error("grant missing after delayed service account materialization")
	}
}

func TestEnsureFolderReusesExisting(t *testing.T) {
	f := newFakeGCP()
	f.folders["organizations/123/logging-tests"] = "folders/555"
	p := testProvisioner(f)

	id, err := p.EnsureFolder(context.Background(), "123", "logging-tests")
	if err != nil {
		t.Fatalf("EnsureFolder() error = %v", err)
	}
	if id != "folders/555" {
		t.Errorf("folder ID = %s, want folders/555", id)
	}
	if f.mutations() != 0 {
		t.Errorf("existing folder must not be recreated, got ops: %v", f.ops)
	}
}

func TestCreateTestProject(t *testing.T) {
	f := newFakeGCP()
	p := testProvisioner(f)

	id, err := p.CreateTestProject(context.Background(), "folders/555", "myteam")
	if err != nil {
		t.Fatalf("CreateTestProject() error = %v", err)
	}
	if !f.projects[id] {
		t.Fatalf("project %s was not created", id)
	}
	if len(id) > 30 {
		t.Errorf("project ID %q exceeds 30 characters", id)
	}
	if !strings.HasPrefix(id, "myteam-cmek-") {
		t.Errorf("project ID %q should start with myteam-cmek-", id)
	}
	if len(f.enabled[id]) == 0 {
		t.Errorf("no APIs enabled on new project")
	}
}

func TestDeleteTestProjectAbsentIsSuccess(t *testing.T) {
	f := newFakeGCP()
	p := testProvisioner(f)

	if err := p.DeleteTestProject(context.Background(), "ghost-cmek-00000000"); err != nil {
		t.Errorf("DeleteTestProject() on absent project error = %v, want nil", err)
	}
	if f.mutations() != 0 {
		t.Errorf("absent project must not trigger mutations, got: %v", f.ops)
	}
}
