package provision

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/blackwell-systems/gcp-cmek-logging/internal/report"
	"github.com/blackwell-systems/gcp-cmek-logging/internal/retry"
)

// fakeGCP implements every provision service interface in memory and records
// mutations in order, so tests can assert idempotency and teardown ordering.
type fakeGCP struct {
	folders  map[string]string // "parent/displayName" -> folder ID
	projects map[string]bool
	enabled  map[string][]string

	keyRings    map[string]bool
	keys        map[string]bool
	grants      map[string]map[string]bool // key -> member set
	keyVersions map[string]int

	sa        string
	saMisses  int // number of ServiceAccount calls that return empty first
	saErr     error
	saCalls   int
	buckets   map[string]*LogBucket
	sinks     map[string]*Sink
	defaultEx map[string][]Exclusion
	noDefault bool // simulate a missing _Default sink

	ops []string // mutation log
}

func newFakeGCP() *fakeGCP {
	return &fakeGCP{
		folders:     map[string]string{},
		projects:    map[string]bool{},
		enabled:     map[string][]string{},
		keyRings:    map[string]bool{},
		keys:        map[string]bool{},
		grants:      map[string]map[string]bool{},
		keyVersions: map[string]int{},
		sa:          "service-123@gcp-sa-logging.iam.gserviceaccount.com",
		buckets:     map[string]*LogBucket{},
		sinks:       map[string]*Sink{},
		defaultEx:   map[string][]Exclusion{},
	}
}

func (f *fakeGCP) services() Services {
	return Services{Folders: &fakeFolders{f}, Projects: f, Usage: f, KMS: f, Logging: f}
}

func (f *fakeGCP) record(format string, args ...interface{}) {
	f.ops = append(f.ops, fmt.Sprintf(format, args...))
}

// mutations returns the count of recorded mutating operations.
func (f *fakeGCP) mutations() int { return len(f.ops) }

// --- FolderService ---

// fakeFolders wraps fakeGCP because FolderService.Create and
// ProjectService.Create share a name with different shapes.
type fakeFolders struct{ f *fakeGCP }

func (w *fakeFolders) Lookup(ctx context.Context, parent, displayName string) (string, error) {
	return w.f.folders[parent+"/"+displayName], nil
}

func (w *fakeFolders) Create(ctx context.Context, parent, displayName string) (string, error) {
	id := fmt.Sprintf("folders/%d", 1000+len(w.f.folders))
	w.f.folders[parent+"/"+displayName] = id
	w.f.record("folder.create %s", displayName)
	return id, nil
}

// --- ProjectService ---

func (f *fakeGCP) Exists(ctx context.Context, projectID string) (bool, error) {
	return f.projects[projectID], nil
}

func (f *fakeGCP) Create(ctx context.Context, projectID, displayName, parent string) error {
	f.projects[projectID] = true
	f.record("project.create %s", projectID)
	return nil
}

func (f *fakeGCP) Delete(ctx context.Context, projectID string) error {
	delete(f.projects, projectID)
	f.record("project.delete %s", projectID)
	return nil
}

// --- UsageService ---

func (f *fakeGCP) EnsureEnabled(ctx context.Context, projectID string, services []string) error {
	f.enabled[projectID] = append(f.enabled[projectID], services...)
	return nil
}

// --- KMSService ---

func (f *fakeGCP) KeyRingExists(ctx context.Context, name string) (bool, error) {
	return f.keyRings[name], nil
}

func (f *fakeGCP) CreateKeyRing(ctx context.Context, parent, id string) error {
	f.keyRings[parent+"/keyRings/"+id] = true
	f.record("kms.createKeyRing %s", id)
	return nil
}

func (f *fakeGCP) KeyExists(ctx context.Context, name string) (bool, error) {
	return f.keys[name], nil
}

func (f *fakeGCP) CreateKey(ctx context.Context, parent, id string) error {
	f.keys[parent+"/cryptoKeys/"+id] = true
	f.keyVersions[parent+"/cryptoKeys/"+id] = 1
	f.record("kms.createKey %s", id)
	return nil
}

func (f *fakeGCP) GrantEncrypterDecrypter(ctx context.Context, keyName, member string) error {
	if !f.keys[keyName] {
		return ErrNotFound
	}
	if f.grants[keyName] == nil {
		f.grants[keyName] = map[string]bool{}
	}
	if !f.grants[keyName][member] {
		f.grants[keyName][member] = true
		f.record("kms.grant %s", member)
	}
	return nil
}

func (f *fakeGCP) RevokeEncrypterDecrypter(ctx context.Context, keyName, member string) error {
	if !f.keys[keyName] {
		return ErrNotFound
	}
	if f.grants[keyName][member] {
		delete(f.grants[keyName], member)
		f.record("kms.revoke %s", member)
	}
	return nil
}

func (f *fakeGCP) DestroyKeyVersions(ctx context.Context, keyName string) (int, error) {
	if !f.keys[keyName] {
		return 0, ErrNotFound
	}
	n := f.keyVersions[keyName]
	f.keyVersions[keyName] = 0
	if n > 0 {
		f.record("kms.destroyVersions %s", keyName)
	}
	return n, nil
}

// --- LoggingService ---

func (f *fakeGCP) ServiceAccount(ctx context.Context, projectID string) (string, error) {
	f.saCalls++
	if f.saErr != nil {
		return "", f.saErr
	}
	if f.saCalls <= f.saMisses {
		return "", nil
	}
	return f.sa, nil
}

func (f *fakeGCP) GetBucket(ctx context.Context, name string) (*LogBucket, error) {
	b, ok := f.buckets[name]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (f *fakeGCP) CreateBucket(ctx context.Context, parent, id string, bucket *LogBucket) error {
	cp := *bucket
	f.buckets[parent+"/buckets/"+id] = &cp
	f.record("logging.createBucket %s", id)
	return nil
}

func (f *fakeGCP) UpdateBucket(ctx context.Context, name string, bucket *LogBucket) error {
	cur, ok := f.buckets[name]
	if !ok {
		return ErrNotFound
	}
	cur.RetentionDays = bucket.RetentionDays
	cur.Analytics = bucket.Analytics
	f.record("logging.updateBucket %s", name)
	return nil
}

func (f *fakeGCP) DeleteBucket(ctx context.Context, name string) error {
	if _, ok := f.buckets[name]; !ok {
		return ErrNotFound
	}
	delete(f.buckets, name)
	f.record("logging.deleteBucket %s", name)
	return nil
}

func (f *fakeGCP) GetSink(ctx context.Context, name string) (*Sink, error) {
	s, ok := f.sinks[name]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (f *fakeGCP) CreateSink(ctx context.Context, projectID, name string, sink *Sink) (*Sink, error) {
	cp := *sink
	cp.WriterIdentity = "serviceAccount:sink-writer@gcp-sa-logging.iam.gserviceaccount.com"
	f.sinks[fmt.Sprintf("projects/%s/sinks/%s", projectID, name)] = &cp
	f.record("logging.createSink %s", name)
	return &cp, nil
}

func (f *fakeGCP) UpdateSink(ctx context.Context, name string, sink *Sink) error {
	cur, ok := f.sinks[name]
	if !ok {
		return ErrNotFound
	}
	cur.Destination = sink.Destination
	cur.Filter = sink.Filter
	f.record("logging.updateSink %s", name)
	return nil
}

func (f *fakeGCP) DeleteSink(ctx context.Context, name string) error {
	if _, ok := f.sinks[name]; !ok {
		return ErrNotFound
	}
	delete(f.sinks, name)
	f.record("logging.deleteSink %s", name)
	return nil
}

func (f *fakeGCP) DefaultSinkExclusions(ctx context.Context, projectID string) ([]Exclusion, error) {
	if f.noDefault {
		return nil, ErrNotFound
	}
	return append([]Exclusion(nil), f.defaultEx[projectID]...), nil
}

func (f *fakeGCP) SetDefaultSinkExclusions(ctx context.Context, projectID string, exclusions []Exclusion) error {
	if f.noDefault {
		return ErrNotFound
	}
	f.defaultEx[projectID] = append([]Exclusion(nil), exclusions...)
	f.record("logging.setDefaultExclusions %d", len(exclusions))
	return nil
}

// --- helpers ---

func testStack() *Stack {
	return &Stack{
		BucketProject: "bucket-proj",
		KMSProject:    "kms-proj",
		BucketID:      "cmek-logs",
		Location:      "us-central1",
		RetentionDays: 30,
		Analytics:     true,
		KeyRing:       "logging-keyring",
		KeyName:       "logging-key",
		AutoCreateKMS: true,
		SinkName:      "cmek-logging-sink",
		LogFilter:     "severity>=ERROR",
	}
}

func testProvisioner(f *fakeGCP) *Provisioner {
	p := New(f.services(), report.NewWriter(io.Discard))
	return p.WithRetryPolicy(retry.Policy{
		Attempts:     3,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
	})
}
