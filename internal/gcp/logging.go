package gcp

import (
	"context"
	"fmt"

	"google.golang.org/api/logging/v2"

	"github.com/blackwell-systems/gcp-cmek-logging/internal/provision"
)

// Logging manages log buckets, sinks and _Default sink exclusions through
// the Logging admin API.
type Logging struct {
	svc *logging.Service
}

// ServiceAccount returns the Cloud Logging service account that must hold
// encrypter/decrypter on the CMEK key. The account may not exist yet on a
// freshly enabled project; callers retry.
func (l *Logging) ServiceAccount(ctx context.Context, projectID string) (string, error) {
	settings, err := l.svc.Projects.GetSettings("projects/" + projectID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("projects.getSettings: %w", err)
	}
	return settings.KmsServiceAccountId, nil
}

// GetBucket returns the log bucket, or nil when it does not exist.
func (l *Logging) GetBucket(ctx context.Context, name string) (*provision.LogBucket, error) {
	bucket, err := l.svc.Projects.Locations.Buckets.Get(name).Context(ctx).Do()
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("buckets.get: %w", err)
	}

	out := &provision.LogBucket{
		RetentionDays: int(bucket.RetentionDays),
		Analytics:     bucket.AnalyticsEnabled,
	}
	if bucket.CmekSettings != nil {
		out.KMSKeyName = bucket.CmekSettings.KmsKeyName
	}
	return out, nil
}

// CreateBucket creates the log bucket with CMEK, retention and analytics.
func (l *Logging) CreateBucket(ctx context.Context, parent, id string, bucket *provision.LogBucket) error {
	payload := &logging.LogBucket{
		RetentionDays:    int64(bucket.RetentionDays),
		AnalyticsEnabled: bucket.Analytics,
	}
	if bucket.KMSKeyName != "" {
		payload.CmekSettings = &logging.CmekSettings{KmsKeyName: bucket.KMSKeyName}
	}

	_, err := l.svc.Projects.Locations.Buckets.Create(parent, payload).BucketId(id).Context(ctx).Do()
	if err != nil && !IsAlreadyExists(err) {
		return fmt.Errorf("buckets.create: %w", err)
	}
	return nil
}

// UpdateBucket re-applies retention and analytics. The CMEK key of an
// existing bucket is deliberately left alone.
func (l *Logging) UpdateBucket(ctx context.Context, name string, bucket *provision.LogBucket) error {
	payload := &logging.LogBucket{
		RetentionDays:    int64(bucket.RetentionDays),
		AnalyticsEnabled: bucket.Analytics,
		ForceSendFields:  []string{"RetentionDays", "AnalyticsEnabled"},
	}

	_, err := l.svc.Projects.Locations.Buckets.Patch(name, payload).
		UpdateMask("retentionDays,analyticsEnabled").Context(ctx).Do()
	if err != nil {
		if IsNotFound(err) {
			return provision.ErrNotFound
		}
		return fmt.Errorf("buckets.patch: %w", err)
	}
	return nil
}

// DeleteBucket deletes the log bucket.
func (l *Logging) DeleteBucket(ctx context.Context, name string) error {
	_, err := l.svc.Projects.Locations.Buckets.Delete(name).Context(ctx).Do()
	if err != nil {
		if IsNotFound(err) {
			return provision.ErrNotFound
		}
		return fmt.Errorf("buckets.delete: %w", err)
	}
	return nil
}

// GetSink returns the sink, or nil when it does not exist.
func (l *Logging) GetSink(ctx context.Context, name string) (*provision.Sink, error) {
	sink, err := l.svc.Projects.Sinks.Get(name).Context(ctx).Do()
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("sinks.get: %w", err)
	}
	return &provision.Sink{
		Destination:    sink.Destination,
		Filter:         sink.Filter,
		WriterIdentity: sink.WriterIdentity,
	}, nil
}

// CreateSink creates the sink with a unique writer identity.
func (l *Logging) CreateSink(ctx context.Context, projectID, name string, sink *provision.Sink) (*provision.Sink, error) {
	created, err := l.svc.Projects.Sinks.Create("projects/"+projectID, &logging.LogSink{
		Name:        name,
		Destination: sink.Destination,
		Filter:      sink.Filter,
	}).UniqueWriterIdentity(true).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("sinks.create: %w", err)
	}
	return &provision.Sink{
		Destination:    created.Destination,
		Filter:         created.Filter,
		WriterIdentity: created.WriterIdentity,
	}, nil
}

// UpdateSink re-applies destination and filter.
func (l *Logging) UpdateSink(ctx context.Context, name string, sink *provision.Sink) error {
	_, err := l.svc.Projects.Sinks.Update(name, &logging.LogSink{
		Destination: sink.Destination,
		Filter:      sink.Filter,
	}).UniqueWriterIdentity(true).UpdateMask("destination,filter").Context(ctx).Do()
	if err != nil {
		if IsNotFound(err) {
			return provision.ErrNotFound
		}
		return fmt.Errorf("sinks.update: %w", err)
	}
	return nil
}

// DeleteSink deletes the sink.
func (l *Logging) DeleteSink(ctx context.Context, name string) error {
	_, err := l.svc.Projects.Sinks.Delete(name).Context(ctx).Do()
	if err != nil {
		if IsNotFound(err) {
			return provision.ErrNotFound
		}
		return fmt.Errorf("sinks.delete: %w", err)
	}
	return nil
}

// DefaultSinkExclusions reads the exclusions on the project's _Default sink.
func (l *Logging) DefaultSinkExclusions(ctx context.Context, projectID string) ([]provision.Exclusion, error) {
	sink, err := l.svc.Projects.Sinks.Get(defaultSinkName(projectID)).Context(ctx).Do()
	if err != nil {
		if IsNotFound(err) {
			return nil, provision.ErrNotFound
		}
		return nil, fmt.Errorf("sinks.get _Default: %w", err)
	}

	out := make([]provision.Exclusion, 0, len(sink.Exclusions))
	for _, ex := range sink.Exclusions {
		out = append(out, provision.Exclusion{Name: ex.Name, Filter: ex.Filter})
	}
	return out, nil
}

// SetDefaultSinkExclusions replaces the exclusion list on the _Default sink.
func (l *Logging) SetDefaultSinkExclusions(ctx context.Context, projectID string, exclusions []provision.Exclusion) error {
	payload := &logging.LogSink{
		Exclusions:      make([]*logging.LogExclusion, 0, len(exclusions)),
		ForceSendFields: []string{"Exclusions"},
	}
	for _, ex := range exclusions {
		payload.Exclusions = append(payload.Exclusions, &logging.LogExclusion{
			Name:   ex.Name,
			Filter: ex.Filter,
		})
	}

	_, err := l.svc.Projects.Sinks.Update(defaultSinkName(projectID), payload).
		UpdateMask("exclusions").Context(ctx).Do()
	if err != nil {
		if IsNotFound(err) {
			return provision.ErrNotFound
		}
		return fmt.Errorf("sinks.update _Default: %w", err)
	}
	return nil
}

func defaultSinkName(projectID string) string {
	return fmt.Sprintf("projects/%s/sinks/_Default", projectID)
}
