package gcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/cloudresourcemanager/v3"
)

// Operation polling bounds. Folder and project creation usually settle
// within a few seconds but can take noticeably longer on new organizations.
const operationPollAttempts = 60

// Folders resolves and creates organization folders via Resource Manager.
type Folders struct {
	svc *cloudresourcemanager.Service
}

// Lookup returns the resource name ("folders/123") of the folder with the
// given display name under parent, or "" when it does not exist.
func (f *Folders) Lookup(ctx context.Context, parent, displayName string) (string, error) {
	query := fmt.Sprintf("parent=%s AND displayName=%q", parent, displayName)
	resp, err := f.svc.Folders.Search().Query(query).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("folders.search: %w", err)
	}
	if len(resp.Folders) == 0 {
		return "", nil
	}
	return resp.Folders[0].Name, nil
}

// Create creates the folder and waits for the creation operation.
func (f *Folders) Create(ctx context.Context, parent, displayName string) (string, error) {
	op, err := f.svc.Folders.Create(&cloudresourcemanager.Folder{
		Parent:      parent,
		DisplayName: displayName,
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("folders.create: %w", err)
	}

	resp, err := waitOperation(ctx, f.svc, op.Name)
	if err != nil {
		return "", fmt.Errorf("folders.create operation: %w", err)
	}

	var folder cloudresourcemanager.Folder
	if err := json.Unmarshal(resp, &folder); err != nil {
		return "", fmt.Errorf("decoding folder operation response: %w", err)
	}
	return folder.Name, nil
}

// Projects manages disposable test projects via Resource Manager.
type Projects struct {
	svc *cloudresourcemanager.Service
}

// Exists probes the project. A 403 counts as absent: Resource Manager
// answers PermissionDenied for projects the caller cannot see, including
// ones that never existed.
func (p *Projects) Exists(ctx context.Context, projectID string) (bool, error) {
	_, err := p.svc.Projects.Get("projects/" + projectID).Context(ctx).Do()
	if err != nil {
		if IsNotFound(err) || IsPermissionDenied(err) {
			return false, nil
		}
		return false, fmt.Errorf("projects.get: %w", err)
	}
	return true, nil
}

// Create creates the project under parent and waits for the operation.
func (p *Projects) Create(ctx context.Context, projectID, displayName, parent string) error {
	op, err := p.svc.Projects.Create(&cloudresourcemanager.Project{
		ProjectId:   projectID,
		DisplayName: displayName,
		Parent:      parent,
	}).Context(ctx).Do()
	if err != nil {
		if IsAlreadyExists(err) {
			return nil
		}
		return fmt.Errorf("projects.create: %w", err)
	}

	if _, err := waitOperation(ctx, p.svc, op.Name); err != nil {
		return fmt.Errorf("projects.create operation: %w", err)
	}
	return nil
}

// Delete schedules the project for deletion.
func (p *Projects) Delete(ctx context.Context, projectID string) error {
	_, err := p.svc.Projects.Delete("projects/" + projectID).Context(ctx).Do()
	if err != nil && !IsNotFound(err) && !IsPermissionDenied(err) {
		return fmt.Errorf("projects.delete: %w", err)
	}
	return nil
}

// waitOperation polls a Resource Manager long-running operation until it
// finishes, returning the raw response message.
func waitOperation(ctx context.Context, svc *cloudresourcemanager.Service, name string) ([]byte, error) {
	bo := gax.Backoff{Initial: time.Second, Max: 5 * time.Second, Multiplier: 1.5}

	for attempt := 0; attempt < operationPollAttempts; attempt++ {
		op, err := svc.Operations.Get(name).Context(ctx).Do()
		if err != nil {
			return nil, err
		}
		if op.Done {
			if op.Error != nil {
				return nil, fmt.Errorf("operation failed: %s (code %d)", op.Error.Message, op.Error.Code)
			}
			return op.Response, nil
		}
		if err := gax.Sleep(ctx, bo.Pause()); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("operation %s did not finish in time", name)
}
