package gcp

import (
	"context"
	"fmt"
	"time"

	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/serviceusage/v1"
)

// Usage enables required APIs via the Service Usage API.
type Usage struct {
	svc *serviceusage.Service
}

// EnsureEnabled enables every listed service on the project, waiting for
// each enablement operation to complete. Already-enabled services are
// skipped.
func (u *Usage) EnsureEnabled(ctx context.Context, projectID string, services []string) error {
	for _, service := range services {
		if err := u.ensureOne(ctx, projectID, service); err != nil {
			return err
		}
	}
	return nil
}

func (u *Usage) ensureOne(ctx context.Context, projectID, service string) error {
	name := fmt.Sprintf("projects/%s/services/%s", projectID, service)

	current, err := u.svc.Services.Get(name).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("services.get %s: %w", service, err)
	}
	if current.State == "ENABLED" {
		return nil
	}

	op, err := u.svc.Services.Enable(name, &serviceusage.EnableServiceRequest{}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("services.enable %s: %w", service, err)
	}

	bo := gax.Backoff{Initial: 2 * time.Second, Max: 10 * time.Second, Multiplier: 1.5}
	for attempt := 0; !op.Done && attempt < operationPollAttempts; attempt++ {
		if err := gax.Sleep(ctx, bo.Pause()); err != nil {
			return err
		}
		op, err = u.svc.Operations.Get(op.Name).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("polling enablement of %s: %w", service, err)
		}
	}
	if !op.Done {
		return fmt.Errorf("enablement of %s did not finish in time", service)
	}
	if op.Error != nil {
		return fmt.Errorf("enablement of %s failed: %s (code %d)", service, op.Error.Message, op.Error.Code)
	}
	return nil
}
