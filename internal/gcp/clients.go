// Package gcp implements the provision service interfaces against the real
// Google Cloud APIs: Resource Manager for folders and projects, Service
// Usage for API enablement, Cloud KMS for keys, and the Logging admin API
// for buckets, sinks and exclusions.
//
// Authentication uses Application Default Credentials throughout.
package gcp

import (
	"context"
	"fmt"

	kms "cloud.google.com/go/kms/apiv1"
	"google.golang.org/api/cloudresourcemanager/v3"
	"google.golang.org/api/logging/v2"
	"google.golang.org/api/serviceusage/v1"

	"github.com/blackwell-systems/gcp-cmek-logging/internal/provision"
)

// NewServices builds the full provision.Services bundle. The returned close
// function releases the underlying gRPC connection and must be called when
// the command finishes.
func NewServices(ctx context.Context) (provision.Services, func() error, error) {
	none := provision.Services{}

	crm, err := cloudresourcemanager.NewService(ctx)
	if err != nil {
		return none, nil, fmt.Errorf("cloudresourcemanager.NewService: %w", err)
	}

	usage, err := serviceusage.NewService(ctx)
	if err != nil {
		return none, nil, fmt.Errorf("serviceusage.NewService: %w", err)
	}

	logadmin, err := logging.NewService(ctx)
	if err != nil {
		return none, nil, fmt.Errorf("logging.NewService: %w", err)
	}

	kmsClient, err := kms.NewKeyManagementClient(ctx)
	if err != nil {
		return none, nil, fmt.Errorf("kms.NewKeyManagementClient: %w", err)
	}

	svc := provision.Services{
		Folders:  &Folders{svc: crm},
		Projects: &Projects{svc: crm},
		Usage:    &Usage{svc: usage},
		KMS:      &KMS{client: kmsClient},
		Logging:  &Logging{svc: logadmin},
	}
	return svc, kmsClient.Close, nil
}
