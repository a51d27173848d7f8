// Package dashboard imports JSON dashboard templates into Cloud Monitoring.
//
// Templates carry $PROJECT_ID and $LOG_BUCKET_ID placeholders that are
// substituted before import. Import is idempotent on the dashboard display
// name: a dashboard that already exists in the project is skipped.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	monitoring "google.golang.org/api/monitoring/v1"

	"github.com/blackwell-systems/gcp-cmek-logging/internal/report"
)

// Vars are the placeholders a template may reference.
type Vars struct {
	ProjectID   string
	LogBucketID string
}

// API is the subset of the Monitoring dashboards surface the importer uses.
type API interface {
	ListDisplayNames(ctx context.Context, projectID string) ([]string, error)
	Create(ctx context.Context, projectID string, dashboard *monitoring.Dashboard) error
}

// Importer renders templates and imports them.
type Importer struct {
	api API
	rep *report.Reporter
}

// New returns an Importer over the given API.
func New(api API, rep *report.Reporter) *Importer {
	return &Importer{api: api, rep: rep}
}

// Render substitutes template placeholders. Unknown $VARS are left
// untouched so dashboard-internal dollar syntax survives.
func Render(template []byte, vars Vars) []byte {
	expanded := os.Expand(string(template), func(name string) string {
		switch name {
		case "PROJECT_ID":
			return vars.ProjectID
		case "LOG_BUCKET_ID":
			return vars.LogBucketID
		}
		return "$" + name
	})
	return []byte(expanded)
}

// ImportDir imports every .json template in dir, skipping dashboards whose
// display name already exists. Returns the number of dashboards created.
func (i *Importer) ImportDir(ctx context.Context, dir string, vars Vars) (int, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return 0, fmt.Errorf("failed to list templates in %s: %w", dir, err)
	}
	if len(paths) == 0 {
		return 0, fmt.Errorf("no dashboard templates found in %s", dir)
	}
	sort.Strings(paths)

	existing, err := i.api.ListDisplayNames(ctx, vars.ProjectID)
	if err != nil {
		return 0, fmt.Errorf("failed to list existing dashboards: %w", err)
	}
	have := make(map[string]bool, len(existing))
	for _, name := range existing {
		have[name] = true
	}

	created := 0
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return created, fmt.Errorf("failed to read template %s: %w", path, err)
		}

		var dash monitoring.Dashboard
		if err := json.Unmarshal(Render(data, vars), &dash); err != nil {
			return created, fmt.Errorf("invalid dashboard template %s: %w", path, err)
		}
		if dash.DisplayName == "" {
			return created, fmt.Errorf("template %s has no displayName", path)
		}

		if have[dash.DisplayName] {
			i.rep.Warnf("Dashboard %q already exists (skipping)", dash.DisplayName)
			continue
		}

		if err := i.api.Create(ctx, vars.ProjectID, &dash); err != nil {
			return created, fmt.Errorf("failed to import %s: %w", path, err)
		}
		i.rep.Successf("Dashboard imported: %s", dash.DisplayName)
		created++
	}
	return created, nil
}

// MonitoringAPI implements API over the Cloud Monitoring dashboards service.
type MonitoringAPI struct {
	svc *monitoring.Service
}

// NewMonitoringAPI builds the real dashboards API client.
func NewMonitoringAPI(ctx context.Context) (*MonitoringAPI, error) {
	svc, err := monitoring.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("monitoring.NewService: %w", err)
	}
	return &MonitoringAPI{svc: svc}, nil
}

// ListDisplayNames returns the display names of all dashboards in the project.
func (m *MonitoringAPI) ListDisplayNames(ctx context.Context, projectID string) ([]string, error) {
	var names []string
	call := m.svc.Projects.Dashboards.List("projects/" + projectID)
	err := call.Pages(ctx, func(resp *monitoring.ListDashboardsResponse) error {
		for _, d := range resp.Dashboards {
			names = append(names, d.DisplayName)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

// Create imports one dashboard into the project.
func (m *MonitoringAPI) Create(ctx context.Context, projectID string, dashboard *monitoring.Dashboard) error {
	_, err := m.svc.Projects.Dashboards.Create("projects/"+projectID, dashboard).Context(ctx).Do()
	return err
}
