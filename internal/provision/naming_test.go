package provision

import (
	"regexp"
	"strings"
	"testing"
)

var projectIDShape = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

func TestGeneratedProjectID(t *testing.T) {
	tests := []struct {
		name       string
		prefix     string
		wantPrefix string
	}{
		{
			name:       "simple prefix",
			prefix:     "logtest",
			wantPrefix: "logtest-cmek-",
		},
		{
			name:       "uppercase is lowered",
			prefix:     "LogTest",
			wantPrefix: "logtest-cmek-",
		},
		{
			name:       "invalid characters stripped",
			prefix:     "my_team!",
			wantPrefix: "myteam-cmek-",
		},
		{
			name:       "leading digits dropped",
			prefix:     "42acme",
			wantPrefix: "acme-cmek-",
		},
		{
			name:       "empty prefix falls back",
			prefix:     "",
			wantPrefix: "logtest-cmek-",
		},
		{
			name:       "overlong prefix is truncated",
			prefix:     "an-extremely-long-team-prefix-name",
			wantPrefix: "an-extremely-lon",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := GeneratedProjectID(tt.prefix)

			if len(id) > 30 {
				t.Errorf("GeneratedProjectID(%q) = %q, longer than 30 chars", tt.prefix, id)
			}
			if !projectIDShape.MatchString(id) {
				t.Errorf("GeneratedProjectID(%q) = %q, invalid characters", tt.prefix, id)
			}
			if !strings.HasPrefix(id, tt.wantPrefix) {
				t.Errorf("GeneratedProjectID(%q) = %q, want prefix %q", tt.prefix, id, tt.wantPrefix)
			}
			if !strings.Contains(id, "-cmek-") {
				t.Errorf("GeneratedProjectID(%q) = %q, missing -cmek- infix", tt.prefix, id)
			}
		})
	}
}

func TestGeneratedProjectIDsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 64; i++ {
		id := GeneratedProjectID("logtest")
		if seen[id] {
			t.Fatalf("duplicate generated ID: %s", id)
		}
		seen[id] = true
	}
}

func TestExclusionName(t *testing.T) {
	if got := ExclusionName("cmek-logging-sink"); got != "cmek-logging-sink-exclusion" {
		t.Errorf("ExclusionName() = %q, want cmek-logging-sink-exclusion", got)
	}
}
