// Copyright (c) 2025 Netskope, Inc. All rights reserved.

package catalog

import (
	"strconv"
	"strings"
	"testing"
)

func baseNames(defs []Definition) []string {
	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.BaseName
	}
	return names
}

func TestDefinitions_Toggles(t *testing.T) {
	tests := []struct {
		name                   string
		includeCompliance      bool
		includeRecommendations bool
		want                   []string
	}{
		{
			name: "base",
			want: []string{"SecureScores", "SecureScoreControls", "SecurityAssessments"},
		},
		{
			name:                   "with recommendations",
			includeRecommendations: true,
			want:                   []string{"SecureScores", "SecureScoreControls", "SecurityAssessments", "SecurityRecommendations"},
		},
		{
			name:              "with compliance",
			includeCompliance: true,
			want:              []string{"SecureScores", "SecureScoreControls", "SecurityAssessments", "ComplianceStandards", "ComplianceControls", "ComplianceAssessments"},
		},
		{
			name:                   "everything",
			includeCompliance:      true,
			includeRecommendations: true,
			want:                   []string{"SecureScores", "SecureScoreControls", "SecurityAssessments", "SecurityRecommendations", "ComplianceStandards", "ComplianceControls", "ComplianceAssessments"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := baseNames(Definitions(tt.includeCompliance, tt.includeRecommendations))
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d definitions, got %d: %v", len(tt.want), len(got), got)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("position %d: expected %s, got %s", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestQueries_ResourceTypes(t *testing.T) {
	wantTypes := map[Kind]string{
		SecureScores:            `"microsoft.security/securescores"`,
		SecureScoreControls:     `"microsoft.security/securescores/securescorecontrols"`,
		SecurityAssessments:     `"microsoft.security/assessments"`,
		SecurityRecommendations: `"microsoft.security/assessments"`,
		ComplianceStandards:     `"microsoft.security/regulatorycompliancestandards"`,
		ComplianceControls:      `"microsoft.security/regulatorycompliancestandards/regulatorycompliancecontrols"`,
		ComplianceAssessments:   `"microsoft.security/regulatorycompliancestandards/regulatorycompliancecontrols/regulatorycomplianceassessments"`,
	}

	for _, d := range All() {
		want, ok := wantTypes[d.Kind]
		if !ok {
			t.Fatalf("no expected type for %s", d.Label)
		}
		if !strings.Contains(d.Query(), `where type == `+want) {
			t.Errorf("%s query should filter on %s", d.Label, want)
		}
		if !strings.HasPrefix(d.Query(), "securityresources") {
			t.Errorf("%s query should target the securityresources table", d.Label)
		}
	}
}

func TestQueries_RecommendationsFilterServerSide(t *testing.T) {
	for _, d := range All() {
		if d.Kind != SecurityRecommendations {
			continue
		}
		if !strings.Contains(d.Query(), `properties.status.code == "Unhealthy"`) {
			t.Error("recommendations query must filter to unhealthy status server-side")
		}
		return
	}
	t.Fatal("recommendations definition missing")
}

func TestQueries_RowCapNotInterpolated(t *testing.T) {
	capText := strconv.Itoa(RowCap)
	for _, d := range All() {
		if strings.Contains(d.Query(), capText) {
			t.Errorf("%s query text must not embed the row cap", d.Label)
		}
	}
}

func TestQueries_ProjectDeclaredFields(t *testing.T) {
	for _, d := range All() {
		for _, field := range d.Fields {
			if !strings.Contains(d.Query(), field) {
				t.Errorf("%s query does not mention declared field %q", d.Label, field)
			}
		}
	}
}
