package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default("proj-1")
	require.NoError(t, cfg.Validate())
	require.Equal(t, "proj-1", cfg.Project.ID)
	require.Contains(t, cfg.Checklists, "residential-standard")
	require.Len(t, cfg.Checklists["residential-standard"].Sections, 5)
	require.Contains(t, cfg.Clauses.Catalog, "E2")
	require.Contains(t, cfg.Documents.Catalog, "lim")
	require.Equal(t, 0.5, cfg.Finalize.SectionGateRatio)
	require.Equal(t, 80, cfg.Finalize.ClauseCompletionThreshold)
}

func TestFromYAMLRejectsBadStructure(t *testing.T) {
	cases := []struct {
		name string
		yml  string
		want string
	}{
		{
			name: "missing project id",
			yml:  "project:\n  kind: inspection-project\n",
			want: "project.id",
		},
		{
			name: "wrong kind",
			yml:  "project:\n  id: p\n  kind: other\n",
			want: "inspection-project",
		},
		{
			name: "no checklists",
			yml:  "project:\n  id: p\n  kind: inspection-project\n",
			want: "checklists",
		},
		{
			name: "duplicate section",
			yml: `project:
  id: p
  kind: inspection-project
checklists:
  basic:
    name: Basic
    sections:
      - id: a
        name: A
      - id: a
        name: A again
`,
			want: "duplicate section",
		},
		{
			name: "ratio out of range",
			yml: `project:
  id: p
  kind: inspection-project
checklists:
  basic:
    name: Basic
    sections:
      - id: a
        name: A
finalize:
  section_gate_ratio: 1.5
`,
			want: "section_gate_ratio",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromYAML([]byte(tc.yml))
			require.ErrorContains(t, err, tc.want)
		})
	}
}

func TestFromYAMLRoundTrip(t *testing.T) {
	cfg, err := FromYAML([]byte(GenerateDefault("proj-2")))
	require.NoError(t, err)
	require.Equal(t, "proj-2", cfg.Project.ID)
}
