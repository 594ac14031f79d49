package harness

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios(t *testing.T) {
	scenarios, err := LoadScenarioDir("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, scenarios, "no scenario files found")

	for _, sc := range scenarios {
		t.Run(sc.Name, func(t *testing.T) {
			res, err := Run(sc)
			require.NoError(t, err)
			require.NoError(t, res.RunErr, "dialogue did not finish cleanly")

			for _, failure := range EvaluateAssertions(res, sc.Assertions) {
				t.Error(failure)
			}
		})
	}
}

func TestRun_InjectedRejectionSurfacesWithoutRetry(t *testing.T) {
	sc := &Scenario{
		Name:        "rejected-save",
		Description: "store rejection surfaces immediately, edits preserved",
		Record: RecordFixture{
			ID:     "cust-9",
			Fields: map[string]any{"name": "Ada", "tier": "standard"},
		},
		Failures: &FailureClause{Updates: 1, Kind: "REJECTED"},
		Inputs:   []string{"name", "Ada King", "save", "save", "cancel"},
	}

	res, err := Run(sc)
	require.NoError(t, err)
	require.NoError(t, res.RunErr)

	assert.Equal(t, 1, res.UpdateCalls, "rejections must not be retried")
	assert.Equal(t, "Ada", res.Stored.Get("name").Display())
	assert.True(t, containsMessage(res, "The record store rejected the save"))
	assert.Equal(t, 0, res.SessionsLeft)
}

func TestLoadScenario_RejectsUnknownFields(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: has a misspelled key
record:
  id: cust-1
  fields:
    name: Ada
inputs:
  - cancel
assertion:
  - type: session_cleared
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse scenario")
}

func TestLoadScenario_RequiresInputs(t *testing.T) {
	path := writeScenario(t, `
name: empty
description: no inputs
record:
  id: cust-1
  fields:
    name: Ada
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inputs")
}

func TestRun_FixtureFieldMustExistInSchema(t *testing.T) {
	sc := &Scenario{
		Name:        "bad-fixture",
		Description: "unknown fixture field",
		Record: RecordFixture{
			ID:     "cust-1",
			Fields: map[string]any{"nickname": "Ada"},
		},
		Inputs: []string{"cancel"},
	}

	_, err := Run(sc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nickname")
}

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func containsMessage(res *Result, substr string) bool {
	for _, p := range res.Transcript {
		if strings.Contains(p.Message, substr) {
			return true
		}
	}
	return false
}
