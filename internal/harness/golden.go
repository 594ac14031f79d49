package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// TranscriptSnapshot is the golden-file view of a scenario run: the full
// prompt transcript plus the stored record and store traffic. JSON map
// keys are emitted sorted, so serialization is deterministic.
type TranscriptSnapshot struct {
	ScenarioName string            `json:"scenario_name"`
	Transcript   []PromptEvent     `json:"transcript"`
	FinalRecord  map[string]string `json:"final_record"`
	UpdateCalls  int               `json:"update_calls"`
}

// PromptEvent is one prompt in the transcript. The operator is constant
// per scenario, so only the message and options are captured.
type PromptEvent struct {
	Message string   `json:"message"`
	Options []string `json:"options,omitempty"`
}

// Snapshot converts a run result into its golden-file form. Only set
// fields appear in FinalRecord, in display formatting.
func Snapshot(res *Result) TranscriptSnapshot {
	events := make([]PromptEvent, len(res.Transcript))
	for i, p := range res.Transcript {
		events[i] = PromptEvent{Message: p.Message, Options: p.Options}
	}
	final := make(map[string]string)
	for name, v := range res.Stored.Fields {
		if v.IsSet() {
			final[name] = v.Display()
		}
	}
	return TranscriptSnapshot{
		ScenarioName: res.Scenario.Name,
		Transcript:   events,
		FinalRecord:  final,
		UpdateCalls:  res.UpdateCalls,
	}
}

// RunWithGolden executes a scenario and compares its transcript snapshot
// against testdata/golden/{name}.golden. Regenerate with:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, sc *Scenario) *Result {
	t.Helper()

	res, err := Run(sc)
	if err != nil {
		t.Fatalf("scenario %s: %v", sc.Name, err)
	}

	data, err := json.MarshalIndent(Snapshot(res), "", "  ")
	if err != nil {
		t.Fatalf("scenario %s: marshal snapshot: %v", sc.Name, err)
	}
	data = append(data, '\n')

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, sc.Name, data)
	return res
}
