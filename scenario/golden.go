package scenario

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// snapshot is the golden-file shape for one run. Trace seq values are
// omitted: they count scheduler frames, which differ across backends, and
// golden files must be backend-portable.
type snapshot struct {
	Scenario string          `json:"scenario"`
	HTML     string          `json:"html"`
	Events   []eventSnapshot `json:"events,omitempty"`
	Ops      []string        `json:"ops"`
}

type eventSnapshot struct {
	Name    string `json:"name"`
	Details []any  `json:"details"`
}

// RunWithGolden runs the scenario and compares the outcome against
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./... -update
//
// Assertion failures fail the test before the golden comparison runs; the
// golden file then guards everything the assertions did not pin down.
func RunWithGolden(t *testing.T, sc *Scenario, opts ...RunOption) *Result {
	t.Helper()

	result, err := Run(context.Background(), sc, opts...)
	if err != nil {
		t.Fatalf("scenario %s: %v", sc.Name, err)
	}
	for _, msg := range result.Errors {
		t.Errorf("scenario %s: %s", sc.Name, msg)
	}
	if t.Failed() {
		return result
	}

	snap := snapshot{
		Scenario: result.Scenario,
		HTML:     result.HTML,
	}
	names := make([]string, 0, len(result.Events))
	for name := range result.Events {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		es := eventSnapshot{Name: name}
		for _, ev := range result.Events[name] {
			es.Details = append(es.Details, ev.Detail)
		}
		snap.Events = append(snap.Events, es)
	}
	for _, r := range result.Trace {
		snap.Ops = append(snap.Ops, string(r.Op))
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		t.Fatalf("scenario %s: marshal snapshot: %v", sc.Name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, sc.Name, buf.Bytes())
	return result
}

// RunAll runs one scenario per backend ID given, as subtests. It is the
// cross-backend conformance entry point.
func RunAll(t *testing.T, sc *Scenario, backends []string, opts ...RunOption) {
	t.Helper()
	for _, be := range backends {
		t.Run(fmt.Sprintf("%s/%s", sc.Name, be), func(t *testing.T) {
			clone := *sc
			clone.Backend = be
			result, err := Run(context.Background(), &clone, opts...)
			if err != nil {
				t.Fatalf("scenario %s on %s: %v", sc.Name, be, err)
			}
			for _, msg := range result.Errors {
				t.Errorf("scenario %s on %s: %s", sc.Name, be, msg)
			}
		})
	}
}
