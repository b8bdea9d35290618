package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/mirrordb/mirrordb/internal/codec"
)

// RunWithGolden executes a scenario and compares its canonical trace
// against a golden file at testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, s *Scenario) *Result {
	t.Helper()

	result, err := Run(context.Background(), s, t.TempDir())
	if err != nil {
		t.Fatalf("scenario %q failed to run: %v", s.Name, err)
	}

	data, err := CanonicalTrace(result)
	if err != nil {
		t.Fatalf("scenario %q: serialize trace: %v", s.Name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, s.Name, data)

	return result
}

// CanonicalTrace serializes a result's trace to canonical JSON so two
// runs of the same scenario produce byte-identical output.
func CanonicalTrace(r *Result) ([]byte, error) {
	events := make([]any, len(r.Trace))
	for i, e := range r.Trace {
		m := map[string]any{
			"op":     e.Op,
			"table":  e.Table,
			"target": e.Target,
		}
		if e.ID != "" {
			m["id"] = e.ID
		}
		if e.Error != "" {
			m["error"] = e.Error
		}
		if e.Count != nil {
			m["count"] = *e.Count
		}
		if e.Value != nil {
			m["value"] = *e.Value
		}
		if e.Found != nil {
			m["found"] = *e.Found
		}
		if e.Record != nil {
			m["record"] = e.Record
		}
		events[i] = m
	}
	return codec.MarshalCanonical(events)
}
