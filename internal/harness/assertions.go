package harness

import (
	"fmt"
	"reflect"
)

// checkExpect compares an observed trace event against a step's
// expectation. A nil expectation only requires the step to succeed.
func checkExpect(step Step, event TraceEvent) error {
	expect := step.Expect
	if expect == nil {
		if event.Error != "" {
			return fmt.Errorf("unexpected error %s", event.Error)
		}
		return nil
	}

	if expect.ErrorKind != "" {
		if event.Error != expect.ErrorKind {
			return fmt.Errorf("expected error %s, got %q", expect.ErrorKind, event.Error)
		}
		return nil
	}
	if event.Error != "" {
		return fmt.Errorf("unexpected error %s", event.Error)
	}

	if expect.Count != nil {
		if event.Count == nil {
			return fmt.Errorf("expected count %d, op produced none", *expect.Count)
		}
		if *event.Count != *expect.Count {
			return fmt.Errorf("expected count %d, got %d", *expect.Count, *event.Count)
		}
	}
	if expect.Value != nil {
		if event.Value == nil {
			return fmt.Errorf("expected value %v, op produced none", *expect.Value)
		}
		if *event.Value != *expect.Value {
			return fmt.Errorf("expected value %v, got %v", *expect.Value, *event.Value)
		}
	}
	if expect.Found != nil {
		if event.Found == nil {
			return fmt.Errorf("expected found=%v, op produced no presence result", *expect.Found)
		}
		if *event.Found != *expect.Found {
			return fmt.Errorf("expected found=%v, got %v", *expect.Found, *event.Found)
		}
	}
	if expect.Record != nil {
		if event.Record == nil {
			return fmt.Errorf("expected a record, got none")
		}
		if err := matchSubset(event.Record, expect.Record); err != nil {
			return err
		}
	}
	return nil
}

// matchSubset checks that every expected field appears in the actual
// record with an equal value. Numeric comparison goes through float64
// because YAML decodes whole numbers as int.
func matchSubset(actual, expected map[string]any) error {
	for k, want := range expected {
		got, ok := actual[k]
		if !ok {
			return fmt.Errorf("field %q missing from record", k)
		}
		if !valuesEqual(got, want) {
			return fmt.Errorf("field %q: expected %v, got %v", k, want, got)
		}
	}
	return nil
}

func valuesEqual(got, want any) bool {
	if gf, ok := toFloat(got); ok {
		if wf, ok := toFloat(want); ok {
			return gf == wf
		}
		return false
	}
	return reflect.DeepEqual(got, want)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
