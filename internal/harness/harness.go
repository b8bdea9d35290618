package harness

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/mirrordb/mirrordb"
)

// Run executes a scenario against a fresh primary store (plus the
// requested mirrors) rooted in dir, and returns the observed trace
// with expectation failures.
//
// Run only returns an error for harness-level problems (store
// construction, mirror attachment); step failures are recorded in the
// Result so a scenario can script expected errors.
func Run(ctx context.Context, s *Scenario, dir string) (*Result, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	primary, err := mirrordb.Open(mirrordb.Options{FilePath: filepath.Join(dir, "primary.db")})
	if err != nil {
		return nil, fmt.Errorf("open primary: %w", err)
	}
	defer primary.Close()

	instances := []*mirrordb.DB{primary}
	for i := 0; i < s.Mirrors; i++ {
		m, err := mirrordb.Open(mirrordb.Options{FilePath: filepath.Join(dir, fmt.Sprintf("mirror-%d.db", i+1))})
		if err != nil {
			return nil, fmt.Errorf("open mirror %d: %w", i+1, err)
		}
		defer m.Close()
		if err := primary.AttachMirror(m); err != nil {
			return nil, fmt.Errorf("attach mirror %d: %w", i+1, err)
		}
		instances = append(instances, m)
	}

	for _, td := range s.Tables {
		if err := primary.InitTable(ctx, td.Name, mirrordb.TableSchema{Columns: td.Columns}); err != nil {
			return nil, fmt.Errorf("init table %q: %w", td.Name, err)
		}
	}

	result := NewResult()
	for i, step := range s.Steps {
		event := runStep(ctx, instances[step.OnMirror], step)
		result.Trace = append(result.Trace, event)
		if err := checkExpect(step, event); err != nil {
			result.AddError(fmt.Sprintf("step %d (%s on %s): %v", i+1, step.Op, step.Table, err))
		}
	}
	return result, nil
}

func runStep(ctx context.Context, db *mirrordb.DB, step Step) TraceEvent {
	event := TraceEvent{Op: step.Op, Table: step.Table, ID: step.ID}
	if step.OnMirror > 0 {
		event.Target = fmt.Sprintf("mirror-%d", step.OnMirror)
	} else {
		event.Target = "primary"
	}

	var err error
	switch step.Op {
	case "add":
		_, err = db.Add(ctx, step.Table, mirrordb.Record(step.Record))
	case "get":
		var rec mirrordb.Record
		rec, err = db.Get(ctx, step.Table, step.ID)
		if err == nil {
			found := rec != nil
			event.Found = &found
			event.Record = map[string]any(rec)
		}
	case "all":
		var recs []mirrordb.Record
		recs, err = db.All(ctx, step.Table)
		if err == nil {
			n := int64(len(recs))
			event.Count = &n
		}
	case "has":
		var ok bool
		ok, err = db.Has(ctx, step.Table, step.ID)
		if err == nil {
			event.Found = &ok
		}
	case "delete":
		var n int64
		n, err = db.Delete(ctx, step.Table, step.ID)
		if err == nil {
			event.Count = &n
		}
	case "deleteAll":
		var n int64
		n, err = db.DeleteAll(ctx, step.Table)
		if err == nil {
			event.Count = &n
		}
	case "startsWith":
		var recs []mirrordb.Record
		recs, err = db.StartsWith(ctx, step.Table, step.Prefix)
		if err == nil {
			n := int64(len(recs))
			event.Count = &n
		}
	case "increment":
		var v float64
		v, err = db.Increment(ctx, step.Table, step.ID, step.Column, step.Delta)
		if err == nil {
			event.Value = &v
		}
	}

	if err != nil {
		event.Error = errorKind(err)
	}
	return event
}

// errorKind maps a store error to its kind label; non-store errors
// come back verbatim so they stand out in traces.
func errorKind(err error) string {
	var se *mirrordb.Error
	if errors.As(err, &se) {
		return string(se.Kind)
	}
	return err.Error()
}
