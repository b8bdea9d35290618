package mirrordb

import (
	"fmt"

	"golang.org/x/sync/errgroup"
)

// AttachMirror adds a secondary store instance that will receive a
// replay of every mutating operation performed on db, after the local
// operation succeeds. Mirrors receive replays in attach order and may
// carry mirrors of their own.
//
// Self-attachment and any attachment that would make db reachable from
// the new mirror are rejected, since either would replicate forever.
// Detaching is not supported.
func (db *DB) AttachMirror(m *DB) error {
	if m == nil {
		return invalidTypef("cannot attach a nil mirror")
	}
	if m == db {
		return invalidTypef("cannot attach a store to itself")
	}
	if m.reaches(db) {
		return invalidTypef("attaching this mirror would create a replication cycle")
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	db.mirrors = append(db.mirrors, m)
	return nil
}

// Mirrors returns the attached mirrors in attach order.
func (db *DB) Mirrors() []*DB {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]*DB, len(db.mirrors))
	copy(out, db.mirrors)
	return out
}

// reaches reports whether target is reachable from db through the
// mirror tree.
func (db *DB) reaches(target *DB) bool {
	if db == target {
		return true
	}
	for _, m := range db.Mirrors() {
		if m.reaches(target) {
			return true
		}
	}
	return false
}

// replicate replays a mutating operation against every attached
// mirror. The caller's local write has already committed, so a mirror
// failure surfaces to the caller with no compensating action; there
// are no retries and no timeout.
func (db *DB) replicate(op func(m *DB) error) error {
	mirrors := db.Mirrors()
	if len(mirrors) == 0 {
		return nil
	}

	if db.policy == ReplicateParallel {
		var g errgroup.Group
		for i, m := range mirrors {
			g.Go(func() error {
				if err := op(m); err != nil {
					return fmt.Errorf("mirror %d: %w", i, err)
				}
				return nil
			})
		}
		return g.Wait()
	}

	for i, m := range mirrors {
		if err := op(m); err != nil {
			return fmt.Errorf("mirror %d: %w", i, err)
		}
	}
	return nil
}
