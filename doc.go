// Package mirrordb is a schema-typed record store on top of SQLite
// with synchronous fan-out replication to attached mirror instances.
//
// Each table carries an ordered, typed column list with a mandatory
// Text identity column named "id". Values are coerced between their
// logical type (Text, Number, Boolean, Json) and the storage primitive
// the engine persists (TEXT, REAL, INTEGER 0/1, canonical JSON TEXT).
//
// A DB owns one storage-engine handle, one schema registry, and an
// ordered list of mirrors. Every mutating operation that succeeds
// locally is replayed by argument against each mirror before the call
// returns; mirrors may carry mirrors of their own, so replication
// recurses depth-first through the tree. A mirror failure surfaces
// through the primary's call with the primary's own row already
// committed; there is no rollback, retry, or timeout.
//
// Reads (Get, All, Has, StartsWith) never replicate.
package mirrordb
