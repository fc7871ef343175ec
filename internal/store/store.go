// Package store provides the abstract key-value-over-collections interface
// the rest of the engine is built against: findOne/findMany/insertOne/
// updateOne/deleteOne with atomic $set/$inc/$unset update semantics, exactly
// as spec.md's state-store-adapter component describes. The persistent
// store engine itself is an external collaborator (spec §1); this package
// is the in-scope adapter plus one concrete pebble-backed implementation.
package store

import "fmt"

// Doc is a generic document: every collection record is a string-keyed map
// so the adapter never needs per-entity schema knowledge.
type Doc map[string]any

// Update describes a single atomic mutation against a matched document.
// Set, Inc and Unset are all applied in one call, in that order; any of
// them may be empty.
type Update struct {
	Set   map[string]any
	Inc   map[string]int64
	Unset []string
}

// Filter selects documents within a collection. A nil Filter matches all
// documents. PebbleStore passes a freshly decoded document; MemoryStore
// passes its stored document itself, so a Filter must not modify it.
type Filter func(d Doc) bool

// FindOptions controls FindMany paging/sorting.
type FindOptions struct {
	SortBy        string
	SortDescending bool
	Limit         int // 0 = unlimited
	Offset        int
}

// Store is the abstract adapter every handler and read-projection talks to.
type Store interface {
	InsertOne(collection string, id string, doc Doc) error
	FindOne(collection string, id string) (Doc, bool, error)
	FindMany(collection string, filter Filter, opts FindOptions) ([]Doc, error)
	UpdateOne(collection string, id string, upd Update) error
	// UpdateOneGuarded applies upd only if guard(doc) returns true for the
	// current document; returns ErrGuardMismatch otherwise (spec §7:
	// "concurrency invariant violations" -- an owner check that fails).
	UpdateOneGuarded(collection string, id string, guard Filter, upd Update) error
	DeleteOne(collection string, id string) error
	Count(collection string, filter Filter) (int, error)
	Close() error
}

// ErrNotFound is returned by UpdateOne/UpdateOneGuarded, and by
// MemoryStore.DeleteOne, when id is absent. FindOne reports absence through
// its bool result instead, and PebbleStore.DeleteOne of an absent id succeeds.
var ErrNotFound = fmt.Errorf("store: document not found")

// ErrGuardMismatch is returned by UpdateOneGuarded when the guard predicate
// rejects the current document (ownership changed underneath the caller).
var ErrGuardMismatch = fmt.Errorf("store: guard predicate mismatch")

func cloneDoc(d Doc) Doc {
	out := make(Doc, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

func applyUpdate(d Doc, upd Update) {
	for k, v := range upd.Set {
		d[k] = v
	}
	for k, delta := range upd.Inc {
		cur, _ := d[k].(int64)
		d[k] = cur + delta
	}
	for _, k := range upd.Unset {
		delete(d, k)
	}
}
