// Package store provides the record gateway: collection-scoped CRUD against
// pluggable keyed stores, plus push-based full-snapshot subscriptions and
// snapshot reconciliation.
//
// Two backend kinds implement the same logical contract: the in-process
// realtime tree store ([TreeStore]) and the PostgreSQL document store
// ([DocumentStore]). Identifiers are opaque, backend-assigned, and unique
// within a collection. Writes are full-document overwrites; concurrent
// updates resolve last-write-wins with no version checks.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// IDField is the record field under which a record's identifier is merged
// when records leave the store. If a stored record already carries a field
// with this name, the identifier wins.
const IDField = "id"

// Record is a mapping of field name to scalar value. Field presence is
// advisory only; no schema is enforced.
type Record = map[string]any

// Snapshot is an immutable point-in-time mapping from identifier to Record.
// Each subscription delivery fully replaces the previous Snapshot for the
// collection; there is no incremental-diff contract.
type Snapshot = map[string]Record

// Store is the gateway contract shared by all backends.
type Store interface {
	// Create assigns a new unique identifier and stores the record.
	// There are no uniqueness conflicts at this layer; failures are
	// network or backend rejections, reported as *WriteError.
	Create(ctx context.Context, collection string, rec Record) (string, error)

	// Update fully overwrites the record at id. Updating a missing
	// identifier is a *WriteError wrapping ErrNotFound.
	Update(ctx context.Context, collection, id string, rec Record) error

	// Delete removes the record at id. Deleting a missing identifier is
	// not an error.
	Delete(ctx context.Context, collection, id string) error

	// ReadAll returns every record in the collection in ascending
	// identifier order, each with its identifier merged under IDField.
	// An empty collection yields an empty slice.
	ReadAll(ctx context.Context, collection string) ([]Record, error)

	// Subscribe registers a snapshot stream for the collection. The
	// current state is delivered immediately; afterwards a delivery
	// follows every committed change, in commit order. A slow consumer
	// is coalesced to the latest snapshot. The returned cancel func is
	// the only way to stop deliveries; a delivery already buffered at
	// cancellation time may still be observed.
	Subscribe(ctx context.Context, collection string) (<-chan Snapshot, func(), error)
}

// ErrNotFound indicates an update against an identifier the store does not
// hold.
var ErrNotFound = errors.New("record not found")

// WriteError reports a rejected or failed write. Writes are not retried;
// each failure is reported exactly once to the caller, and no cross-
// collection rollback is attempted.
type WriteError struct {
	Op         string // "create", "update", or "delete"
	Collection string
	ID         string // empty for create failures
	Err        error
}

func (e *WriteError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s/%s: %v", e.Op, e.Collection, e.ID, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// cloneRecord copies a record so callers and subscribers cannot alias the
// store's internal state. Field values are scalars, so a shallow value copy
// suffices.
func cloneRecord(rec Record) Record {
	out := make(Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}

// cloneSnapshot deep-copies a snapshot for delivery.
func cloneSnapshot(snap Snapshot) Snapshot {
	out := make(Snapshot, len(snap))
	for id, rec := range snap {
		out[id] = cloneRecord(rec)
	}
	return out
}

// sortedIDs returns the snapshot's identifiers in ascending order. Go map
// iteration is randomized, so every place that needs a stable "snapshot
// iteration order" uses this.
func sortedIDs(snap Snapshot) []string {
	ids := make([]string, 0, len(snap))
	for id := range snap {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// withID returns a copy of rec with id merged under IDField.
// The identifier wins over any stored field of the same name.
func withID(id string, rec Record) Record {
	out := cloneRecord(rec)
	out[IDField] = id
	return out
}
