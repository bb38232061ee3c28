package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// TreeStore is the in-process realtime tree store. Collections are paths in
// a two-level tree (collection -> push key -> record); every committed write
// fans the collection's full snapshot out to subscribers.
//
// It is the default backend and doubles as the test double for the gateway
// contract. State is not persisted across restarts.
type TreeStore struct {
	mu   sync.Mutex
	data map[string]Snapshot
	hub  *hub
}

// NewTreeStore creates an empty tree store.
func NewTreeStore() *TreeStore {
	return &TreeStore{
		data: make(map[string]Snapshot),
		hub:  newHub(),
	}
}

// Create stores rec under a freshly pushed key and returns it.
func (s *TreeStore) Create(ctx context.Context, collection string, rec Record) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &WriteError{Op: "create", Collection: collection, Err: err}
	}

	id := uuid.New().String()

	s.mu.Lock()
	if s.data[collection] == nil {
		s.data[collection] = make(Snapshot)
	}
	s.data[collection][id] = cloneRecord(rec)
	snap := cloneSnapshot(s.data[collection])
	s.hub.publish(collection, snap)
	s.mu.Unlock()

	return id, nil
}

// Update overwrites the record at id. The whole document is replaced, not
// patched; a concurrent update race silently discards the loser's data.
func (s *TreeStore) Update(ctx context.Context, collection, id string, rec Record) error {
	if err := ctx.Err(); err != nil {
		return &WriteError{Op: "update", Collection: collection, ID: id, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[collection][id]; !ok {
		return &WriteError{Op: "update", Collection: collection, ID: id, Err: ErrNotFound}
	}
	s.data[collection][id] = cloneRecord(rec)
	s.hub.publish(collection, cloneSnapshot(s.data[collection]))
	return nil
}

// Delete removes the record at id. Removing a missing id is a no-op and no
// snapshot is delivered for it.
func (s *TreeStore) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return &WriteError{Op: "delete", Collection: collection, ID: id, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[collection][id]; !ok {
		return nil
	}
	delete(s.data[collection], id)
	s.hub.publish(collection, cloneSnapshot(s.data[collection]))
	return nil
}

// ReadAll returns the collection's records in ascending identifier order.
func (s *TreeStore) ReadAll(ctx context.Context, collection string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	snap := cloneSnapshot(s.data[collection])
	s.mu.Unlock()

	records := make([]Record, 0, len(snap))
	for _, id := range sortedIDs(snap) {
		records = append(records, withID(id, snap[id]))
	}
	return records, nil
}

// Subscribe registers a snapshot stream for the collection. The current
// state is delivered immediately, even when the collection is empty.
func (s *TreeStore) Subscribe(ctx context.Context, collection string) (<-chan Snapshot, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ch, cancel := s.hub.subscribe(collection, s.data[collection])
	return ch, cancel, nil
}
