package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// DocumentStore is the PostgreSQL-backed keyed-document store. Every record
// lives as one jsonb document keyed by (collection, id) in a single table.
//
// Snapshot subscriptions are fanned out locally after each write committed
// through this instance: the store re-reads the collection and publishes the
// result, so delivery order follows this instance's commit order. Writes by
// other processes become visible on the next local write or ReadAll.
type DocumentStore struct {
	db  DBTX
	hub *hub

	// mu serializes commit+publish so snapshot deliveries follow this
	// instance's commit order. Without it, a writer could publish a
	// re-read taken before a later writer's commit, regressing the
	// subscriber's view.
	mu sync.Mutex
}

// NewDocumentStore creates a document store on the given connection.
func NewDocumentStore(db DBTX) *DocumentStore {
	return &DocumentStore{db: db, hub: newHub()}
}

// EnsureSchema creates the backing table if it does not exist.
// Call once at startup.
func (s *DocumentStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS records (
			collection text NOT NULL,
			id         text NOT NULL,
			doc        jsonb NOT NULL,
			PRIMARY KEY (collection, id)
		)`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Create stores rec under a new identifier and returns it.
func (s *DocumentStore) Create(ctx context.Context, collection string, rec Record) (string, error) {
	doc, err := json.Marshal(rec)
	if err != nil {
		return "", &WriteError{Op: "create", Collection: collection, Err: err}
	}

	id := uuid.New().String()

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(ctx,
		`INSERT INTO records (collection, id, doc) VALUES ($1, $2, $3)`,
		collection, id, doc)
	if err != nil {
		return "", &WriteError{Op: "create", Collection: collection, Err: err}
	}

	s.publish(ctx, collection)
	return id, nil
}

// Update fully overwrites the document at id.
func (s *DocumentStore) Update(ctx context.Context, collection, id string, rec Record) error {
	doc, err := json.Marshal(rec)
	if err != nil {
		return &WriteError{Op: "update", Collection: collection, ID: id, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tag, err := s.db.Exec(ctx,
		`UPDATE records SET doc = $3 WHERE collection = $1 AND id = $2`,
		collection, id, doc)
	if err != nil {
		return &WriteError{Op: "update", Collection: collection, ID: id, Err: err}
	}
	if tag.RowsAffected() == 0 {
		return &WriteError{Op: "update", Collection: collection, ID: id, Err: ErrNotFound}
	}

	s.publish(ctx, collection)
	return nil
}

// Delete removes the document at id; removing a missing id is a no-op.
func (s *DocumentStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tag, err := s.db.Exec(ctx,
		`DELETE FROM records WHERE collection = $1 AND id = $2`,
		collection, id)
	if err != nil {
		return &WriteError{Op: "delete", Collection: collection, ID: id, Err: err}
	}

	if tag.RowsAffected() > 0 {
		s.publish(ctx, collection)
	}
	return nil
}

// ReadAll returns the collection's records in ascending identifier order.
func (s *DocumentStore) ReadAll(ctx context.Context, collection string) ([]Record, error) {
	snap, err := s.readSnapshot(ctx, collection)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(snap))
	for _, id := range sortedIDs(snap) {
		records = append(records, withID(id, snap[id]))
	}
	return records, nil
}

// Subscribe registers a snapshot stream primed with the current state.
// Registration runs under the write mutex so the primed snapshot cannot be
// older than a delivery already fanned out.
func (s *DocumentStore) Subscribe(ctx context.Context, collection string) (<-chan Snapshot, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.readSnapshot(ctx, collection)
	if err != nil {
		return nil, nil, err
	}

	ch, cancel := s.hub.subscribe(collection, snap)
	return ch, cancel, nil
}

// readSnapshot loads the full collection state.
func (s *DocumentStore) readSnapshot(ctx context.Context, collection string) (Snapshot, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, doc FROM records WHERE collection = $1`, collection)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", collection, err)
	}
	defer rows.Close()

	snap := make(Snapshot)
	for rows.Next() {
		var id string
		var doc []byte
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, fmt.Errorf("scan %s: %w", collection, err)
		}
		var rec Record
		if err := json.Unmarshal(doc, &rec); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", collection, id, err)
		}
		snap[id] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows %s: %w", collection, err)
	}

	return snap, nil
}

// publish re-reads the collection and delivers the snapshot to subscribers.
// The write itself already succeeded, so a failed re-read only skips the
// delivery; subscribers converge on the next committed write.
func (s *DocumentStore) publish(ctx context.Context, collection string) {
	snap, err := s.readSnapshot(ctx, collection)
	if err != nil {
		return
	}
	s.hub.publish(collection, snap)
}
