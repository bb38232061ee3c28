package transfer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jrmonge/recordhub/internal/store"
)

type stubPicker struct {
	file File
	err  error
}

func (p stubPicker) Pick(ctx context.Context) (File, error) {
	return p.file, p.err
}

type stubExtractor struct {
	rows []map[string]any
	err  error
}

func (e stubExtractor) Extract(ctx context.Context, content []byte) ([]map[string]any, error) {
	return e.rows, e.err
}

// failNthStore wraps a TreeStore and fails the n-th Create call.
type failNthStore struct {
	store.Store
	n     int
	calls int
}

func (s *failNthStore) Create(ctx context.Context, collection string, rec store.Record) (string, error) {
	s.calls++
	if s.calls == s.n {
		return "", &store.WriteError{Op: "create", Collection: collection, Err: errors.New("rejected")}
	}
	return s.Store.Create(ctx, collection, rec)
}

func petRows(n int) []map[string]any {
	rows := make([]map[string]any, n)
	for i := range rows {
		rows[i] = map[string]any{"nombre": fmt.Sprintf("pet-%d", i+1), "edad": float64(i), "raza": "mixta"}
	}
	return rows
}

func TestImporter_TalliesRowFailuresAndContinues(t *testing.T) {
	gw := &failNthStore{Store: store.NewTreeStore(), n: 3}
	imp := NewImporter(stubPicker{file: File{Name: "pets.xlsx"}}, stubExtractor{rows: petRows(5)}, gw, nil)

	sum, err := imp.Run(context.Background(), "pets", PetMapper)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if sum.Saved != 4 || sum.Failed != 1 {
		t.Errorf("summary = %+v, want 4 saved / 1 failed", sum)
	}

	records, err := gw.ReadAll(context.Background(), "pets")
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(records) != 4 {
		t.Errorf("stored %d records, want 4", len(records))
	}
	for _, rec := range records {
		if _, ok := rec[ImportedAtField].(string); !ok {
			t.Errorf("record missing %s stamp: %v", ImportedAtField, rec)
		}
	}
}

func TestImporter_EmptyExtractionWritesNothing(t *testing.T) {
	gw := store.NewTreeStore()
	imp := NewImporter(stubPicker{}, stubExtractor{rows: nil}, gw, nil)

	_, err := imp.Run(context.Background(), "pets", PetMapper)
	if !errors.Is(err, ErrEmptyImport) {
		t.Fatalf("Run() error = %v, want ErrEmptyImport", err)
	}

	records, _ := gw.ReadAll(context.Background(), "pets")
	if len(records) != 0 {
		t.Errorf("stored %d records after empty extraction", len(records))
	}
}

func TestImporter_CancelledSelectionHaltsPipeline(t *testing.T) {
	gw := store.NewTreeStore()
	imp := NewImporter(stubPicker{err: ErrCancelled}, stubExtractor{rows: petRows(2)}, gw, nil)

	_, err := imp.Run(context.Background(), "pets", PetMapper)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("Run() error = %v, want ErrCancelled", err)
	}

	records, _ := gw.ReadAll(context.Background(), "pets")
	if len(records) != 0 {
		t.Error("cancelled selection still wrote records")
	}
}

func TestImporter_ExtractionFailurePropagates(t *testing.T) {
	wantErr := &ExtractionError{Status: 500, Err: errors.New("unexpected status")}
	imp := NewImporter(stubPicker{}, stubExtractor{err: wantErr}, store.NewTreeStore(), nil)

	_, err := imp.Run(context.Background(), "pets", PetMapper)
	var xerr *ExtractionError
	if !errors.As(err, &xerr) {
		t.Fatalf("Run() error = %v, want *ExtractionError", err)
	}
}

func TestImporter_NilMapperResultCountsAsFailed(t *testing.T) {
	skipSecond := func(row map[string]any) store.Record {
		if row["nombre"] == "pet-2" {
			return nil
		}
		return PetMapper(row)
	}
	imp := NewImporter(stubPicker{}, stubExtractor{rows: petRows(3)}, store.NewTreeStore(), nil)

	sum, err := imp.Run(context.Background(), "pets", skipSecond)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if sum.Saved != 2 || sum.Failed != 1 {
		t.Errorf("summary = %+v, want 2 saved / 1 failed", sum)
	}
}
