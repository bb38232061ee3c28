package store

import (
	"reflect"
	"testing"
)

func TestReconcile_SortsByDateDescending(t *testing.T) {
	snap := Snapshot{
		"a": {"name": "first", "created_at": "2024-01-01"},
		"b": {"name": "third", "created_at": "2024-03-01"},
		"c": {"name": "second", "created_at": "2024-02-01"},
	}

	out := Reconcile(snap, ReconcileOptions{SortField: "created_at"})

	got := make([]string, len(out))
	for i, rec := range out {
		got[i] = rec["name"].(string)
	}
	want := []string{"third", "second", "first"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestReconcile_IsIdempotent(t *testing.T) {
	snap := Snapshot{
		"k1": {"name": "a", "created_at": "2024-01-05T10:00:00Z"},
		"k2": {"name": "b", "created_at": "garbage"},
		"k3": {"name": "c"},
		"k4": {"name": "d", "created_at": "2024-01-06T10:00:00Z"},
	}
	opts := ReconcileOptions{SortField: "created_at"}

	first := Reconcile(snap, opts)
	second := Reconcile(snap, opts)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Reconcile not idempotent:\nfirst  = %v\nsecond = %v", first, second)
	}
}

func TestReconcile_UnparseableDatesSortLast(t *testing.T) {
	snap := Snapshot{
		"a": {"created_at": "not a date"},
		"b": {"created_at": "2024-06-01"},
		"c": {}, // missing field
		"d": {"created_at": "2024-07-01"},
	}

	out := Reconcile(snap, ReconcileOptions{SortField: "created_at"})

	got := make([]string, len(out))
	for i, rec := range out {
		got[i] = rec[IDField].(string)
	}
	// Dated records descending, then undated in iteration (key) order.
	want := []string{"d", "b", "a", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestReconcile_NoSortFieldKeepsIterationOrder(t *testing.T) {
	snap := Snapshot{
		"z": {"name": "last"},
		"a": {"name": "first"},
		"m": {"name": "middle"},
	}

	out := Reconcile(snap, ReconcileOptions{})

	got := make([]string, len(out))
	for i, rec := range out {
		got[i] = rec[IDField].(string)
	}
	want := []string{"a", "m", "z"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestReconcile_IdentifierWinsOnCollision(t *testing.T) {
	snap := Snapshot{
		"real-id": {"id": "stored-id-field", "name": "x"},
	}

	out := Reconcile(snap, ReconcileOptions{})
	if out[0]["id"] != "real-id" {
		t.Errorf("id field = %v, want real-id", out[0]["id"])
	}
}

func TestReconcile_LocaleTimestampLayouts(t *testing.T) {
	// d/m/y locale strings written by older clients parse via the
	// fallback layouts.
	snap := Snapshot{
		"a": {"fecha": "2/1/2024, 08:30:00"},
		"b": {"fecha": "15/3/2024, 18:45:10"},
	}

	out := Reconcile(snap, ReconcileOptions{SortField: "fecha"})
	if out[0][IDField] != "b" {
		t.Errorf("newest-first order broken: first = %v", out[0][IDField])
	}
}

func TestReconcile_DoesNotMutateInput(t *testing.T) {
	snap := Snapshot{
		"a": {"name": "x"},
	}

	out := Reconcile(snap, ReconcileOptions{})
	out[0]["name"] = "tampered"

	if snap["a"]["name"] != "x" {
		t.Error("Reconcile output aliases the input snapshot")
	}
	if _, ok := snap["a"][IDField]; ok {
		t.Error("Reconcile wrote the identifier into the input snapshot")
	}
}
