package store

import (
	"fmt"
	"sort"
	"time"
)

// reconcile.go converts raw snapshots into ordered, client-facing lists.
//
// Reconciliation is a pure function of the snapshot: running it twice on the
// same input produces identical output. "Snapshot iteration order" is defined
// as ascending identifier order so that output is deterministic even though
// the backing map has no inherent order.

// DefaultTimeLayouts are the layouts tried, in order, when parsing a sort
// field as a date. The d/m/y forms cover locale-formatted timestamps written
// by older clients.
var DefaultTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2/1/2006, 15:04:05",
	"2/1/2006, 3:04:05 PM",
}

// ReconcileOptions configures how a snapshot becomes a list.
type ReconcileOptions struct {
	// IDField is the field name the identifier is merged under.
	// Defaults to IDField ("id"). The identifier wins on collision.
	IDField string

	// SortField, when set, names a field parsed as a date; records sort
	// by it descending (newest first). Records whose sort field is
	// missing or unparseable sort last, in snapshot iteration order
	// among themselves. When empty, snapshot iteration order is kept.
	SortField string

	// Layouts overrides DefaultTimeLayouts when non-nil.
	Layouts []string
}

// Reconcile converts a snapshot into an ordered, de-duplicated list of
// records, each annotated with its identifier.
func Reconcile(snap Snapshot, opts ReconcileOptions) []Record {
	idField := opts.IDField
	if idField == "" {
		idField = IDField
	}

	records := make([]Record, 0, len(snap))
	for _, id := range sortedIDs(snap) {
		rec := cloneRecord(snap[id])
		rec[idField] = id
		records = append(records, rec)
	}

	if opts.SortField == "" {
		return records
	}

	layouts := opts.Layouts
	if layouts == nil {
		layouts = DefaultTimeLayouts
	}

	// Partition into dated and undated, preserving relative order within
	// each group; dated records sort descending, undated go last.
	type dated struct {
		rec Record
		at  time.Time
	}
	var withTime []dated
	var withoutTime []Record

	for _, rec := range records {
		if at, ok := parseTimeField(rec[opts.SortField], layouts); ok {
			withTime = append(withTime, dated{rec: rec, at: at})
		} else {
			withoutTime = append(withoutTime, rec)
		}
	}

	sort.SliceStable(withTime, func(i, j int) bool {
		return withTime[i].at.After(withTime[j].at)
	})

	out := make([]Record, 0, len(records))
	for _, d := range withTime {
		out = append(out, d.rec)
	}
	return append(out, withoutTime...)
}

// parseTimeField attempts to parse a field value as a timestamp.
func parseTimeField(v any, layouts []string) (time.Time, bool) {
	var s string
	switch val := v.(type) {
	case nil:
		return time.Time{}, false
	case string:
		s = val
	case time.Time:
		return val, true
	default:
		s = fmt.Sprint(val)
	}

	for _, layout := range layouts {
		if at, err := time.Parse(layout, s); err == nil {
			return at, true
		}
	}
	return time.Time{}, false
}
