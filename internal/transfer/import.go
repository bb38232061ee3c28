package transfer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/jrmonge/recordhub/internal/store"
)

// ErrEmptyImport means extraction succeeded but produced zero rows.
// Nothing is written.
var ErrEmptyImport = errors.New("no rows extracted")

// RowMapper converts one extracted row into the record to store. Mappers
// never fail; missing or mistyped cells fall back to documented defaults.
// Returning nil skips the row and counts it as failed.
type RowMapper func(row map[string]any) store.Record

// Summary is the only surfaced output of an import run. Individual row
// failures are logged, never returned.
type Summary struct {
	Saved  int `json:"saved"`
	Failed int `json:"failed"`
}

// ImportedAtField is stamped onto every imported record with the run's
// wall-clock time, RFC 3339.
const ImportedAtField = "imported_at"

// Importer runs the sequential import pipeline: pick, extract, map, and
// write row by row. Each row's write is awaited before the next row starts
// so the tally is exact.
type Importer struct {
	picker    FilePicker
	extractor Extractor
	gateway   store.Store
	logger    *slog.Logger
	now       func() time.Time
}

// NewImporter wires the pipeline. A nil logger discards row diagnostics.
func NewImporter(picker FilePicker, extractor Extractor, gateway store.Store, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Importer{
		picker:    picker,
		extractor: extractor,
		gateway:   gateway,
		logger:    logger,
		now:       time.Now,
	}
}

// Run executes the full pipeline into the collection. A dismissed file
// selection returns ErrCancelled with nothing written.
func (i *Importer) Run(ctx context.Context, collection string, mapRow RowMapper) (Summary, error) {
	file, err := i.picker.Pick(ctx)
	if err != nil {
		return Summary{}, err
	}
	return i.ImportContent(ctx, collection, file.Content, mapRow)
}

// ImportContent runs extraction and the per-row write loop over already
// obtained file content. The web upload path enters here, bypassing the
// picker.
func (i *Importer) ImportContent(ctx context.Context, collection string, content []byte, mapRow RowMapper) (Summary, error) {
	rows, err := i.extractor.Extract(ctx, content)
	if err != nil {
		return Summary{}, err
	}
	if len(rows) == 0 {
		return Summary{}, ErrEmptyImport
	}

	stamp := i.now().Format(time.RFC3339)

	var sum Summary
	for n, row := range rows {
		rec := mapRow(row)
		if rec == nil {
			sum.Failed++
			i.logger.Warn("import row skipped by mapper", "collection", collection, "row", n+1)
			continue
		}
		rec[ImportedAtField] = stamp

		if _, err := i.gateway.Create(ctx, collection, rec); err != nil {
			sum.Failed++
			i.logger.Warn("import row write failed", "collection", collection, "row", n+1, "error", err)
			continue
		}
		sum.Saved++
	}

	i.logger.Info("import finished", "collection", collection, "saved", sum.Saved, "failed", sum.Failed)
	return sum, nil
}
