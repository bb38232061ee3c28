package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jrmonge/recordhub/internal/store"
)

// Exporter serializes collections and delivers the result to the clipboard
// and the share target. The two deliveries are independent best-effort
// attempts: both always run, and neither rolls back the other.
type Exporter struct {
	gateway   store.Store
	clipboard Clipboard
	sharer    Sharer
	logger    *slog.Logger
	now       func() time.Time
}

// NewExporter wires the export direction. A nil logger discards
// diagnostics.
func NewExporter(gateway store.Store, clipboard Clipboard, sharer Sharer, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Exporter{
		gateway:   gateway,
		clipboard: clipboard,
		sharer:    sharer,
		logger:    logger,
		now:       time.Now,
	}
}

// Export reads every named collection, serializes the lot as one YAML
// document keyed by collection, and delivers it. Read failures abort before
// any delivery; delivery failures are joined so the caller sees both.
func (e *Exporter) Export(ctx context.Context, collections ...string) ([]byte, error) {
	doc := make(map[string][]store.Record, len(collections))
	for _, collection := range collections {
		records, err := e.gateway.ReadAll(ctx, collection)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", collection, err)
		}
		doc[collection] = records
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("serialize export: %w", err)
	}

	name := fmt.Sprintf("export-%s.yaml", e.now().Format("20060102-150405"))

	var copyErr, shareErr error
	if copyErr = e.clipboard.Copy(ctx, string(out)); copyErr != nil {
		e.logger.Warn("export clipboard delivery failed", "error", copyErr)
		copyErr = fmt.Errorf("clipboard: %w", copyErr)
	}
	if shareErr = e.sharer.Share(ctx, name, out); shareErr != nil {
		e.logger.Warn("export share delivery failed", "file", name, "error", shareErr)
		shareErr = fmt.Errorf("share: %w", shareErr)
	}

	return out, errors.Join(copyErr, shareErr)
}
