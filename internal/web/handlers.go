package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jrmonge/recordhub/internal/bmi"
	"github.com/jrmonge/recordhub/internal/logging"
	"github.com/jrmonge/recordhub/internal/session"
	"github.com/jrmonge/recordhub/internal/store"
	"github.com/jrmonge/recordhub/internal/transfer"
)

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleSignIn verifies credentials against the configured provider.
func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, &session.ValidationError{Field: "body", Reason: "malformed JSON"})
		return
	}

	if err := s.auth.SignIn(r.Context(), req.Email, req.Password); err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleList returns the collection as a reconciled record list. The
// optional sort query parameter names a date field; records sort newest
// first on it.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")

	records, err := s.store.ReadAll(r.Context(), collection)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if sortField := r.URL.Query().Get("sort"); sortField != "" {
		snap := make(store.Snapshot, len(records))
		for _, rec := range records {
			id, _ := rec[store.IDField].(string)
			snap[id] = rec
		}
		records = store.Reconcile(snap, store.ReconcileOptions{SortField: sortField})
	}

	writeJSON(w, http.StatusOK, records)
}

// handleCreate stores a new record and returns its identifier.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")

	rec, err := decodeRecord(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	id, err := s.store.Create(r.Context(), collection, rec)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// handleUpdate fully overwrites the record at id.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	id := chi.URLParam(r, "id")

	rec, err := decodeRecord(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.store.Update(r.Context(), collection, id, rec); err != nil {
		s.respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleDelete removes the record at id. Deleting a missing record still
// answers 204.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	id := chi.URLParam(r, "id")

	if err := s.store.Delete(r.Context(), collection, id); err != nil {
		s.respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleEvents streams collection snapshots via Server-Sent Events. The
// current state arrives as the first event; every committed change follows
// as a full replacement snapshot, reconciled into a record list.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	sortField := r.URL.Query().Get("sort")

	snapshots, cancel, err := s.store.Subscribe(r.Context(), collection)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, r, errors.New("streaming not supported"))
		return
	}

	for {
		select {
		case snap, ok := <-snapshots:
			if !ok {
				return
			}

			records := store.Reconcile(snap, store.ReconcileOptions{SortField: sortField})
			data, err := json.Marshal(records)
			if err != nil {
				logging.FromContext(r.Context()).Error("snapshot encode failed",
					"collection", collection, "error", err)
				return
			}

			fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data)
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// handleImportUpload feeds an uploaded spreadsheet through the import
// pipeline, bypassing the file picker. The multipart field is "file"; the
// mapper query parameter selects the row shape (pet, bike, or generic).
func (s *Server) handleImportUpload(w http.ResponseWriter, r *http.Request) {
	if s.importer == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error: "Import is not configured.",
			Code:  "import-disabled",
		})
		return
	}

	collection := chi.URLParam(r, "collection")

	mapper, err := mapperFor(r.URL.Query().Get("mapper"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Extraction.MaxFileSize)
	if err := r.ParseMultipartForm(s.cfg.Extraction.MaxFileSize); err != nil {
		s.respondError(w, r, &session.ValidationError{Field: "file", Reason: "upload too large or malformed"})
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, &session.ValidationError{Field: "file", Reason: "missing file field"})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	sum, err := s.importer.ImportContent(r.Context(), collection, content, mapper)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sum)
}

// handleImportLocal runs the full pipeline, including the server-side file
// picker. A dismissed selection answers 204 with nothing written.
func (s *Server) handleImportLocal(w http.ResponseWriter, r *http.Request) {
	if s.importer == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error: "Import is not configured.",
			Code:  "import-disabled",
		})
		return
	}

	collection := chi.URLParam(r, "collection")

	mapper, err := mapperFor(r.URL.Query().Get("mapper"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	sum, err := s.importer.Run(r.Context(), collection, mapper)
	if errors.Is(err, transfer.ErrCancelled) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sum)
}

// mapperFor selects a built-in row mapper by name.
func mapperFor(name string) (transfer.RowMapper, error) {
	switch name {
	case "pet":
		return transfer.PetMapper, nil
	case "bike":
		return transfer.BikeMapper, nil
	case "", "generic":
		return transfer.GenericMapper, nil
	default:
		return nil, &session.ValidationError{Field: "mapper", Reason: "must be one of: pet, bike, generic"}
	}
}

// handleExport serializes the named collections and returns the YAML
// document. Clipboard and share delivery run as best-effort side effects;
// their failures are logged and flagged in a header, never fail the
// response.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error: "Export is not configured.",
			Code:  "export-disabled",
		})
		return
	}

	raw := r.URL.Query().Get("collections")
	if strings.TrimSpace(raw) == "" {
		s.respondError(w, r, &session.ValidationError{Field: "collections", Reason: "required"})
		return
	}
	var collections []string
	for _, c := range strings.Split(raw, ",") {
		if c = strings.TrimSpace(c); c != "" {
			collections = append(collections, c)
		}
	}

	doc, err := s.exporter.Export(r.Context(), collections...)
	if doc == nil {
		s.respondError(w, r, err)
		return
	}
	if err != nil {
		// Serialization succeeded; only delivery failed.
		logging.FromContext(r.Context()).Warn("export delivery incomplete", "error", err)
		w.Header().Set("X-Delivery-Incomplete", "true")
	}

	w.Header().Set("Content-Type", "application/yaml")
	w.Write(doc)
}

type bmiRequest struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
	Height float64 `json:"height"`
}

type bmiResponse struct {
	ID       string  `json:"id"`
	Index    float64 `json:"index"`
	Category string  `json:"category"`
}

// measurementsCollection holds computed measurements for history listing.
const measurementsCollection = "measurements"

// handleBMI computes, classifies, and stores one measurement.
func (s *Server) handleBMI(w http.ResponseWriter, r *http.Request) {
	var req bmiRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, &session.ValidationError{Field: "body", Reason: "malformed JSON"})
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		s.respondError(w, r, &session.ValidationError{Field: "name", Reason: "required"})
		return
	}
	if req.Weight <= 0 {
		s.respondError(w, r, &session.ValidationError{Field: "weight", Reason: "must be greater than zero"})
		return
	}
	if req.Height <= 0 {
		s.respondError(w, r, &session.ValidationError{Field: "height", Reason: "must be greater than zero"})
		return
	}

	m := bmi.NewMeasurement(strings.TrimSpace(req.Name), req.Weight, req.Height, time.Now())

	id, err := s.store.Create(r.Context(), measurementsCollection, m.Fields())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, bmiResponse{
		ID:       id,
		Index:    m.Index,
		Category: m.Category.String(),
	})
}

// decodeRecord reads a JSON object body into a record. The identifier
// field, if present, is dropped; identifiers travel in the URL.
func decodeRecord(r *http.Request) (store.Record, error) {
	var rec store.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		return nil, &session.ValidationError{Field: "body", Reason: "malformed JSON object"}
	}
	if len(rec) == 0 {
		return nil, &session.ValidationError{Field: "body", Reason: "record must have at least one field"}
	}
	delete(rec, store.IDField)
	return rec, nil
}
