package transfer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClient_Extract(t *testing.T) {
	var gotBody extractRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		fmt.Fprint(w, `{"datos": [{"nombre": "Firulais", "edad": 3}]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	rows, err := c.Extract(context.Background(), []byte("file bytes"))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(rows) != 1 || rows[0]["nombre"] != "Firulais" {
		t.Errorf("rows = %v", rows)
	}

	decoded, err := base64.StdEncoding.DecodeString(gotBody.ArchivoBase64)
	if err != nil || string(decoded) != "file bytes" {
		t.Errorf("uploaded content = %q (decode error %v)", decoded, err)
	}
}

func TestClient_Extract_Failures(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus int
	}{
		{
			name: "server error status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name: "top level array instead of object",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `[{"nombre": "x"}]`)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "datos is not an array",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"datos": "oops"}`)
			},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := NewClient(srv.URL, time.Second)
			_, err := c.Extract(context.Background(), []byte("x"))

			var xerr *ExtractionError
			if !errors.As(err, &xerr) {
				t.Fatalf("Extract() error = %v, want *ExtractionError", err)
			}
			if xerr.Status != tt.wantStatus {
				t.Errorf("status = %d, want %d", xerr.Status, tt.wantStatus)
			}
		})
	}
}

func TestClient_Extract_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.Extract(context.Background(), []byte("x"))

	var xerr *ExtractionError
	if !errors.As(err, &xerr) {
		t.Fatalf("Extract() error = %v, want *ExtractionError", err)
	}
	if xerr.Status != 0 {
		t.Errorf("status = %d, want 0 for transport failure", xerr.Status)
	}
}

func TestClient_Extract_MissingDatosIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	rows, err := c.Extract(context.Background(), []byte("x"))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("rows = %v, want none", rows)
	}
}
