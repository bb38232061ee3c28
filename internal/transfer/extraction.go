package transfer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ExtractionError reports a failed round trip to the extraction service:
// transport failure, non-2xx status, or a body that is not a JSON object
// carrying a "datos" array.
type ExtractionError struct {
	Status int // 0 when the request never completed
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("extraction service: status %d: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("extraction service: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Extractor turns raw spreadsheet content into row objects.
type Extractor interface {
	Extract(ctx context.Context, content []byte) ([]map[string]any, error)
}

// Client calls the remote extraction endpoint. The wire format is fixed:
// the file goes up base64-encoded under "archivoBase64", rows come back
// under "datos".
type Client struct {
	endpoint string
	client   *http.Client
}

// NewClient creates an extraction client for the given endpoint.
func NewClient(endpoint string, timeout time.Duration) *Client {
	return &Client{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type extractRequest struct {
	ArchivoBase64 string `json:"archivoBase64"`
}

type extractResponse struct {
	Datos []map[string]any `json:"datos"`
}

// Extract uploads the content and returns the extracted rows. The service
// answering with no "datos" field yields an empty slice; callers decide
// whether that aborts the import.
func (c *Client) Extract(ctx context.Context, content []byte) ([]map[string]any, error) {
	body, err := json.Marshal(extractRequest{
		ArchivoBase64: base64.StdEncoding.EncodeToString(content),
	})
	if err != nil {
		return nil, &ExtractionError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &ExtractionError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &ExtractionError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ExtractionError{
			Status: resp.StatusCode,
			Err:    fmt.Errorf("unexpected status"),
		}
	}

	var out extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &ExtractionError{Status: resp.StatusCode, Err: fmt.Errorf("malformed body: %w", err)}
	}
	return out.Datos, nil
}
