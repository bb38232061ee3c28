package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jrmonge/recordhub/internal/validate"
)

// RESTProvider authenticates against a remote identity endpoint.
//
// The endpoint accepts POST {"email", "password", "returnSecureToken"} and
// answers non-2xx with {"error": {"message": "<PROVIDER_CODE>"}}. Provider
// codes are mapped onto the package taxonomy; anything unrecognized becomes
// CodeUnknown.
type RESTProvider struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewRESTProvider creates a provider for the given endpoint. The apiKey is
// passed as the "key" query parameter when non-empty.
func NewRESTProvider(endpoint, apiKey string, timeout time.Duration) *RESTProvider {
	return &RESTProvider{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
	}
}

type signInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signInFailure struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// SignIn validates the email locally, then performs one identity round trip.
// No retry is attempted; each failure is reported once.
func (p *RESTProvider) SignIn(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if !validate.Email(email) {
		return &Error{Code: CodeInvalidEmail}
	}

	body, err := json.Marshal(signInRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	})
	if err != nil {
		return &Error{Code: CodeUnknown, Err: err}
	}

	url := p.endpoint
	if p.apiKey != "" {
		url += "?key=" + p.apiKey
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &Error{Code: CodeUnknown, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return &Error{Code: CodeNetworkFailure, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var failure signInFailure
	if err := json.NewDecoder(resp.Body).Decode(&failure); err != nil {
		return &Error{Code: CodeUnknown, Err: fmt.Errorf("status %d: %w", resp.StatusCode, err)}
	}

	return &Error{
		Code: mapProviderCode(failure.Error.Message),
		Err:  fmt.Errorf("provider: %s", failure.Error.Message),
	}
}

// mapProviderCode translates remote provider codes to the local taxonomy.
// TOO_MANY_ATTEMPTS arrives with an explanatory suffix, so it matches by
// prefix.
func mapProviderCode(code string) Code {
	switch {
	case code == "INVALID_EMAIL":
		return CodeInvalidEmail
	case code == "EMAIL_NOT_FOUND":
		return CodeUserNotFound
	case code == "INVALID_PASSWORD", code == "INVALID_LOGIN_CREDENTIALS":
		return CodeWrongPassword
	case strings.HasPrefix(code, "TOO_MANY_ATTEMPTS"):
		return CodeTooManyRequests
	default:
		return CodeUnknown
	}
}
