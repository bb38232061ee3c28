package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLocalProvider_SignIn(t *testing.T) {
	p := NewLocalProvider()
	if err := p.AddUser("user@example.com", "hunter2"); err != nil {
		t.Fatalf("AddUser() error = %v", err)
	}
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
		wantCode Code
	}{
		{name: "success", email: "user@example.com", password: "hunter2", wantCode: ""},
		{name: "case insensitive email", email: "User@Example.COM", password: "hunter2", wantCode: ""},
		{name: "malformed email", email: "not-an-email", wantCode: CodeInvalidEmail},
		{name: "unknown account", email: "nobody@example.com", password: "x", wantCode: CodeUserNotFound},
		{name: "wrong password", email: "user@example.com", password: "wrong", wantCode: CodeWrongPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.SignIn(ctx, tt.email, tt.password)
			if tt.wantCode == "" {
				if err != nil {
					t.Errorf("SignIn() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("SignIn() expected error")
			}
			if got := CodeOf(err); got != tt.wantCode {
				t.Errorf("code = %v, want %v", got, tt.wantCode)
			}
		})
	}
}

func TestLocalProvider_ThrottlesAfterRepeatedFailures(t *testing.T) {
	p := NewLocalProvider()
	if err := p.AddUser("user@example.com", "hunter2"); err != nil {
		t.Fatalf("AddUser() error = %v", err)
	}
	ctx := context.Background()

	for i := 0; i < maxFailedAttempts; i++ {
		if err := p.SignIn(ctx, "user@example.com", "wrong"); CodeOf(err) != CodeWrongPassword {
			t.Fatalf("attempt %d: code = %v, want wrong-password", i, CodeOf(err))
		}
	}

	// Even the correct password is throttled now.
	err := p.SignIn(ctx, "user@example.com", "hunter2")
	if CodeOf(err) != CodeTooManyRequests {
		t.Errorf("code = %v, want too-many-requests", CodeOf(err))
	}
}

func TestLocalProvider_LockoutExpires(t *testing.T) {
	p := NewLocalProvider()
	if err := p.AddUser("user@example.com", "hunter2"); err != nil {
		t.Fatalf("AddUser() error = %v", err)
	}
	ctx := context.Background()

	clock := time.Now()
	p.now = func() time.Time { return clock }

	for i := 0; i < maxFailedAttempts; i++ {
		if err := p.SignIn(ctx, "user@example.com", "wrong"); CodeOf(err) != CodeWrongPassword {
			t.Fatalf("attempt %d: code = %v, want wrong-password", i, CodeOf(err))
		}
	}
	if err := p.SignIn(ctx, "user@example.com", "hunter2"); CodeOf(err) != CodeTooManyRequests {
		t.Fatalf("inside window: code = %v, want too-many-requests", CodeOf(err))
	}

	// Once the window passes, the correct password signs in and clears
	// the counter.
	clock = clock.Add(lockoutPeriod)
	if err := p.SignIn(ctx, "user@example.com", "hunter2"); err != nil {
		t.Fatalf("after window: SignIn() error = %v, want nil", err)
	}
	if err := p.SignIn(ctx, "user@example.com", "wrong"); CodeOf(err) != CodeWrongPassword {
		t.Errorf("counter not cleared: code = %v, want wrong-password", CodeOf(err))
	}
}

func TestRESTProvider_MapsProviderCodes(t *testing.T) {
	tests := []struct {
		name         string
		providerCode string
		wantCode     Code
	}{
		{name: "unknown email", providerCode: "EMAIL_NOT_FOUND", wantCode: CodeUserNotFound},
		{name: "wrong password", providerCode: "INVALID_PASSWORD", wantCode: CodeWrongPassword},
		{name: "invalid credential", providerCode: "INVALID_LOGIN_CREDENTIALS", wantCode: CodeWrongPassword},
		{name: "throttled with suffix", providerCode: "TOO_MANY_ATTEMPTS_TRY_LATER : blocked.", wantCode: CodeTooManyRequests},
		{name: "unrecognized", providerCode: "SOMETHING_ELSE", wantCode: CodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				fmt.Fprintf(w, `{"error":{"message":%q}}`, tt.providerCode)
			}))
			defer srv.Close()

			p := NewRESTProvider(srv.URL, "", time.Second)
			err := p.SignIn(context.Background(), "user@example.com", "pw")
			if got := CodeOf(err); got != tt.wantCode {
				t.Errorf("code = %v, want %v", got, tt.wantCode)
			}
		})
	}
}

func TestRESTProvider_Success(t *testing.T) {
	var gotBody signInRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		fmt.Fprint(w, `{"idToken":"tok"}`)
	}))
	defer srv.Close()

	p := NewRESTProvider(srv.URL, "", time.Second)
	if err := p.SignIn(context.Background(), "user@example.com", "pw"); err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if gotBody.Email != "user@example.com" || gotBody.Password != "pw" {
		t.Errorf("request body = %+v", gotBody)
	}
}

func TestRESTProvider_InvalidEmailSkipsNetwork(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer srv.Close()

	p := NewRESTProvider(srv.URL, "", time.Second)
	err := p.SignIn(context.Background(), "bad email@x", "pw")
	if CodeOf(err) != CodeInvalidEmail {
		t.Errorf("code = %v, want invalid-email", CodeOf(err))
	}
	if requests != 0 {
		t.Errorf("identity endpoint was called %d times for a locally invalid email", requests)
	}
}

func TestRESTProvider_NetworkFailure(t *testing.T) {
	// Closed server: connection refused.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	p := NewRESTProvider(srv.URL, "", time.Second)
	err := p.SignIn(context.Background(), "user@example.com", "pw")
	if CodeOf(err) != CodeNetworkFailure {
		t.Errorf("code = %v, want network-failure", CodeOf(err))
	}
}

func TestMessage_CoversAllCodes(t *testing.T) {
	codes := []Code{
		CodeInvalidEmail, CodeUserNotFound, CodeWrongPassword,
		CodeTooManyRequests, CodeNetworkFailure, CodeUnknown,
	}
	for _, c := range codes {
		if Message(c) == "" {
			t.Errorf("Message(%v) is empty", c)
		}
	}
	if Message(Code("does-not-exist")) != Message(CodeUnknown) {
		t.Error("unrecognized code should fall back to the unknown message")
	}
}
