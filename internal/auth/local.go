package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jrmonge/recordhub/internal/validate"
	"golang.org/x/crypto/bcrypt"
)

// maxFailedAttempts is the consecutive-failure threshold after which the
// local provider starts answering CodeTooManyRequests for an email.
const maxFailedAttempts = 5

// lockoutPeriod is how long an email stays throttled after reaching the
// failure threshold. The window restarts on each further failure and the
// counter clears once it expires.
const lockoutPeriod = time.Minute

// LocalProvider verifies credentials against an in-process user table with
// bcrypt password hashes. It backs development setups and tests; the
// failure taxonomy matches RESTProvider exactly.
type LocalProvider struct {
	mu          sync.Mutex
	users       map[string][]byte    // email -> bcrypt hash
	failures    map[string]int       // email -> consecutive failed attempts
	lastFailure map[string]time.Time // email -> most recent failed attempt

	now func() time.Time
}

// NewLocalProvider creates an empty provider.
func NewLocalProvider() *LocalProvider {
	return &LocalProvider{
		users:       make(map[string][]byte),
		failures:    make(map[string]int),
		lastFailure: make(map[string]time.Time),
		now:         time.Now,
	}
}

// AddUser registers credentials. Existing credentials for the email are
// replaced.
func (p *LocalProvider) AddUser(email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.users[normalizeEmail(email)] = hash
	p.mu.Unlock()
	return nil
}

// SignIn verifies the credentials against the user table.
func (p *LocalProvider) SignIn(ctx context.Context, email, password string) error {
	if err := ctx.Err(); err != nil {
		return &Error{Code: CodeNetworkFailure, Err: err}
	}

	email = normalizeEmail(email)
	if !validate.Email(email) {
		return &Error{Code: CodeInvalidEmail}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.failures[email] >= maxFailedAttempts {
		if p.now().Sub(p.lastFailure[email]) < lockoutPeriod {
			return &Error{Code: CodeTooManyRequests}
		}
		// Lockout expired; the next attempt starts a fresh count.
		p.failures[email] = 0
	}

	hash, ok := p.users[email]
	if !ok {
		return &Error{Code: CodeUserNotFound}
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		p.failures[email]++
		p.lastFailure[email] = p.now()
		return &Error{Code: CodeWrongPassword, Err: err}
	}

	p.failures[email] = 0
	delete(p.lastFailure, email)
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
