// Package session implements the per-screen form session controller: a
// small state machine that owns a screen's field values and editing target,
// validates on submit, and issues exactly one gateway write per successful
// submission.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/jrmonge/recordhub/internal/store"
)

// State is the controller lifecycle position.
type State int

const (
	// Idle means the session holds no field values: a fresh controller,
	// right after StartCreate, or right after a successful submission.
	Idle State = iota

	// Editing means the session holds field values, whether loaded by
	// StartEdit, typed through ChangeField, or kept after a failed
	// submission.
	Editing

	// Submitting means a write is in flight. Field changes are rejected
	// until it resolves.
	Submitting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Editing:
		return "editing"
	case Submitting:
		return "submitting"
	default:
		return "unknown"
	}
}

// ErrBusy is returned when a field change or second submission arrives
// while a write is in flight.
var ErrBusy = errors.New("submission in flight")

// ValidationError reports a field that failed pre-submit validation.
// It is produced before any network activity; a submission that fails
// validation issues zero gateway calls.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
}

// Config describes one screen's form.
type Config struct {
	// Collection the submission writes to.
	Collection string

	// Fields lists the form's field names, used to load values on
	// StartEdit.
	Fields []string

	// Validate checks the raw field values before any write. A non-nil
	// return aborts the submission with no gateway call.
	Validate func(fields map[string]string) error

	// Build converts validated field values into the stored record.
	Build func(fields map[string]string) store.Record
}

// Controller owns one screen's session: field values, the identifier under
// edit, and the submission state. A controller is not shared across screens;
// the gateway is the only shared resource behind it.
type Controller struct {
	cfg     Config
	gateway store.Store

	mu      sync.Mutex
	fields  map[string]string
	editing string // "" means create mode
	state   State
}

// New creates a controller for one screen.
func New(gateway store.Store, cfg Config) *Controller {
	return &Controller{
		cfg:     cfg,
		gateway: gateway,
		fields:  make(map[string]string),
		state:   Idle,
	}
}

// StartCreate clears the session for a fresh record.
func (c *Controller) StartCreate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fields = make(map[string]string)
	c.editing = ""
	c.state = Idle
}

// StartEdit loads an existing record into the session. The record's
// identifier (under store.IDField) becomes the update target; configured
// fields are loaded as strings.
func (c *Controller) StartEdit(rec store.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.fields = make(map[string]string)
	for _, name := range c.cfg.Fields {
		if v, ok := rec[name]; ok {
			c.fields[name] = fieldString(v)
		}
	}
	c.editing, _ = rec[store.IDField].(string)
	c.state = Editing
}

// ChangeField sets one field value. Rejected with ErrBusy while a
// submission is in flight.
func (c *Controller) ChangeField(name, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Submitting {
		return ErrBusy
	}
	c.fields[name] = value
	c.state = Editing
	return nil
}

// Fields returns a copy of the current field values.
func (c *Controller) Fields() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string, len(c.fields))
	for k, v := range c.fields {
		out[k] = v
	}
	return out
}

// EditingID returns the identifier under edit, or "" in create mode.
func (c *Controller) EditingID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editing
}

// State returns the current lifecycle position.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Submit validates the session and issues exactly one write: Create when no
// identifier is under edit, Update otherwise. On validation failure nothing
// is written and the session is untouched. On write failure the fields and
// editing target are kept so the user can retry. On success the session is
// cleared and the written identifier returned.
func (c *Controller) Submit(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.state == Submitting {
		c.mu.Unlock()
		return "", ErrBusy
	}

	fields := make(map[string]string, len(c.fields))
	for k, v := range c.fields {
		fields[k] = v
	}
	editing := c.editing

	if err := c.cfg.Validate(fields); err != nil {
		c.mu.Unlock()
		return "", err
	}

	c.state = Submitting
	c.mu.Unlock()

	rec := c.cfg.Build(fields)

	var id string
	var err error
	if editing == "" {
		id, err = c.gateway.Create(ctx, c.cfg.Collection, rec)
	} else {
		id = editing
		err = c.gateway.Update(ctx, c.cfg.Collection, editing, rec)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.state = Editing
		return "", err
	}

	c.fields = make(map[string]string)
	c.editing = ""
	c.state = Idle
	return id, nil
}

// fieldString renders a stored value back into form-field text. Numbers use
// the shortest exact representation so an edit round trip does not reformat
// untouched fields.
func fieldString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
