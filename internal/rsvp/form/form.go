// Package form drives the RSVP modal: field state, a single in-flight
// submission and the message shown for each outcome.
package form

import (
	"context"
	"errors"
	"ms-rsvp/internal/models"
	"strings"
	"sync"
)

var ErrBusy = errors.New("form is not idle")

// Submitter sends a request and returns the stored id.
type Submitter interface {
	Submit(ctx context.Context, req models.RSVPRequest) (string, error)
}

// UserMessager is implemented by errors that carry text fit for guests.
type UserMessager interface {
	UserMessage() string
}

type Fields struct {
	Name       string
	Email      string
	Attendance models.Attendance
	Guests     int
	Message    string
}

func DefaultFields() Fields {
	return Fields{Guests: 1}
}

type Form struct {
	mu        sync.Mutex
	submitter Submitter
	fields    Fields
	state     State
}

func New(submitter Submitter) *Form {
	return &Form{
		submitter: submitter,
		fields:    DefaultFields(),
		state:     Idle{},
	}
}

func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Form) Fields() Fields {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fields
}

// SetFields replaces the field values. Ignored while a submission is in flight.
func (f *Form) SetFields(fields Fields) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.state.(Submitting); ok {
		return
	}
	f.fields = fields
}

// Submit sends the current fields once. The returned state is the outcome.
func (f *Form) Submit(ctx context.Context) (State, error) {
	f.mu.Lock()
	if _, ok := f.state.(Idle); !ok {
		f.mu.Unlock()
		return nil, ErrBusy
	}

	fields := f.fields
	if missingRequired(fields) {
		f.state = Failed{Message: MessageMissingFields}
		st := f.state
		f.mu.Unlock()
		return st, nil
	}
	f.state = Submitting{}
	f.mu.Unlock()

	id, err := f.submitter.Submit(ctx, fields.request())

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.state = Failed{Err: err, Message: userMessage(err)}
	} else {
		f.state = Succeeded{ID: id}
	}
	return f.state, nil
}

// Dismiss closes the modal. Fields are reset only after a success so a guest
// can fix and resend a failed reply.
func (f *Form) Dismiss() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state.(type) {
	case Succeeded:
		f.fields = DefaultFields()
	case Failed:
	default:
		return false
	}
	f.state = Idle{}
	return true
}

func (f *Form) Title() string {
	return Title(f.State())
}

func (f *Form) Body() string {
	return Body(f.State())
}

func missingRequired(fields Fields) bool {
	return strings.TrimSpace(fields.Name) == "" || fields.Attendance == "" || fields.Guests == 0
}

func (fields Fields) request() models.RSVPRequest {
	return models.RSVPRequest{
		Name:       strings.TrimSpace(fields.Name),
		Email:      strings.TrimSpace(fields.Email),
		Attendance: fields.Attendance,
		Guests:     models.Guests(fields.Guests),
		Message:    strings.TrimSpace(fields.Message),
	}
}

func userMessage(err error) string {
	var um UserMessager
	if errors.As(err, &um) {
		if msg := um.UserMessage(); msg != "" {
			return msg
		}
	}
	return MessageDefaultError
}
