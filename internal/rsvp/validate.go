package rsvp

import (
	"errors"
	"ms-rsvp/internal/models"
	"ms-rsvp/internal/utils"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type rsvpInput struct {
	Name       string `validate:"required,max=200"`
	Email      string `validate:"omitempty,email,max=254"`
	Attendance string `validate:"required,oneof=yes no"`
	Guests     *int   `validate:"required,min=1"`
	Message    string `validate:"max=2000"`
}

// Normalize trims free text fields.
func Normalize(req models.RSVPRequest) models.RSVPRequest {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Message = strings.TrimSpace(req.Message)
	req.Attendance = models.Attendance(strings.TrimSpace(string(req.Attendance)))
	return req
}

// MissingRequired reports whether name, attendance or guests is absent.
func MissingRequired(req models.RSVPRequest) bool {
	return strings.TrimSpace(req.Name) == "" ||
		strings.TrimSpace(string(req.Attendance)) == "" ||
		!req.Guests.Present
}

func validateRequest(req models.RSVPRequest) error {
	if MissingRequired(req) {
		return ErrMissingFields
	}
	if req.Guests.Malformed {
		return &ValidationError{Details: "field guests must be a whole number"}
	}

	err := validate.Struct(rsvpInput{
		Name:       req.Name,
		Email:      req.Email,
		Attendance: string(req.Attendance),
		Guests:     req.Guests.Ptr(),
		Message:    req.Message,
	})
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return &ValidationError{Details: utils.ValidationMessage(verrs)}
	}
	return &ValidationError{Details: err.Error()}
}
