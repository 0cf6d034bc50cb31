package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()

	require.NoError(t, WriteError(rec, http.StatusMethodNotAllowed, "Method not allowed", ""))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"Method not allowed"}`, rec.Body.String())
}

func TestWriteError_WithDetails(t *testing.T) {
	rec := httptest.NewRecorder()

	require.NoError(t, WriteError(rec, http.StatusInternalServerError, "Failed to submit RSVP", "boom"))

	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Failed to submit RSVP", body.Error)
	assert.Equal(t, "boom", body.Details)
}

func TestValidationMessage(t *testing.T) {
	type input struct {
		Name       string `validate:"required"`
		Email      string `validate:"omitempty,email"`
		Attendance string `validate:"required,oneof=yes no"`
		Guests     int    `validate:"min=1"`
	}

	err := validator.New().Struct(input{Email: "nope", Attendance: "maybe"})
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))

	msg := ValidationMessage(verrs)
	assert.Contains(t, msg, "field name is required")
	assert.Contains(t, msg, "field email must be a valid email address")
	assert.Contains(t, msg, "field attendance must be one of [yes no]")
	assert.Contains(t, msg, "field guests must be at least 1")
}
