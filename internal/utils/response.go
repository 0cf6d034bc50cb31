package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

type ErrorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

func WriteError(w http.ResponseWriter, status int, message, details string) error {
	return WriteJSON(w, status, ErrorBody{Error: message, Details: details})
}

// ValidationMessage joins validator field errors into one readable sentence.
func ValidationMessage(errs validator.ValidationErrors) string {
	var msgs []string

	for _, e := range errs {
		field := strings.ToLower(e.Field())
		switch e.ActualTag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("field %s is required", field))
		case "email":
			msgs = append(msgs, fmt.Sprintf("field %s must be a valid email address", field))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("field %s must be one of [%s]", field, e.Param()))
		case "min":
			msgs = append(msgs, fmt.Sprintf("field %s must be at least %s", field, e.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("field %s must be at most %s characters", field, e.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("field %s is invalid", field))
		}
	}

	return strings.Join(msgs, ", ")
}
