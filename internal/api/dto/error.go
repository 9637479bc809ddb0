package dto

import "kointos-backend/internal/schema"

// ErrorResponse represents a generic error response body.
type ErrorResponse struct {
	Error  string              `json:"error"`
	Fields []schema.FieldError `json:"fields,omitempty"`
}
