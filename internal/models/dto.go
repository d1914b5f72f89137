package models

// ErrorResponse is the common error payload returned by handlers.
type ErrorResponse struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
