package hubspot

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx response from the CRM API.
type APIError struct {
	StatusCode    int    `json:"-"`
	Status        string `json:"status"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId"`
	Category      string `json:"category"`
	Method        string `json:"-"`
	Path          string `json:"-"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("hubapi %s %s: %d %s", e.Method, e.Path, e.StatusCode, msg)
}

// LogDetail exposes the fields worth logging alongside the message.
func (e *APIError) LogDetail() string {
	detail := fmt.Sprintf("status=%d", e.StatusCode)
	if e.Category != "" {
		detail += " category=" + e.Category
	}
	if e.CorrelationID != "" {
		detail += " correlationId=" + e.CorrelationID
	}
	return detail
}

// StatusCode returns the HTTP status of the first APIError in err's chain, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IsNotFound reports whether err is a CRM 404.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsConflict reports whether err is a CRM 409, e.g. creating a property that already exists.
func IsConflict(err error) bool {
	return StatusCode(err) == http.StatusConflict
}
