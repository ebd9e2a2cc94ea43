package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by the client.
var (
	// ErrInvalidName is returned when a name or id cannot form a lookup URL.
	ErrInvalidName = errors.New("invalid resource name")

	// ErrInvalidReference is returned when a NamedResource carries an
	// unusable URL.
	ErrInvalidReference = errors.New("invalid resource reference")
)

// ErrorClass represents a classification of fetch failures.
type ErrorClass string

const (
	// ErrorClassNetwork represents transport and body read failures.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassClient represents 4xx responses.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx and any other non-2xx responses.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassDecode represents a body that does not match the expected type.
	ErrorClassDecode ErrorClass = "decode"
)

// APIError is a fatal fetch failure with additional context.
type APIError struct {
	Class      ErrorClass
	StatusCode int
	URL        string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("pokeapi %s error (status %d) for %s: %v", e.Class, e.StatusCode, e.URL, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("pokeapi %s error (status %d) for %s", e.Class, e.StatusCode, e.URL)
	case e.Err != nil:
		return fmt.Sprintf("pokeapi %s error for %s: %v", e.Class, e.URL, e.Err)
	default:
		return fmt.Sprintf("pokeapi %s error for %s", e.Class, e.URL)
	}
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// classifyStatus maps a non-2xx status to its class.
func classifyStatus(status int) ErrorClass {
	if status >= 400 && status < 500 {
		return ErrorClassClient
	}
	return ErrorClassServer
}

// ClassOf returns the class of an APIError in err's chain, or "" if there is
// none.
func ClassOf(err error) ErrorClass {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Class
	}
	return ""
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
