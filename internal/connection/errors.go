package connection

import "fmt"

// HTTPError represents a response with a non-success status code
type HTTPError struct {
	StatusCode int
	Status     string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error: %s", e.Status)
}

// ConnectionError is the base error type for request setup failures
type ConnectionError struct {
	Type    string
	Message string
}

// Error implements the error interface
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// NewTooManyRedirectsError creates a new error for redirect chains over the limit
func NewTooManyRedirectsError(limit int) error {
	return &ConnectionError{
		Type:    "TooManyRedirects",
		Message: fmt.Sprintf("stopped after %d redirects", limit),
	}
}

// NewInterfaceNotFoundError creates a new error for unknown bind interfaces
func NewInterfaceNotFoundError(iface string, cause error) error {
	return &ConnectionError{
		Type:    "InterfaceNotFound",
		Message: fmt.Sprintf("cannot bind to %s: %v", iface, cause),
	}
}

// NewNoAddressError creates a new error for interfaces without an address
func NewNoAddressError(iface string) error {
	return &ConnectionError{
		Type:    "NoAddress",
		Message: fmt.Sprintf("interface %s has no usable address", iface),
	}
}
