package download

import (
	"errors"
	"fmt"
)

// Error types
const (
	TypeRetryBudgetExhausted = "RetryBudgetExhausted"
	TypeBanBudgetExhausted   = "BanBudgetExhausted"
	TypeFetchCancelled       = "FetchCancelled"
	TypeBanDetected          = "BanDetected"
	TypeEmptyResponse        = "EmptyResponse"
)

// FetchError is the base error type for fetch failures. Only the exhausted
// and cancelled types leave Fetch; the others describe single attempts.
type FetchError struct {
	Type    string
	URL     string
	Tries   int
	Message string
	Cause   error
}

// Error implements the error interface
func (e *FetchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the last attempt's error
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// NewRetryBudgetExhaustedError creates a new error for a spent tries budget
func NewRetryBudgetExhaustedError(url string, tries int, last error) error {
	return &FetchError{
		Type:    TypeRetryBudgetExhausted,
		URL:     url,
		Tries:   tries,
		Message: fmt.Sprintf("can't download %s in %d tries", url, tries),
		Cause:   last,
	}
}

// NewBanBudgetExhaustedError creates a new error for a spent ban budget
func NewBanBudgetExhaustedError(url string, tries, bans int) error {
	return &FetchError{
		Type:    TypeBanBudgetExhausted,
		URL:     url,
		Tries:   tries,
		Message: fmt.Sprintf("banned %d times while downloading %s", bans, url),
	}
}

// NewFetchCancelledError creates a new error for fetches stopped by their context
func NewFetchCancelledError(url string, tries int, cause error) error {
	return &FetchError{
		Type:    TypeFetchCancelled,
		URL:     url,
		Tries:   tries,
		Message: fmt.Sprintf("download of %s was cancelled", url),
		Cause:   cause,
	}
}

// NewBanDetectedError creates a new error for a response carrying a ban signature
func NewBanDetectedError(url, signature string) error {
	return &FetchError{
		Type:    TypeBanDetected,
		URL:     url,
		Message: fmt.Sprintf("response matched ban signature %q", signature),
	}
}

// NewEmptyResponseError creates a new error for responses without content
func NewEmptyResponseError(url string) error {
	return &FetchError{
		Type:    TypeEmptyResponse,
		URL:     url,
		Message: "no content received",
	}
}

func isType(err error, typ string) bool {
	var fetchErr *FetchError
	return errors.As(err, &fetchErr) && fetchErr.Type == typ
}

// IsRetryBudgetExhausted reports whether err is a spent tries budget
func IsRetryBudgetExhausted(err error) bool {
	return isType(err, TypeRetryBudgetExhausted)
}

// IsBanBudgetExhausted reports whether err is a spent ban budget
func IsBanBudgetExhausted(err error) bool {
	return isType(err, TypeBanBudgetExhausted)
}

// IsExhausted reports whether err ended a fetch because a budget ran out
func IsExhausted(err error) bool {
	return IsRetryBudgetExhausted(err) || IsBanBudgetExhausted(err)
}

// IsCancelled reports whether err ended a fetch because its context was done
func IsCancelled(err error) bool {
	return isType(err, TypeFetchCancelled)
}
