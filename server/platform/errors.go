package platform

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrNetwork       = errors.New("service unavailable")
	ErrValidation    = errors.New("invalid request")
	ErrAuthorization = errors.New("not authorized")
	ErrNotFound      = errors.New("not found")
	ErrCapacity      = errors.New("event is full")
)

type Kind int

const (
	KindUnknown Kind = iota
	KindNetwork
	KindValidation
	KindAuthorization
	KindNotFound
	KindCapacity
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindCapacity:
		return "capacity"
	default:
		return "unknown"
	}
}

// KindOf classifies an error returned by the Client.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrCapacity):
		return KindCapacity
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrAuthorization):
		return KindAuthorization
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNetwork):
		return KindNetwork
	default:
		return KindUnknown
	}
}

// Message returns the message the service sent for err, or err's own message.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// APIError is a non 2xx response of one of the services.
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	Message    string
}

func newAPIError(method string, url string, statusCode int, body []byte) *APIError {
	return &APIError{
		Method:     method,
		URL:        url,
		StatusCode: statusCode,
		Message:    errorMessage(body),
	}
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.StatusCode)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized, e.StatusCode == http.StatusForbidden:
		return ErrAuthorization
	case e.StatusCode == http.StatusNotFound, e.StatusCode == http.StatusGone:
		return ErrNotFound
	case e.StatusCode >= 500:
		return ErrNetwork
	case e.StatusCode >= 400:
		return ErrValidation
	default:
		return nil
	}
}

// capacityError marks a refused join as ErrCapacity. The events service answers a join
// of a full event with a conflict or with a client error mentioning the capacity.
func capacityError(err error) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) || !errors.Is(err, ErrValidation) {
		return err
	}
	msg := strings.ToLower(apiErr.Message)
	if apiErr.StatusCode == http.StatusConflict || strings.Contains(msg, "full") || strings.Contains(msg, "capacity") {
		return fmt.Errorf("%w: %w", ErrCapacity, err)
	}
	return err
}

const maxErrorMessage = 200

var messageKeys = []string{"message", "error", "detail", "msg"}

func errorMessage(body []byte) string {
	body = []byte(strings.TrimSpace(string(body)))
	if len(body) == 0 {
		return ""
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err == nil {
		for _, key := range messageKeys {
			raw, ok := fields[key]
			if !ok {
				continue
			}
			var msg string
			if err = json.Unmarshal(raw, &msg); err == nil && msg != "" {
				return msg
			}
		}
	}

	msg := []rune(string(body))
	if len(msg) > maxErrorMessage {
		msg = msg[:maxErrorMessage]
	}
	return string(msg)
}
