package services

import (
	"errors"
	"net/http"
)

const defaultErrorMessage = "Request failed"

// RequestError is a non-2xx response. Message is the response body text as sent by the server.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

// StatusCode returns the HTTP status carried by err, or 0 when it is not a RequestError.
func StatusCode(err error) int {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Status
	}
	return 0
}

func IsUnauthorized(err error) bool {
	code := StatusCode(err)
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}

func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsClientError reports a 4xx answer: the request itself was refused and repeating it will not help.
func IsClientError(err error) bool {
	code := StatusCode(err)
	return code >= 400 && code < 500
}
