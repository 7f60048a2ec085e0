package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a non-2xx backend response, carrying the HTTP status and the
// server-provided message when one could be decoded.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend responded %d", e.Status)
	}

	return fmt.Sprintf("backend responded %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a backend 404.
func IsNotFound(err error) bool {
	var apiErr *Error

	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
