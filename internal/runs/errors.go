package runs

import (
	"errors"
	"net/http"
)

// Domain errors for run operations.
var (
	ErrNotFound  = errors.New("run not found")
	ErrDuplicate = errors.New("run already exists")
)

// MapHTTPStatus maps run domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
