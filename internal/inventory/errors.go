package inventory

import (
	"errors"
	"net/http"
)

// Domain errors for inventory operations.
var (
	ErrNotFound  = errors.New("inventory entry not found")
	ErrDuplicate = errors.New("inventory entry already exists")
)

// MapHTTPStatus maps inventory domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
