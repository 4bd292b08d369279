package classifications

import (
	"errors"
	"net/http"
)

// Domain errors for classification operations.
var (
	ErrNotFound  = errors.New("classification not found")
	ErrDuplicate = errors.New("classification already exists")
)

// MapHTTPStatus maps classification domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
