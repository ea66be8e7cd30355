// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/pdiddy/bom-reconcile/internal/columns"
	"github.com/pdiddy/bom-reconcile/internal/duro"
	"github.com/pdiddy/bom-reconcile/internal/extract"
	"github.com/pdiddy/bom-reconcile/internal/sheet"
)

// ValidationError reports a malformed request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation error: " + e.Message
	}
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the status code for an error returned by a handler.
func HTTPStatus(err error) int {
	var (
		verr   *ValidationError
		colErr *columns.ColumnResolutionError
		status *duro.StatusError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, sheet.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, duro.ErrAssemblyNotFound):
		return http.StatusNotFound
	case errors.As(err, &colErr), errors.Is(err, extract.ErrEmptySource):
		return http.StatusUnprocessableEntity
	case errors.As(err, &status):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
