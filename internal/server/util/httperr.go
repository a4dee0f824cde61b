// Package util holds HTTP-boundary helpers shared by the route handlers.
package util

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trellishq/trellis/backend/pkg/logger"
	"github.com/trellishq/trellis/backend/pkg/store"
)

// ErrorBody is the wire shape of every error response. Type is a stable
// machine-readable discriminator; Field is set for validation errors.
type ErrorBody struct {
	Error string `json:"error"`
	Type  string `json:"type"`
	Field string `json:"field,omitempty"`
}

// JSONError renders a store error as the matching HTTP status. Anything
// outside the store's error taxonomy is logged and reported as a plain
// 500 so internals never leak to clients.
func JSONError(c echo.Context, err error) error {
	var (
		validationErr   *store.ValidationError
		notFoundErr     *store.NotFoundError
		unauthorizedErr *store.UnauthorizedError
		duplicateErr    *store.DuplicateError
		quotaErr        *store.QuotaExceededError
	)

	switch {
	case errors.As(err, &validationErr):
		return c.JSON(http.StatusBadRequest, ErrorBody{
			Error: validationErr.Error(),
			Type:  "validation",
			Field: validationErr.Field,
		})
	case errors.As(err, &notFoundErr):
		return c.JSON(http.StatusNotFound, ErrorBody{
			Error: notFoundErr.Error(),
			Type:  "not_found",
		})
	case errors.As(err, &unauthorizedErr):
		return c.JSON(http.StatusForbidden, ErrorBody{
			Error: unauthorizedErr.Error(),
			Type:  "unauthorized",
		})
	case errors.As(err, &duplicateErr):
		return c.JSON(http.StatusConflict, ErrorBody{
			Error: duplicateErr.Error(),
			Type:  "duplicate",
			Field: duplicateErr.Field,
		})
	case errors.As(err, &quotaErr):
		return c.JSON(http.StatusTooManyRequests, ErrorBody{
			Error: quotaErr.Error(),
			Type:  "quota_exceeded",
		})
	}

	logger.Error("[HTTP] request failed", "err", err)
	return c.JSON(http.StatusInternalServerError, ErrorBody{
		Error: "Internal server error",
		Type:  "internal",
	})
}
