// Package handler exposes the HTTP endpoints of the ticket service.  Every
// handler reports failures through writeError so clients always receive
// {"error": code, "message": detail}.
package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/stegverse/cfp-tickets/internal/provider"
	"github.com/stegverse/cfp-tickets/internal/repository"
	"github.com/stegverse/cfp-tickets/internal/service"
)

func writeError(c echo.Context, err error) error {
	status, code := http.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, service.ErrValidation):
		status, code = http.StatusBadRequest, "validation_error"
	case errors.Is(err, repository.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, repository.ErrInvalidValue):
		status, code = http.StatusBadRequest, "invalid_value"
	case errors.Is(err, service.ErrConfiguration):
		status, code = http.StatusInternalServerError, "configuration_error"
	case errors.Is(err, provider.ErrUpstream):
		status, code = http.StatusBadGateway, "upstream_error"
	}
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Str("code", code).Msg("request failed")
	}
	return c.JSON(status, echo.Map{"error": code, "message": err.Error()})
}

func badRequest(c echo.Context, field, msg string) error {
	return writeError(c, &service.ValidationError{Field: field, Msg: msg})
}
