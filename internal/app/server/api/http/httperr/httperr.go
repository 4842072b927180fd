// Package httperr turns domain errors into problem responses.
package httperr

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"vaultkeeper/internal/apperr"
)

// StatusOf maps an error kind to its HTTP status.
func StatusOf(err error) int {
	switch apperr.Kind(err) {
	case apperr.ErrAuthentication:
		return http.StatusUnauthorized
	case apperr.ErrForbidden:
		return http.StatusForbidden
	case apperr.ErrIntegrity:
		return http.StatusUnprocessableEntity
	case apperr.ErrValidation:
		return http.StatusBadRequest
	case apperr.ErrConflict:
		return http.StatusConflict
	case apperr.ErrNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// From builds the response for err. The cause is logged for internal
// errors only and never leaves the process.
func From(log *slog.Logger, err error) error {
	var se huma.StatusError
	if errors.As(err, &se) {
		return err
	}

	status := StatusOf(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed", "error", err)
	}

	return New(status, apperr.KindOf(err), apperr.PublicMessage(err))
}

func New(status int, kind, detail string) *huma.ErrorModel {
	return &huma.ErrorModel{
		Type:   kind,
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	}
}
