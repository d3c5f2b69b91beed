package handlers

import (
	"errors"
	"net/http"

	userapp "github.com/campusworks/iiitdmj-portal/internal/application"
)

// statusFor maps service errors to HTTP responses. Anything unmapped is a
// generic server error so store failures never leak detail to the caller.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, userapp.ErrDomainNotAllowed):
		return http.StatusForbidden, "only IIITDMJ email addresses are allowed"
	case errors.Is(err, userapp.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, userapp.ErrEmailTaken):
		return http.StatusConflict, "user with this email already exists"
	case errors.Is(err, userapp.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, userapp.ErrImageNotFound):
		return http.StatusNotFound, "image not found"
	case errors.Is(err, userapp.ErrNotAnImage):
		return http.StatusBadRequest, "file must be an image"
	case errors.Is(err, userapp.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge, "image too large"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
