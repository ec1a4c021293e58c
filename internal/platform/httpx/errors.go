package httpx

import (
	"errors"
	"net/http"

	"github.com/keygate/keygate/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
// Token verification failures all collapse to a uniform unauthorized body;
// the distinct sentinels exist for logging, not for untrusted callers.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrConflict):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrWeakPassword), errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "Unauthorized", shared.ErrInvalidCredentials.Error())
	case errors.Is(err, shared.ErrAccountInactive):
		Problem(w, http.StatusUnauthorized, "Unauthorized", shared.ErrAccountInactive.Error())
	case errors.Is(err, shared.ErrInvalidClient):
		Problem(w, http.StatusUnauthorized, "Unauthorized", shared.ErrInvalidClient.Error())
	case errors.Is(err, shared.ErrInvalidToken),
		errors.Is(err, shared.ErrTokenRevoked),
		errors.Is(err, shared.ErrTokenExpired),
		errors.Is(err, shared.ErrWrongTokenType),
		errors.Is(err, shared.ErrUserGone),
		errors.Is(err, shared.ErrUnauthenticated):
		Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
	case errors.Is(err, shared.ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", shared.ErrForbidden.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
