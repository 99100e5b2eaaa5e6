package middleware

import (
	"errors"
	"net/http"

	"github.com/MrEthical07/natours"
	"github.com/gin-gonic/gin"
)

const genericServerMessage = "something went very wrong"

// StatusFor maps an engine error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, natours.ErrBadRequest),
		errors.Is(err, natours.ErrAccountExists),
		errors.Is(err, natours.ErrInvalidOrExpiredToken):
		return http.StatusBadRequest
	case errors.Is(err, natours.ErrInvalidCredentials),
		errors.Is(err, natours.ErrIncorrectPassword),
		errors.Is(err, natours.ErrNotAuthenticated),
		errors.Is(err, natours.ErrStaleSession):
		return http.StatusUnauthorized
	case errors.Is(err, natours.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, natours.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, natours.ErrLoginRateLimited),
		errors.Is(err, natours.ErrPasswordResetRateLimited),
		errors.Is(err, natours.ErrSignupRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Abort renders err with the JSON envelope and stops the handler chain.
// Non-operational errors are recorded on the context for the request
// logger; in production their text is replaced by a generic message.
func Abort(c *gin.Context, err error, production bool) {
	status := StatusFor(err)
	body := gin.H{"status": "fail"}
	if status >= http.StatusInternalServerError {
		body["status"] = "error"
	}

	if natours.IsOperational(err) {
		body["message"] = natours.ErrorMessage(err)
	} else {
		_ = c.Error(err)
		if production {
			body["message"] = genericServerMessage
		} else {
			body["message"] = err.Error()
		}
	}
	c.AbortWithStatusJSON(status, body)
}
