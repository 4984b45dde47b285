package api

import (
	"errors"
	"net/http"

	"github.com/RishiKendai/assignment-portal/internal/auth"
	"github.com/RishiKendai/assignment-portal/internal/coursework"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type errorMapping struct {
	target error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{coursework.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{coursework.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{coursework.ErrDeadlinePassed, http.StatusForbidden, "DEADLINE_PASSED"},
	{coursework.ErrAlreadySubmitted, http.StatusConflict, "ALREADY_SUBMITTED"},
	{coursework.ErrEmptyFile, http.StatusBadRequest, "EMPTY_FILE"},
	{auth.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
	{auth.ErrEmailTaken, http.StatusConflict, "ACCOUNT_EXISTS"},
	{auth.ErrSignupCode, http.StatusForbidden, "INVALID_SIGNUP_CODE"},
	{auth.ErrPasswordTooLong, http.StatusBadRequest, "PASSWORD_TOO_LONG"},
}

// writeError maps service errors to responses; anything unknown is a 500
func writeError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			c.JSON(m.status, ErrorResponse{Error: m.target.Error(), Code: m.code})
			return
		}
	}

	log.Error().Err(err).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Msg("Request failed")
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error: "Internal server error",
		Code:  "INTERNAL_ERROR",
	})
}

func badRequest(c *gin.Context, code, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Code: code})
}
