package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	pkgerrors "user-directory-service/pkg/errors"
)

const (
	msgInvalidJSON    = "Invalid JSON body"
	msgInvalidUserID  = "Invalid user ID"
	msgInternalServer = "Internal server error"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
	Email string `json:"email,omitempty"`
}

// FieldErrorsResponse represents a request body rejected field by field
type FieldErrorsResponse struct {
	Errors []pkgerrors.FieldError `json:"errors"`
}

// respondError converts usecase errors to HTTP responses.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	var (
		verr     *pkgerrors.ValidationError
		conflict *pkgerrors.AlreadyExistsError
		internal *pkgerrors.InternalError
		statuser pkgerrors.HTTPStatuser
	)

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, FieldErrorsResponse{Errors: verr.Fields})
	case errors.As(err, &conflict):
		c.JSON(conflict.HTTPStatus(), ErrorResponse{Error: conflict.Error(), Email: conflict.Email})
	case errors.As(err, &internal):
		log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: msgInternalServer})
	case errors.As(err, &statuser):
		c.JSON(statuser.HTTPStatus(), ErrorResponse{Error: err.Error()})
	default:
		log.Error("unmapped error", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: msgInternalServer})
	}
}

// parseUserID reads the :id path parameter.
func parseUserID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgInvalidUserID})
		return 0, false
	}
	return id, true
}
