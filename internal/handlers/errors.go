package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aws/aws-greengrass-core-sdk-c/internal/middleware"
	"github.com/aws/aws-greengrass-core-sdk-c/pkg/greengrass"
	"github.com/gin-gonic/gin"
)

// ErrorResponse represents a standard error response
type ErrorResponse = middleware.ErrorResponse

// isValidationError checks if an error is a rejected parameter
func isValidationError(err error) bool {
	return errors.Is(err, greengrass.ErrInvalidParameter)
}

// isStateError checks if an error came from misusing a request
func isStateError(err error) bool {
	return errors.Is(err, greengrass.ErrInvalidState)
}

// statusForError maps an SDK error onto an HTTP status
func statusForError(err error) int {
	switch {
	case isValidationError(err):
		return http.StatusBadRequest
	case isStateError(err):
		return http.StatusConflict
	case greengrass.IsNotImplemented(err):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError writes the error response for a failed runtime call
func abortWithError(c *gin.Context, title string, err error) {
	c.Error(err)
	c.AbortWithStatusJSON(statusForError(err), middleware.NewErrorResponse(c, title, err.Error()))
}

// rejectionStatus reads the HTTP status carried in the code field of a
// rejected shadow or secret request
func rejectionStatus(body []byte) int {
	var rejection struct {
		Code int `json:"code"`
	}
	if err := json.Unmarshal(body, &rejection); err != nil || rejection.Code < 400 || rejection.Code > 599 {
		return http.StatusBadRequest
	}
	return rejection.Code
}
