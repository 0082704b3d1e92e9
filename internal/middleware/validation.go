package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// ValidationError represents a validation error with field details
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error            string            `json:"error"`
	Message          string            `json:"message"`
	ValidationErrors []ValidationError `json:"validation_errors,omitempty"`
	RequestID        string            `json:"request_id,omitempty"`
	Timestamp        string            `json:"timestamp"`
}

// NewErrorResponse builds an error response stamped with the request ID
func NewErrorResponse(c *gin.Context, title, message string) ErrorResponse {
	return ErrorResponse{
		Error:     title,
		Message:   message,
		RequestID: c.GetString(RequestIDKey),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// BindError describes a request body that failed to bind, listing the
// failed fields when the validator rejected it
func BindError(c *gin.Context, err error) ErrorResponse {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		resp := NewErrorResponse(c, "Validation failed", "Request validation failed")
		resp.ValidationErrors = FormatValidationErrors(validationErrors)
		return resp
	}
	return NewErrorResponse(c, "Invalid request body", err.Error())
}

// RateLimiter rejects requests above the given rate
func RateLimiter(requestsPerSecond float64, burstSize int) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(requestsPerSecond), burstSize)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			logrus.WithFields(logrus.Fields{
				"client_ip": c.ClientIP(),
				"path":      c.Request.URL.Path,
			}).Warn("Rate limit exceeded")

			c.AbortWithStatusJSON(http.StatusTooManyRequests, NewErrorResponse(c, "Rate limit exceeded",
				fmt.Sprintf("Too many requests. Limit: %.1f requests per second", requestsPerSecond)))
			return
		}
		c.Next()
	}
}

// ContentTypeValidation rejects request bodies of other content types
func ContentTypeValidation(allowedTypes ...string) gin.HandlerFunc {
	if len(allowedTypes) == 0 {
		allowedTypes = []string{"application/json"}
	}

	return func(c *gin.Context) {
		if c.Request.ContentLength == 0 || c.Request.Method == http.MethodGet || c.Request.Method == http.MethodDelete {
			c.Next()
			return
		}

		mainType := strings.TrimSpace(strings.Split(c.GetHeader("Content-Type"), ";")[0])
		for _, allowed := range allowedTypes {
			if mainType == allowed {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, NewErrorResponse(c, "Unsupported Content-Type",
			fmt.Sprintf("Content-Type '%s' is not supported. Allowed types: %v", mainType, allowedTypes)))
	}
}

// RequestSizeLimit limits the size of request bodies
func RequestSizeLimit(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxSize {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, NewErrorResponse(c, "Request too large",
				fmt.Sprintf("Request body size (%d bytes) exceeds maximum allowed size (%d bytes)", c.Request.ContentLength, maxSize)))
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}

// FormatValidationErrors turns validator errors into response entries
func FormatValidationErrors(validationErrors validator.ValidationErrors) []ValidationError {
	errs := make([]ValidationError, 0, len(validationErrors))
	for _, fe := range validationErrors {
		errs = append(errs, ValidationError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Value:   fmt.Sprintf("%v", fe.Value()),
			Message: validationMessage(fe),
		})
	}
	return errs
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "base64":
		return fmt.Sprintf("%s must be base64 encoded", fe.Field())
	case "startswith":
		return fmt.Sprintf("%s must start with %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed on the %s rule", fe.Field(), fe.Tag())
	}
}
