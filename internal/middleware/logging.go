package middleware

import (
	"bytes"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RequestIDKey is the key used to store request ID in context
const RequestIDKey = "request_id"

// CorrelationIDKey is the key used to store correlation ID in context
const CorrelationIDKey = "correlation_id"

// maxLoggedBody is the largest request or response body written to debug logs
const maxLoggedBody = 1024

// bodyRecorder keeps a copy of what a handler writes
type bodyRecorder struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	if w.body.Len() < maxLoggedBody {
		w.body.Write(b)
	}
	return w.ResponseWriter.Write(b)
}

// headerID returns the header value, or a fresh uuid when it is missing
func headerID(c *gin.Context, header string) string {
	if id := c.GetHeader(header); id != "" {
		return id
	}
	return uuid.New().String()
}

// RequestID middleware adds a unique request ID to each request
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := headerID(c, "X-Request-ID")
		c.Set(RequestIDKey, requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// CorrelationID carries the caller's correlation ID through to the logs
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := headerID(c, "X-Correlation-ID")
		c.Set(CorrelationIDKey, correlationID)
		c.Header("X-Correlation-ID", correlationID)
		c.Next()
	}
}

// StructuredLogger logs one line per request. In debug mode small request
// bodies and error responses are included.
func StructuredLogger(logger *logrus.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery
		debug := gin.Mode() == gin.DebugMode

		var requestBody []byte
		if debug && c.Request.Body != nil && c.Request.ContentLength >= 0 && c.Request.ContentLength < maxLoggedBody {
			requestBody, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewReader(requestBody))
		}

		recorder := &bodyRecorder{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = recorder

		c.Next()

		status := c.Writer.Status()
		fields := logrus.Fields{
			"request_id":     c.GetString(RequestIDKey),
			"correlation_id": c.GetString(CorrelationIDKey),
			"method":         c.Request.Method,
			"path":           path,
			"status_code":    status,
			"latency_ms":     float64(time.Since(start).Nanoseconds()) / 1e6,
			"client_ip":      c.ClientIP(),
			"response_size":  c.Writer.Size(),
		}
		if raw != "" {
			fields["query"] = raw
		}
		if len(requestBody) > 0 {
			fields["request_body"] = string(requestBody)
		}
		if debug && status >= 400 {
			fields["response_body"] = recorder.body.String()
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		entry := logger.WithFields(fields)
		switch {
		case status >= 500:
			entry.Error("Server error")
		case status >= 400:
			entry.Warn("Client error")
		default:
			entry.Info("Request completed")
		}
	}
}
