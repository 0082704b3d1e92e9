package handlers

import (
	"context"
	"net/http"
	"unicode/utf8"

	"github.com/aws/aws-greengrass-core-sdk-c/internal/local"
	"github.com/aws/aws-greengrass-core-sdk-c/internal/middleware"
	"github.com/aws/aws-greengrass-core-sdk-c/internal/models"
	"github.com/aws/aws-greengrass-core-sdk-c/pkg/greengrass"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// DefaultResponseBufferSize is the buffer each runtime response is read into
const DefaultResponseBufferSize = 8192

// Emulator is the runtime the HTTP API drives
type Emulator interface {
	greengrass.Runtime

	FunctionARN() string
	Functions() []string
	Subscribe(filter, target string) error
	TakeMessages() []local.Message
	PutSecretValue(ctx context.Context, secretID, secretString string, secretBinary []byte) (*models.SecretValue, error)
	ListThingShadows(ctx context.Context, prefix, marker string, maxResults int) (*local.ShadowList, error)
}

// RuntimeHandler serves the emulator over HTTP
type RuntimeHandler struct {
	runtime    Emulator
	bufferSize int
	logger     *logrus.Logger
}

// NewRuntimeHandler creates a new runtime handler
func NewRuntimeHandler(rt Emulator, bufferSize int, logger *logrus.Logger) *RuntimeHandler {
	if bufferSize <= 0 {
		bufferSize = DefaultResponseBufferSize
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &RuntimeHandler{
		runtime:    rt,
		bufferSize: bufferSize,
		logger:     logger,
	}
}

// call runs op on a fresh request and reads its response
func (h *RuntimeHandler) call(c *gin.Context, op string, fn func(req greengrass.Request) (*greengrass.RequestResult, error)) (*greengrass.RequestResult, *greengrass.Response, error) {
	var (
		result   *greengrass.RequestResult
		response *greengrass.Response
	)

	err := greengrass.WithRequest(h.runtime, func(req greengrass.Request) error {
		var err error
		if result, err = fn(req); err != nil {
			return err
		}

		response, err = greengrass.ReadResponse(req, make([]byte, h.bufferSize))
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	if response.Truncated {
		h.logger.WithFields(logrus.Fields{
			"op":          op,
			"request_id":  c.GetString(middleware.RequestIDKey),
			"buffer_size": h.bufferSize,
		}).Warn("Response filled the read buffer and may be truncated")
		c.Header("X-Response-Truncated", "true")
	}
	return result, response, nil
}

// Body is a response body, as text when it is valid UTF-8
type Body struct {
	Text   string `json:"body,omitempty"`
	Base64 []byte `json:"body_base64,omitempty"`
}

func newBody(b []byte) Body {
	if utf8.Valid(b) {
		return Body{Text: string(b)}
	}
	return Body{Base64: append([]byte(nil), b...)}
}

// Health reports that the emulator is serving
func (h *RuntimeHandler) Health(check func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := gin.H{
			"status":       "healthy",
			"service":      "greengrass-local",
			"function_arn": h.runtime.FunctionARN(),
		}

		if check != nil {
			if err := check(c.Request.Context()); err != nil {
				status["status"] = "unhealthy"
				status["error"] = err.Error()
				c.JSON(http.StatusServiceUnavailable, status)
				return
			}
		}

		c.JSON(http.StatusOK, status)
	}
}
