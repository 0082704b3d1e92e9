package handlers

import (
	"net/http"
	"sort"

	"github.com/aws/aws-greengrass-core-sdk-c/internal/local"
	"github.com/aws/aws-greengrass-core-sdk-c/internal/middleware"
	"github.com/aws/aws-greengrass-core-sdk-c/pkg/greengrass"
	"github.com/gin-gonic/gin"
)

// InvokeRequest is the body of an invoke call
type InvokeRequest struct {
	FunctionARN     string `json:"function_arn" binding:"required"`
	Qualifier       string `json:"qualifier"`
	CustomerContext string `json:"customer_context"`
	Type            string `json:"type" binding:"omitempty,oneof=event request_response"`
	Payload         string `json:"payload"`
	PayloadBase64   []byte `json:"payload_base64"`
}

// InvokeResponse is the outcome of an invoke call
type InvokeResponse struct {
	Status string `json:"status"`
	Body
}

// PublishRequest is the body of a publish call
type PublishRequest struct {
	Topic           string `json:"topic" binding:"required"`
	Payload         string `json:"payload"`
	PayloadBase64   []byte `json:"payload_base64"`
	QueueFullPolicy string `json:"queue_full_policy" binding:"omitempty,oneof=best_effort all_or_error"`
}

// SubscriptionRequest routes a topic filter to a local function
type SubscriptionRequest struct {
	Filter string `json:"filter" binding:"required"`
	Target string `json:"target" binding:"required"`
}

func payloadOf(text string, raw []byte) []byte {
	if len(raw) > 0 {
		return raw
	}
	return []byte(text)
}

// @Summary List functions
// @Description List the ARNs of the functions registered with the runtime
// @Tags functions
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /functions [get]
func (h *RuntimeHandler) ListFunctions(c *gin.Context) {
	functions := h.runtime.Functions()
	sort.Strings(functions)
	c.JSON(http.StatusOK, gin.H{"functions": functions})
}

// @Summary Invoke a function
// @Description Invoke a registered function and return its response or error message
// @Tags functions
// @Accept json
// @Produce json
// @Param invoke body InvokeRequest true "Invocation"
// @Success 200 {object} InvokeResponse
// @Failure 400 {object} ErrorResponse
// @Router /functions/invoke [post]
func (h *RuntimeHandler) Invoke(c *gin.Context) {
	var req InvokeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, middleware.BindError(c, err))
		return
	}

	opts := &greengrass.InvokeOptions{
		FunctionARN:     req.FunctionARN,
		Qualifier:       req.Qualifier,
		CustomerContext: req.CustomerContext,
		Type:            greengrass.InvokeRequestResponse,
		Payload:         payloadOf(req.Payload, req.PayloadBase64),
	}
	if req.Type == "event" {
		opts.Type = greengrass.InvokeEvent
	}

	result, response, err := h.call(c, "Invoke", func(r greengrass.Request) (*greengrass.RequestResult, error) {
		return h.runtime.Invoke(c.Request.Context(), r, opts)
	})
	if err != nil {
		abortWithError(c, "Failed to invoke function", err)
		return
	}

	c.JSON(http.StatusOK, InvokeResponse{Status: result.Status.String(), Body: newBody(response.Body)})
}

// @Summary Publish a message
// @Description Publish a message to a topic through the runtime
// @Tags messages
// @Accept json
// @Produce json
// @Param message body PublishRequest true "Message"
// @Success 202 {object} map[string]string
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} map[string]string
// @Router /publish [post]
func (h *RuntimeHandler) Publish(c *gin.Context) {
	var req PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, middleware.BindError(c, err))
		return
	}

	opts := greengrass.NewPublishOptions()
	if req.QueueFullPolicy == "all_or_error" {
		opts.QueueFullPolicy = greengrass.QueueFullAllOrError
	}

	result, response, err := h.call(c, "Publish", func(r greengrass.Request) (*greengrass.RequestResult, error) {
		return h.runtime.Publish(c.Request.Context(), r, req.Topic, payloadOf(req.Payload, req.PayloadBase64), opts)
	})
	if err != nil {
		abortWithError(c, "Failed to publish", err)
		return
	}

	if result.Status == greengrass.RequestAgain {
		c.Header("Retry-After", "1")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": result.Status.String(), "body": string(response.Body)})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": result.Status.String()})
}

// @Summary Take published messages
// @Description Remove and return every message waiting in the outbox
// @Tags messages
// @Produce json
// @Success 200 {array} local.Message
// @Router /messages [get]
func (h *RuntimeHandler) TakeMessages(c *gin.Context) {
	messages := h.runtime.TakeMessages()
	if messages == nil {
		messages = []local.Message{}
	}
	c.JSON(http.StatusOK, messages)
}

// @Summary Subscribe a function
// @Description Route messages whose topic matches an MQTT filter to a local function
// @Tags messages
// @Accept json
// @Produce json
// @Param subscription body SubscriptionRequest true "Subscription"
// @Success 201 {object} SubscriptionRequest
// @Failure 400 {object} ErrorResponse
// @Router /subscriptions [post]
func (h *RuntimeHandler) Subscribe(c *gin.Context) {
	var req SubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, middleware.BindError(c, err))
		return
	}

	if err := h.runtime.Subscribe(req.Filter, req.Target); err != nil {
		abortWithError(c, "Failed to subscribe", err)
		return
	}

	c.JSON(http.StatusCreated, req)
}
