package handlers

import (
	"net/http"

	"github.com/aws/aws-greengrass-core-sdk-c/internal/middleware"
	"github.com/aws/aws-greengrass-core-sdk-c/pkg/greengrass"
	"github.com/gin-gonic/gin"
)

// PutSecretRequest is the body of a secret write
type PutSecretRequest struct {
	SecretString string `json:"secret_string"`
	SecretBinary []byte `json:"secret_binary"`
}

// @Summary Store a secret value
// @Description Store a new current version of a secret, creating the secret if needed
// @Tags secrets
// @Accept json
// @Produce json
// @Param id path string true "Secret name or ARN"
// @Param secret body PutSecretRequest true "Secret value"
// @Success 200 {object} models.SecretValue
// @Failure 400 {object} ErrorResponse
// @Router /secrets/{id} [put]
func (h *RuntimeHandler) PutSecret(c *gin.Context) {
	var req PutSecretRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, middleware.BindError(c, err))
		return
	}
	if req.SecretString == "" && len(req.SecretBinary) == 0 {
		c.JSON(http.StatusBadRequest, middleware.NewErrorResponse(c, "Validation failed", "secret_string or secret_binary is required"))
		return
	}

	value, err := h.runtime.PutSecretValue(c.Request.Context(), c.Param("id"), req.SecretString, req.SecretBinary)
	if err != nil {
		abortWithError(c, "Failed to store secret", err)
		return
	}

	c.JSON(http.StatusOK, value)
}

// @Summary Get a secret value
// @Description Get a secret value by version id or stage, AWSCURRENT by default
// @Tags secrets
// @Produce json
// @Param id path string true "Secret name or ARN"
// @Param version_id query string false "Version id"
// @Param version_stage query string false "Version stage"
// @Success 200 {object} models.SecretValue
// @Failure 404 {object} models.SecretError
// @Router /secrets/{id} [get]
func (h *RuntimeHandler) GetSecret(c *gin.Context) {
	secretReq := &greengrass.SecretRequest{
		SecretID:     c.Param("id"),
		VersionID:    c.Query("version_id"),
		VersionStage: c.Query("version_stage"),
	}

	result, response, err := h.call(c, "GetSecretValue", func(r greengrass.Request) (*greengrass.RequestResult, error) {
		return h.runtime.GetSecretValue(c.Request.Context(), r, secretReq)
	})
	if err != nil {
		abortWithError(c, "Failed to get secret", err)
		return
	}

	writeDocument(c, http.StatusOK, result, response.Body)
}
