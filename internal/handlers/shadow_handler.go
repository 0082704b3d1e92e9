package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/aws/aws-greengrass-core-sdk-c/internal/middleware"
	"github.com/aws/aws-greengrass-core-sdk-c/pkg/greengrass"
	"github.com/gin-gonic/gin"
)

// writeDocument answers with the runtime's JSON document. Rejected
// requests keep the status code carried in the document.
func writeDocument(c *gin.Context, successStatus int, result *greengrass.RequestResult, body []byte) {
	status := successStatus
	switch result.Status {
	case greengrass.RequestSuccess:
	case greengrass.RequestHandled:
		status = rejectionStatus(body)
	default:
		status = http.StatusInternalServerError
	}
	c.Data(status, "application/json", body)
}

// @Summary Get a thing shadow
// @Description Get the shadow document of a thing, including the delta
// @Tags shadows
// @Produce json
// @Param thing path string true "Thing name"
// @Success 200 {object} models.ShadowDocument
// @Failure 404 {object} models.ShadowError
// @Router /shadows/{thing} [get]
func (h *RuntimeHandler) GetShadow(c *gin.Context) {
	thing := c.Param("thing")

	result, response, err := h.call(c, "GetThingShadow", func(r greengrass.Request) (*greengrass.RequestResult, error) {
		return h.runtime.GetThingShadow(c.Request.Context(), r, thing)
	})
	if err != nil {
		abortWithError(c, "Failed to get shadow", err)
		return
	}

	writeDocument(c, http.StatusOK, result, response.Body)
}

// @Summary Update a thing shadow
// @Description Merge a desired and reported state update into the shadow
// @Tags shadows
// @Accept json
// @Produce json
// @Param thing path string true "Thing name"
// @Param update body models.ShadowUpdate true "Shadow update"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} models.ShadowError
// @Failure 409 {object} models.ShadowError
// @Failure 413 {object} middleware.ErrorResponse
// @Router /shadows/{thing} [post]
func (h *RuntimeHandler) UpdateShadow(c *gin.Context) {
	thing := c.Param("thing")

	document, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, middleware.NewErrorResponse(c, "Request too large",
				fmt.Sprintf("Request body exceeds maximum allowed size (%d bytes)", tooLarge.Limit)))
			return
		}
		c.JSON(http.StatusBadRequest, middleware.NewErrorResponse(c, "Invalid request body", err.Error()))
		return
	}

	result, response, err := h.call(c, "UpdateThingShadow", func(r greengrass.Request) (*greengrass.RequestResult, error) {
		return h.runtime.UpdateThingShadow(c.Request.Context(), r, thing, document)
	})
	if err != nil {
		abortWithError(c, "Failed to update shadow", err)
		return
	}

	writeDocument(c, http.StatusOK, result, response.Body)
}

// @Summary Delete a thing shadow
// @Description Delete the shadow document of a thing
// @Tags shadows
// @Produce json
// @Param thing path string true "Thing name"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} models.ShadowError
// @Router /shadows/{thing} [delete]
func (h *RuntimeHandler) DeleteShadow(c *gin.Context) {
	thing := c.Param("thing")

	result, response, err := h.call(c, "DeleteThingShadow", func(r greengrass.Request) (*greengrass.RequestResult, error) {
		return h.runtime.DeleteThingShadow(c.Request.Context(), r, thing)
	})
	if err != nil {
		abortWithError(c, "Failed to delete shadow", err)
		return
	}

	writeDocument(c, http.StatusOK, result, response.Body)
}

// @Summary List thing shadows
// @Description List the names of things that have a shadow, in name order
// @Tags shadows
// @Produce json
// @Param prefix query string false "Thing name prefix"
// @Param marker query string false "Thing name to list after"
// @Param max_results query int false "Page size"
// @Success 200 {object} local.ShadowList
// @Router /shadows [get]
func (h *RuntimeHandler) ListShadows(c *gin.Context) {
	maxResults := 0
	if limit := c.Query("max_results"); limit != "" {
		if val, err := strconv.Atoi(limit); err == nil && val > 0 {
			maxResults = val
		}
	}

	list, err := h.runtime.ListThingShadows(c.Request.Context(), c.Query("prefix"), c.Query("marker"), maxResults)
	if err != nil {
		abortWithError(c, "Failed to list shadows", err)
		return
	}

	c.JSON(http.StatusOK, list)
}
