package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"claim-intake-go/internal/repository"
)

// GetFulfillments returns all fulfillment records, newest first
func (h *Handlers) GetFulfillments(c *gin.Context) {
	recs, err := h.repo.ListFulfillments(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to fetch fulfillments",
			Code:    http.StatusInternalServerError,
		})
		return
	}
	c.JSON(http.StatusOK, recs)
}

// GetFulfillment returns one record by fulfillment or claim identifier
func (h *Handlers) GetFulfillment(c *gin.Context) {
	id := c.Param("id")

	var finder func() (any, error)
	if strings.HasPrefix(id, "CLAIM_") {
		finder = func() (any, error) { return h.repo.FindByClaimID(c.Request.Context(), id) }
	} else {
		finder = func() (any, error) { return h.repo.FindByFulfillmentID(c.Request.Context(), id) }
	}

	rec, err := finder()
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Fulfillment not found",
			Code:    http.StatusNotFound,
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to fetch fulfillment",
			Code:    http.StatusInternalServerError,
		})
		return
	}
	c.JSON(http.StatusOK, rec)
}
