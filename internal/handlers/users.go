package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"claim-intake-go/internal/directory"
	"claim-intake-go/internal/model"
)

// CreateUser registers a new policyholder
func (h *Handlers) CreateUser(c *gin.Context) {
	var req PolicyholderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
		return
	}

	issued, err := time.Parse("2006-01-02", req.PolicyIssuedDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "policy_issued_date must be YYYY-MM-DD",
			Code:    http.StatusBadRequest,
		})
		return
	}

	holder := model.Policyholder{
		MailID:           req.MailID,
		PolicyType:       req.PolicyType,
		PolicyIssuedDate: issued,
	}
	if err := h.validator.Register(c.Request.Context(), &holder); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to create user",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusCreated, holder)
}

// GetUser returns a registered policyholder by email
func (h *Handlers) GetUser(c *gin.Context) {
	holder, err := h.validator.Validate(c.Request.Context(), c.Param("email"))
	if errors.Is(err, directory.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "User not found",
			Code:    http.StatusNotFound,
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to fetch user",
			Code:    http.StatusInternalServerError,
		})
		return
	}
	c.JSON(http.StatusOK, holder)
}
