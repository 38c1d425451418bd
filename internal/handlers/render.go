package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"projectflow/internal/board"
	"projectflow/internal/middleware"
	"projectflow/internal/models"
	"projectflow/internal/repository"
	"projectflow/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler serves the JSON API on top of the services.
type Handler struct {
	Projects  *service.ProjectService
	Members   *service.MemberService
	Dashboard *service.DashboardService
	Audit     repository.AuditRepository
	Logger    *zap.Logger
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, board.ErrInvalidBucket),
		errors.Is(err, board.ErrEmptyContent),
		errors.Is(err, board.ErrTitleRequired),
		errors.Is(err, board.ErrNameRequired),
		errors.Is(err, board.ErrInvalidWeight),
		errors.Is(err, board.ErrWeightBudgetExceeded):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, board.ErrTaskNotFound),
		errors.Is(err, board.ErrMilestoneNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// renderError writes {"error": ...}. Internal errors are logged and hidden
// from the client.
func (h *Handler) renderError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		h.Logger.Error("Request error", zap.String("path", c.FullPath()), zap.Error(err))
		msg = "internal server error"
	}
	c.JSON(status, gin.H{"error": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// actor returns the authenticated member. Routes using it sit behind
// middleware.RequireAuth.
func actor(c *gin.Context) models.Member {
	m, _ := middleware.CurrentMember(c)
	return m
}

func uintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(v), true
}

func intParam(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil || v <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}
