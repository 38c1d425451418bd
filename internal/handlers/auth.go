package handlers

import (
	"net/http"

	"projectflow/internal/middleware"
	"projectflow/internal/models"
	"projectflow/internal/service"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type authResponse struct {
	Token string        `json:"token"`
	User  models.Member `json:"user"`
}

func (h *Handler) Signup(c *gin.Context) {
	var in service.SignupInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	m, token, err := h.Members.Signup(c.Request.Context(), in)
	if err != nil {
		h.renderError(c, err)
		return
	}

	h.startSession(c, m)
	c.JSON(http.StatusCreated, authResponse{Token: token, User: *m})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	m, token, err := h.Members.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.renderError(c, err)
		return
	}

	h.startSession(c, m)
	c.JSON(http.StatusOK, authResponse{Token: token, User: *m})
}

func (h *Handler) Logout(c *gin.Context) {
	sess := sessions.Default(c)
	sess.Clear()
	sess.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := sess.Save(); err != nil {
		h.Logger.Warn("Failed to clear session", zap.Error(err))
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, actor(c))
}

func (h *Handler) startSession(c *gin.Context, m *models.Member) {
	sess := sessions.Default(c)
	sess.Set(middleware.SessionMemberKey, m.ID)
	if err := sess.Save(); err != nil {
		h.Logger.Warn("Failed to save session", zap.Uint("member_id", m.ID), zap.Error(err))
	}
}
