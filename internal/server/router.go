package server

import (
	"context"
	"net/http"
	"time"

	"projectflow/internal/auth"
	"projectflow/internal/config"
	"projectflow/internal/handlers"
	"projectflow/internal/metrics"
	"projectflow/internal/middleware"
	"projectflow/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const sessionName = "projectflow_session"

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Deps struct {
	Handler *handlers.Handler
	Members middleware.MemberLookup
	Tokens  *auth.Tokens
	Logger  *zap.Logger
	DB      Pinger // optional
}

func NewRouter(cfg *config.Config, deps Deps) *gin.Engine {
	gin.SetMode(cfg.GinMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(metrics.Middleware())

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.TokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))

	r.Use(middleware.InjectMember(deps.Members, deps.Tokens, deps.Logger))

	h := deps.Handler
	api := r.Group("/api")

	// AUTH
	api.POST("/auth/signup", h.Signup)
	api.POST("/auth/login", h.Login)
	api.POST("/auth/logout", h.Logout)

	authed := api.Group("/")
	authed.Use(middleware.RequireAuth())

	authed.GET("/auth/me", h.Me)

	// PROJECTS
	authed.GET("/projects", h.ListProjects)
	authed.POST("/projects", h.CreateProject)
	authed.GET("/projects/:id", h.GetProject)
	authed.PUT("/projects/:id", h.UpdateProject)
	authed.DELETE("/projects/:id",
		middleware.RequireRole(models.RoleAdmin),
		h.DeleteProject,
	)
	authed.PUT("/projects/:id/status", h.SetProjectStatus)

	authed.POST("/projects/:id/tasks", h.AddTask)
	authed.POST("/projects/:id/tasks/:taskId/move", h.MoveTask)
	authed.DELETE("/projects/:id/tasks/:taskId", h.RemoveTask)

	authed.POST("/projects/:id/milestones", h.AddMilestone)
	authed.PUT("/projects/:id/milestones/:milestoneId/weight", h.SetMilestoneWeight)
	authed.DELETE("/projects/:id/milestones/:milestoneId", h.RemoveMilestone)

	authed.POST("/projects/:id/history", h.AddHistory)
	authed.POST("/projects/:id/files", h.AddFile)

	// DASHBOARD
	authed.GET("/dashboard", h.DashboardSummary)
	authed.GET("/my-tasks", h.MyTasks)
	authed.GET("/calendar", h.Calendar)

	// TEAM
	authed.GET("/users", h.ListMembers)
	authed.DELETE("/users/:id",
		middleware.RequireRole(models.RoleAdmin),
		h.DeleteMember,
	)

	// AUDIT
	authed.GET("/audit",
		middleware.RequireRole(models.RoleAdmin),
		h.ListAuditLogs,
	)

	// HEALTHCHECK
	r.GET("/health", func(c *gin.Context) {
		if deps.DB != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := deps.DB.PingContext(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}
