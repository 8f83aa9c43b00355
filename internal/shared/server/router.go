package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"quali-backend/internal/interview"
	"quali-backend/internal/realtime"
	"quali-backend/internal/shared/config"
	"quali-backend/internal/shared/metrics"
	"quali-backend/internal/shared/server/middleware"
	"quali-backend/internal/shared/server/respond"
)

// RouterDeps collects the handlers and services the router wires up.
type RouterDeps struct {
	Config           config.Config
	InterviewHandler *interview.Handler
	Hub              *realtime.Hub
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(deps.Config.Env),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				// Completion-backed endpoints are far more expensive than
				// plain reads.
				"AI":      {Rate: 0.5, Burst: 5},
				"DEFAULT": {Rate: 20, Burst: 40},
			},
			GroupFor: func(c *gin.Context) string {
				if c.Request.Method == http.MethodPost &&
					strings.HasPrefix(c.FullPath(), "/api/v1/quali-carriere/") {
					return "AI"
				}
				return ""
			},
		}),
	)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	registerMeRoutes(api)
	if deps.InterviewHandler != nil {
		deps.InterviewHandler.RegisterRoutes(api)
	}
	if deps.Hub != nil {
		api.GET("/quali-carriere/ws", func(c *gin.Context) {
			userID := middleware.UserIDFromContext(c)
			if userID == "" {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
				return
			}
			if err := deps.Hub.Serve(c.Writer, c.Request, userID); err != nil {
				// Upgrade already wrote the handshake failure.
				c.Abort()
				return
			}
		})
	}

	r.GET("/metrics", metrics.Handler())

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
