package http

import (
	"context"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/edulive/classroom/internal/adapters/signal"
	"github.com/edulive/classroom/internal/adapters/store"
	"github.com/edulive/classroom/internal/app"
	"github.com/edulive/classroom/internal/config"
	"github.com/edulive/classroom/internal/core"
	"github.com/edulive/classroom/internal/domain"
)

// ClientTokenMiddleware hands every browser a stable anonymous token, so
// guest activity is correlatable across reconnects in the logs.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = uuid.NewString()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

// IdentityMiddleware resolves the caller's credential. It never rejects:
// invalid or absent credentials degrade to Guest.
func IdentityMiddleware(verifier core.IdentityVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		credential := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if credential == "" {
			credential = c.Query("token")
		}
		c.Set("identity", verifier.Verify(credential))
		c.Next()
	}
}

// Deps groups everything the router serves.
type Deps struct {
	Controller *signal.Controller
	Conns      *app.ConnRegistry
	Rooms      *core.RoomRegistry
	Sessions   *store.Sessions
	Reaper     *app.Reaper
	Verifier   core.IdentityVerifier
}

func SetupRouter(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	cookieStore := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("ClassroomSessions", cookieStore))
	r.Use(ClientTokenMiddleware())
	r.Use(IdentityMiddleware(deps.Verifier))

	log.Info().Str("module", "adapters.http").Msg("router setup")

	api := r.Group("/api")

	api.GET("/ws/chat", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("client_token", c.GetString("client_token")).Msg("ws chat endpoint hit")
		deps.Controller.Handle(ctx, c)
	})

	admin := newAdminHandlers(deps)
	api.GET("/live/stats", requireRole(domain.RoleTeacher, domain.RoleAdmin), admin.stats)
	api.POST("/sessions", requireRole(domain.RoleTeacher, domain.RoleAdmin), admin.createSession)
	api.POST("/live/sessions/:id/kick/:userID", requireRole(domain.RoleTeacher, domain.RoleAdmin), admin.kick)

	return r
}
