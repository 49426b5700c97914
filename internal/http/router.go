package httpx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/you/otams/domain"
	"github.com/you/otams/internal/http/handlers"
	"github.com/you/otams/internal/http/middleware"
	"github.com/you/otams/internal/observability"
)

// RouterOptions carries the cross-cutting pieces of the router
type RouterOptions struct {
	Logger         *slog.Logger
	Metrics        *observability.Metrics
	RequestTimeout time.Duration
}

func BuildRouter(ah *handlers.AuthHandlers, adm *handlers.AdminHandlers, jwtmw *middleware.AuthMW, pmw *middleware.PolicyMW, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(opts.Logger))
	if opts.Metrics != nil {
		r.Use(middleware.Metrics(opts.Metrics))
		r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	api := r.Group("/")
	if opts.RequestTimeout > 0 {
		api.Use(middleware.Timeout(opts.RequestTimeout))
	}

	auth := api.Group("/auth")
	auth.POST("/register", ah.Register)
	auth.POST("/login", ah.Login)

	v := auth.Group("/", jwtmw.WithJWT())
	v.POST("/refresh", pmw.Require(domain.OpRefreshToken), ah.Refresh)
	v.POST("/logout", pmw.Require(domain.OpLogout), ah.Logout)
	v.POST("/change-password", pmw.Require(domain.OpChangePassword), ah.ChangePassword)
	v.GET("/profile", pmw.Require(domain.OpGetProfile), ah.GetProfile)
	v.PUT("/profile", pmw.Require(domain.OpUpdateProfile), ah.UpdateProfile)
	v.POST("/revoke-all", pmw.Require(domain.OpRevokeAll), ah.RevokeAll)

	admin := api.Group("/admin", jwtmw.WithJWT())
	admin.GET("/users", pmw.Require(domain.OpListUsers), adm.ListUsers)
	admin.POST("/users/:id/revoke-all", pmw.Require(domain.OpRevokeAllForAnyone), adm.RevokeAllForUser)
	admin.GET("/policies", pmw.Require(domain.OpListPolicies), adm.Policies)

	return r
}
