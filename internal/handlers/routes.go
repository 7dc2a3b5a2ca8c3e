package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"accounts/internal/middleware"
)

type Deps struct {
	Sessions SessionService
	Profiles ProfileService
	Auth     middleware.Authenticator
	Store    Pinger
	Cookies  CookieConfig
	Log      *zap.Logger
	// Metrics is served on /metrics when set.
	Metrics http.Handler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.NoRoute(NoRoute)

	r.GET("/healthz", Healthz)
	r.GET("/readyz", Readyz(d.Store, d.Log))
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics))
	}

	users := r.Group("/api/v1/users")
	users.POST("/register", Register(d.Sessions))
	users.POST("/login", Login(d.Sessions, d.Cookies))
	users.POST("/refresh-token", RefreshToken(d.Sessions, d.Cookies))

	secured := users.Group("")
	secured.Use(middleware.UserAuth(d.Auth, d.Log))
	{
		secured.POST("/logout", Logout(d.Sessions, d.Cookies))
		secured.POST("/change-password", ChangePassword(d.Sessions))
		secured.GET("/current-user", GetCurrentUser(d.Profiles))
		secured.PATCH("/update-account", UpdateAccount(d.Profiles))
		secured.PATCH("/avatar", UpdateAvatar(d.Profiles))
		secured.PATCH("/cover-image", UpdateCoverImage(d.Profiles))
	}
}
