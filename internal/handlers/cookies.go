package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"accounts/internal/middleware"
	"accounts/internal/session"
)

// CookieConfig controls the auth cookies.
type CookieConfig struct {
	Secure     bool
	Domain     string
	SameSite   http.SameSite
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func setAuthCookies(c *gin.Context, cfg CookieConfig, pair session.TokenPair) {
	setCookie(c, cfg, middleware.AccessTokenCookie, pair.AccessToken.Token, int(cfg.AccessTTL.Seconds()))
	setCookie(c, cfg, middleware.RefreshTokenCookie, pair.RefreshToken.Token, int(cfg.RefreshTTL.Seconds()))
}

func clearAuthCookies(c *gin.Context, cfg CookieConfig) {
	setCookie(c, cfg, middleware.AccessTokenCookie, "", -1)
	setCookie(c, cfg, middleware.RefreshTokenCookie, "", -1)
}

func setCookie(c *gin.Context, cfg CookieConfig, name, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   cfg.Domain,
		MaxAge:   maxAge,
		Secure:   cfg.Secure,
		HttpOnly: true,
		SameSite: cfg.SameSite,
	})
}
