package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/synstt/sttpanel/pkg/sttpanel/config"
)

const (
	// ContextKeyAdminID is the key for the admin ID in gin context
	ContextKeyAdminID = "admin_id"
	// ContextKeyAdminEmail is the key for the admin email in gin context
	ContextKeyAdminEmail = "admin_email"
)

// RequireSession validates the session cookie and sets the admin
// identity in the request context. Missing, malformed or expired
// tokens are all treated as "not authenticated": API callers get a
// 401, page requests are redirected to the login page. A stale cookie
// is cleared on the way out.
func RequireSession(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cfg.CookieName)
		if err != nil || token == "" {
			rejectUnauthenticated(c, cfg, false)
			return
		}

		claims, err := ValidateToken([]byte(cfg.JWTSecret), token)
		if err != nil {
			rejectUnauthenticated(c, cfg, true)
			return
		}

		c.Set(ContextKeyAdminID, claims.AdminID)
		c.Set(ContextKeyAdminEmail, claims.Email)

		c.Next()
	}
}

func rejectUnauthenticated(c *gin.Context, cfg *config.Config, clearCookie bool) {
	if clearCookie {
		clearSessionCookie(c, cfg)
	}
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
	} else {
		c.Redirect(http.StatusFound, "/login")
	}
	c.Abort()
}

func setSessionCookie(c *gin.Context, cfg *config.Config, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.CookieName, token, int(SessionDuration.Seconds()), "/", "", cfg.CookieSecure, true)
}

func clearSessionCookie(c *gin.Context, cfg *config.Config) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.CookieName, "", -1, "/", "", cfg.CookieSecure, true)
}

// GetAdminID returns the admin ID from the gin context
func GetAdminID(c *gin.Context) (string, bool) {
	adminID, exists := c.Get(ContextKeyAdminID)
	if !exists {
		return "", false
	}
	return adminID.(string), true
}

// GetAdminEmail returns the admin email from the gin context
func GetAdminEmail(c *gin.Context) (string, bool) {
	email, exists := c.Get(ContextKeyAdminEmail)
	if !exists {
		return "", false
	}
	return email.(string), true
}
