package auth

import (
	"strings"

	apierrors "codeberg.org/fitcoach/server/internal/errors"
	"github.com/gin-gonic/gin"
)

// rejects requests without a valid session token and adds user info to context
func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			apierrors.Unauthorized(c)
			return
		}

		claims, err := a.ValidateToken(token)
		if err != nil {
			apierrors.Unauthorized(c)
			return
		}

		c.Set(contextUserID, claims.UserID)
		c.Set(contextUserEmail, claims.Email)
		c.Set(contextDisplayName, claims.DisplayName)

		c.Next()
	}
}

// bearer header wins over the session cookie
func extractToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}

		return ""
	}

	if cookie, err := c.Cookie(SessionCookieName); err == nil {
		return cookie
	}

	return ""
}

// extracts user_id from context after Middleware
func GetUserID(c *gin.Context) (string, bool) {
	userID := c.GetString(contextUserID)
	return userID, userID != ""
}

// name used for plan personalization; falls back to the email local part
func GetDisplayName(c *gin.Context) string {
	if name := c.GetString(contextDisplayName); name != "" {
		return name
	}

	email := c.GetString(contextUserEmail)
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}

	return ""
}

func GetEmail(c *gin.Context) string {
	return c.GetString(contextUserEmail)
}
