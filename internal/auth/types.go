package auth

import "github.com/golang-jwt/jwt/v5"

const (
	// cookie set by the web frontend after login
	SessionCookieName = "fitcoach_session"

	contextUserID      = "user_id"
	contextUserEmail   = "user_email"
	contextDisplayName = "display_name"
)

// represents JWT claims
type Claims struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"name,omitempty"`
	jwt.RegisteredClaims
}
