// Package middleware provides the session gate that fronts every protected
// route and page.
package middleware

import (
	"net/http"
	"strings"

	"github.com/Editorhacker/Invoice/internal/services/auth"
	"github.com/gin-gonic/gin"
)

// SessionCookie is the HttpOnly cookie the login handler sets.
const SessionCookie = "session"

const claimsKey = "sessionClaims"

// RequireSession rejects requests without a valid session token. API callers
// get a 401; requests that prefer HTML are redirected to the login page.
// The authenticated identity is placed into the request context for handlers.
func RequireSession(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := sessionClaims(c, tokens)
		if !ok {
			if prefersHTML(c) {
				c.Redirect(http.StatusFound, "/login")
			} else {
				c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			}
			c.Abort()
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RedirectAuthenticated bounces already signed-in users away from the
// login/signup pages to the dashboard.
func RedirectAuthenticated(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := sessionClaims(c, tokens); ok {
			c.Redirect(http.StatusFound, "/dashboard")
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the session identity set by RequireSession.
func CurrentUser(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}

// sessionClaims extracts and verifies the token from the session cookie,
// falling back to a Bearer Authorization header for non-browser clients.
func sessionClaims(c *gin.Context, tokens *auth.TokenManager) (*auth.Claims, bool) {
	tokenString, err := c.Cookie(SessionCookie)
	if err != nil || tokenString == "" {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			return nil, false
		}
		tokenString = strings.TrimPrefix(header, "Bearer ")
	}
	claims, err := tokens.Parse(tokenString)
	if err != nil {
		return nil, false
	}
	return claims, true
}

func prefersHTML(c *gin.Context) bool {
	accept := c.GetHeader("Accept")
	return strings.Contains(accept, "text/html")
}
