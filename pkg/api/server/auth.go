package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	// AccessCodeHeader carries the access code for non-browser clients.
	AccessCodeHeader = "X-Access-Code"

	// authCookieName is the session cookie set after a query-string login.
	authCookieName = "auth"

	// authCookieMaxAge keeps the session for one day.
	authCookieMaxAge = 86400
)

// accessGate guards the API behind the configured access code. A correct
// `?code=` query sets the session cookie so subsequent requests pass without
// it; the header form serves CLI clients.
func (s *APIServer) accessGate() gin.HandlerFunc {
	return func(c *gin.Context) {
		code := s.options.AccessCode
		if code == "" {
			c.Next()
			return
		}

		if c.Query("code") == code {
			c.SetCookie(authCookieName, code, authCookieMaxAge, "/", "", false, true)
			c.Next()
			return
		}
		if cookie, err := c.Cookie(authCookieName); err == nil && cookie == code {
			c.Next()
			return
		}
		if c.GetHeader(AccessCodeHeader) == code {
			c.Next()
			return
		}

		s.logger.Warn("Rejected request without valid access code")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "access code required"})
	}
}
