package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// SessionContextKey is where handlers find the resolved session id.
	SessionContextKey = "sessionID"
	// SessionCookie carries the id for browsers that don't send the header.
	SessionCookie = "tcnr01_session_id"
	// SessionHeader is the identity header forwarded on upstream calls.
	SessionHeader = "X-Session-Id"
)

// Session resolves the browser's session identifier: the X-Session-Id
// header wins, then the cookie, then a freshly minted UUID which is set as
// a cookie so the same browser keeps its anonymous cart.
func Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(SessionHeader)
		if id == "" {
			if v, err := c.Cookie(SessionCookie); err == nil && v != "" {
				id = v
			}
		}
		if id == "" {
			id = uuid.NewString()
			c.SetCookie(SessionCookie, id, 60*60*24*365, "/", "", false, true)
		}

		c.Set(SessionContextKey, id)
		c.Next()
	}
}

// SessionID reads the resolved identifier from the request context.
func SessionID(c *gin.Context) string {
	if v, ok := c.Get(SessionContextKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
