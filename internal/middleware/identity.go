package middleware

// identity.go exposes the identity LoadSession stored on the request. Rate
// limit keys fall back to "anon" for unauthenticated callers.

import "github.com/labstack/echo/v4"

// UserID returns the authenticated user's id, or "" for anonymous requests.
func UserID(c echo.Context) string {
	if v, ok := c.Get(ctxUserID).(string); ok {
		return v
	}
	return ""
}

// SessionID returns the current session id, or "".
func SessionID(c echo.Context) string {
	if v, ok := c.Get(ctxSessionID).(string); ok {
		return v
	}
	return ""
}

func currentUserID(c echo.Context) string {
	if id := UserID(c); id != "" {
		return id
	}
	return "anon"
}
