package middleware

import "github.com/labstack/echo/v4"

// userKey identifies the caller for rate limit keys. Anonymous requests
// share the "anon" bucket per IP.
func userKey(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return id.String()
	}
	return "anon"
}
