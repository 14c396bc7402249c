package middleware

// identity.go holds helpers shared by the cache and rate limit middleware:
// a stable per-request identity string, derived from the authenticated user
// when present and falling back to "guest" otherwise.

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// requestIdentity returns the authenticated user ID as a string, or "guest"
// for unauthenticated requests.  JWTAuth stores the ID as uint64.
func requestIdentity(c echo.Context) string {
    if uid, ok := c.Get("user_id").(uint64); ok && uid != 0 {
        return strconv.FormatUint(uid, 10)
    }
    return "guest"
}
