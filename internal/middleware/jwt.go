package middleware // reusable HTTP middleware shared by every route group

import (
    "net/http" // HTTP status codes for responses
    "strconv"  // parse the numeric subject claim
    "strings"  // prefix checking and trimming for the Authorization header

    "github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens
    "github.com/labstack/echo/v4"  // Echo framework used for defining middleware and handlers
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects the authenticated user into the request context.  The secret
// must match the one used when issuing tokens.  Handlers behind this
// middleware read the identity via `c.Get("user_id")` (uint64) and
// `c.Get("role")` (musician, venue or admin).
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            // A valid header is "Bearer " followed by the JWT.
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            // Parse with HS256 and our secret.  The callback pins the
            // algorithm; tokens signed any other way are rejected.
            tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
                if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
                    return nil, echo.ErrUnauthorized
                }
                return []byte(secret), nil
            })
            if err != nil || !tok.Valid {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }

            claims, ok := tok.Claims.(jwt.MapClaims)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
            }

            // The subject is the user ID, issued as a decimal string.
            sub, _ := claims["sub"].(string)
            uid, err := strconv.ParseUint(sub, 10, 64)
            if err != nil || uid == 0 {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
            }
            role, _ := claims["role"].(string)

            c.Set("user_id", uid)
            c.Set("role", role)
            return next(c)
        }
    }
}
