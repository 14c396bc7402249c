package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestRequireRole(t *testing.T) {
    next := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }

    run := func(role interface{}, allowed ...string) *httptest.ResponseRecorder {
        e := echo.New()
        req := httptest.NewRequest(http.MethodGet, "/", nil)
        rec := httptest.NewRecorder()
        c := e.NewContext(req, rec)
        if role != nil {
            c.Set("role", role)
        }
        require.NoError(t, RequireRole(allowed...)(next)(c))
        return rec
    }

    t.Run("allows a matching role", func(t *testing.T) {
        rec := run("musician", "musician", "venue")
        assert.Equal(t, http.StatusOK, rec.Code)
    })

    t.Run("refuses a different role", func(t *testing.T) {
        rec := run("venue", "admin")
        assert.Equal(t, http.StatusForbidden, rec.Code)
    })

    t.Run("refuses a missing role", func(t *testing.T) {
        rec := run(nil, "musician")
        assert.Equal(t, http.StatusForbidden, rec.Code)
    })
}
