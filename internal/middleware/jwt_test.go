package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shibbu04/EventBook/internal/utils"
)

func runChain(mw echo.MiddlewareFunc, header string) (*httptest.ResponseRecorder, echo.Context) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	_ = handler(c)
	return rec, c
}

func TestJWTAuth(t *testing.T) {
	t.Run("valid token injects claims", func(t *testing.T) {
		at, err := utils.NewAccessToken("secret", 42, "admin", 15)
		require.NoError(t, err)

		rec, c := runChain(JWTAuth("secret"), "Bearer "+at.Token)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "42", c.Get("user_id"))
		assert.Equal(t, "admin", c.Get("role"))
	})

	t.Run("missing header is rejected", func(t *testing.T) {
		rec, _ := runChain(JWTAuth("secret"), "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token signed with another secret is rejected", func(t *testing.T) {
		at, err := utils.NewAccessToken("other", 42, "user", 15)
		require.NoError(t, err)

		rec, _ := runChain(JWTAuth("secret"), "Bearer "+at.Token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		at, err := utils.NewAccessToken("secret", 42, "user", -1)
		require.NoError(t, err)

		rec, _ := runChain(JWTAuth("secret"), "Bearer "+at.Token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireRole(t *testing.T) {
	invoke := func(role any, allowed ...string) int {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if role != nil {
			c.Set("role", role)
		}
		h := RequireRole(allowed...)(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})
		_ = h(c)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, invoke("admin", "admin"))
	assert.Equal(t, http.StatusOK, invoke("user", "user", "admin"))
	assert.Equal(t, http.StatusForbidden, invoke("user", "admin"))
	assert.Equal(t, http.StatusForbidden, invoke(nil, "admin"))
}
