package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/secure-task-manager/internal/auth"
	"github.com/iliyamo/secure-task-manager/internal/middleware"
)

// CurrentClaims rebuilds the identity that CookieAuth stored in the request
// context. The second return is false when the middleware did not run or
// stored unexpected types.
func CurrentClaims(c echo.Context) (auth.Claims, bool) {
	id, ok := c.Get(middleware.CtxUserID).(string)
	if !ok || id == "" {
		return auth.Claims{}, false
	}
	email, ok := c.Get(middleware.CtxEmail).(string)
	if !ok || email == "" {
		return auth.Claims{}, false
	}
	return auth.Claims{ID: id, Email: email}, true
}
