// Package middleware provides reusable HTTP middleware: cookie-based session
// authentication, a Redis-backed token bucket rate limiter and a Redis
// response cache.
package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/secure-task-manager/internal/apperr"
	"github.com/iliyamo/secure-task-manager/internal/auth"
)

// Context keys under which the authenticated identity is stored.
const (
	CtxUserID = "user_id"
	CtxEmail  = "email"
)

// CookieAuth returns middleware that requires a valid session token in the
// access_token cookie. On success the claims are injected into the request
// context under CtxUserID and CtxEmail; on any failure (missing cookie,
// malformed, expired or forged token) the request is rejected with the
// uniform 401 unauthorized error; the cause is never distinguished.
func CookieAuth(issuer *auth.TokenIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(auth.CookieName)
			if err != nil || cookie.Value == "" {
				return apperr.Unauthorized()
			}
			claims, ok := issuer.Verify(cookie.Value)
			if !ok {
				return apperr.Unauthorized()
			}
			c.Set(CtxUserID, claims.ID)
			c.Set(CtxEmail, claims.Email)
			return next(c)
		}
	}
}
