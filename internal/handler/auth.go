package handler

import (
	"context"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/secure-task-manager/internal/apperr"
	"github.com/iliyamo/secure-task-manager/internal/auth"
	"github.com/iliyamo/secure-task-manager/internal/config"
	"github.com/iliyamo/secure-task-manager/internal/model"
	"github.com/iliyamo/secure-task-manager/internal/repository"
	"github.com/iliyamo/secure-task-manager/internal/utils"
)

// UserStore is the slice of the user repository the auth handlers need.
type UserStore interface {
	Create(ctx context.Context, email, password string, cost int) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
}

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  UserStore
	Issuer *auth.TokenIssuer
}

func NewAuthHandler(cfg config.Config, users UserStore, issuer *auth.TokenIssuer) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Issuer: issuer}
}

// ----- DTOs -----

type credentialsReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userPart struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type userResp struct {
	User userPart `json:"user"`
}

const minPasswordLen = 8

// validEmail accepts plain addresses like a@x.com and rejects display-name
// forms that net/mail would otherwise tolerate.
func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// Register creates a user, issues a session token and sets the cookie in one
// step so the fresh account is logged in immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("Invalid request body", nil)
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	details := map[string]string{}
	if !validEmail(req.Email) {
		details["email"] = "must be a valid email address"
	}
	if len(req.Password) < minPasswordLen {
		details["password"] = "must be at least 8 characters"
	}
	if len(details) > 0 {
		return apperr.Validation("Validation error", details)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.Create(ctx, req.Email, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if err == repository.ErrEmailExists {
			return apperr.EmailInUse()
		}
		return err
	}

	token, err := h.Issuer.Issue(auth.Claims{ID: u.ID, Email: u.Email})
	if err != nil {
		return err
	}
	auth.SetTokenCookie(c, token, h.Issuer.TTL(), h.Cfg.CookieSecure)

	return c.JSON(http.StatusCreated, userResp{User: userPart{ID: u.ID, Email: u.Email}})
}

// Login verifies credentials and issues a fresh session token. Unknown email
// and wrong password produce the same 401 so the two cannot be told apart.
func (h *AuthHandler) Login(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("Invalid request body", nil)
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return apperr.Validation("Email and password are required", nil)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return apperr.InvalidCredentials()
		}
		return err
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return apperr.InvalidCredentials()
	}

	token, err := h.Issuer.Issue(auth.Claims{ID: u.ID, Email: u.Email})
	if err != nil {
		return err
	}
	auth.SetTokenCookie(c, token, h.Issuer.TTL(), h.Cfg.CookieSecure)

	return c.JSON(http.StatusOK, userResp{User: userPart{ID: u.ID, Email: u.Email}})
}

// Logout clears the session cookie. The token itself stays valid until its
// natural expiry; there is no server-side revocation list.
func (h *AuthHandler) Logout(c echo.Context) error {
	auth.ClearTokenCookie(c, h.Cfg.CookieSecure)
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// Me returns the identity embedded in the verified session token. It runs
// behind CookieAuth, so reaching it without claims means the middleware was
// misconfigured and the uniform 401 applies.
func (h *AuthHandler) Me(c echo.Context) error {
	claims, ok := CurrentClaims(c)
	if !ok {
		return apperr.Unauthorized()
	}
	return c.JSON(http.StatusOK, userResp{User: userPart{ID: claims.ID, Email: claims.Email}})
}
