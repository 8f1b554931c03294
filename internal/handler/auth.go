// Package handler implements the HTTP layer. Handlers stay thin: bind,
// delegate to a service, translate the error taxonomy to a status code.
package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/f-lab-edu/retry-lee/internal/apperr"
	"github.com/f-lab-edu/retry-lee/internal/middleware"
	"github.com/f-lab-edu/retry-lee/internal/service"
)

// AuthHandler exposes sign-up, sign-in, token reissue and the
// authenticated-principal echo endpoint.
type AuthHandler struct {
	Auth *service.Auth
}

func NewAuthHandler(auth *service.Auth) *AuthHandler {
	return &AuthHandler{Auth: auth}
}

// ----- DTOs -----

type signUpReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
	IsAdmin  bool   `json:"is_admin"`
}

type signInReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type reissueReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResp struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Role         string `json:"role,omitempty"`
}

// SignUp registers an account with its role row. 201 on success,
// 409/BE1001 when the email (case-insensitively) exists.
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req signUpReq
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, apperr.ErrInvalidInput)
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Nickname = strings.TrimSpace(req.Nickname)
	if req.Email == "" || req.Password == "" || req.Nickname == "" {
		return errorJSON(c, apperr.ErrInvalidInput)
	}

	if err := h.Auth.Register(c.Request().Context(), req.Email, req.Password, req.Nickname, req.IsAdmin); err != nil {
		return errorJSON(c, err)
	}
	return c.NoContent(http.StatusCreated)
}

// SignIn verifies credentials and returns a fresh access+refresh pair
// along with the resolved role kind.
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req signInReq
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, apperr.ErrInvalidInput)
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return errorJSON(c, apperr.ErrInvalidInput)
	}

	pair, err := h.Auth.SignIn(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, tokenResp{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		Role:         string(pair.Role),
	})
}

// Reissue rotates a refresh token and returns the new pair. The old
// token stops working the moment this succeeds.
func (h *AuthHandler) Reissue(c echo.Context) error {
	var req reissueReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return errorJSON(c, apperr.ErrInvalidInput)
	}

	pair, err := h.Auth.Refresh(c.Request().Context(), strings.TrimSpace(req.RefreshToken))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, tokenResp{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Me echoes the authenticated principal.
func (h *AuthHandler) Me(c echo.Context) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return errorJSON(c, apperr.ErrInvalidToken)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"role":        string(p.Role),
		"id":          p.ID,
		"email":       p.Email,
		"nickname":    p.Nickname,
		"authorities": p.Authorities(),
	})
}

// errorJSON maps the error taxonomy onto HTTP statuses. Anything
// outside the taxonomy is an internal fault and yields a bare 500, so
// infrastructure state never leaks through an auth code.
func errorJSON(c echo.Context, err error) error {
	e, ok := apperr.As(err)
	if !ok {
		c.Logger().Errorf("internal error: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	status := http.StatusInternalServerError
	switch e {
	case apperr.ErrDuplicateEmail, apperr.ErrDuplicateAccommodation:
		status = http.StatusConflict
	case apperr.ErrInvalidInput:
		status = http.StatusBadRequest
	case apperr.ErrInvalidCredentials, apperr.ErrInvalidToken:
		status = http.StatusUnauthorized
	case apperr.ErrPrincipalNotFound:
		status = http.StatusNotFound
	}
	return c.JSON(status, echo.Map{"code": e.Code, "message": e.Message})
}
