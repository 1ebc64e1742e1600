package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/servicebook/backend/internal/application/identity"
	"github.com/servicebook/backend/internal/interfaces/http/middleware"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	authService *identity.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *identity.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login godoc
// @ID           loginAuth
// @Summary      User login
// @Description  Authenticate with username and password and receive an access and refresh token pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identity.LoginInput true "Login credentials"
// @Success      200 {object} APIResponse[identity.LoginResult]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      429 {object} ErrorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req identity.LoginInput
	if !h.bindJSON(c, &req) {
		return
	}
	req.Username = normalizeLogin(req.Username)

	result, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Register godoc
// @ID           registerAuth
// @Summary      Register a customer account
// @Description  Creates a customer account. Staff accounts are provisioned by administrators.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identity.RegisterInput true "Account details"
// @Success      201 {object} APIResponse[identity.UserInfo]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req identity.RegisterInput
	if !h.bindJSON(c, &req) {
		return
	}
	req.Username = normalizeLogin(req.Username)
	req.DisplayName = normalizeText(req.DisplayName)
	req.Email = normalizeText(req.Email)
	req.Phone = normalizeText(req.Phone)

	user, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, user)
}

// Refresh godoc
// @ID           refreshAuth
// @Summary      Refresh access token
// @Description  Exchange a refresh token for a new token pair. The presented refresh token is revoked.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identity.RefreshTokenInput true "Refresh token"
// @Success      200 {object} APIResponse[identity.TokenResult]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req identity.RefreshTokenInput
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Refresh(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Logout godoc
// @ID           logoutAuth
// @Summary      Sign out
// @Description  Revokes the presented access token and, if given, the refresh token. all_sessions revokes every token issued so far.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identity.LogoutInput false "Optional refresh token and scope"
// @Success      204
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	var req identity.LogoutInput
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}
	req.UserID = principal.UserID
	if claims := middleware.GetJWTClaims(c); claims != nil {
		req.AccessTokenID = claims.ID
		req.AccessTokenTTL = claims.GetRemainingTTL()
	}

	if err := h.authService.Logout(c.Request.Context(), req); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Me godoc
// @ID           meAuth
// @Summary      Current account
// @Description  Returns the signed-in account
// @Tags         auth
// @Produce      json
// @Success      200 {object} APIResponse[identity.UserInfo]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	user, err := h.authService.Me(c.Request.Context(), principal)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}
