package handlers

import (
	"errors"
	"net/http"

	"tasklist/internal/auth"
	"tasklist/internal/dto"
	"tasklist/internal/service"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles register and login.
type AuthHandler struct {
	issuer       *auth.Issuer
	userSvc      *service.UserService
	exposeErrors bool
}

// NewAuthHandler returns a new AuthHandler.
func NewAuthHandler(issuer *auth.Issuer, userSvc *service.UserService, exposeErrors bool) *AuthHandler {
	return &AuthHandler{issuer: issuer, userSvc: userSvc, exposeErrors: exposeErrors}
}

// Register godoc
// @Summary      Register
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterRequest  true  "Credentials"
// @Success      201   {object}  dto.AuthResponse
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}
	user, err := h.userSvc.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingCredentials):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrEmailTaken):
			c.JSON(http.StatusBadRequest, gin.H{"error": "email already registered"})
		default:
			internalError(c, h.exposeErrors, err)
		}
		return
	}
	token, err := h.issuer.Issue(user.ID)
	if err != nil {
		internalError(c, h.exposeErrors, err)
		return
	}
	c.JSON(http.StatusCreated, dto.AuthResponse{
		Token: token,
		User:  dto.UserResponse{ID: user.ID, Email: user.Email},
	})
}

// Login godoc
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "Credentials"
// @Success      200   {object}  dto.AuthResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}
	user, err := h.userSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingCredentials):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		default:
			internalError(c, h.exposeErrors, err)
		}
		return
	}
	token, err := h.issuer.Issue(user.ID)
	if err != nil {
		internalError(c, h.exposeErrors, err)
		return
	}
	c.JSON(http.StatusOK, dto.AuthResponse{
		Token: token,
		User:  dto.UserResponse{ID: user.ID, Email: user.Email},
	})
}
