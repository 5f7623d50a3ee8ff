package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/middleware"
	"storefront/models"
	"storefront/services"
)

type AuthController struct {
	auth         *services.AuthService
	timeout      time.Duration
	secureCookie bool
}

func NewAuthController(auth *services.AuthService, timeout time.Duration, secureCookie bool) *AuthController {
	return &AuthController{auth: auth, timeout: timeout, secureCookie: secureCookie}
}

func userBody(u *models.User) gin.H {
	return gin.H{
		"_id":   u.ID.Hex(),
		"name":  u.Name,
		"email": u.Email,
		"role":  u.Role,
	}
}

func (h *AuthController) Register(c *gin.Context) {
	var input struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
	}
	if !bindJSON(c, &input) {
		return
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	user, err := h.auth.Register(ctx, services.RegisterInput{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    userBody(user),
	})
}

func (h *AuthController) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if !bindJSON(c, &input) {
		return
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	session, err := h.auth.Login(ctx, input.Email, input.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	maxAge := int(time.Until(session.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, session.Token, maxAge, "/", "", h.secureCookie, true)

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   session.Token,
		"user":    userBody(session.User),
	})
}

func (h *AuthController) Logout(c *gin.Context) {
	token := middleware.TokenFrom(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": callerMissing})
		return
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	if err := h.auth.Logout(ctx, token); err != nil {
		respondError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", h.secureCookie, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}
