package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/models"
	"storefront/services"
)

type ProfileController struct {
	profiles *services.ProfileService
	timeout  time.Duration
}

func NewProfileController(profiles *services.ProfileService, timeout time.Duration) *ProfileController {
	return &ProfileController{profiles: profiles, timeout: timeout}
}

// Get returns the caller's profile; admins may pass ?userId= to read another.
func (h *ProfileController) Get(c *gin.Context) {
	caller, ok := callerOf(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	contact, err := h.profiles.Get(ctx, caller, c.Query("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": contact})
}

func (h *ProfileController) Update(c *gin.Context) {
	caller, ok := callerOf(c)
	if !ok {
		return
	}

	var input struct {
		Phone *string `json:"phone"`
		// Omitted address fields are stored as empty strings.
		Address *models.Address `json:"address"`
	}
	if !bindJSON(c, &input) {
		return
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	contact, err := h.profiles.Update(ctx, caller, services.ProfileUpdate{
		Phone:   input.Phone,
		Address: input.Address,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated", "user": contact})
}
