package handlers

import (
	"errors"
	"net/http"

	"my-race-engineer/internal/api"
	"my-race-engineer/internal/repository"
	"my-race-engineer/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ProfileHandler manages the user's racer profile.
type ProfileHandler struct {
	profileService *service.ProfileService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// UpdateProfileRequest is the payload for creating or replacing a racer profile.
// @Description Racer profile fields
type UpdateProfileRequest struct {
	DriverName        string `json:"driver_name" binding:"required,min=1,max=120" example:"Jayson Brenton"`
	TransponderNumber string `json:"transponder_number" binding:"omitempty,transponder,max=12" example:"7712345"`
} // @name UpdateProfileRequest

// UpdateProfileResponse carries the saved profile plus the rematch triggered by the change.
// @Description Saved profile and rematch outcome
type UpdateProfileResponse struct {
	Profile *repository.RacerProfile `json:"profile"`
	Rematch *service.RematchStats    `json:"rematch,omitempty"`
} // @name UpdateProfileResponse

// GetProfile returns the user's racer profile
// @Summary Get racer profile
// @Description Fetch the racer profile for a user
// @Tags profile
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} api.APIResponse{data=repository.RacerProfile}
// @Failure 400 {object} api.APIResponse{error=api.APIError}
// @Failure 404 {object} api.APIResponse{error=api.APIError}
// @Failure 500 {object} api.APIResponse{error=api.APIError}
// @Router /users/{id}/profile [get]
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		api.SendValidationError(c, "Invalid user ID", err.Error())
		return
	}

	profile, err := h.profileService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			api.SendUserNotFound(c)
		case errors.Is(err, service.ErrNoDriverProfile):
			api.SendNoDriverProfile(c)
		default:
			api.SendInternalError(c, "Failed to load racer profile")
		}
		return
	}

	api.SendSuccess(c, http.StatusOK, profile, nil)
}

// UpdateProfile creates or replaces the user's racer profile
// @Summary Update racer profile
// @Description Save the user's racer name and optional transponder number, then re-evaluate unlinked race entries against the new identity
// @Tags profile
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param profile body UpdateProfileRequest true "Profile fields"
// @Success 200 {object} api.APIResponse{data=UpdateProfileResponse}
// @Failure 400 {object} api.APIResponse{error=api.APIError}
// @Failure 404 {object} api.APIResponse{error=api.APIError}
// @Failure 500 {object} api.APIResponse{error=api.APIError}
// @Router /users/{id}/profile [put]
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		api.SendValidationError(c, "Invalid user ID", err.Error())
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	profile, rematch, err := h.profileService.UpdateProfile(c.Request.Context(), userID, req.DriverName, req.TransponderNumber)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			api.SendUserNotFound(c)
			return
		}
		api.SendInternalError(c, "Failed to save racer profile")
		return
	}

	api.SendSuccess(c, http.StatusOK, UpdateProfileResponse{Profile: profile, Rematch: rematch}, nil)
}
