package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"my-race-engineer/internal/api"
	"my-race-engineer/internal/db"
	"my-race-engineer/internal/repository"
	"my-race-engineer/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	defaultLinkPageSize = 20
	maxLinkPageSize     = 100
)

// LinkHandler manages user-driver link listing and review decisions.
type LinkHandler struct {
	linkService *service.LinkService
}

// NewLinkHandler creates a new link handler
func NewLinkHandler(linkService *service.LinkService) *LinkHandler {
	return &LinkHandler{linkService: linkService}
}

// ListLinks returns the user's driver links with their event evidence
// @Summary List a user's driver links
// @Description Paginated list of driver identities linked to the user, including the event each link was established at
// @Tags links
// @Produce json
// @Param id path string true "User ID"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} api.APIResponse{data=[]repository.LinkWithEvent}
// @Failure 400 {object} api.APIResponse{error=api.APIError}
// @Failure 404 {object} api.APIResponse{error=api.APIError}
// @Failure 500 {object} api.APIResponse{error=api.APIError}
// @Router /users/{id}/links [get]
func (h *LinkHandler) ListLinks(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		api.SendValidationError(c, "Invalid user ID", err.Error())
		return
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLinkPageSize)))
	if err != nil || limit < 1 || limit > maxLinkPageSize {
		limit = defaultLinkPageSize
	}
	offset := (page - 1) * limit

	links, total, err := h.linkService.ListUserLinks(c.Request.Context(), userID, int32(limit), int32(offset))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			api.SendUserNotFound(c)
			return
		}
		api.SendInternalError(c, "Failed to list driver links")
		return
	}

	api.SendSuccess(c, http.StatusOK, links, api.PaginatedMeta(page, limit, total))
}

// ConfirmLink marks a suggested driver link as confirmed by the user
// @Summary Confirm a driver link
// @Description Record the user's confirmation that the linked driver identity is theirs
// @Tags links
// @Produce json
// @Param id path string true "User ID"
// @Param driverId path string true "Driver ID"
// @Success 200 {object} api.APIResponse{data=repository.UserDriverLink}
// @Failure 400 {object} api.APIResponse{error=api.APIError}
// @Failure 404 {object} api.APIResponse{error=api.APIError}
// @Failure 500 {object} api.APIResponse{error=api.APIError}
// @Router /users/{id}/drivers/{driverId}/confirm [post]
func (h *LinkHandler) ConfirmLink(c *gin.Context) {
	h.decide(c, repository.LinkStatusConfirmed)
}

// RejectLink marks a suggested driver link as rejected by the user
// @Summary Reject a driver link
// @Description Record the user's rejection of the linked driver identity
// @Tags links
// @Produce json
// @Param id path string true "User ID"
// @Param driverId path string true "Driver ID"
// @Success 200 {object} api.APIResponse{data=repository.UserDriverLink}
// @Failure 400 {object} api.APIResponse{error=api.APIError}
// @Failure 404 {object} api.APIResponse{error=api.APIError}
// @Failure 500 {object} api.APIResponse{error=api.APIError}
// @Router /users/{id}/drivers/{driverId}/reject [post]
func (h *LinkHandler) RejectLink(c *gin.Context) {
	h.decide(c, repository.LinkStatusRejected)
}

func (h *LinkHandler) decide(c *gin.Context, status repository.LinkStatus) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		api.SendValidationError(c, "Invalid user ID", err.Error())
		return
	}

	driverID, err := uuid.Parse(c.Param("driverId"))
	if err != nil {
		api.SendValidationError(c, "Invalid driver ID", err.Error())
		return
	}

	link, err := h.linkService.SetLinkStatus(c.Request.Context(), userID, driverID, status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidStatus):
			api.SendValidationError(c, "Invalid link status", err.Error())
		case errors.Is(err, db.ErrNotFound):
			api.SendNotFound(c, "Driver link")
		default:
			api.SendInternalError(c, "Failed to update driver link")
		}
		return
	}

	api.SendSuccess(c, http.StatusOK, link, nil)
}
