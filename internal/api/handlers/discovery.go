package handlers

import (
	"errors"
	"net/http"
	"time"

	"my-race-engineer/internal/api"
	"my-race-engineer/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DiscoveryHandler serves the aggregated "my events" view.
type DiscoveryHandler struct {
	discoveryService *service.DiscoveryService
}

// NewDiscoveryHandler creates a new discovery handler
func NewDiscoveryHandler(discoveryService *service.DiscoveryService) *DiscoveryHandler {
	return &DiscoveryHandler{discoveryService: discoveryService}
}

// DiscoveredEventResponse is one event in the discovery payload.
// @Description Event the user appears to have raced in
type DiscoveredEventResponse struct {
	ID        uuid.UUID `json:"id" example:"123e4567-e89b-12d3-a456-426614174000"`
	EventName string    `json:"eventName" example:"Club Race Round 5"`
	EventSlug string    `json:"eventSlug" example:"club-race-round-5-2026-03-14"`
	EventDate time.Time `json:"eventDate"`
	Track     string    `json:"track" example:"Stadium RC Raceway"`
} // @name DiscoveredEvent

// ParticipationDetailResponse explains why an event was discovered.
// @Description Evidence tying the user to a discovered event
type ParticipationDetailResponse struct {
	EventID              uuid.UUID `json:"eventId"`
	DriverID             uuid.UUID `json:"driverId"`
	Source               string    `json:"source" example:"link"`
	MatchType            string    `json:"matchType" example:"exact"`
	SimilarityScore      float64   `json:"similarityScore" example:"1.0"`
	UserDriverLinkStatus string    `json:"userDriverLinkStatus" example:"suggested"`
} // @name ParticipationDetail

// DiscoveryResponse is the aggregated participation view for one user.
// @Description Aggregated event participation for a user
type DiscoveryResponse struct {
	HasDriverProfile     bool                          `json:"hasDriverProfile"`
	Events               []DiscoveredEventResponse     `json:"events"`
	ParticipationDetails []ParticipationDetailResponse `json:"participationDetails"`
} // @name DiscoveryResult

func toDiscoveryResponse(result *service.DiscoveryResult) DiscoveryResponse {
	resp := DiscoveryResponse{
		HasDriverProfile:     result.HasDriverProfile,
		Events:               make([]DiscoveredEventResponse, 0, len(result.Events)),
		ParticipationDetails: make([]ParticipationDetailResponse, 0, len(result.Participations)),
	}

	for _, e := range result.Events {
		resp.Events = append(resp.Events, DiscoveredEventResponse{
			ID:        e.ID,
			EventName: e.Name,
			EventSlug: e.Slug,
			EventDate: e.EventDate,
			Track:     e.Track,
		})
	}

	for _, p := range result.Participations {
		resp.ParticipationDetails = append(resp.ParticipationDetails, ParticipationDetailResponse{
			EventID:              p.EventID,
			DriverID:             p.DriverID,
			Source:               string(p.Source),
			MatchType:            string(p.MatchType),
			SimilarityScore:      p.SimilarityScore,
			UserDriverLinkStatus: string(p.Status),
		})
	}

	return resp
}

// DiscoverEvents returns every event the user participated in
// @Summary Discover a user's events
// @Description Aggregate the user's event participation from match links, falling back to roster name equality for events ingested before the user signed up
// @Tags discovery
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} api.APIResponse{data=DiscoveryResponse}
// @Failure 400 {object} api.APIResponse{error=api.APIError}
// @Failure 404 {object} api.APIResponse{error=api.APIError}
// @Failure 500 {object} api.APIResponse{error=api.APIError}
// @Router /users/{id}/events [get]
func (h *DiscoveryHandler) DiscoverEvents(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		api.SendValidationError(c, "Invalid user ID", err.Error())
		return
	}

	result, err := h.discoveryService.DiscoverEvents(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			api.SendUserNotFound(c)
			return
		}
		api.SendInternalError(c, "Failed to discover events")
		return
	}

	api.SendSuccess(c, http.StatusOK, toDiscoveryResponse(result), nil)
}
