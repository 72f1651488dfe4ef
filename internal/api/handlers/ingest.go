package handlers

import (
	"errors"
	"net/http"
	"time"

	"my-race-engineer/internal/api"
	"my-race-engineer/internal/db"
	"my-race-engineer/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// IngestHandler receives result sheets from timing providers and runs
// match evaluations on demand.
type IngestHandler struct {
	resolutionService *service.ResolutionService
}

// NewIngestHandler creates a new ingest handler
func NewIngestHandler(resolutionService *service.ResolutionService) *IngestHandler {
	return &IngestHandler{resolutionService: resolutionService}
}

// IngestDriverRequest is one driver on an incoming result sheet.
type IngestDriverRequest struct {
	SourceDriverID string `json:"source_driver_id" binding:"required,max=100"`
	DisplayName    string `json:"display_name" binding:"required,max=200"`
	Transponder    string `json:"transponder" binding:"omitempty,max=12"`
}

// IngestEntryRequest is one race entry on an incoming result sheet.
type IngestEntryRequest struct {
	SourceDriverID string `json:"source_driver_id" binding:"required,max=100"`
	ClassName      string `json:"class_name" binding:"required,max=100"`
	Transponder    string `json:"transponder" binding:"omitempty,max=12"`
}

// IngestEventRequest is a full result sheet from a timing provider.
// @Description Result sheet payload from a timing provider
type IngestEventRequest struct {
	SourceEventID string                `json:"source_event_id" binding:"required,max=100"`
	EventName     string                `json:"event_name" binding:"required,max=200"`
	EventDate     time.Time             `json:"event_date" binding:"required"`
	Track         string                `json:"track" binding:"omitempty,max=200"`
	Drivers       []IngestDriverRequest `json:"drivers" binding:"required,min=1,dive"`
	Entries       []IngestEntryRequest  `json:"entries" binding:"omitempty,dive"`
} // @name IngestEventRequest

// EvaluateMatchRequest asks for a match evaluation of one user/driver pair.
// @Description Single user-driver match evaluation
type EvaluateMatchRequest struct {
	UserID   string `json:"user_id" binding:"required,uuid"`
	EventID  string `json:"event_id" binding:"required,uuid"`
	DriverID string `json:"driver_id" binding:"required,uuid"`
} // @name EvaluateMatchRequest

func toIngestRequest(req IngestEventRequest) service.IngestRequest {
	out := service.IngestRequest{
		SourceEventID: req.SourceEventID,
		EventName:     req.EventName,
		EventDate:     req.EventDate,
		Track:         req.Track,
		Drivers:       make([]service.IngestDriver, 0, len(req.Drivers)),
		Entries:       make([]service.IngestEntry, 0, len(req.Entries)),
	}
	for _, d := range req.Drivers {
		out.Drivers = append(out.Drivers, service.IngestDriver{
			SourceDriverID: d.SourceDriverID,
			DisplayName:    d.DisplayName,
			Transponder:    d.Transponder,
		})
	}
	for _, e := range req.Entries {
		out.Entries = append(out.Entries, service.IngestEntry{
			SourceDriverID: e.SourceDriverID,
			ClassName:      e.ClassName,
			Transponder:    e.Transponder,
		})
	}
	return out
}

// IngestResults ingests a result sheet and links drivers to users
// @Summary Ingest event results
// @Description Store an event result sheet and evaluate every listed driver against registered racer profiles
// @Tags ingest
// @Accept json
// @Produce json
// @Param results body IngestEventRequest true "Result sheet"
// @Success 200 {object} api.APIResponse{data=service.IngestSummary}
// @Failure 400 {object} api.APIResponse{error=api.APIError}
// @Failure 500 {object} api.APIResponse{error=api.APIError}
// @Router /internal/events/ingest [post]
func (h *IngestHandler) IngestResults(c *gin.Context) {
	var req IngestEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	summary, err := h.resolutionService.IngestEventResults(c.Request.Context(), toIngestRequest(req))
	if err != nil {
		if errors.Is(err, service.ErrUnknownDriverRef) {
			api.SendValidationError(c, "Invalid result sheet", err.Error())
			return
		}
		api.SendInternalError(c, "Failed to ingest event results")
		return
	}

	api.SendSuccess(c, http.StatusOK, summary, nil)
}

// EvaluateMatch evaluates one user against one driver at one event
// @Summary Evaluate a single match
// @Description Run identity matching for a specific user and driver at an event, persisting the link when the result is at least as strong as the stored one
// @Tags ingest
// @Accept json
// @Produce json
// @Param evaluation body EvaluateMatchRequest true "Pair to evaluate"
// @Success 200 {object} api.APIResponse{data=service.EvaluationResult}
// @Failure 400 {object} api.APIResponse{error=api.APIError}
// @Failure 404 {object} api.APIResponse{error=api.APIError}
// @Failure 500 {object} api.APIResponse{error=api.APIError}
// @Router /internal/matching/evaluate [post]
func (h *IngestHandler) EvaluateMatch(c *gin.Context) {
	var req EvaluateMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		api.SendValidationError(c, "Invalid user ID", err.Error())
		return
	}
	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		api.SendValidationError(c, "Invalid event ID", err.Error())
		return
	}
	driverID, err := uuid.Parse(req.DriverID)
	if err != nil {
		api.SendValidationError(c, "Invalid driver ID", err.Error())
		return
	}

	result, err := h.resolutionService.EvaluateAndPersist(c.Request.Context(), userID, eventID, driverID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoDriverProfile):
			api.SendNoDriverProfile(c)
		case errors.Is(err, db.ErrNotFound):
			api.SendNotFound(c, "Driver or event")
		default:
			api.SendInternalError(c, "Failed to evaluate match")
		}
		return
	}

	api.SendSuccess(c, http.StatusOK, result, nil)
}
