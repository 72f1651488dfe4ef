package handlers

import (
	"errors"
	"net/http"

	"my-race-engineer/internal/api"
	"my-race-engineer/internal/db"
	"my-race-engineer/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EventHandler serves ingested events and their entry lists.
type EventHandler struct {
	eventRepo *repository.EventRepository
	entryRepo *repository.EntryRepository
}

// NewEventHandler creates a new event handler
func NewEventHandler(eventRepo *repository.EventRepository, entryRepo *repository.EntryRepository) *EventHandler {
	return &EventHandler{
		eventRepo: eventRepo,
		entryRepo: entryRepo,
	}
}

// EventDetailResponse is an event with its full entry list.
// @Description Event and its race entries
type EventDetailResponse struct {
	Event   *repository.Event            `json:"event"`
	Entries []repository.EntryWithDriver `json:"entries"`
} // @name EventDetail

// GetEvent returns one event with its entry list
// @Summary Get an event
// @Description Fetch an event by ID or slug, including every race entry and the driver it belongs to
// @Tags events
// @Produce json
// @Param id path string true "Event ID or slug"
// @Success 200 {object} api.APIResponse{data=EventDetailResponse}
// @Failure 404 {object} api.APIResponse{error=api.APIError}
// @Failure 500 {object} api.APIResponse{error=api.APIError}
// @Router /events/{id} [get]
func (h *EventHandler) GetEvent(c *gin.Context) {
	ref := c.Param("id")

	var (
		event *repository.Event
		err   error
	)
	if id, parseErr := uuid.Parse(ref); parseErr == nil {
		event, err = h.eventRepo.GetByID(c.Request.Context(), id)
	} else {
		event, err = h.eventRepo.GetBySlug(c.Request.Context(), ref)
	}
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			api.SendNotFound(c, "Event")
			return
		}
		api.SendInternalError(c, "Failed to load event")
		return
	}

	entries, err := h.entryRepo.ListByEvent(c.Request.Context(), event.ID)
	if err != nil {
		api.SendInternalError(c, "Failed to load event entries")
		return
	}

	api.SendSuccess(c, http.StatusOK, EventDetailResponse{Event: event, Entries: entries}, nil)
}
