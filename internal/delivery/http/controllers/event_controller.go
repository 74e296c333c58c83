package controllers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"eventlottery/internal/delivery/http/helpers"
	"eventlottery/internal/delivery/http/middleware"
	"eventlottery/internal/domain"
)

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateEventRequest is the request body for POST /events.
type CreateEventRequest struct {
	Title                string     `json:"title"`
	Description          string     `json:"description"`
	Location             string     `json:"location"`
	PriceCents           int64      `json:"price_cents"`
	EventAt              *time.Time `json:"event_at"`
	RegistrationOpensAt  *time.Time `json:"registration_opens_at"`
	RegistrationClosesAt *time.Time `json:"registration_closes_at"`
	EventCapacity        int        `json:"event_capacity"`
	WaitlistCapacity     int        `json:"waitlist_capacity"`
	GeolocationRequired  bool       `json:"geolocation_required"`
}

// Validate implements helpers.Validator.
func (r *CreateEventRequest) Validate() []string {
	var errs []string
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		errs = append(errs, "title is required")
	}
	if r.WaitlistCapacity < 0 {
		errs = append(errs, "waitlist_capacity must not be negative")
	}
	if r.EventCapacity < 0 {
		errs = append(errs, "event_capacity must not be negative")
	}
	if r.PriceCents < 0 {
		errs = append(errs, "price_cents must not be negative")
	}
	if r.RegistrationOpensAt != nil && r.RegistrationClosesAt != nil && !r.RegistrationOpensAt.Before(*r.RegistrationClosesAt) {
		errs = append(errs, "registration_opens_at must be before registration_closes_at")
	}
	return errs
}

// EventSuccessResponse is the success envelope for event endpoints.
type EventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// EventWithCountSuccessResponse is the success envelope for GET /events/{eventID}.
type EventWithCountSuccessResponse struct {
	Data  *domain.EventWithCount `json:"data"`
	Error *helpers.APIError      `json:"error"`
}

// CreateEvent godoc
// @Summary Create an event
// @Description Creates an event owned by the authenticated user. A waitlist_capacity of 0 means unlimited.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body controllers.CreateEventRequest true "Event"
// @Success 201 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	event := &domain.Event{
		OwnerID:              userID,
		Title:                req.Title,
		Description:          req.Description,
		Location:             req.Location,
		PriceCents:           req.PriceCents,
		EventAt:              req.EventAt,
		RegistrationOpensAt:  req.RegistrationOpensAt,
		RegistrationClosesAt: req.RegistrationClosesAt,
		EventCapacity:        req.EventCapacity,
		WaitlistCapacity:     req.WaitlistCapacity,
		GeolocationRequired:  req.GeolocationRequired,
	}
	if err := c.Service.CreateEvent(r.Context(), event); err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// GetEvent godoc
// @Summary Get an event
// @Description Returns the event with its live waitlist count.
// @Tags events
// @Produce json
// @Param eventID path string true "Event ID"
// @Success 200 {object} controllers.EventWithCountSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [get]
func (c *EventController) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathEventID(w, r)
	if !ok {
		return
	}
	ev, err := c.Service.GetEvent(r.Context(), eventID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ev)
}

func pathEventID(w http.ResponseWriter, r *http.Request) (string, bool) {
	eventID := strings.TrimSpace(r.PathValue("eventID"))
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return "", false
	}
	return eventID, true
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok || userID == "" {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return "", false
	}
	return userID, true
}
