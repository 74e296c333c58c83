package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"eventlottery/internal/delivery/http/helpers"
	"eventlottery/internal/domain"
)

// StatusWatcher streams an entrant's status as it changes.
type StatusWatcher interface {
	Watch(ctx context.Context, eventID, userID string, fn func(*domain.EntrantStatus) error) error
}

// EntrantController serves the authenticated entrant's own view of an event.
type EntrantController struct {
	Logger    *slog.Logger
	Admission domain.AdmissionService
	Invites   domain.InviteService
	State     domain.StateService
	Watcher   StatusWatcher
}

func NewEntrantController(logger *slog.Logger, admission domain.AdmissionService, invites domain.InviteService, state domain.StateService, watcher StatusWatcher) *EntrantController {
	return &EntrantController{
		Logger:    logger,
		Admission: admission,
		Invites:   invites,
		State:     state,
		Watcher:   watcher,
	}
}

// JoinWaitlistRequest is the optional request body for POST /events/{eventID}/waitlist.
type JoinWaitlistRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Validate implements helpers.Validator.
func (r *JoinWaitlistRequest) Validate() []string {
	if (r.Latitude == nil) != (r.Longitude == nil) {
		return []string{"latitude and longitude must be given together"}
	}
	if c := r.coordinate(); c != nil && !c.Valid() {
		return []string{"coordinate out of range"}
	}
	return nil
}

func (r *JoinWaitlistRequest) coordinate() *domain.Coordinate {
	if r.Latitude == nil || r.Longitude == nil {
		return nil
	}
	return &domain.Coordinate{Latitude: *r.Latitude, Longitude: *r.Longitude}
}

// DeclineInviteRequest is the optional request body for POST /events/{eventID}/invite/decline.
type DeclineInviteRequest struct {
	Reason string `json:"reason"`
}

// EntrantStatusSuccessResponse is the success envelope for GET /events/{eventID}/me.
type EntrantStatusSuccessResponse struct {
	Data  *domain.EntrantStatus `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

// EntrantStatusListSuccessResponse is the success envelope for GET /me/events.
type EntrantStatusListSuccessResponse struct {
	Data  []*domain.EntrantStatus `json:"data"`
	Error *helpers.APIError       `json:"error"`
}

// WaitlistEntrySuccessResponse is the success envelope for a waitlist join.
type WaitlistEntrySuccessResponse struct {
	Data  *domain.WaitlistEntry `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

// RegistrationSuccessResponse is the success envelope for accept and sign-up.
type RegistrationSuccessResponse struct {
	Data  *domain.Registration `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

// Status godoc
// @Summary Get my state for an event
// @Description Resolves the caller's state (none, waiting, invited, registered) with the waitlist count.
// @Tags entrant
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} controllers.EntrantStatusSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/me [get]
func (c *EntrantController) Status(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathEventID(w, r)
	if !ok {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	status, err := c.State.Status(r.Context(), eventID, userID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, status)
}

// ListMyEvents godoc
// @Summary List my events
// @Description Every event the caller is waiting for, invited to or registered on, with the resolved state. Filter with state.
// @Tags entrant
// @Produce json
// @Security BearerAuth
// @Param state query string false "waiting, invited or registered"
// @Success 200 {object} controllers.EntrantStatusListSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /me/events [get]
func (c *EntrantController) ListMyEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	state := domain.EntrantState(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("state"))))
	list, err := c.State.ListForUser(r.Context(), userID, state)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, list)
}

// Stream godoc
// @Summary Stream my state for an event
// @Description Server-sent events. Sends a "status" event immediately and again whenever the caller's state or the waitlist count changes.
// @Tags entrant
// @Produce text/event-stream
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} domain.EntrantStatus "one per event-stream message"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/me/stream [get]
func (c *EntrantController) Stream(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathEventID(w, r)
	if !ok {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	// Resolve once up front so unknown events get a JSON error, not an empty stream.
	if _, err := c.State.Status(r.Context(), eventID, userID); err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}

	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	err := c.Watcher.Watch(r.Context(), eventID, userID, func(s *domain.EntrantStatus) error {
		body, err := json.Marshal(s)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "event: status\ndata: %s\n\n", body); err != nil {
			return err
		}
		return rc.Flush()
	})
	if err != nil && r.Context().Err() == nil {
		c.Logger.WarnContext(r.Context(), "status stream ended", "event_id", eventID, "user_id", userID, "err", err)
	}
}

// Join godoc
// @Summary Join the waitlist
// @Description Adds the caller to the event's waitlist. The body is optional; a coordinate is only used for geolocation events.
// @Tags entrant
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param body body controllers.JoinWaitlistRequest false "Coordinate"
// @Success 201 {object} controllers.WaitlistEntrySuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: period_not_open, period_closed, waitlist_full, already_present"
// @Failure 503 {object} helpers.APIResponse "error.code: store_unavailable"
// @Router /events/{eventID}/waitlist [post]
func (c *EntrantController) Join(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathEventID(w, r)
	if !ok {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req JoinWaitlistRequest
	if !helpers.DecodeOptional(w, r, &req) {
		return
	}
	entry, err := c.Admission.Join(r.Context(), eventID, userID, req.coordinate())
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, entry)
}

// Leave godoc
// @Summary Leave the waitlist
// @Tags entrant
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 204
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 409 {object} helpers.APIResponse "error.code: not_waiting"
// @Router /events/{eventID}/waitlist [delete]
func (c *EntrantController) Leave(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathEventID(w, r)
	if !ok {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := c.Admission.Leave(r.Context(), eventID, userID); err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SignUp godoc
// @Summary Sign up while invited
// @Tags entrant
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 201 {object} controllers.RegistrationSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 409 {object} helpers.APIResponse "error.code: no_active_invite"
// @Router /events/{eventID}/signup [post]
func (c *EntrantController) SignUp(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathEventID(w, r)
	if !ok {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	reg, err := c.Admission.SignUp(r.Context(), eventID, userID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, reg)
}

// Accept godoc
// @Summary Accept an invite
// @Tags entrant
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 201 {object} controllers.RegistrationSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 409 {object} helpers.APIResponse "error.code: no_active_invite"
// @Router /events/{eventID}/invite/accept [post]
func (c *EntrantController) Accept(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathEventID(w, r)
	if !ok {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	reg, err := c.Invites.Accept(r.Context(), eventID, userID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, reg)
}

// Decline godoc
// @Summary Decline an invite
// @Description Declines the caller's invite. The entrant does not return to the waitlist.
// @Tags entrant
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param body body controllers.DeclineInviteRequest false "Reason"
// @Success 204
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 409 {object} helpers.APIResponse "error.code: no_active_invite"
// @Router /events/{eventID}/invite/decline [post]
func (c *EntrantController) Decline(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathEventID(w, r)
	if !ok {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req DeclineInviteRequest
	if !helpers.DecodeOptional(w, r, &req) {
		return
	}
	if err := c.Invites.Decline(r.Context(), eventID, userID, req.Reason); err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
