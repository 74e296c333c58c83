package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"eventlottery/internal/delivery/http/helpers"
	"eventlottery/internal/domain"
)

// OrganizerController serves the event owner's waitlist, lottery and messaging screens.
type OrganizerController struct {
	Logger        *slog.Logger
	Admission     domain.AdmissionService
	Lottery       domain.LotteryService
	Organizer     domain.OrganizerService
	Notifications domain.NotificationService
}

func NewOrganizerController(logger *slog.Logger, admission domain.AdmissionService, lottery domain.LotteryService, organizer domain.OrganizerService, notifications domain.NotificationService) *OrganizerController {
	return &OrganizerController{
		Logger:        logger,
		Admission:     admission,
		Lottery:       lottery,
		Organizer:     organizer,
		Notifications: notifications,
	}
}

// DrawLotteryRequest is the request body for POST /events/{eventID}/lottery.
type DrawLotteryRequest struct {
	WinnerCount int `json:"winner_count"`
}

// Validate implements helpers.Validator.
func (r *DrawLotteryRequest) Validate() []string {
	if r.WinnerCount < 1 {
		return []string{"winner_count must be at least 1"}
	}
	return nil
}

// CancelRegistrationRequest is the optional request body for DELETE /events/{eventID}/registrations/{userID}.
type CancelRegistrationRequest struct {
	Reason string `json:"reason"`
}

// NotifyGroupRequest is the request body for POST /events/{eventID}/notifications.
type NotifyGroupRequest struct {
	Group   string `json:"group"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Validate implements helpers.Validator.
func (r *NotifyGroupRequest) Validate() []string {
	var errs []string
	r.Group = strings.ToLower(strings.TrimSpace(r.Group))
	switch r.Group {
	case domain.GroupWaiting, domain.GroupInvited, domain.GroupRegistered, domain.GroupCancelled:
	default:
		errs = append(errs, "group must be one of waiting, invited, registered, cancelled")
	}
	if strings.TrimSpace(r.Title) == "" {
		errs = append(errs, "title is required")
	}
	if strings.TrimSpace(r.Message) == "" {
		errs = append(errs, "message is required")
	}
	return errs
}

// WaitlistPage is the paginated waitlist payload.
type WaitlistPage struct {
	Items      []*domain.WaitlistEntry `json:"items"`
	Pagination helpers.PaginationMeta  `json:"pagination"`
}

// WaitlistPageSuccessResponse is the success envelope for GET /events/{eventID}/waitlist.
type WaitlistPageSuccessResponse struct {
	Data  *WaitlistPage     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// CoordinatesSuccessResponse is the success envelope for GET /events/{eventID}/waitlist/coordinates.
type CoordinatesSuccessResponse struct {
	Data  []domain.Coordinate `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

// DrawResultSuccessResponse is the success envelope for POST /events/{eventID}/lottery.
type DrawResultSuccessResponse struct {
	Data  *domain.DrawResult `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// NotifyGroupResult lists who received a group message.
type NotifyGroupResult struct {
	Recipients []string `json:"recipients"`
	Count      int      `json:"count"`
}

// NotifyGroupSuccessResponse is the success envelope for POST /events/{eventID}/notifications.
type NotifyGroupSuccessResponse struct {
	Data  *NotifyGroupResult `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// ListWaitlist godoc
// @Summary List an event's waitlist
// @Description Waiting entrants in join order. Owner only.
// @Tags organizer
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.WaitlistPageSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/waitlist [get]
func (c *OrganizerController) ListWaitlist(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathEventID(w, r)
	if !ok {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	params := helpers.ParsePagination(r)
	entries, total, err := c.Admission.ListWaitlist(r.Context(), eventID, userID, params)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, &WaitlistPage{
		Items:      entries,
		Pagination: helpers.NewPaginationMeta(params.Page, params.PageSize, total),
	})
}

// ListCoordinates godoc
// @Summary List waitlist coordinates
// @Description Join coordinates of waiting entrants, for the organizer's map. Owner only.
// @Tags organizer
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} controllers.CoordinatesSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /events/{eventID}/waitlist/coordinates [get]
func (c *OrganizerController) ListCoordinates(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathEventID(w, r)
	if !ok {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	coords, err := c.Admission.ListWaitlistCoordinates(r.Context(), eventID, userID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, coords)
}

// DrawLottery godoc
// @Summary Draw lottery winners
// @Description Selects up to winner_count entrants uniformly at random from the waitlist and invites them. Owner only.
// @Tags organizer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param body body controllers.DrawLotteryRequest true "Winner count"
// @Success 200 {object} controllers.DrawResultSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 409 {object} helpers.APIResponse "error.code: no_eligible_entrants, lottery_in_progress"
// @Failure 503 {object} helpers.APIResponse "error.code: store_unavailable"
// @Router /events/{eventID}/lottery [post]
func (c *OrganizerController) DrawLottery(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathEventID(w, r)
	if !ok {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req DrawLotteryRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	res, err := c.Lottery.DrawWinners(r.Context(), eventID, userID, req.WinnerCount)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, res)
}

// CancelRegistration godoc
// @Summary Cancel an entrant's registration
// @Tags organizer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param userID path string true "Entrant user ID"
// @Param body body controllers.CancelRegistrationRequest false "Reason"
// @Success 204
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 409 {object} helpers.APIResponse "error.code: not_registered"
// @Router /events/{eventID}/registrations/{userID} [delete]
func (c *OrganizerController) CancelRegistration(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathEventID(w, r)
	if !ok {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	entrantID := strings.TrimSpace(r.PathValue("userID"))
	if entrantID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing userID")
		return
	}
	var req CancelRegistrationRequest
	if !helpers.DecodeOptional(w, r, &req) {
		return
	}
	if err := c.Organizer.CancelRegistration(r.Context(), eventID, userID, entrantID, req.Reason); err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// NotifyGroup godoc
// @Summary Message a group of entrants
// @Description Sends a notification to every opted-in waiting, invited or registered entrant. Owner only.
// @Tags organizer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param body body controllers.NotifyGroupRequest true "Message"
// @Success 200 {object} controllers.NotifyGroupSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /events/{eventID}/notifications [post]
func (c *OrganizerController) NotifyGroup(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathEventID(w, r)
	if !ok {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req NotifyGroupRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	recipients, err := c.Notifications.NotifyGroup(r.Context(), eventID, userID, req.Group, req.Title, req.Message)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, &NotifyGroupResult{Recipients: recipients, Count: len(recipients)})
}
