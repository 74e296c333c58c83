package controllers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"eventlottery/internal/delivery/http/helpers"
	"eventlottery/internal/domain"
)

type NotificationController struct {
	Logger  *slog.Logger
	Service domain.NotificationService
}

func NewNotificationController(logger *slog.Logger, svc domain.NotificationService) *NotificationController {
	return &NotificationController{Logger: logger, Service: svc}
}

// NotificationsSuccessResponse is the success envelope for GET /notifications.
type NotificationsSuccessResponse struct {
	Data  []*domain.Notification `json:"data"`
	Error *helpers.APIError      `json:"error"`
}

// List godoc
// @Summary List my notifications
// @Description Newest first.
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param unread query bool false "Only unread notifications"
// @Success 200 {object} controllers.NotificationsSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /notifications [get]
func (c *NotificationController) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	unreadOnly := false
	if s := r.URL.Query().Get("unread"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "unread must be a boolean")
			return
		}
		unreadOnly = v
	}
	list, err := c.Service.List(r.Context(), userID, unreadOnly)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, list)
}

// MarkRead godoc
// @Summary Mark a notification read
// @Tags notifications
// @Security BearerAuth
// @Param notificationID path string true "Notification ID"
// @Success 204
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /notifications/{notificationID}/read [post]
func (c *NotificationController) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id := strings.TrimSpace(r.PathValue("notificationID"))
	if id == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing notificationID")
		return
	}
	if err := c.Service.MarkRead(r.Context(), userID, id); err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
