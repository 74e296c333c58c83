package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"eventlottery/internal/delivery/http/controllers"
)

// Controllers groups the handlers mounted by NewRouter.
type Controllers struct {
	Events        *controllers.EventController
	Entrants      *controllers.EntrantController
	Organizers    *controllers.OrganizerController
	Notifications *controllers.NotificationController
}

// NewRouter initializes the HTTP router with all application routes.
// auth wraps every handler that needs an authenticated user.
func NewRouter(c Controllers, auth func(http.HandlerFunc) http.HandlerFunc) *http.ServeMux {
	mux := http.NewServeMux()

	// Events
	mux.HandleFunc("POST /events", auth(c.Events.CreateEvent))
	mux.HandleFunc("GET /events/{eventID}", c.Events.GetEvent)

	// Entrant
	mux.HandleFunc("GET /events/{eventID}/me", auth(c.Entrants.Status))
	mux.HandleFunc("GET /events/{eventID}/me/stream", auth(c.Entrants.Stream))
	mux.HandleFunc("POST /events/{eventID}/waitlist", auth(c.Entrants.Join))
	mux.HandleFunc("DELETE /events/{eventID}/waitlist", auth(c.Entrants.Leave))
	mux.HandleFunc("POST /events/{eventID}/signup", auth(c.Entrants.SignUp))
	mux.HandleFunc("POST /events/{eventID}/invite/accept", auth(c.Entrants.Accept))
	mux.HandleFunc("POST /events/{eventID}/invite/decline", auth(c.Entrants.Decline))

	// Organizer
	mux.HandleFunc("GET /events/{eventID}/waitlist", auth(c.Organizers.ListWaitlist))
	mux.HandleFunc("GET /events/{eventID}/waitlist/coordinates", auth(c.Organizers.ListCoordinates))
	mux.HandleFunc("POST /events/{eventID}/lottery", auth(c.Organizers.DrawLottery))
	mux.HandleFunc("DELETE /events/{eventID}/registrations/{userID}", auth(c.Organizers.CancelRegistration))
	mux.HandleFunc("POST /events/{eventID}/notifications", auth(c.Organizers.NotifyGroup))

	mux.HandleFunc("GET /me/events", auth(c.Entrants.ListMyEvents))

	// Inbox
	mux.HandleFunc("GET /notifications", auth(c.Notifications.List))
	mux.HandleFunc("POST /notifications/{notificationID}/read", auth(c.Notifications.MarkRead))

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
