// Package app assembles the services, controllers and middleware into one HTTP handler.
package app

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"eventlottery/internal/clock"
	transporthttp "eventlottery/internal/delivery/http"
	"eventlottery/internal/delivery/http/controllers"
	"eventlottery/internal/delivery/http/middleware"
	"eventlottery/internal/domain"
	"eventlottery/internal/repository/memory"
	"eventlottery/internal/repository/postgres"
	"eventlottery/internal/services"
)

// Deps are the collaborators New wires together. Publisher and Locator may be nil.
type Deps struct {
	Stores    services.Stores
	Feed      domain.ChangeFeed
	Publisher domain.NotificationPublisher
	Locator   domain.Locator
	Random    services.RandomSource
	Clock     clock.Clock
	Verifier  domain.TokenVerifier
	Logger    *slog.Logger

	CORSOrigins    []string
	RequestTimeout time.Duration
	LotteryLockTTL time.Duration
	AutoReplace    bool
}

// App exposes the assembled handler and the services other entry points reuse.
type App struct {
	Handler http.Handler

	Events        domain.EventService
	Admission     domain.AdmissionService
	Lottery       domain.LotteryService
	Invites       domain.InviteService
	Organizer     domain.OrganizerService
	Notifications domain.NotificationService
	State         domain.StateService
	Watcher       *services.StateWatcher
}

func New(d Deps) *App {
	if d.Clock == nil {
		d.Clock = clock.NewSystem()
	}
	if d.Random == nil {
		d.Random = services.NewCryptoSource()
	}
	delivery := services.NewDelivery(d.Feed, d.Publisher, d.Logger)

	lottery := services.NewLotteryService(d.Stores, delivery, d.Random, d.Clock, d.Logger, d.LotteryLockTTL, d.RequestTimeout)
	var replacer domain.LotteryService
	if d.AutoReplace {
		replacer = lottery
	}
	invites := services.NewInviteService(d.Stores, delivery, replacer, d.Clock, d.Logger, d.RequestTimeout)
	a := &App{
		Events:        services.NewEventService(d.Stores, d.Clock, d.RequestTimeout),
		Admission:     services.NewAdmissionService(d.Stores, d.Locator, invites, delivery, d.Clock, d.Logger, d.RequestTimeout),
		Lottery:       lottery,
		Invites:       invites,
		Organizer:     services.NewOrganizerService(d.Stores, delivery, d.Clock, d.Logger, d.RequestTimeout),
		Notifications: services.NewNotificationService(d.Stores, delivery, d.Clock, d.Logger, d.RequestTimeout),
		State:         services.NewStateService(d.Stores, d.RequestTimeout),
	}
	a.Watcher = services.NewStateWatcher(a.State, d.Feed, d.Logger)

	mux := transporthttp.NewRouter(transporthttp.Controllers{
		Events:        controllers.NewEventController(d.Logger, a.Events),
		Entrants:      controllers.NewEntrantController(d.Logger, a.Admission, a.Invites, a.State, a.Watcher),
		Organizers:    controllers.NewOrganizerController(d.Logger, a.Admission, a.Lottery, a.Organizer, a.Notifications),
		Notifications: controllers.NewNotificationController(d.Logger, a.Notifications),
	}, middleware.RequireAuth(d.Verifier, d.Logger))

	a.Handler = middleware.LoggingMiddleware(d.Logger, middleware.CORS(d.CORSOrigins, mux))
	return a
}

// PostgresStores returns the repositories backed by db.
func PostgresStores(db *sql.DB) services.Stores {
	return services.Stores{
		Tx:            postgres.NewTransactor(db),
		Events:        postgres.NewEventRepository(db),
		Waitlist:      postgres.NewWaitlistRepository(db),
		Invites:       postgres.NewInviteRepository(db),
		Registrations: postgres.NewRegistrationRepository(db),
		Cancellations: postgres.NewCancellationRepository(db),
		Notifications: postgres.NewNotificationRepository(db),
		Lottery:       postgres.NewLotteryRepository(db),
		Users:         postgres.NewUserRepository(db),
		Facts:         postgres.NewFactsReader(db),
	}
}

// MemoryStores returns the repositories of an in-process store.
func MemoryStores(s *memory.Store) services.Stores {
	return services.Stores{
		Tx:            s.Transactor(),
		Events:        s.Events(),
		Waitlist:      s.Waitlist(),
		Invites:       s.Invites(),
		Registrations: s.Registrations(),
		Cancellations: s.Cancellations(),
		Notifications: s.Notifications(),
		Lottery:       s.Lottery(),
		Users:         s.Users(),
		Facts:         s.Facts(),
	}
}
