package services

import "eventlottery/internal/domain"

// Stores bundles the repositories of one backing store. Every repository must
// honour transactions opened by Tx.
type Stores struct {
	Tx            domain.Transactor
	Events        domain.EventRepository
	Waitlist      domain.WaitlistRepository
	Invites       domain.InviteRepository
	Registrations domain.RegistrationRepository
	Cancellations domain.CancellationRepository
	Notifications domain.NotificationRepository
	Lottery       domain.LotteryRepository
	Users         domain.UserRepository
	Facts         domain.FactsReader
}
