package domain

import "errors"

// Generic sentinel errors shared by repositories and services.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
)

// ErrStore marks a failure at the store boundary (connection loss, timeout, aborted
// transaction). Nothing was applied; the caller may retry the whole operation.
var ErrStore = errors.New("store unavailable")

// Registration window and capacity violations returned by Join.
var (
	ErrPeriodNotOpen = errors.New("registration period not open yet")
	ErrPeriodClosed  = errors.New("registration period closed")
	ErrWaitlistFull  = errors.New("waitlist full")
)

// State precondition violations. The caller's view is stale and should be re-resolved.
var (
	ErrAlreadyPresent = errors.New("entrant already on the waitlist, invited or registered")
	ErrNotWaiting     = errors.New("entrant is not waiting")
	ErrNoActiveInvite = errors.New("no active invite")
	ErrNotRegistered  = errors.New("entrant is not registered")
)

// Lottery outcomes.
var (
	ErrNoEligibleEntrants = errors.New("no eligible entrants")
	ErrLotteryInProgress  = errors.New("lottery already in progress")
)
