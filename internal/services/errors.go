package services

import (
	"errors"
	"fmt"

	"eventlottery/internal/domain"
)

// known are returned to callers unwrapped so handlers can match them directly.
var known = []error{
	domain.ErrNotFound,
	domain.ErrForbidden,
	domain.ErrInvalidInput,
	domain.ErrPeriodNotOpen,
	domain.ErrPeriodClosed,
	domain.ErrWaitlistFull,
	domain.ErrAlreadyPresent,
	domain.ErrNotWaiting,
	domain.ErrNoActiveInvite,
	domain.ErrNotRegistered,
	domain.ErrNoEligibleEntrants,
	domain.ErrLotteryInProgress,
}

// wrapErr passes domain outcomes through and adds op context to everything else.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, k := range known {
		if errors.Is(err, k) && !errors.Is(err, domain.ErrStore) {
			return k
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// resultLabel names an outcome for metrics.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrPeriodNotOpen):
		return "period_not_open"
	case errors.Is(err, domain.ErrPeriodClosed):
		return "period_closed"
	case errors.Is(err, domain.ErrWaitlistFull):
		return "waitlist_full"
	case errors.Is(err, domain.ErrAlreadyPresent):
		return "already_present"
	case errors.Is(err, domain.ErrNoEligibleEntrants):
		return "no_eligible_entrants"
	case errors.Is(err, domain.ErrLotteryInProgress):
		return "lottery_in_progress"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	default:
		return "error"
	}
}
