package helpers

import (
	"errors"
	"log/slog"
	"net/http"

	"eventlottery/internal/domain"
)

type errorMapping struct {
	err     error
	status  int
	code    string
	message string
}

// Checked in order; the first sentinel the error wraps wins.
var errorMappings = []errorMapping{
	{domain.ErrPeriodNotOpen, http.StatusConflict, ErrCodePeriodNotOpen, "registration period has not opened yet"},
	{domain.ErrPeriodClosed, http.StatusConflict, ErrCodePeriodClosed, "registration period is closed"},
	{domain.ErrWaitlistFull, http.StatusConflict, ErrCodeWaitlistFull, "waitlist is full"},
	{domain.ErrAlreadyPresent, http.StatusConflict, ErrCodeAlreadyPresent, "already on the waitlist, invited or registered"},
	{domain.ErrNotWaiting, http.StatusConflict, ErrCodeNotWaiting, "not on the waitlist"},
	{domain.ErrNoActiveInvite, http.StatusConflict, ErrCodeNoActiveInvite, "no active invite"},
	{domain.ErrNotRegistered, http.StatusConflict, ErrCodeNotRegistered, "entrant is not registered"},
	{domain.ErrNoEligibleEntrants, http.StatusConflict, ErrCodeNoEligibleEntrants, "no eligible entrants"},
	{domain.ErrLotteryInProgress, http.StatusConflict, ErrCodeLotteryInProgress, "a lottery draw is already in progress"},
	{domain.ErrNotFound, http.StatusNotFound, ErrCodeNotFound, "not found"},
	{domain.ErrForbidden, http.StatusForbidden, ErrCodeForbidden, "forbidden"},
	{domain.ErrUnauthorized, http.StatusUnauthorized, ErrCodeUnauthorized, "unauthorized"},
	{domain.ErrStore, http.StatusServiceUnavailable, ErrCodeUnavailable, "store unavailable, retry the request"},
}

// StatusForError returns the HTTP status and error code for err.
func StatusForError(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, ErrCodeInternalError
}

// WriteDomainError maps err to its status and code. Invalid input echoes the
// error text; store failures and unknown errors are logged and answered generically.
func WriteDomainError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	if errors.Is(err, domain.ErrInvalidInput) {
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			if m.status >= http.StatusInternalServerError {
				logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			}
			WriteJSONError(w, m.status, m.code, m.message)
			return
		}
	}
	logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	WriteJSONError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal error")
}
