package controllers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"eventlottery/internal/delivery/http/helpers"
	"eventlottery/internal/delivery/http/middleware"
	"eventlottery/internal/domain"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

type fakeEventService struct {
	createErr  error
	getResult  *domain.EventWithCount
	getErr     error
	lastCreate *domain.Event
}

func (f *fakeEventService) CreateEvent(ctx context.Context, event *domain.Event) error {
	f.lastCreate = event
	if f.createErr != nil {
		return f.createErr
	}
	event.ID = "ev-created"
	return nil
}

func (f *fakeEventService) GetEvent(ctx context.Context, eventID string) (*domain.EventWithCount, error) {
	return f.getResult, f.getErr
}

type fakeAdmission struct {
	err        error
	lastCoord  *domain.Coordinate
	lastUser   string
	lastParams domain.PaginationParams
	entries    []*domain.WaitlistEntry
	total      int
	coords     []domain.Coordinate
}

func (f *fakeAdmission) Join(ctx context.Context, eventID, userID string, coord *domain.Coordinate) (*domain.WaitlistEntry, error) {
	f.lastUser, f.lastCoord = userID, coord
	if f.err != nil {
		return nil, f.err
	}
	return domain.NewWaitlistEntry(eventID, userID, testTime, coord), nil
}

func (f *fakeAdmission) Leave(ctx context.Context, eventID, userID string) error {
	f.lastUser = userID
	return f.err
}

func (f *fakeAdmission) SignUp(ctx context.Context, eventID, userID string) (*domain.Registration, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Registration{EventID: eventID, UserID: userID, RegisteredAt: testTime}, nil
}

func (f *fakeAdmission) WaitlistCount(ctx context.Context, eventID string) (int, error) {
	return len(f.entries), f.err
}

func (f *fakeAdmission) ListWaitlist(ctx context.Context, eventID, organizerID string, params domain.PaginationParams) ([]*domain.WaitlistEntry, int, error) {
	f.lastUser, f.lastParams = organizerID, params
	return f.entries, f.total, f.err
}

func (f *fakeAdmission) ListWaitlistCoordinates(ctx context.Context, eventID, organizerID string) ([]domain.Coordinate, error) {
	f.lastUser = organizerID
	return f.coords, f.err
}

type fakeInvites struct {
	err        error
	lastReason string
}

func (f *fakeInvites) Accept(ctx context.Context, eventID, userID string) (*domain.Registration, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Registration{EventID: eventID, UserID: userID, RegisteredAt: testTime}, nil
}

func (f *fakeInvites) Decline(ctx context.Context, eventID, userID, reason string) error {
	f.lastReason = reason
	return f.err
}

type fakeState struct {
	status    *domain.EntrantStatus
	list      []*domain.EntrantStatus
	lastState domain.EntrantState
	err       error
}

func (f *fakeState) ListForUser(ctx context.Context, userID string, state domain.EntrantState) ([]*domain.EntrantStatus, error) {
	f.lastState = state
	if f.err != nil {
		return nil, f.err
	}
	return f.list, nil
}

func (f *fakeState) Status(ctx context.Context, eventID, userID string) (*domain.EntrantStatus, error) {
	if f.err != nil {
		return nil, f.err
	}
	s := *f.status
	s.EventID, s.UserID = eventID, userID
	return &s, nil
}

// fakeWatcher emits a fixed sequence and returns.
type fakeWatcher struct {
	states []domain.EntrantState
}

func (f *fakeWatcher) Watch(ctx context.Context, eventID, userID string, fn func(*domain.EntrantStatus) error) error {
	for i, st := range f.states {
		if err := fn(&domain.EntrantStatus{EventID: eventID, UserID: userID, State: st, WaitlistCount: i}); err != nil {
			return err
		}
	}
	return nil
}

type fakeLottery struct {
	result    *domain.DrawResult
	err       error
	lastCount int
	lastOrg   string
}

func (f *fakeLottery) DrawWinners(ctx context.Context, eventID, organizerID string, winnerCount int) (*domain.DrawResult, error) {
	f.lastCount, f.lastOrg = winnerCount, organizerID
	return f.result, f.err
}

func (f *fakeLottery) DrawReplacement(ctx context.Context, eventID string) (*domain.DrawResult, error) {
	return f.result, f.err
}

type fakeOrganizer struct {
	err        error
	lastUser   string
	lastReason string
}

func (f *fakeOrganizer) CancelRegistration(ctx context.Context, eventID, organizerID, userID, reason string) error {
	f.lastUser, f.lastReason = userID, reason
	return f.err
}

type fakeNotifications struct {
	list       []*domain.Notification
	recipients []string
	err        error
	lastUnread bool
	lastGroup  string
	lastRead   string
}

func (f *fakeNotifications) List(ctx context.Context, userID string, unreadOnly bool) ([]*domain.Notification, error) {
	f.lastUnread = unreadOnly
	return f.list, f.err
}

func (f *fakeNotifications) MarkRead(ctx context.Context, userID, notificationID string) error {
	f.lastRead = notificationID
	return f.err
}

func (f *fakeNotifications) NotifyGroup(ctx context.Context, eventID, organizerID, group, title, message string) ([]string, error) {
	f.lastGroup = group
	return f.recipients, f.err
}

// newRequest builds a request for pattern with path values set and, when
// userID is not empty, an authenticated user in the context.
func newRequest(method, target, body, userID string, pathValues map[string]string) *http.Request {
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range pathValues {
		req.SetPathValue(k, v)
	}
	if userID != "" {
		req = req.WithContext(middleware.SetUserID(req.Context(), userID))
	}
	return req
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) helpers.APIResponse {
	t.Helper()
	var envelope helpers.APIResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope), "response must be valid JSON envelope")
	return envelope
}

func decodeData(t *testing.T, envelope helpers.APIResponse, dest any) {
	t.Helper()
	require.Nil(t, envelope.Error, "success response must have error nil")
	raw, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, dest))
}
