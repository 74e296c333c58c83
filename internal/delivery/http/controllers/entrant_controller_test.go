package controllers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventlottery/internal/delivery/http/helpers"
	"eventlottery/internal/domain"
)

func newEntrantController(adm *fakeAdmission, inv *fakeInvites, st *fakeState, w *fakeWatcher) *EntrantController {
	if st == nil {
		st = &fakeState{status: &domain.EntrantStatus{State: domain.StateNone}}
	}
	return NewEntrantController(testLogger, adm, inv, st, w)
}

var evPath = map[string]string{"eventID": "ev-1"}

func TestEntrantController_Join(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		fakeErr    error
		user       string
		wantStatus int
		wantCode   string
		wantCoord  *domain.Coordinate
	}{
		{name: "no body", user: "u-1", wantStatus: http.StatusCreated},
		{name: "with coordinate", body: `{"latitude":53.5,"longitude":-113.5}`, user: "u-1", wantStatus: http.StatusCreated, wantCoord: &domain.Coordinate{Latitude: 53.5, Longitude: -113.5}},
		{name: "half a coordinate", body: `{"latitude":53.5}`, user: "u-1", wantStatus: http.StatusBadRequest, wantCode: helpers.ErrCodeBadRequest},
		{name: "out of range", body: `{"latitude":91,"longitude":0}`, user: "u-1", wantStatus: http.StatusBadRequest, wantCode: helpers.ErrCodeBadRequest},
		{name: "unauthenticated", wantStatus: http.StatusUnauthorized, wantCode: helpers.ErrCodeUnauthorized},
		{name: "closed", user: "u-1", fakeErr: domain.ErrPeriodClosed, wantStatus: http.StatusConflict, wantCode: helpers.ErrCodePeriodClosed},
		{name: "not open", user: "u-1", fakeErr: domain.ErrPeriodNotOpen, wantStatus: http.StatusConflict, wantCode: helpers.ErrCodePeriodNotOpen},
		{name: "full", user: "u-1", fakeErr: domain.ErrWaitlistFull, wantStatus: http.StatusConflict, wantCode: helpers.ErrCodeWaitlistFull},
		{name: "present", user: "u-1", fakeErr: domain.ErrAlreadyPresent, wantStatus: http.StatusConflict, wantCode: helpers.ErrCodeAlreadyPresent},
		{name: "store down", user: "u-1", fakeErr: fmt.Errorf("join: %w", domain.ErrStore), wantStatus: http.StatusServiceUnavailable, wantCode: helpers.ErrCodeUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adm := &fakeAdmission{err: tt.fakeErr}
			ctrl := newEntrantController(adm, &fakeInvites{}, nil, nil)
			rr := httptest.NewRecorder()
			ctrl.Join(rr, newRequest(http.MethodPost, "/events/ev-1/waitlist", tt.body, tt.user, evPath))

			require.Equal(t, tt.wantStatus, rr.Code)
			envelope := decodeEnvelope(t, rr)
			if tt.wantStatus == http.StatusCreated {
				var entry domain.WaitlistEntry
				decodeData(t, envelope, &entry)
				assert.Equal(t, "u-1", entry.UserID)
				assert.Equal(t, domain.WaitlistStatusWaiting, entry.Status)
				assert.Equal(t, tt.wantCoord, adm.lastCoord)
				return
			}
			require.NotNil(t, envelope.Error)
			assert.Equal(t, tt.wantCode, envelope.Error.Code)
		})
	}
}

func TestEntrantController_Leave(t *testing.T) {
	adm := &fakeAdmission{}
	ctrl := newEntrantController(adm, &fakeInvites{}, nil, nil)
	rr := httptest.NewRecorder()
	ctrl.Leave(rr, newRequest(http.MethodDelete, "/events/ev-1/waitlist", "", "u-1", evPath))
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "u-1", adm.lastUser)

	adm.err = domain.ErrNotWaiting
	rr = httptest.NewRecorder()
	ctrl.Leave(rr, newRequest(http.MethodDelete, "/events/ev-1/waitlist", "", "u-1", evPath))
	require.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, helpers.ErrCodeNotWaiting, decodeEnvelope(t, rr).Error.Code)
}

func TestEntrantController_AcceptDeclineSignUp(t *testing.T) {
	inv := &fakeInvites{}
	adm := &fakeAdmission{}
	ctrl := newEntrantController(adm, inv, nil, nil)

	rr := httptest.NewRecorder()
	ctrl.Accept(rr, newRequest(http.MethodPost, "/events/ev-1/invite/accept", "", "u-1", evPath))
	require.Equal(t, http.StatusCreated, rr.Code)
	var reg domain.Registration
	decodeData(t, decodeEnvelope(t, rr), &reg)
	assert.Equal(t, "u-1", reg.UserID)

	rr = httptest.NewRecorder()
	ctrl.SignUp(rr, newRequest(http.MethodPost, "/events/ev-1/signup", "", "u-1", evPath))
	assert.Equal(t, http.StatusCreated, rr.Code)

	rr = httptest.NewRecorder()
	ctrl.Decline(rr, newRequest(http.MethodPost, "/events/ev-1/invite/decline", `{"reason":"sick"}`, "u-1", evPath))
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "sick", inv.lastReason)

	rr = httptest.NewRecorder()
	ctrl.Decline(rr, newRequest(http.MethodPost, "/events/ev-1/invite/decline", "", "u-1", evPath))
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, inv.lastReason)

	inv.err = domain.ErrNoActiveInvite
	adm.err = domain.ErrNoActiveInvite
	for _, call := range []func(http.ResponseWriter, *http.Request){ctrl.Accept, ctrl.Decline, ctrl.SignUp} {
		rr = httptest.NewRecorder()
		call(rr, newRequest(http.MethodPost, "/events/ev-1/invite", "", "u-1", evPath))
		require.Equal(t, http.StatusConflict, rr.Code)
		assert.Equal(t, helpers.ErrCodeNoActiveInvite, decodeEnvelope(t, rr).Error.Code)
	}
}

func TestEntrantController_Status(t *testing.T) {
	st := &fakeState{status: &domain.EntrantStatus{State: domain.StateInvited, WaitlistCount: 3, WaitlistCapacity: 10}}
	ctrl := newEntrantController(&fakeAdmission{}, &fakeInvites{}, st, nil)

	rr := httptest.NewRecorder()
	ctrl.Status(rr, newRequest(http.MethodGet, "/events/ev-1/me", "", "u-1", evPath))
	require.Equal(t, http.StatusOK, rr.Code)
	var got domain.EntrantStatus
	decodeData(t, decodeEnvelope(t, rr), &got)
	assert.Equal(t, domain.StateInvited, got.State)
	assert.Equal(t, "u-1", got.UserID)
	assert.Equal(t, 3, got.WaitlistCount)
}

func TestEntrantController_Stream(t *testing.T) {
	watcher := &fakeWatcher{states: []domain.EntrantState{domain.StateWaiting, domain.StateInvited}}
	ctrl := newEntrantController(&fakeAdmission{}, &fakeInvites{}, nil, watcher)

	rr := httptest.NewRecorder()
	ctrl.Stream(rr, newRequest(http.MethodGet, "/events/ev-1/me/stream", "", "u-1", evPath))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/event-stream", rr.Header().Get("Content-Type"))
	assert.True(t, rr.Flushed)

	var states []domain.EntrantState
	sc := bufio.NewScanner(strings.NewReader(rr.Body.String()))
	for sc.Scan() {
		line := sc.Text()
		if data, ok := strings.CutPrefix(line, "data: "); ok {
			var s domain.EntrantStatus
			require.NoError(t, json.Unmarshal([]byte(data), &s))
			states = append(states, s.State)
		}
	}
	assert.Equal(t, []domain.EntrantState{domain.StateWaiting, domain.StateInvited}, states)
	assert.Equal(t, 2, strings.Count(rr.Body.String(), "event: status\n"))
}

func TestEntrantController_StreamUnknownEvent(t *testing.T) {
	st := &fakeState{err: domain.ErrNotFound}
	ctrl := newEntrantController(&fakeAdmission{}, &fakeInvites{}, st, &fakeWatcher{})

	rr := httptest.NewRecorder()
	ctrl.Stream(rr, newRequest(http.MethodGet, "/events/nope/me/stream", "", "u-1", map[string]string{"eventID": "nope"}))
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
}

func TestEntrantController_ListMyEvents(t *testing.T) {
	st := &fakeState{list: []*domain.EntrantStatus{
		{EventID: "ev-1", UserID: "u-1", State: domain.StateWaiting, Event: &domain.Event{ID: "ev-1", Title: "Swim"}},
		{EventID: "ev-2", UserID: "u-1", State: domain.StateRegistered},
	}}
	ctrl := newEntrantController(&fakeAdmission{}, &fakeInvites{}, st, nil)

	rr := httptest.NewRecorder()
	ctrl.ListMyEvents(rr, newRequest(http.MethodGet, "/me/events?state=Waiting", "", "u-1", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var list []domain.EntrantStatus
	decodeData(t, decodeEnvelope(t, rr), &list)
	require.Len(t, list, 2)
	assert.Equal(t, "Swim", list[0].Event.Title)
	assert.Equal(t, domain.StateWaiting, st.lastState)

	st.err = domain.ErrInvalidInput
	rr = httptest.NewRecorder()
	ctrl.ListMyEvents(rr, newRequest(http.MethodGet, "/me/events?state=none", "", "u-1", nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, helpers.ErrCodeBadRequest, decodeEnvelope(t, rr).Error.Code)

	rr = httptest.NewRecorder()
	ctrl.ListMyEvents(rr, newRequest(http.MethodGet, "/me/events", "", "", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
