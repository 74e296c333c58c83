package helpers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventlottery/internal/domain"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{domain.ErrPeriodNotOpen, http.StatusConflict, ErrCodePeriodNotOpen},
		{fmt.Errorf("join: %w", domain.ErrWaitlistFull), http.StatusConflict, ErrCodeWaitlistFull},
		{domain.ErrNoActiveInvite, http.StatusConflict, ErrCodeNoActiveInvite},
		{domain.ErrNotFound, http.StatusNotFound, ErrCodeNotFound},
		{domain.ErrForbidden, http.StatusForbidden, ErrCodeForbidden},
		{fmt.Errorf("x: %w: %w", domain.ErrStore, errors.New("conn reset")), http.StatusServiceUnavailable, ErrCodeUnavailable},
		{errors.New("boom"), http.StatusInternalServerError, ErrCodeInternalError},
	}
	for _, tt := range tests {
		status, code := StatusForError(tt.err)
		assert.Equal(t, tt.wantStatus, status, tt.err.Error())
		assert.Equal(t, tt.wantCode, code, tt.err.Error())
	}
}

func TestWriteDomainError(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/events", nil)

	rr := httptest.NewRecorder()
	WriteDomainError(rr, req, discard, fmt.Errorf("title is required: %w", domain.ErrInvalidInput))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	var envelope APIResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
	assert.Equal(t, ErrCodeBadRequest, envelope.Error.Code)
	assert.Contains(t, envelope.Error.Message, "title is required")
	assert.Nil(t, envelope.Data)

	rr = httptest.NewRecorder()
	WriteDomainError(rr, req, discard, errors.New("pq: password authentication failed"))
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "password")
}

type sample struct {
	Name string `json:"name"`
}

func (s *sample) Validate() []string {
	if s.Name == "" {
		return []string{"name is required"}
	}
	return nil
}

type optional struct {
	Reason string `json:"reason"`
}

func TestDecodeAndValidate(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		dest     any
		optional bool
		wantOK   bool
		wantMsg  string
	}{
		{name: "valid", body: `{"name":"x"}`, dest: &sample{}, wantOK: true},
		{name: "validation error", body: `{"name":""}`, dest: &sample{}, wantMsg: "name is required"},
		{name: "unknown field", body: `{"name":"x","extra":1}`, dest: &sample{}, wantMsg: "unknown field"},
		{name: "empty body required", body: "", dest: &sample{}, wantMsg: "EOF"},
		{name: "empty body optional", body: "", dest: &optional{}, optional: true, wantOK: true},
		{name: "bad json optional", body: `{`, dest: &optional{}, optional: true, wantMsg: "unexpected EOF"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			var ok bool
			if tt.optional {
				ok = DecodeOptional(rr, req, tt.dest)
			} else {
				ok = DecodeAndValidate(rr, req, tt.dest)
			}
			require.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.Equal(t, http.StatusBadRequest, rr.Code)
				assert.Contains(t, rr.Body.String(), tt.wantMsg)
			}
		})
	}
}

func TestParsePagination(t *testing.T) {
	p := ParsePagination(httptest.NewRequest(http.MethodGet, "/?page=0&page_size=abc", nil))
	assert.Equal(t, domain.PaginationParams{Page: 1, PageSize: domain.DefaultPageSize}, p)

	p = ParsePagination(httptest.NewRequest(http.MethodGet, "/?page=4&page_size=1000", nil))
	assert.Equal(t, domain.PaginationParams{Page: 4, PageSize: domain.MaxPageSize}, p)

	assert.Equal(t, PaginationMeta{Page: 1, PageSize: 20, Total: 41, TotalPages: 3}, NewPaginationMeta(1, 20, 41))
	assert.Zero(t, NewPaginationMeta(1, 0, 5).TotalPages)
}
