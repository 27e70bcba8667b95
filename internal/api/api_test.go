package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webdoctor/ehr-server/internal/appointment"
	"github.com/webdoctor/ehr-server/internal/ehr"
	"github.com/webdoctor/ehr-server/internal/rooms"
)

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	// Generated when absent.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))

	// Propagated when supplied.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-abc")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "req-abc", seen)
	assert.Equal(t, "req-abc", rec.Header().Get("X-Request-ID"))
}

func TestDecodeAndValidate(t *testing.T) {
	newReq := func(body string) (*httptest.ResponseRecorder, *http.Request) {
		return httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	}

	t.Run("valid body", func(t *testing.T) {
		rec, req := newReq(`{"doctor_id":"6f1f64ea-7c34-4dcb-8f0a-1f2b3c4d5e6f","patient_id":"0b9c54a1-93a1-4b56-9d86-1a2b3c4d5e6f","date_time":"2031-01-02T10:00:00Z"}`)
		var dst CreateAppointmentRequest
		require.True(t, decodeAndValidate(rec, req, &dst))
		assert.Equal(t, "6f1f64ea-7c34-4dcb-8f0a-1f2b3c4d5e6f", dst.DoctorID)
	})

	t.Run("malformed json", func(t *testing.T) {
		rec, req := newReq(`{"doctor_id":`)
		var dst CreateAppointmentRequest
		require.False(t, decodeAndValidate(rec, req, &dst))
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "invalid_request_body", resp.Error)
	})

	t.Run("failing validation", func(t *testing.T) {
		rec, req := newReq(`{"doctor_id":"not-a-uuid","patient_id":"also-not","date_time":"2031-01-02T10:00:00Z"}`)
		var dst CreateAppointmentRequest
		require.False(t, decodeAndValidate(rec, req, &dst))
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "validation_failed", resp.Error)
		assert.Contains(t, resp.Details, "DoctorID")
	})
}

func TestHandleAppointmentError(t *testing.T) {
	cases := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{appointment.ErrDoctorNotFound, http.StatusNotFound, "doctor_not_found"},
		{appointment.ErrPatientNotFound, http.StatusNotFound, "patient_not_found"},
		{appointment.ErrAppointmentNotFound, http.StatusNotFound, "appointment_not_found"},
		{appointment.ErrNotConnected, http.StatusConflict, "not_connected"},
		{appointment.ErrAlreadyTerminal, http.StatusConflict, "already_terminal"},
		{appointment.ErrAppointmentBusy, http.StatusConflict, "appointment_busy"},
		{appointment.ErrVisitInPast, http.StatusUnprocessableEntity, "invalid_date_time"},
		{appointment.ErrMissingDateTime, http.StatusUnprocessableEntity, "invalid_date_time"},
		{&rooms.ProviderError{Op: "create_room", Status: 500}, http.StatusBadGateway, "room_provider_error"},
		{fmt.Errorf("wrapped: %w", appointment.ErrAlreadyTerminal), http.StatusConflict, "already_terminal"},
		{fmt.Errorf("create room: %w", &rooms.ProviderError{Op: "create_room", Status: 503}), http.StatusBadGateway, "room_provider_error"},
		{fmt.Errorf("pq: deadlock detected"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		handleAppointmentError(rec, tc.err)

		assert.Equal(t, tc.wantStatus, rec.Code, tc.err.Error())

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, tc.wantCode, resp.Error, tc.err.Error())
	}
}

func TestHandleEHRError(t *testing.T) {
	cases := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{ehr.ErrDoctorNotFound, http.StatusNotFound, "doctor_not_found"},
		{ehr.ErrRequestNotFound, http.StatusNotFound, "connection_request_not_found"},
		{ehr.ErrMedicationNotFound, http.StatusNotFound, "medication_not_found"},
		{ehr.ErrReportNotFound, http.StatusNotFound, "report_not_found"},
		{ehr.ErrDuplicateRequest, http.StatusConflict, "duplicate_request"},
		{ehr.ErrAlreadyConnected, http.StatusConflict, "already_connected"},
		{ehr.ErrInvalidMedication, http.StatusUnprocessableEntity, "invalid_payload"},
		{ehr.ErrInvalidReport, http.StatusUnprocessableEntity, "invalid_payload"},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		handleEHRError(rec, tc.err)

		assert.Equal(t, tc.wantStatus, rec.Code, tc.err.Error())

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, tc.wantCode, resp.Error, tc.err.Error())
	}
}
