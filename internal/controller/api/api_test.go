package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/uniquip/internal/audit"
	"github.com/Freeeeeet/uniquip/internal/model"
	"github.com/Freeeeeet/uniquip/internal/repository/memory"
	"github.com/Freeeeeet/uniquip/internal/service"
)

type stubCatalog struct {
	lastEquipment   model.EquipmentFilter
	lastReservation model.ReservationFilter
}

func (s *stubCatalog) ListEquipment(_ context.Context, f model.EquipmentFilter) (*model.EquipmentPage, error) {
	s.lastEquipment = f
	return &model.EquipmentPage{Count: 0, Results: []*model.EquipmentListItem{}}, nil
}

func (s *stubCatalog) ListCourseCodes(_ context.Context, _ string) ([]string, error) {
	return []string{"CS101", "EE200"}, nil
}

func (s *stubCatalog) ListReservations(_ context.Context, f model.ReservationFilter) (*model.ReservationPage, error) {
	s.lastReservation = f
	return &model.ReservationPage{Results: []*model.Reservation{}}, nil
}

func (s *stubCatalog) ListFacultyPending(_ context.Context, _ int64) ([]*model.FacultyReservation, error) {
	return nil, nil
}

func (s *stubCatalog) ListFacultyEquipment(_ context.Context, _ int64) ([]*model.FacultyEquipment, error) {
	return nil, nil
}

func (s *stubCatalog) UsageReport(_ context.Context, _, _ time.Time) ([]*model.UsageReportRow, error) {
	return []*model.UsageReportRow{{EquipmentID: 1, EquipmentName: "Oscilloscope", ReservationCount: 2, HoursBooked: 3}}, nil
}

func (s *stubCatalog) CourseLoad(_ context.Context, _, _ time.Time) ([]*model.CourseLoadRow, error) {
	return nil, nil
}

type testServer struct {
	store   *memory.Store
	catalog *stubCatalog
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := memory.NewStore()
	store.AddLab(model.Lab{ID: 1, Name: "Robotics", OpenTime: 8 * time.Hour, CloseTime: 18 * time.Hour})
	store.AddEquipment(model.Equipment{ID: 1, LabID: 1, Name: "Oscilloscope", IsReservable: true})
	store.AddEquipment(model.Equipment{ID: 2, LabID: 1, Name: "3D Printer", IsReservable: true, ApprovalRequired: true})
	store.AddStudent(model.Student{NetID: "abc123", Name: "Ada"})

	logger := zap.NewNop()
	recorder := audit.Discard{}
	catalog := &stubCatalog{}

	h := NewHandler(
		service.NewAvailabilityService(store.Equipment(), store.ReservationRepo(), nil, logger),
		service.NewReservationService(store, store.Equipment(), store.Students(), store.ReservationRepo(), nil, recorder, logger),
		service.NewLifecycleService(store, store.Equipment(), store.ReservationRepo(), nil, recorder, logger),
		service.NewCatalogService(catalog, logger),
		time.UTC,
		logger,
	)

	return &testServer{
		store:   store,
		catalog: catalog,
		handler: NewServer(h, 5*time.Second, logger),
	}
}

func (s *testServer) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestTraceIDHonoured(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "trace-42")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, "trace-42", rec.Header().Get("X-Request-ID"))
}

func TestReservationFlow(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/reservations/create/",
		`{"Day":"2024-03-04","TimeSlots":["09:00:00","10:00:00","13:00:00"],"EquipmentId":2,"NetId":"abc123"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created []model.Reservation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Len(t, created, 2)
	assert.Equal(t, int64(1), created[0].ID)
	assert.Equal(t, model.ReservationStatusApprovalRequired, created[0].Status)
	assert.Equal(t, time.Date(2024, 3, 4, 11, 0, 0, 0, time.UTC), created[0].EndTime.UTC())

	rec = s.do(http.MethodGet, "/api/equipment-availability/?equipment_id=2&start_time=2024-03-04", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var slots []model.AvailableSlot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &slots))
	assert.Len(t, slots, 7)
	for _, slot := range slots {
		assert.NotContains(t, []string{"09:00:00", "10:00:00", "13:00:00"}, slot.StartTimeSlot)
	}

	rec = s.do(http.MethodPost, "/api/reservations/create/",
		`{"Day":"2024-03-04","TimeSlots":["10:00:00"],"EquipmentId":2,"NetId":"abc123"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "SlotUnavailable", decodeError(t, rec).Kind)

	rec = s.do(http.MethodPatch, "/api/reservations/approve/1/", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodPatch, "/api/reservations/approve/1/", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "InvalidState", decodeError(t, rec).Kind)

	rec = s.do(http.MethodDelete, "/api/reservations/delete/2/", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodDelete, "/api/reservations/delete/2/", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NotFound", decodeError(t, rec).Kind)
}

func TestCreateReservationValidation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
		kind   string
	}{
		{"malformed json", `{"Day":`, http.StatusBadRequest, "InvalidRequest"},
		{"missing day", `{"TimeSlots":["09:00:00"],"EquipmentId":1,"NetId":"abc123"}`, http.StatusBadRequest, "InvalidRequest"},
		{"empty slots", `{"Day":"2024-03-04","TimeSlots":[],"EquipmentId":1,"NetId":"abc123"}`, http.StatusBadRequest, "InvalidRequest"},
		{"unknown student", `{"Day":"2024-03-04","TimeSlots":["09:00:00"],"EquipmentId":1,"NetId":"ghost"}`, http.StatusNotFound, "NotFound"},
		{"unknown equipment", `{"Day":"2024-03-04","TimeSlots":["09:00:00"],"EquipmentId":9,"NetId":"abc123"}`, http.StatusNotFound, "NotFound"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodPost, "/api/reservations/create/", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.kind, decodeError(t, rec).Kind)
		})
	}
	assert.Empty(t, s.store.Reservations())
}

func TestAvailabilityValidation(t *testing.T) {
	s := newTestServer(t)

	for _, target := range []string{
		"/api/equipment-availability/",
		"/api/equipment-availability/?equipment_id=1",
		"/api/equipment-availability/?start_time=2024-03-04",
		"/api/equipment-availability/?equipment_id=x&start_time=2024-03-04",
		"/api/equipment-availability/?equipment_id=1&start_time=tomorrow",
	} {
		rec := s.do(http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}

	rec := s.do(http.MethodGet, "/api/equipment-availability/?equipment_id=77&start_time=2024-03-04T10:00:00", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestToggleAndUpdateEquipment(t *testing.T) {
	s := newTestServer(t)
	future := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Hour)
	s.store.AddReservation(model.Reservation{ID: 1, EquipmentID: 1, NetID: "abc123", StartTime: future, EndTime: future.Add(time.Hour), Status: model.ReservationStatusReserved})

	rec := s.do(http.MethodPatch, "/api/equipment/toggle-reservability/1/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(1), body["cancelled"])

	res, _ := s.store.Reservation(1)
	assert.Equal(t, model.ReservationStatusCancelled, res.Status)

	rec = s.do(http.MethodPatch, "/api/equipment/toggle-reservability/99/", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodPatch, "/api/equipment/update/1/", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPatch, "/api/equipment/update/1/", `{"ApprovalRequired":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var equipment model.Equipment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &equipment))
	assert.True(t, equipment.ApprovalRequired)

	rec = s.do(http.MethodPatch, "/api/equipment/toggle-reservability/abc/", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCatalogEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/equipments-list/?net_id=abc123&course_code=All&equipment_name=scope&page=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.EquipmentFilter{NetID: "abc123", NameSubstring: "scope", Page: 2, PageSize: 10}, s.catalog.lastEquipment)

	rec = s.do(http.MethodGet, "/api/equipments-list/", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/api/equipments/filter-value?net_id=abc123", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `["CS101","EE200"]`, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/reservations/?start_date=2024-03-01&equipment_id=3&page_size=500", "")
	require.Equal(t, http.StatusOK, rec.Code)
	f := s.catalog.lastReservation
	require.NotNil(t, f.StartFrom)
	assert.True(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).Equal(*f.StartFrom))
	require.NotNil(t, f.EquipmentID)
	assert.Equal(t, int64(3), *f.EquipmentID)
	assert.Equal(t, service.MaxPageSize, f.PageSize)

	rec = s.do(http.MethodGet, "/api/reservations/faculty/5/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/equipment-usage-report/?start_date=2024-01-01", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/api/equipment-usage-report/?start_date=2024-01-01&end_date=2024-02-01", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"TotalHoursBooked":3`)

	rec = s.do(http.MethodGet, "/api/courseload/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/nope/", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NotFound", decodeError(t, rec).Kind)
}

func TestParseDate(t *testing.T) {
	loc := time.FixedZone("lab", -5*60*60)

	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2024-03-04", time.Date(2024, 3, 4, 0, 0, 0, 0, loc), true},
		{"2024-03-04T10:30:00", time.Date(2024, 3, 4, 10, 30, 0, 0, loc), true},
		{"2024-03-05T02:00:00Z", time.Date(2024, 3, 4, 21, 0, 0, 0, loc), true},
		{"", time.Time{}, false},
		{"04/03/2024", time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := parseDate(tt.in, loc)
		assert.Equal(t, tt.ok, ok, tt.in)
		if tt.ok {
			assert.True(t, tt.want.Equal(got), "%s: got %s", tt.in, got)
			assert.Equal(t, loc.String(), got.Location().String())
		}
	}
}

func TestErrorHandlerHidesInternalErrors(t *testing.T) {
	s := newTestServer(t)
	s.store.FailOn("ListActiveBetween", 0, errors.New("pq: password authentication failed"))

	rec := s.do(http.MethodGet, "/api/equipment-availability/?equipment_id=1&start_time=2024-03-04", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "StorageError", body.Kind)
	assert.NotContains(t, body.Error, "password")
}
