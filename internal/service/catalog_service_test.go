package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/uniquip/internal/apperror"
	"github.com/Freeeeeet/uniquip/internal/model"
)

type stubCatalog struct {
	equipmentFilter   model.EquipmentFilter
	reservationFilter model.ReservationFilter
	from, to          time.Time
	err               error
}

func (s *stubCatalog) ListEquipment(_ context.Context, f model.EquipmentFilter) (*model.EquipmentPage, error) {
	s.equipmentFilter = f
	return &model.EquipmentPage{}, s.err
}

func (s *stubCatalog) ListCourseCodes(_ context.Context, _ string) ([]string, error) {
	return []string{"CS101"}, s.err
}

func (s *stubCatalog) ListReservations(_ context.Context, f model.ReservationFilter) (*model.ReservationPage, error) {
	s.reservationFilter = f
	return &model.ReservationPage{}, s.err
}

func (s *stubCatalog) ListFacultyPending(_ context.Context, _ int64) ([]*model.FacultyReservation, error) {
	return nil, s.err
}

func (s *stubCatalog) ListFacultyEquipment(_ context.Context, _ int64) ([]*model.FacultyEquipment, error) {
	return nil, s.err
}

func (s *stubCatalog) UsageReport(_ context.Context, from, to time.Time) ([]*model.UsageReportRow, error) {
	s.from, s.to = from, to
	return nil, s.err
}

func (s *stubCatalog) CourseLoad(_ context.Context, from, to time.Time) ([]*model.CourseLoadRow, error) {
	s.from, s.to = from, to
	return nil, s.err
}

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		page, size         int
		wantPage, wantSize int
	}{
		{0, 0, 1, 10},
		{-3, 5, 1, 5},
		{2, 500, 2, MaxPageSize},
		{4, 25, 4, 25},
	}
	for _, tt := range tests {
		page, size := NormalizePage(tt.page, tt.size, DefaultEquipmentPageSize)
		assert.Equal(t, tt.wantPage, page)
		assert.Equal(t, tt.wantSize, size)
	}
}

func TestListEquipmentFilter(t *testing.T) {
	repo := &stubCatalog{}
	s := NewCatalogService(repo, zap.NewNop())

	_, err := s.ListEquipment(context.Background(), model.EquipmentFilter{NetID: "abc123", CourseCode: "All"})
	require.NoError(t, err)
	assert.Equal(t, model.EquipmentFilter{NetID: "abc123", Page: 1, PageSize: DefaultEquipmentPageSize}, repo.equipmentFilter)

	_, err = s.ListEquipment(context.Background(), model.EquipmentFilter{NetID: "abc123", CourseCode: "CS101", Page: 3})
	require.NoError(t, err)
	assert.Equal(t, "CS101", repo.equipmentFilter.CourseCode)
	assert.Equal(t, 3, repo.equipmentFilter.Page)

	_, err = s.ListEquipment(context.Background(), model.EquipmentFilter{})
	assert.Equal(t, apperror.KindInvalidRequest, apperror.KindOf(err))
}

func TestListReservationsDefaults(t *testing.T) {
	repo := &stubCatalog{}
	s := NewCatalogService(repo, zap.NewNop())

	_, err := s.ListReservations(context.Background(), model.ReservationFilter{})
	require.NoError(t, err)
	assert.Equal(t, DefaultReservationPageSize, repo.reservationFilter.PageSize)

	from, to := at(12), at(8)
	_, err = s.ListReservations(context.Background(), model.ReservationFilter{StartFrom: &from, EndBefore: &to})
	assert.Equal(t, apperror.KindInvalidRequest, apperror.KindOf(err))
}

func TestReports(t *testing.T) {
	repo := &stubCatalog{}
	s := NewCatalogService(repo, zap.NewNop())
	ctx := context.Background()

	_, err := s.UsageReport(ctx, time.Time{}, at(0))
	assert.Equal(t, apperror.KindInvalidRequest, apperror.KindOf(err))

	_, err = s.UsageReport(ctx, at(0), at(48))
	require.NoError(t, err)
	assert.Equal(t, at(48), repo.to)

	_, err = s.CourseLoad(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, DefaultCourseLoadFrom, repo.from)
	assert.Equal(t, DefaultCourseLoadTo, repo.to)
}

func TestCatalogStorageErrorIsClassified(t *testing.T) {
	repo := &stubCatalog{err: errors.New("dial tcp: connection refused")}
	s := NewCatalogService(repo, zap.NewNop())

	_, err := s.ListCourseCodes(context.Background(), "abc123")
	assert.Equal(t, apperror.KindStorage, apperror.KindOf(err))

	_, err = s.ListFacultyPending(context.Background(), 0)
	assert.Equal(t, apperror.KindInvalidRequest, apperror.KindOf(err))
}
