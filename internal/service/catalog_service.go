package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/uniquip/internal/apperror"
	"github.com/Freeeeeet/uniquip/internal/model"
	"github.com/Freeeeeet/uniquip/internal/repository/base"
)

const (
	DefaultEquipmentPageSize   = 10
	DefaultReservationPageSize = 5
	MaxPageSize                = 100

	// courseCodeAll значение фильтра курса "без фильтра"
	courseCodeAll = "All"
)

// Границы семестра для отчёта о нагрузке курсов по умолчанию
var (
	DefaultCourseLoadFrom = time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	DefaultCourseLoadTo   = time.Date(2024, time.May, 10, 0, 0, 0, 0, time.UTC)
)

// CatalogService списки и отчёты только на чтение
type CatalogService struct {
	catalogRepo CatalogRepository
	logger      *zap.Logger
}

func NewCatalogService(catalogRepo CatalogRepository, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		catalogRepo: catalogRepo,
		logger:      logger,
	}
}

// NormalizePage приводит номер и размер страницы к допустимым значениям
func NormalizePage(page, size, defaultSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}

// ListEquipment оборудование, которое студент может забронировать
func (s *CatalogService) ListEquipment(ctx context.Context, f model.EquipmentFilter) (*model.EquipmentPage, error) {
	if strings.TrimSpace(f.NetID) == "" {
		return nil, apperror.New(apperror.KindInvalidRequest, "net_id is required")
	}
	if f.CourseCode == courseCodeAll {
		f.CourseCode = ""
	}
	f.Page, f.PageSize = NormalizePage(f.Page, f.PageSize, DefaultEquipmentPageSize)

	page, err := s.catalogRepo.ListEquipment(ctx, f)
	if err != nil {
		s.logger.Error("Failed to list equipment", zap.String("net_id", f.NetID), zap.Error(err))
		return nil, base.Classify(err)
	}
	return page, nil
}

// ListCourseCodes значения фильтра курсов для студента
func (s *CatalogService) ListCourseCodes(ctx context.Context, netID string) ([]string, error) {
	if strings.TrimSpace(netID) == "" {
		return nil, apperror.New(apperror.KindInvalidRequest, "net_id is required")
	}

	codes, err := s.catalogRepo.ListCourseCodes(ctx, netID)
	if err != nil {
		s.logger.Error("Failed to list course codes", zap.String("net_id", netID), zap.Error(err))
		return nil, base.Classify(err)
	}
	return codes, nil
}

func (s *CatalogService) ListReservations(ctx context.Context, f model.ReservationFilter) (*model.ReservationPage, error) {
	if f.StartFrom != nil && f.EndBefore != nil && f.EndBefore.Before(*f.StartFrom) {
		return nil, apperror.New(apperror.KindInvalidRequest, "end_date must not be before start_date")
	}
	f.Page, f.PageSize = NormalizePage(f.Page, f.PageSize, DefaultReservationPageSize)

	page, err := s.catalogRepo.ListReservations(ctx, f)
	if err != nil {
		s.logger.Error("Failed to list reservations", zap.Error(err))
		return nil, base.Classify(err)
	}
	return page, nil
}

func (s *CatalogService) ListFacultyPending(ctx context.Context, facultyID int64) ([]*model.FacultyReservation, error) {
	if facultyID <= 0 {
		return nil, apperror.New(apperror.KindInvalidRequest, "faculty id is required")
	}

	items, err := s.catalogRepo.ListFacultyPending(ctx, facultyID)
	if err != nil {
		s.logger.Error("Failed to list pending reservations", zap.Int64("faculty_id", facultyID), zap.Error(err))
		return nil, base.Classify(err)
	}
	return items, nil
}

func (s *CatalogService) ListFacultyEquipment(ctx context.Context, facultyID int64) ([]*model.FacultyEquipment, error) {
	if facultyID <= 0 {
		return nil, apperror.New(apperror.KindInvalidRequest, "faculty id is required")
	}

	items, err := s.catalogRepo.ListFacultyEquipment(ctx, facultyID)
	if err != nil {
		s.logger.Error("Failed to list faculty equipment", zap.Int64("faculty_id", facultyID), zap.Error(err))
		return nil, base.Classify(err)
	}
	return items, nil
}

// UsageReport число броней и забронированные часы по оборудованию за период
func (s *CatalogService) UsageReport(ctx context.Context, from, to time.Time) ([]*model.UsageReportRow, error) {
	if from.IsZero() || to.IsZero() {
		return nil, apperror.New(apperror.KindInvalidRequest, "start_date and end_date are required")
	}
	if to.Before(from) {
		return nil, apperror.New(apperror.KindInvalidRequest, "end_date must not be before start_date")
	}

	rows, err := s.catalogRepo.UsageReport(ctx, from, to)
	if err != nil {
		s.logger.Error("Failed to build usage report", zap.Error(err))
		return nil, base.Classify(err)
	}
	return rows, nil
}

// CourseLoad забронированные часы по курсам. Нулевые границы заменяются
// семестром по умолчанию.
func (s *CatalogService) CourseLoad(ctx context.Context, from, to time.Time) ([]*model.CourseLoadRow, error) {
	if from.IsZero() {
		from = DefaultCourseLoadFrom
	}
	if to.IsZero() {
		to = DefaultCourseLoadTo
	}
	if to.Before(from) {
		return nil, apperror.New(apperror.KindInvalidRequest, "end_threshold must not be before start_threshold")
	}

	rows, err := s.catalogRepo.CourseLoad(ctx, from, to)
	if err != nil {
		s.logger.Error("Failed to build course load report", zap.Error(err))
		return nil, base.Classify(err)
	}
	return rows, nil
}
