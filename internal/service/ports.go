package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/uniquip/internal/model"
)

// Transactor выполняет fn в одной транзакции хранилища
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type EquipmentRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Equipment, error)
	GetByIDForShare(ctx context.Context, id int64) (*model.Equipment, error)
	GetWithLab(ctx context.Context, id int64) (*model.Equipment, *model.Lab, error)
	SetReservable(ctx context.Context, id int64, reservable bool) (bool, error)
	SetApprovalRequired(ctx context.Context, id int64, required bool) (bool, error)
}

type StudentRepository interface {
	GetByNetID(ctx context.Context, netID string) (*model.Student, error)
}

type ReservationRepository interface {
	LockAllocation(ctx context.Context) error
	NextID(ctx context.Context) (int64, error)
	HasActiveOverlap(ctx context.Context, equipmentID int64, start, end time.Time) (bool, error)
	Insert(ctx context.Context, res *model.Reservation) error
	GetByID(ctx context.Context, id int64) (*model.Reservation, error)
	ListActiveBetween(ctx context.Context, equipmentID int64, from, to time.Time) ([]*model.Reservation, error)
	Approve(ctx context.Context, id int64) (bool, error)
	Delete(ctx context.Context, id int64) (*model.Reservation, error)
	CancelFuture(ctx context.Context, equipmentID int64, now time.Time) (int64, error)
}

type CatalogRepository interface {
	ListEquipment(ctx context.Context, f model.EquipmentFilter) (*model.EquipmentPage, error)
	ListCourseCodes(ctx context.Context, netID string) ([]string, error)
	ListReservations(ctx context.Context, f model.ReservationFilter) (*model.ReservationPage, error)
	ListFacultyPending(ctx context.Context, facultyID int64) ([]*model.FacultyReservation, error)
	ListFacultyEquipment(ctx context.Context, facultyID int64) ([]*model.FacultyEquipment, error)
	UsageReport(ctx context.Context, from, to time.Time) ([]*model.UsageReportRow, error)
	CourseLoad(ctx context.Context, from, to time.Time) ([]*model.CourseLoadRow, error)
}

// AvailabilityCache кэш рассчитанных слотов. nil отключает кэш.
// Get возвращает версию записи, Set пишет только под ней.
type AvailabilityCache interface {
	Get(ctx context.Context, equipmentID int64, day time.Time) ([]model.AvailableSlot, int64, bool)
	Set(ctx context.Context, equipmentID int64, day time.Time, version int64, slots []model.AvailableSlot)
	Invalidate(ctx context.Context, equipmentID int64)
}
