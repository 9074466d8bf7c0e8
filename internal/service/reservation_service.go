package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/uniquip/internal/apperror"
	"github.com/Freeeeeet/uniquip/internal/audit"
	"github.com/Freeeeeet/uniquip/internal/model"
	"github.com/Freeeeeet/uniquip/internal/repository/base"
)

// CreateReservationInput запрос на бронь набора часовых слотов одного дня
type CreateReservationInput struct {
	EquipmentID int64
	NetID       string
	Day         time.Time
	TimeSlots   []string
}

type ReservationService struct {
	tx              Transactor
	equipmentRepo   EquipmentRepository
	studentRepo     StudentRepository
	reservationRepo ReservationRepository
	cache           AvailabilityCache
	audit           audit.Recorder
	logger          *zap.Logger
}

func NewReservationService(
	tx Transactor,
	equipmentRepo EquipmentRepository,
	studentRepo StudentRepository,
	reservationRepo ReservationRepository,
	cache AvailabilityCache,
	recorder audit.Recorder,
	logger *zap.Logger,
) *ReservationService {
	return &ReservationService{
		tx:              tx,
		equipmentRepo:   equipmentRepo,
		studentRepo:     studentRepo,
		reservationRepo: reservationRepo,
		cache:           cache,
		audit:           recorder,
		logger:          logger,
	}
}

func (in CreateReservationInput) validate() error {
	if in.EquipmentID <= 0 {
		return apperror.New(apperror.KindInvalidRequest, "EquipmentId is required")
	}
	if strings.TrimSpace(in.NetID) == "" {
		return apperror.New(apperror.KindInvalidRequest, "NetId is required")
	}
	if in.Day.IsZero() {
		return apperror.New(apperror.KindInvalidRequest, "Day is required")
	}
	if len(in.TimeSlots) == 0 {
		return apperror.New(apperror.KindInvalidRequest, "TimeSlots must not be empty")
	}
	return nil
}

// Create бронирует слоты: объединяет их в интервалы и сохраняет по строке
// на интервал одной транзакцией. ID выдаются подряд начиная с MAX(id)+1.
func (s *ReservationService) Create(ctx context.Context, in CreateReservationInput) ([]*model.Reservation, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	intervals, err := MergeTimeSlots(StartOfDay(in.Day), in.TimeSlots)
	if err != nil {
		return nil, err
	}

	var created []*model.Reservation
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		// Транзакция может повториться
		created = created[:0]

		if err := s.reservationRepo.LockAllocation(ctx); err != nil {
			return err
		}

		equipment, err := s.equipmentRepo.GetByIDForShare(ctx, in.EquipmentID)
		if err != nil {
			return err
		}
		if equipment == nil {
			return apperror.ErrEquipmentNotFound
		}

		student, err := s.studentRepo.GetByNetID(ctx, in.NetID)
		if err != nil {
			return err
		}
		if student == nil {
			return apperror.ErrStudentNotFound
		}

		if !equipment.IsReservable {
			return apperror.ErrNotReservable
		}

		for _, iv := range intervals {
			taken, err := s.reservationRepo.HasActiveOverlap(ctx, equipment.ID, iv.Start, iv.End)
			if err != nil {
				return err
			}
			if taken {
				return apperror.ErrSlotUnavailable
			}
		}

		nextID, err := s.reservationRepo.NextID(ctx)
		if err != nil {
			return err
		}

		status := equipment.InitialReservationStatus()
		for i, iv := range intervals {
			res := &model.Reservation{
				ID:          nextID + int64(i),
				EquipmentID: equipment.ID,
				NetID:       student.NetID,
				StartTime:   iv.Start,
				EndTime:     iv.End,
				Status:      status,
			}
			if err := s.reservationRepo.Insert(ctx, res); err != nil {
				return err
			}
			created = append(created, res)
		}

		return nil
	})
	if err != nil {
		err = base.Classify(err)
		s.logCreateFailure(ctx, in, err)
		return nil, err
	}

	s.invalidate(ctx, in.EquipmentID)

	ids := make([]int64, 0, len(created))
	for _, r := range created {
		ids = append(ids, r.ID)
	}

	s.logger.Info("Reservation created",
		zap.Int64s("reservation_ids", ids),
		zap.Int64("equipment_id", in.EquipmentID),
		zap.String("net_id", in.NetID),
		zap.String("status", string(created[0].Status)),
	)
	s.audit.Record(ctx, audit.LevelInfo, "reservation created", map[string]any{
		"reservation_ids": ids,
		"equipment_id":    in.EquipmentID,
		"net_id":          in.NetID,
		"status":          string(created[0].Status),
	})

	return created, nil
}

func (s *ReservationService) logCreateFailure(ctx context.Context, in CreateReservationInput, err error) {
	kind := apperror.KindOf(err)
	fields := []zap.Field{
		zap.Int64("equipment_id", in.EquipmentID),
		zap.String("net_id", in.NetID),
		zap.String("kind", kind.String()),
		zap.Error(err),
	}

	level := audit.LevelWarning
	if kind == apperror.KindStorage {
		level = audit.LevelError
		s.logger.Error("Failed to create reservation", fields...)
	} else {
		s.logger.Warn("Reservation rejected", fields...)
	}

	s.audit.Record(ctx, level, "reservation rejected", map[string]any{
		"equipment_id": in.EquipmentID,
		"net_id":       in.NetID,
		"kind":         kind.String(),
		"reason":       apperror.MessageOf(err),
	})
}

func (s *ReservationService) invalidate(ctx context.Context, equipmentID int64) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, equipmentID)
	}
}
