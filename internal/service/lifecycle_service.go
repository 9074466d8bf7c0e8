package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/uniquip/internal/apperror"
	"github.com/Freeeeeet/uniquip/internal/audit"
	"github.com/Freeeeeet/uniquip/internal/model"
	"github.com/Freeeeeet/uniquip/internal/repository/base"
)

// LifecycleService управляет статусами броней и флагами оборудования
type LifecycleService struct {
	tx              Transactor
	equipmentRepo   EquipmentRepository
	reservationRepo ReservationRepository
	cache           AvailabilityCache
	audit           audit.Recorder
	logger          *zap.Logger
	now             func() time.Time
}

func NewLifecycleService(
	tx Transactor,
	equipmentRepo EquipmentRepository,
	reservationRepo ReservationRepository,
	cache AvailabilityCache,
	recorder audit.Recorder,
	logger *zap.Logger,
) *LifecycleService {
	return &LifecycleService{
		tx:              tx,
		equipmentRepo:   equipmentRepo,
		reservationRepo: reservationRepo,
		cache:           cache,
		audit:           recorder,
		logger:          logger,
		now:             time.Now,
	}
}

// Approve переводит бронь из "Approval Required" в "Reserved"
func (s *LifecycleService) Approve(ctx context.Context, reservationID int64) error {
	if reservationID <= 0 {
		return apperror.New(apperror.KindInvalidRequest, "reservation id is required")
	}

	ok, err := s.reservationRepo.Approve(ctx, reservationID)
	if err != nil {
		s.logger.Error("Failed to approve reservation", zap.Int64("reservation_id", reservationID), zap.Error(err))
		return base.Classify(err)
	}

	if !ok {
		// Различаем отсутствие брони и неподходящий статус
		res, err := s.reservationRepo.GetByID(ctx, reservationID)
		if err != nil {
			return base.Classify(err)
		}
		if res == nil {
			return apperror.ErrReservationNotFound
		}
		return apperror.Wrap(apperror.KindInvalidState, apperror.ErrNotPendingApproval.Message,
			apperror.Newf(apperror.KindInvalidState, "current status %q", res.Status))
	}

	s.logger.Info("Reservation approved", zap.Int64("reservation_id", reservationID))
	s.audit.Record(ctx, audit.LevelInfo, "reservation approved", map[string]any{
		"reservation_id": reservationID,
	})

	return nil
}

// Delete удаляет бронь независимо от статуса
func (s *LifecycleService) Delete(ctx context.Context, reservationID int64) error {
	if reservationID <= 0 {
		return apperror.New(apperror.KindInvalidRequest, "reservation id is required")
	}

	res, err := s.reservationRepo.Delete(ctx, reservationID)
	if err != nil {
		s.logger.Error("Failed to delete reservation", zap.Int64("reservation_id", reservationID), zap.Error(err))
		return base.Classify(err)
	}
	if res == nil {
		return apperror.ErrReservationNotFound
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, res.EquipmentID)
	}

	s.logger.Info("Reservation deleted",
		zap.Int64("reservation_id", reservationID),
		zap.Int64("equipment_id", res.EquipmentID),
		zap.String("status", string(res.Status)),
	)
	s.audit.Record(ctx, audit.LevelInfo, "reservation deleted", map[string]any{
		"reservation_id": reservationID,
		"equipment_id":   res.EquipmentID,
		"net_id":         res.NetID,
	})

	return nil
}

// ToggleReservability выключает бронирование оборудования и отменяет все
// его будущие брони. Обе операции в одной транзакции. Возвращает число
// отменённых броней.
func (s *LifecycleService) ToggleReservability(ctx context.Context, equipmentID int64) (int64, error) {
	if equipmentID <= 0 {
		return 0, apperror.New(apperror.KindInvalidRequest, "equipment id is required")
	}

	var cancelled int64
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		found, err := s.equipmentRepo.SetReservable(ctx, equipmentID, false)
		if err != nil {
			return err
		}
		if !found {
			return apperror.ErrEquipmentNotFound
		}

		cancelled, err = s.reservationRepo.CancelFuture(ctx, equipmentID, s.now())
		return err
	})
	if err != nil {
		err = base.Classify(err)
		if apperror.KindOf(err) == apperror.KindStorage {
			s.logger.Error("Failed to toggle reservability", zap.Int64("equipment_id", equipmentID), zap.Error(err))
		}
		return 0, err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, equipmentID)
	}

	s.logger.Info("Equipment disabled",
		zap.Int64("equipment_id", equipmentID),
		zap.Int64("cancelled_reservations", cancelled),
	)
	s.audit.Record(ctx, audit.LevelInfo, "equipment reservability disabled", map[string]any{
		"equipment_id":           equipmentID,
		"cancelled_reservations": cancelled,
	})

	return cancelled, nil
}

// SetApprovalRequired меняет требование одобрения для новых броней
func (s *LifecycleService) SetApprovalRequired(ctx context.Context, equipmentID int64, required bool) (*model.Equipment, error) {
	if equipmentID <= 0 {
		return nil, apperror.New(apperror.KindInvalidRequest, "equipment id is required")
	}

	found, err := s.equipmentRepo.SetApprovalRequired(ctx, equipmentID, required)
	if err != nil {
		s.logger.Error("Failed to update equipment", zap.Int64("equipment_id", equipmentID), zap.Error(err))
		return nil, base.Classify(err)
	}
	if !found {
		return nil, apperror.ErrEquipmentNotFound
	}

	equipment, err := s.equipmentRepo.GetByID(ctx, equipmentID)
	if err != nil {
		return nil, base.Classify(err)
	}
	if equipment == nil {
		return nil, apperror.ErrEquipmentNotFound
	}

	s.logger.Info("Equipment approval requirement updated",
		zap.Int64("equipment_id", equipmentID),
		zap.Bool("approval_required", required),
	)
	s.audit.Record(ctx, audit.LevelInfo, "equipment updated", map[string]any{
		"equipment_id":      equipmentID,
		"approval_required": required,
	})

	return equipment, nil
}
