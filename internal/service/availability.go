package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/uniquip/internal/apperror"
	"github.com/Freeeeeet/uniquip/internal/model"
	"github.com/Freeeeeet/uniquip/internal/repository/base"
)

const dayLayout = "2006-01-02"

// StartOfDay полночь дня t в его часовом поясе
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ComputeAvailability перебирает часы [0, 24) дня и оставляет те, что
// начинаются в рабочие часы лаборатории и не попадают ни в одну активную бронь.
// Несуществующий из-за перехода на летнее время час пропускается.
func ComputeAvailability(equipment *model.Equipment, lab *model.Lab, day time.Time, reservations []*model.Reservation) []model.AvailableSlot {
	midnight := StartOfDay(day)
	slots := make([]model.AvailableSlot, 0, 24)

	for h := 0; h < 24; h++ {
		start := time.Date(midnight.Year(), midnight.Month(), midnight.Day(), h, 0, 0, 0, midnight.Location())
		// Часа нет в этих сутках (перевод часов вперёд)
		if start.Hour() != h {
			continue
		}
		offset := model.TimeOfDay(start)

		if !lab.IsOpenAt(start) {
			continue
		}
		if isTaken(start, reservations) {
			continue
		}

		slots = append(slots, model.AvailableSlot{
			LabID:         lab.ID,
			LabName:       lab.Name,
			OpenHours:     model.FormatClock(lab.OpenTime),
			CloseHours:    model.FormatClock(lab.CloseTime),
			Day:           midnight.Format(dayLayout),
			TimeSlot:      start,
			StartTimeSlot: model.FormatClock(offset),
			EndTimeSlot:   model.FormatClock(offset + time.Hour),
			EquipmentID:   equipment.ID,
		})
	}

	return slots
}

func isTaken(slotStart time.Time, reservations []*model.Reservation) bool {
	for _, r := range reservations {
		if r.Status.IsActive() && r.Covers(slotStart) {
			return true
		}
	}
	return false
}

type AvailabilityService struct {
	equipmentRepo   EquipmentRepository
	reservationRepo ReservationRepository
	cache           AvailabilityCache
	logger          *zap.Logger
}

func NewAvailabilityService(
	equipmentRepo EquipmentRepository,
	reservationRepo ReservationRepository,
	cache AvailabilityCache,
	logger *zap.Logger,
) *AvailabilityService {
	return &AvailabilityService{
		equipmentRepo:   equipmentRepo,
		reservationRepo: reservationRepo,
		cache:           cache,
		logger:          logger,
	}
}

// Available возвращает свободные слоты оборудования на день date.
// Пустой результат не ошибка.
func (s *AvailabilityService) Available(ctx context.Context, equipmentID int64, date time.Time) ([]model.AvailableSlot, error) {
	if equipmentID <= 0 {
		return nil, apperror.New(apperror.KindInvalidRequest, "equipment_id is required")
	}
	if date.IsZero() {
		return nil, apperror.New(apperror.KindInvalidRequest, "start_time is required")
	}

	day := StartOfDay(date)

	// Версия читается до запроса броней: запись, сделанная после
	// параллельного Invalidate, попадёт под устаревший ключ
	var version int64
	if s.cache != nil {
		slots, ver, ok := s.cache.Get(ctx, equipmentID, day)
		if ok {
			return slots, nil
		}
		version = ver
	}

	equipment, lab, err := s.equipmentRepo.GetWithLab(ctx, equipmentID)
	if err != nil {
		s.logger.Error("Failed to load equipment", zap.Int64("equipment_id", equipmentID), zap.Error(err))
		return nil, base.Classify(err)
	}
	if equipment == nil || lab == nil {
		return nil, apperror.ErrEquipmentNotFound
	}

	reservations, err := s.reservationRepo.ListActiveBetween(ctx, equipmentID, day, day.AddDate(0, 0, 1))
	if err != nil {
		s.logger.Error("Failed to load reservations", zap.Int64("equipment_id", equipmentID), zap.Error(err))
		return nil, base.Classify(err)
	}

	slots := ComputeAvailability(equipment, lab, day, reservations)

	if s.cache != nil {
		s.cache.Set(ctx, equipmentID, day, version, slots)
	}

	return slots, nil
}
