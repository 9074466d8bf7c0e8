package model

import "time"

type ReservationStatus string

const (
	ReservationStatusReserved         ReservationStatus = "Reserved"          // Активна
	ReservationStatusApprovalRequired ReservationStatus = "Approval Required" // Ожидает одобрения преподавателя
	ReservationStatusCancelled        ReservationStatus = "Cancelled"         // Отменена
)

// IsActive возвращает true для статусов, которые занимают время оборудования
func (s ReservationStatus) IsActive() bool {
	return s == ReservationStatusReserved || s == ReservationStatusApprovalRequired
}

type Reservation struct {
	ID          int64             `json:"ReservationId"`
	EquipmentID int64             `json:"EquipmentId"`
	NetID       string            `json:"NetId"`
	StartTime   time.Time         `json:"StartTime"`
	EndTime     time.Time         `json:"EndTime"`
	Status      ReservationStatus `json:"Status"`
}

// Overlaps проверяет пересечение полуинтервалов [start, end)
func (r *Reservation) Overlaps(start, end time.Time) bool {
	return r.StartTime.Before(end) && start.Before(r.EndTime)
}

// Covers проверяет что момент t лежит в [start, end) брони
func (r *Reservation) Covers(t time.Time) bool {
	return !t.Before(r.StartTime) && t.Before(r.EndTime)
}

// TimeInterval полуинтервал [Start, End), не хранится в БД
type TimeInterval struct {
	Start time.Time
	End   time.Time
}
