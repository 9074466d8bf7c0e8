package model

type Equipment struct {
	ID               int64  `json:"EquipmentId"`
	LabID            int64  `json:"LabId"`
	Name             string `json:"EquipmentName"`
	Category         string `json:"Category"`
	IsReservable     bool   `json:"IsReservable"`
	ApprovalRequired bool   `json:"ApprovalRequired"`
}

// InitialReservationStatus статус новой брони для этого оборудования
func (e *Equipment) InitialReservationStatus() ReservationStatus {
	if e.ApprovalRequired {
		return ReservationStatusApprovalRequired
	}
	return ReservationStatusReserved
}
