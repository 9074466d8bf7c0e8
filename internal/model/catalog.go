package model

import "time"

// EquipmentListItem строка списка оборудования для студента
type EquipmentListItem struct {
	EquipmentID      int64   `json:"EquipmentId"`
	LabID            int64   `json:"LabId"`
	Name             string  `json:"EquipmentName"`
	Category         string  `json:"Category"`
	IsReservable     bool    `json:"IsReservable"`
	ApprovalRequired bool    `json:"ApprovalRequired"`
	LabName          *string `json:"LabName"`
}

type EquipmentPage struct {
	Count   int64                `json:"count"`
	Results []*EquipmentListItem `json:"results"`
}

// EquipmentFilter параметры выборки оборудования
type EquipmentFilter struct {
	NetID         string
	CourseCode    string // пусто - без фильтра по курсу
	NameSubstring string
	Page          int
	PageSize      int
}

// ReservationFilter параметры выборки броней
type ReservationFilter struct {
	StartFrom   *time.Time // StartTime >= StartFrom
	EndBefore   *time.Time // EndTime <= EndBefore
	EquipmentID *int64
	NetID       string
	Page        int
	PageSize    int
}

type ReservationPage struct {
	Count   int64          `json:"count"`
	Results []*Reservation `json:"results"`
}

// FacultyReservation бронь, ожидающая решения преподавателя
type FacultyReservation struct {
	ReservationID int64             `json:"ReservationId"`
	EquipmentName string            `json:"EquipmentName"`
	StudentName   string            `json:"Name"`
	NetID         string            `json:"NetId"`
	StartTime     time.Time         `json:"StartTime"`
	EndTime       time.Time         `json:"EndTime"`
	Status        ReservationStatus `json:"Status"`
}

type FacultyEquipment struct {
	LabID            int64  `json:"LabId"`
	EquipmentID      int64  `json:"EquipmentId"`
	Name             string `json:"EquipmentName"`
	ApprovalRequired bool   `json:"ApprovalRequired"`
	IsReservable     bool   `json:"IsReservable"`
}

type UsageReportRow struct {
	EquipmentID      int64   `json:"EquipmentId"`
	EquipmentName    string  `json:"EquipmentName"`
	LabName          string  `json:"LabName"`
	ReservationCount int64   `json:"ReservationCount"`
	HoursBooked      float64 `json:"TotalHoursBooked"`
}

type CourseLoadRow struct {
	CRN         int64   `json:"CRN"`
	CourseName  string  `json:"CourseName"`
	HoursBooked float64 `json:"TotalHoursBooked"`
}
