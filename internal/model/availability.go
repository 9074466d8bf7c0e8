package model

import "time"

// AvailableSlot свободный часовой слот оборудования
type AvailableSlot struct {
	LabID         int64     `json:"LabID"`
	LabName       string    `json:"LabName"`
	OpenHours     string    `json:"OpenHours"`
	CloseHours    string    `json:"CloseHours"`
	Day           string    `json:"Day"`
	TimeSlot      time.Time `json:"TimeSlot"`
	StartTimeSlot string    `json:"StartTimeSlot"`
	EndTimeSlot   string    `json:"EndTimeSlot"`
	EquipmentID   int64     `json:"EquipmentId"`
}
