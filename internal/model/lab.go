package model

import (
	"fmt"
	"time"
)

// Lab лаборатория с часами работы (время суток без даты)
type Lab struct {
	ID        int64         `json:"LabId"`
	Name      string        `json:"LabName"`
	Location  string        `json:"LabLocation"`
	OpenTime  time.Duration `json:"-"` // смещение от полуночи
	CloseTime time.Duration `json:"-"`
}

// IsOpenAt проверяет что начало слота попадает в [open, close)
func (l *Lab) IsOpenAt(t time.Time) bool {
	tod := TimeOfDay(t)
	return tod >= l.OpenTime && tod < l.CloseTime
}

// TimeOfDay возвращает смещение момента t от полуночи его дня
func TimeOfDay(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second
}

// FormatClock форматирует смещение от полуночи как HH:MM:SS
func FormatClock(d time.Duration) string {
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
