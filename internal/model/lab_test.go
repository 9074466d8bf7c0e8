package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLabIsOpenAt(t *testing.T) {
	lab := &Lab{OpenTime: 8 * time.Hour, CloseTime: 17*time.Hour + 30*time.Minute}
	day := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		at   time.Duration
		open bool
	}{
		{7 * time.Hour, false},
		{8 * time.Hour, true},
		{17 * time.Hour, true},
		{17*time.Hour + 30*time.Minute, false},
		{23 * time.Hour, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.open, lab.IsOpenAt(day.Add(tt.at)), FormatClock(tt.at))
	}
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "00:00:00", FormatClock(0))
	assert.Equal(t, "09:05:30", FormatClock(9*time.Hour+5*time.Minute+30*time.Second))
	assert.Equal(t, "24:00:00", FormatClock(24*time.Hour))
}
